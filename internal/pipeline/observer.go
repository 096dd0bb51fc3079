package pipeline

import (
	"context"
	"time"
)

type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Operation kinds reported to observers.
const (
	OpAccept      = "accept"
	OpAddVideo    = "add_video"
	OpRemoveVideo = "remove_video"
	OpFetch       = "fetch"
	OpSearch      = "search"
	OpRefine      = "refine"
	OpSkipRefine  = "skip_refine"
	OpSetShift    = "set_shift"
	OpCreate      = "create"
	OpNavigate    = "navigate"
	OpReset       = "reset"
)

// Render describes a completed render submission.
type Render struct {
	VideoPath    string `json:"videoPath"`
	SourceURL    string `json:"sourceUrl"`
	Query        string `json:"query"`
	SnippetCount int    `json:"snippetCount"`
}

// Event reports one step of an operation together with the state it left
// behind.
type Event struct {
	OperationID string    `json:"operationId"`
	Kind        string    `json:"kind"`
	Phase       Phase     `json:"phase"`
	State       State     `json:"state"`
	Error       string    `json:"error,omitempty"`
	Notices     []string  `json:"notices,omitempty"`
	Render      *Render   `json:"render,omitempty"`
	At          time.Time `json:"at"`
}

// Observer receives every state transition. Observe is called outside the
// controller lock, in transition order, and must not call back into the
// controller; everything it needs is in the event.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// Observers fans an event out to each observer in turn.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}
