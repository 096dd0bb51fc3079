package history

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

// Recorder writes pipeline events to the repository. Write failures are
// logged and never reach the pipeline.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Observe(ctx context.Context, ev pipeline.Event) {
	status := StatusSucceeded
	switch ev.Phase {
	case pipeline.PhaseStarted:
		status = StatusRunning
	case pipeline.PhaseFailed:
		status = StatusFailed
	}

	op := &Operation{
		ID:        ev.OperationID,
		Kind:      ev.Kind,
		Status:    status,
		Stage:     ev.State.Stage.String(),
		Error:     ev.Error,
		CreatedAt: ev.At,
		UpdatedAt: ev.At,
	}
	if err := r.repo.UpsertOperation(ctx, op); err != nil {
		r.logger.Warn("failed to record operation", "operation_id", ev.OperationID, "kind", ev.Kind, "error", err)
		return
	}

	if ev.Render == nil {
		return
	}
	rd := &Render{
		ID:           uuid.NewString(),
		OperationID:  ev.OperationID,
		VideoPath:    ev.Render.VideoPath,
		SourceURL:    ev.Render.SourceURL,
		Query:        ev.Render.Query,
		SnippetCount: ev.Render.SnippetCount,
		CreatedAt:    ev.At,
	}
	if err := r.repo.CreateRender(ctx, rd); err != nil {
		r.logger.Warn("failed to record render", "operation_id", ev.OperationID, "error", err)
	}
}
