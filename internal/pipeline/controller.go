// Package pipeline drives the highlight workflow: it owns the stage machine,
// the busy guard and the last error, and sequences the reference store,
// transcript aggregation, search, refinement, timing overlay and render
// submission.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/timing"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/transcript"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/videoref"
)

var (
	// ErrBusy rejects an operation issued while another is in flight.
	ErrBusy = errors.New("another operation is in progress")
	// ErrStageLocked rejects navigation past the furthest stage reached.
	ErrStageLocked = errors.New("stage not reached yet")
	// ErrWrongStage is wrapped by StageError.
	ErrWrongStage = errors.New("operation not available at current stage")
	// ErrNoSegments fails a fetch that produced nothing when segments are
	// required.
	ErrNoSegments = errors.New("no transcript segments were fetched")
	// ErrNoReferences rejects a fetch with an empty reference list.
	ErrNoReferences = &apperr.ValidationError{Field: "videos", Reason: "add at least one video first"}
)

// StageError reports an operation attempted outside the stage that owns it.
type StageError struct {
	Op   string
	Want Stage
	Have Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s requires the %s stage (currently %s)", e.Op, e.Want, e.Have)
}

func (e *StageError) Unwrap() error { return ErrWrongStage }

type Fetcher interface {
	FetchAll(ctx context.Context, refs []videoref.Reference, maxChunkSize int) (transcript.Result, error)
}

type Searcher interface {
	Search(ctx context.Context, segments []mediaservice.Segment, query string, topK int) ([]mediaservice.Snippet, error)
}

type Refiner interface {
	Refine(ctx context.Context, snippets []mediaservice.Snippet, query string) ([]mediaservice.Snippet, error)
}

type Renderer interface {
	CreateVideo(ctx context.Context, youtubeURL string, snippets []mediaservice.TimedSnippet) (string, error)
}

type Config struct {
	MaxChunkSize    int
	DefaultTopK     int
	RequireSegments bool
	ValidateTiming  bool
}

type Controller struct {
	fetcher  Fetcher
	searcher Searcher
	refiner  Refiner
	renderer Renderer
	cfg      Config
	logger   *slog.Logger
	observer Observer

	// emitMu keeps observer delivery in transition order. It is taken
	// while mu is held and released after delivery.
	emitMu sync.Mutex

	mu        sync.Mutex
	state     State
	videos    *videoref.Store
	segments  []mediaservice.Segment
	primary   string
	notices   []transcript.Notice
	query     string
	snippets  []mediaservice.Snippet
	overlay   *timing.Overlay
	submitted []mediaservice.TimedSnippet
}

func NewController(fetcher Fetcher, searcher Searcher, refiner Refiner, renderer Renderer, cfg Config, observer Observer, logger *slog.Logger) *Controller {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = 200
	}
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Controller{
		fetcher:  fetcher,
		searcher: searcher,
		refiner:  refiner,
		renderer: renderer,
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		state:    initialState(),
		videos:   videoref.NewStore(),
	}
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Videos() []videoref.Reference {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videos.List()
}

func (c *Controller) Segments() []mediaservice.Segment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mediaservice.Segment(nil), c.segments...)
}

func (c *Controller) Snippets() []mediaservice.Snippet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]mediaservice.Snippet(nil), c.snippets...)
}

// Notices returns the per-video failures of the most recent fetch.
func (c *Controller) Notices() []transcript.Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]transcript.Notice(nil), c.notices...)
}

func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Controller) Primary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primary
}

// Timing returns the overlay entries being edited, or nil when no overlay
// exists.
func (c *Controller) Timing() []timing.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay == nil {
		return nil
	}
	return c.overlay.Entries()
}

// CutList returns the timed snippets being edited, or the last submitted
// set once the overlay has been consumed by a render.
func (c *Controller) CutList() []mediaservice.TimedSnippet {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.overlay != nil {
		return c.overlay.Finalize()
	}
	return append([]mediaservice.TimedSnippet(nil), c.submitted...)
}

// Accept leaves the welcome step.
func (c *Controller) Accept(ctx context.Context) error {
	c.mu.Lock()
	if err := c.admitLocked(OpAccept, StageWelcome); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = c.state.advance(StageFetch)
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpAccept, PhaseSucceeded, nil))
	return nil
}

func (c *Controller) AddVideo(ctx context.Context, rawURL string) (videoref.Reference, error) {
	c.mu.Lock()
	if err := c.admitLocked(OpAddVideo, StageFetch); err != nil {
		c.mu.Unlock()
		return videoref.Reference{}, err
	}
	ref, err := c.videos.Add(rawURL)
	if err != nil {
		c.mu.Unlock()
		return videoref.Reference{}, err
	}
	c.logger.Info("video added", "video_id", ref.ID, "count", c.videos.Len())
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpAddVideo, PhaseSucceeded, nil))
	return ref, nil
}

func (c *Controller) RemoveVideo(ctx context.Context, index int) (videoref.Reference, error) {
	c.mu.Lock()
	if err := c.admitLocked(OpRemoveVideo, StageFetch); err != nil {
		c.mu.Unlock()
		return videoref.Reference{}, err
	}
	ref, err := c.videos.Remove(index)
	if err != nil {
		c.mu.Unlock()
		return videoref.Reference{}, err
	}
	c.logger.Info("video removed", "video_id", ref.ID, "count", c.videos.Len())
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpRemoveVideo, PhaseSucceeded, nil))
	return ref, nil
}

// Fetch segments every reference and replaces the working set. Per-video
// failures are returned as notices in the result and do not fail the call.
func (c *Controller) Fetch(ctx context.Context) (transcript.Result, error) {
	c.mu.Lock()
	if err := c.admitLocked(OpFetch, StageFetch); err != nil {
		c.mu.Unlock()
		return transcript.Result{}, err
	}
	if c.videos.Len() == 0 {
		c.mu.Unlock()
		return transcript.Result{}, ErrNoReferences
	}
	refs := c.videos.List()
	opID := c.beginLocked(ctx, OpFetch)

	res, err := c.fetcher.FetchAll(ctx, refs, c.cfg.MaxChunkSize)
	if err == nil && c.cfg.RequireSegments && res.AllFailed() {
		err = fmt.Errorf("%w: all %d videos failed", ErrNoSegments, len(refs))
	}

	c.mu.Lock()
	c.notices = res.Notices
	if err != nil {
		c.failLocked(ctx, opID, OpFetch, err)
		return res, err
	}
	c.segments = res.Segments
	c.primary = res.Primary
	c.query = ""
	c.snippets = nil
	c.overlay = nil
	c.submitted = nil
	c.state = c.state.settle().withoutArtifact().advance(StageSearch)
	c.logger.Info("fetch completed",
		"operation_id", opID,
		"segments", len(res.Segments),
		"failed_videos", len(res.Notices),
	)

	ev := c.eventLocked(opID, OpFetch, PhaseSucceeded, nil)
	for _, n := range res.Notices {
		ev.Notices = append(ev.Notices, n.Error())
	}
	c.unlockAndEmit(ctx, ev)
	return res, nil
}

// Search replaces the snippet set with the ranked results for query. A
// topK below one uses the configured default.
func (c *Controller) Search(ctx context.Context, query string, topK int) ([]mediaservice.Snippet, error) {
	q := strings.TrimSpace(query)
	if topK < 1 {
		topK = c.cfg.DefaultTopK
	}

	c.mu.Lock()
	if err := c.admitLocked(OpSearch, StageSearch); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if q == "" {
		c.mu.Unlock()
		return nil, apperr.Validation("query", "must not be blank")
	}
	if len(c.segments) == 0 {
		c.mu.Unlock()
		return nil, apperr.Validation("segments", "no transcript segments to search")
	}
	segments := c.segments
	opID := c.beginLocked(ctx, OpSearch)

	results, err := c.searcher.Search(ctx, segments, q, topK)

	c.mu.Lock()
	if err != nil {
		c.failLocked(ctx, opID, OpSearch, err)
		return nil, err
	}
	c.query = q
	c.snippets = results
	c.overlay = nil
	c.submitted = nil
	c.state = c.state.settle().withoutArtifact().advance(StageRefine)
	c.logger.Info("search completed", "operation_id", opID, "snippets", len(results), "top_k", topK)
	c.unlockAndEmit(ctx, c.eventLocked(opID, OpSearch, PhaseSucceeded, nil))
	return append([]mediaservice.Snippet(nil), results...), nil
}

// Refine reorders the snippet set with the remote ranking step and moves on
// to timing adjustment.
func (c *Controller) Refine(ctx context.Context) ([]mediaservice.Snippet, error) {
	c.mu.Lock()
	if err := c.admitLocked(OpRefine, StageRefine); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if len(c.snippets) == 0 {
		c.mu.Unlock()
		return nil, apperr.Validation("snippets", "nothing to refine")
	}
	snippets, query := c.snippets, c.query
	opID := c.beginLocked(ctx, OpRefine)

	refined, err := c.refiner.Refine(ctx, snippets, query)

	c.mu.Lock()
	if err != nil {
		c.failLocked(ctx, opID, OpRefine, err)
		return nil, err
	}
	c.snippets = refined
	c.overlay = timing.New(refined)
	c.state = c.state.settle().advance(StageCreate)
	c.logger.Info("refine completed", "operation_id", opID, "snippets", len(refined))
	c.unlockAndEmit(ctx, c.eventLocked(opID, OpRefine, PhaseSucceeded, nil))
	return append([]mediaservice.Snippet(nil), refined...), nil
}

// SkipRefine moves to timing adjustment keeping the search order.
func (c *Controller) SkipRefine(ctx context.Context) error {
	c.mu.Lock()
	if err := c.admitLocked(OpSkipRefine, StageRefine); err != nil {
		c.mu.Unlock()
		return err
	}
	c.overlay = timing.New(c.snippets)
	c.state = c.state.advance(StageCreate)
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpSkipRefine, PhaseSucceeded, nil))
	return nil
}

// SetShift records a start or end shift for the snippet at index and
// returns the coerced value.
func (c *Controller) SetShift(index int, field, value string) (float64, error) {
	f, err := timing.ParseField(field)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.admitLocked(OpSetShift, StageCreate); err != nil {
		return 0, err
	}
	if c.overlay == nil || !c.overlay.Matches(c.snippets) {
		c.overlay = timing.New(c.snippets)
	}
	return c.overlay.SetShift(index, f, value)
}

// Create submits the timed snippets for rendering against the primary
// video and moves to preview with the returned artifact path.
func (c *Controller) Create(ctx context.Context) (string, error) {
	c.mu.Lock()
	if err := c.admitLocked(OpCreate, StageCreate); err != nil {
		c.mu.Unlock()
		return "", err
	}
	if len(c.snippets) == 0 {
		c.mu.Unlock()
		return "", apperr.Validation("snippets", "nothing to render")
	}
	if c.primary == "" {
		c.mu.Unlock()
		return "", apperr.Validation("videos", "no primary video")
	}
	if c.overlay == nil || !c.overlay.Matches(c.snippets) {
		c.logger.Warn("rebuilding stale timing overlay", "snippets", len(c.snippets))
		c.overlay = timing.New(c.snippets)
	}
	if c.cfg.ValidateTiming {
		if err := c.overlay.Validate(); err != nil {
			c.mu.Unlock()
			return "", err
		}
	}
	timed := c.overlay.Finalize()
	primary, query := c.primary, c.query
	opID := c.beginLocked(ctx, OpCreate)

	videoPath, err := c.renderer.CreateVideo(ctx, primary, timed)

	c.mu.Lock()
	if err != nil {
		c.failLocked(ctx, opID, OpCreate, err)
		return "", err
	}
	c.overlay = nil
	c.submitted = timed
	c.state = c.state.settle().withArtifact(videoPath).advance(StagePreview)
	c.logger.Info("render completed", "operation_id", opID, "video_path", videoPath, "snippets", len(timed))

	ev := c.eventLocked(opID, OpCreate, PhaseSucceeded, nil)
	ev.Render = &Render{
		VideoPath:    videoPath,
		SourceURL:    primary,
		Query:        query,
		SnippetCount: len(timed),
	}
	c.unlockAndEmit(ctx, ev)
	return videoPath, nil
}

// Navigate enters a stage that has already been reached. Entering the
// create stage from elsewhere starts a fresh timing overlay.
func (c *Controller) Navigate(ctx context.Context, to Stage) error {
	if !to.Valid() {
		return apperr.Validation("stage", fmt.Sprintf("unknown stage %d", int(to)))
	}
	if to == StageWelcome {
		return apperr.Validation("stage", "the welcome step cannot be re-entered")
	}

	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if to > c.state.HighestStageReached {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s (furthest is %s)", ErrStageLocked, to, c.state.HighestStageReached)
	}
	if to == StageCreate && c.state.Stage != StageCreate {
		c.overlay = timing.New(c.snippets)
	}
	c.state = c.state.enter(to)
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpNavigate, PhaseSucceeded, nil))
	return nil
}

// Reset clears the session's references, working sets and outcome and
// returns to reference collection.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.videos.Reset()
	c.segments = nil
	c.primary = ""
	c.notices = nil
	c.query = ""
	c.snippets = nil
	c.overlay = nil
	c.submitted = nil
	c.state = c.state.reset()
	c.logger.Info("pipeline reset")
	c.unlockAndEmit(ctx, c.eventLocked(uuid.NewString(), OpReset, PhaseSucceeded, nil))
	return nil
}

func (c *Controller) admitLocked(op string, want Stage) error {
	if c.state.Busy {
		return ErrBusy
	}
	if c.state.Stage != want {
		return &StageError{Op: op, Want: want, Have: c.state.Stage}
	}
	return nil
}

// beginLocked marks the operation in flight, releases mu and reports the
// start. It returns the operation id.
func (c *Controller) beginLocked(ctx context.Context, kind string) string {
	opID := uuid.NewString()
	c.state = c.state.begin()
	c.logger.Info("operation started", "op", kind, "operation_id", opID, "stage", c.state.Stage.String())
	c.unlockAndEmit(ctx, c.eventLocked(opID, kind, PhaseStarted, nil))
	return opID
}

// failLocked settles a failed operation, leaving the stage unchanged, and
// releases mu.
func (c *Controller) failLocked(ctx context.Context, opID, kind string, err error) {
	c.state = c.state.fail(err)
	c.logger.Error("operation failed", "op", kind, "operation_id", opID, "error", err)
	c.unlockAndEmit(ctx, c.eventLocked(opID, kind, PhaseFailed, err))
}

func (c *Controller) eventLocked(opID, kind string, phase Phase, err error) Event {
	ev := Event{
		OperationID: opID,
		Kind:        kind,
		Phase:       phase,
		State:       c.state,
		At:          time.Now().UTC(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// unlockAndEmit releases mu and delivers events to the observer. Delivery
// is serialized so observers see transitions in the order they happened.
func (c *Controller) unlockAndEmit(ctx context.Context, events ...Event) {
	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()

	octx := context.WithoutCancel(ctx)
	for _, ev := range events {
		c.observer.Observe(octx, ev)
	}
}
