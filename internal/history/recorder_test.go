package history

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/db"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestRecorder_OperationLifecycle(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(repo, testLogger())
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec.Observe(ctx, pipeline.Event{
		OperationID: "op-1",
		Kind:        pipeline.OpSearch,
		Phase:       pipeline.PhaseStarted,
		State:       pipeline.State{Stage: pipeline.StageSearch, Busy: true},
		At:          started,
	})

	op, err := repo.GetOperation(ctx, "op-1")
	if err != nil || op == nil {
		t.Fatalf("GetOperation() = %v, %v", op, err)
	}
	if op.Status != StatusRunning || op.Stage != "search" {
		t.Errorf("after start = %+v", op)
	}

	rec.Observe(ctx, pipeline.Event{
		OperationID: "op-1",
		Kind:        pipeline.OpSearch,
		Phase:       pipeline.PhaseFailed,
		State:       pipeline.State{Stage: pipeline.StageSearch},
		Error:       "search: HTTP 500",
		At:          started.Add(2 * time.Second),
	})

	op, _ = repo.GetOperation(ctx, "op-1")
	if op.Status != StatusFailed || op.Error != "search: HTTP 500" {
		t.Errorf("after failure = %+v", op)
	}
	if !op.CreatedAt.Equal(started) {
		t.Errorf("created_at = %v, want %v", op.CreatedAt, started)
	}
	if !op.UpdatedAt.Equal(started.Add(2 * time.Second)) {
		t.Errorf("updated_at = %v", op.UpdatedAt)
	}
}

func TestRecorder_RecordsRender(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(repo, testLogger())
	ctx := context.Background()

	rec.Observe(ctx, pipeline.Event{
		OperationID: "op-2",
		Kind:        pipeline.OpCreate,
		Phase:       pipeline.PhaseSucceeded,
		State:       pipeline.State{Stage: pipeline.StagePreview, ArtifactPath: "/out/final.mp4"},
		Render: &pipeline.Render{
			VideoPath:    "/out/final.mp4",
			SourceURL:    "https://youtu.be/aaaaaaaaaaa",
			Query:        "goals",
			SnippetCount: 4,
		},
		At: time.Now().UTC(),
	})

	renders, err := repo.ListRenders(ctx, 10)
	if err != nil {
		t.Fatalf("ListRenders() error = %v", err)
	}
	if len(renders) != 1 {
		t.Fatalf("renders = %d, want 1", len(renders))
	}
	r := renders[0]
	if r.OperationID != "op-2" || r.VideoPath != "/out/final.mp4" || r.Query != "goals" || r.SnippetCount != 4 {
		t.Errorf("render = %+v", r)
	}
}

func TestRepository_ListOperationsNewestFirst(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		if err := repo.UpsertOperation(ctx, &Operation{
			ID: id, Kind: pipeline.OpNavigate, Status: StatusSucceeded, Stage: "fetch",
			CreatedAt: at, UpdatedAt: at,
		}); err != nil {
			t.Fatalf("UpsertOperation(%s) error = %v", id, err)
		}
	}

	ops, err := repo.ListOperations(ctx, 2)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 2 || ops[0].ID != "c" || ops[1].ID != "b" {
		t.Errorf("ops = %v", ops)
	}
}

func TestRepository_GetOperationMissing(t *testing.T) {
	repo := setupRepo(t)
	op, err := repo.GetOperation(context.Background(), "nope")
	if err != nil || op != nil {
		t.Errorf("GetOperation(missing) = %v, %v; want nil, nil", op, err)
	}
}

func TestRecorder_WiredIntoController(t *testing.T) {
	repo := setupRepo(t)
	rec := NewRecorder(repo, testLogger())
	ctrl := pipeline.NewController(nil, nil, nil, nil, pipeline.Config{}, rec, testLogger())

	if err := ctrl.Accept(context.Background()); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	ops, err := repo.ListOperations(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListOperations() error = %v", err)
	}
	if len(ops) != 1 || ops[0].Kind != pipeline.OpAccept || ops[0].Stage != "fetch" {
		t.Errorf("ops = %+v", ops)
	}
}
