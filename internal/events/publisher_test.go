package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeRedis struct {
	channel  string
	messages [][]byte
	err      error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *goredis.IntCmd {
	f.channel = channel
	if b, ok := message.([]byte); ok {
		f.messages = append(f.messages, b)
	}
	return goredis.NewIntResult(1, f.err)
}

func TestPublisher_PublishesEventJSON(t *testing.T) {
	fake := &fakeRedis{}
	p := newPublisher(fake, "", testLogger())

	p.Observe(context.Background(), pipeline.Event{
		OperationID: "op-1",
		Kind:        pipeline.OpFetch,
		Phase:       pipeline.PhaseSucceeded,
		State:       pipeline.State{Stage: pipeline.StageSearch, HighestStageReached: pipeline.StageSearch},
		Notices:     []string{"video 1 (u): no captions"},
	})

	if fake.channel != DefaultChannel {
		t.Errorf("channel = %q, want %q", fake.channel, DefaultChannel)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(fake.messages))
	}

	var got struct {
		OperationID string   `json:"operationId"`
		Kind        string   `json:"kind"`
		Phase       string   `json:"phase"`
		Notices     []string `json:"notices"`
		State       struct {
			Stage               string `json:"stage"`
			HighestStageReached string `json:"highestStageReached"`
		} `json:"state"`
	}
	if err := json.Unmarshal(fake.messages[0], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.OperationID != "op-1" || got.Kind != "fetch" || got.Phase != "succeeded" {
		t.Errorf("event = %+v", got)
	}
	if got.State.Stage != "search" || got.State.HighestStageReached != "search" {
		t.Errorf("state = %+v", got.State)
	}
	if len(got.Notices) != 1 {
		t.Errorf("notices = %v", got.Notices)
	}
}

func TestPublisher_CustomChannel(t *testing.T) {
	fake := &fakeRedis{}
	p := newPublisher(fake, " studio ", testLogger())
	p.Observe(context.Background(), pipeline.Event{Kind: pipeline.OpReset, State: pipeline.State{Stage: pipeline.StageFetch}})
	if fake.channel != "studio" {
		t.Errorf("channel = %q, want studio", fake.channel)
	}
}

func TestPublisher_ErrorsAreSwallowed(t *testing.T) {
	fake := &fakeRedis{err: errors.New("connection refused")}
	p := newPublisher(fake, "c", testLogger())

	// must not panic or block
	p.Observe(context.Background(), pipeline.Event{Kind: pipeline.OpAccept, State: pipeline.State{Stage: pipeline.StageFetch}})
	if len(fake.messages) != 1 {
		t.Errorf("publish attempts = %d, want 1", len(fake.messages))
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestNewRedisPublisher_RequiresAddress(t *testing.T) {
	if _, err := NewRedisPublisher(context.Background(), "  ", "c", testLogger()); err == nil {
		t.Fatal("expected error for empty address")
	}
}
