// Package events publishes pipeline transitions to a Redis channel so other
// local tools can follow the session.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/pipeline"
)

const (
	DefaultChannel = "highlight.events"

	publishTimeout = 2 * time.Second
)

// publisher is the subset of *goredis.Client used here.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

type Publisher struct {
	rdb     publisher
	closer  func() error
	channel string
	logger  *slog.Logger
}

// NewRedisPublisher connects to addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, channel string, logger *slog.Logger) (*Publisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	p := newPublisher(rdb, channel, logger)
	p.closer = rdb.Close
	return p, nil
}

func newPublisher(rdb publisher, channel string, logger *slog.Logger) *Publisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{rdb: rdb, channel: channel, logger: logger}
}

// Observe publishes ev as JSON. Failures are logged and dropped.
func (p *Publisher) Observe(ctx context.Context, ev pipeline.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("failed to encode event", "kind", ev.Kind, "error", err)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(pctx, p.channel, raw).Err(); err != nil {
		p.logger.Warn("failed to publish event",
			"channel", p.channel,
			"kind", ev.Kind,
			"phase", string(ev.Phase),
			"error", err,
		)
	}
}

func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
