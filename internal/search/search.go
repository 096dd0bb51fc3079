// Package search runs the relevance search over the fetched transcript
// segments.
package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
)

const DefaultTopK = 5

type Scorer interface {
	SearchSnippets(ctx context.Context, chunks []mediaservice.Segment, query string, topK int) ([]mediaservice.Snippet, error)
}

type Client struct {
	scorer Scorer
	logger *slog.Logger
}

func NewClient(scorer Scorer, logger *slog.Logger) *Client {
	return &Client{scorer: scorer, logger: logger}
}

// Search sends every segment and the trimmed query in one request and
// returns at most topK ranked snippets. A topK below one means DefaultTopK.
func (c *Client) Search(ctx context.Context, segments []mediaservice.Segment, query string, topK int) ([]mediaservice.Snippet, error) {
	if len(segments) == 0 {
		return nil, apperr.Validation("segments", "no transcript segments to search")
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperr.Validation("query", "must not be blank")
	}
	if topK < 1 {
		topK = DefaultTopK
	}

	results, err := c.scorer.SearchSnippets(ctx, segments, q, topK)
	if err != nil {
		return nil, err
	}
	if len(results) > topK {
		c.logger.Warn("search returned more results than requested",
			"requested", topK,
			"returned", len(results),
		)
		results = results[:topK]
	}
	if results == nil {
		results = []mediaservice.Snippet{}
	}
	return results, nil
}
