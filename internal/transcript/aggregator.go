// Package transcript fetches transcript segments for every reference in the
// session concurrently and merges them into one working set.
package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/videoref"
)

// Segmenter requests the transcript segments of a single video.
type Segmenter interface {
	TranscriptChunks(ctx context.Context, youtubeURL string, maxChunkSize int) ([]mediaservice.Segment, error)
}

// Notice records one reference whose segmentation failed. A notice does not
// fail the fetch as a whole.
type Notice struct {
	Position int    `json:"position"`
	URL      string `json:"url"`
	Err      error  `json:"-"`
}

func (n Notice) Error() string {
	return fmt.Sprintf("video %d (%s): %v", n.Position, n.URL, n.Err)
}

func (n Notice) Unwrap() error { return n.Err }

type Result struct {
	Segments  []mediaservice.Segment
	Notices   []Notice
	Primary   string
	Succeeded int
}

// AllFailed reports whether no reference produced segments.
func (r Result) AllFailed() bool {
	return r.Succeeded == 0
}

type Aggregator struct {
	segmenter Segmenter
	logger    *slog.Logger
}

func NewAggregator(segmenter Segmenter, logger *slog.Logger) *Aggregator {
	return &Aggregator{segmenter: segmenter, logger: logger}
}

type outcome struct {
	segments []mediaservice.Segment
	err      error
}

// FetchAll issues one segmentation request per reference, all at once, and
// waits for every one of them. Segments are tagged with their source URL and
// merged in reference order, then response order, regardless of which
// request finished first.
func (a *Aggregator) FetchAll(ctx context.Context, refs []videoref.Reference, maxChunkSize int) (Result, error) {
	if len(refs) == 0 {
		return Result{}, apperr.Validation("videos", "at least one video is required")
	}

	start := time.Now()
	outcomes := make([]outcome, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(refs))
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			segs, err := a.segmenter.TranscriptChunks(gctx, ref.URL, maxChunkSize)
			outcomes[i] = outcome{segments: segs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Primary: refs[0].URL}
	for i, o := range outcomes {
		if o.err != nil {
			a.logger.Warn("transcript fetch failed",
				"position", i,
				"url", refs[i].URL,
				"error", o.err,
			)
			res.Notices = append(res.Notices, Notice{Position: i, URL: refs[i].URL, Err: o.err})
			continue
		}
		res.Succeeded++
		for _, seg := range o.segments {
			seg.VideoURL = refs[i].URL
			res.Segments = append(res.Segments, seg)
		}
	}

	a.logger.Info("transcripts fetched",
		"videos", len(refs),
		"succeeded", res.Succeeded,
		"segments", len(res.Segments),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}
