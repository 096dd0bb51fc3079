// Package refine reorders search results using the remote ranking step.
package refine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/apperr"
	"github.com/FASALURAHMANMK/AI-Video-Editor/internal/mediaservice"
)

type Ranker interface {
	RefineSnippets(ctx context.Context, snippets []mediaservice.Snippet, query string) ([]int, error)
}

// ApplyOrder builds the list snippets[perm[0]], snippets[perm[1]], ...
// Indices outside the list are dropped, repeated indices repeat the snippet
// and snippets the permutation never names are left out. The result is
// never nil.
func ApplyOrder(snippets []mediaservice.Snippet, perm []int) []mediaservice.Snippet {
	out := make([]mediaservice.Snippet, 0, len(perm))
	for _, i := range perm {
		if i < 0 || i >= len(snippets) {
			continue
		}
		out = append(out, snippets[i])
	}
	return out
}

// ValidatePermutation reports the first index in perm that does not address
// an element of a list of length n.
func ValidatePermutation(perm []int, n int) error {
	for pos, i := range perm {
		if i < 0 || i >= n {
			return fmt.Errorf("order[%d] = %d is outside [0,%d)", pos, i, n)
		}
	}
	return nil
}

type Refiner struct {
	ranker Ranker
	strict bool
	logger *slog.Logger
}

// NewRefiner returns a Refiner. With strict set, a permutation containing an
// unusable index fails the refine instead of being applied partially.
func NewRefiner(ranker Ranker, strict bool, logger *slog.Logger) *Refiner {
	return &Refiner{ranker: ranker, strict: strict, logger: logger}
}

func (r *Refiner) Refine(ctx context.Context, snippets []mediaservice.Snippet, query string) ([]mediaservice.Snippet, error) {
	if len(snippets) == 0 {
		return nil, apperr.Validation("snippets", "nothing to refine")
	}

	perm, err := r.ranker.RefineSnippets(ctx, snippets, query)
	if err != nil {
		return nil, err
	}

	if verr := ValidatePermutation(perm, len(snippets)); verr != nil {
		if r.strict {
			return nil, &mediaservice.RemoteError{Op: "refine", Message: "invalid order: " + verr.Error()}
		}
		r.logger.Warn("dropping invalid refine indices", "error", verr, "order_len", len(perm))
	}

	out := ApplyOrder(snippets, perm)
	r.logger.Info("snippets refined", "before", len(snippets), "after", len(out))
	return out, nil
}
