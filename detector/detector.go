// Package detector narrows a list of candidate format patterns down to those that
// fully parse every example date string of a batch.
package detector

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/goccy/date-detector/internal/timeparser"
	"github.com/goccy/date-detector/types"
)

// Detect returns the patterns that fully parse every non-empty string in dates.
//
// An empty string in dates is an absent example and is skipped. An empty string in
// patterns is a placeholder: it and every pattern after it are never considered.
// With no non-empty example the result is empty.
//
// Patterns are eliminated online with swap removal, so a pattern that fails an early
// example is never tested against the later ones. The survivors are returned in the
// order the swaps leave them, not in input order. The caller's slices are not modified.
func Detect(dates []string, patterns []string) []string {
	if !hasExample(dates) {
		return []string{}
	}
	remaining := placeholderIndex(patterns)
	candidates := make([]string, remaining)
	copy(candidates, patterns[:remaining])

	t := types.NewExtTime()
	for _, date := range dates {
		if date == "" {
			continue
		}
		for idx := 0; idx < remaining; {
			*t = *types.NewExtTime()
			if timeparser.FullMatch(date, candidates[idx], t) {
				idx++
				continue
			}
			// The pattern moved into this slot has not been tested against date yet,
			// so idx does not advance.
			remaining--
			candidates[idx] = candidates[remaining]
			candidates[remaining] = ""
		}
	}
	return candidates[:remaining]
}

func hasExample(dates []string) bool {
	for _, date := range dates {
		if date != "" {
			return true
		}
	}
	return false
}

func placeholderIndex(patterns []string) int {
	for idx, pattern := range patterns {
		if pattern == "" {
			return idx
		}
	}
	return len(patterns)
}

// Batch is one independent detection request.
type Batch struct {
	Dates    []string
	Patterns []string
}

// DetectBatches runs Detect over independent batches concurrently.
// The i-th result belongs to the i-th batch.
func DetectBatches(ctx context.Context, batches []Batch) ([][]string, error) {
	results := make([][]string, len(batches))
	eg, ctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Detect(batch.Dates, batch.Patterns)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
