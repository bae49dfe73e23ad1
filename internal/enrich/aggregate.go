// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pdiddy/blastsets/internal/score"
	"github.com/pdiddy/blastsets/pkg/types"
)

// ErrNoSignificantResult reports that no target survived filtering. It is
// a normal outcome, not a failure.
var ErrNoSignificantResult = errors.New("no significant enrichment found")

// NoSignificantMessage is printed in place of the table when nothing
// survives filtering.
const NoSignificantMessage = "No significant enrichment found."

// Options controls ranking, adjustment and filtering of one query.
type Options struct {
	Measure score.Measure

	// Alpha is the exclusive upper bound on the (adjusted) score.
	Alpha float64

	// Adjust applies the multiple-testing adjustment before filtering.
	Adjust bool

	// Limit keeps at most this many rows when positive.
	Limit int

	// Filter optionally drops rows after the alpha filter.
	Filter *Filter
}

// Score computes the raw score of every eligible target and returns the
// results in rank order. Targets with fewer than types.MinTargetSize
// members are skipped.
func Score(query types.QuerySet, sets []types.TargetSet, n int, m score.Measure) []types.ScoreResult {
	q := query.Len()
	results := make([]types.ScoreResult, 0, len(sets))
	for _, set := range sets {
		t := types.NewElementSet(set.Members).Len()
		if t < types.MinTargetSize {
			continue
		}
		common := query.Intersect(set.Members)
		c := len(common)
		results = append(results, types.ScoreResult{
			ID:         set.ID,
			Name:       set.Name,
			Common:     c,
			TargetSize: t,
			Score:      m.Score(c, q, t, n),
			Genes:      common,
		})
	}
	SortResults(results)
	return results
}

// SortResults orders results by ascending score, then descending overlap,
// then id.
func SortResults(results []types.ScoreResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.Common != b.Common {
			return a.Common > b.Common
		}
		return a.ID < b.ID
	})
}

// Adjust sets Adjusted on results already in rank order:
// score × m / rank, capped at 1.0, where m is len(results).
//
// This is a step-down scaling; it does not take the running minimum that
// Benjamini-Hochberg applies, so adjusted values need not be monotone in
// rank.
func Adjust(results []types.ScoreResult) {
	m := float64(len(results))
	for i := range results {
		adj := math.Min(results[i].Score*m/float64(i+1), 1.0)
		results[i].Adjusted = &adj
	}
}

// Aggregate scores, ranks, adjusts, filters and truncates the targets for
// one query. An empty outcome returns ErrNoSignificantResult.
func Aggregate(query types.QuerySet, sets []types.TargetSet, n int, opts Options) ([]types.ScoreResult, error) {
	results := Score(query, sets, n, opts.Measure)
	if opts.Adjust {
		Adjust(results)
	}

	kept := results[:0]
	for _, r := range results {
		if r.Significance() >= opts.Alpha {
			continue
		}
		if opts.Filter != nil {
			ok, err := opts.Filter.Match(r)
			if err != nil {
				return nil, fmt.Errorf("filtering %s: %w", r.ID, err)
			}
			if !ok {
				continue
			}
		}
		kept = append(kept, r)
	}

	if opts.Limit > 0 && len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}
	if len(kept) == 0 {
		return nil, ErrNoSignificantResult
	}
	return kept, nil
}
