// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package simulate benchmarks the scoring measures by Monte-Carlo
// simulation. For every sufficiently large target it draws synthetic
// queries mixing members of that target (signal) with other universe
// elements (noise), ranks every target under every measure, and records
// where the true target lands.
package simulate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/pdiddy/blastsets/internal/enrich"
	"github.com/pdiddy/blastsets/internal/score"
	"github.com/pdiddy/blastsets/pkg/types"
)

// Harness owns the random source of one simulation run. It is not safe for
// concurrent use.
type Harness struct {
	seed   int64
	rng    *rand.Rand
	logger *slog.Logger
	now    func() time.Time
}

// New returns a harness seeded with seed. A zero seed picks a time-based
// one; Seed reports the value actually used.
func New(seed int64, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Harness{
		seed:   seed,
		rng:    rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		logger: logger,
		now:    time.Now,
	}
}

// Seed returns the seed of the random source.
func (h *Harness) Seed() int64 {
	return h.seed
}

// candidate is one target prepared for repeated overlap counting.
type candidate struct {
	id      string
	name    string
	members types.ElementSet
	sorted  []string
}

// Run executes the sweep over sets and returns one record per (target,
// size, signal, repetition, measure). Progress lines go to w. The universe
// supplies both N and the noise pool; elements of a target that are absent
// from universe.Elements are never drawn as noise.
func (h *Harness) Run(ctx context.Context, universe types.Universe, sets []types.TargetSet, sweep types.SweepConfig, w io.Writer) ([]types.RankRecord, error) {
	if err := sweep.Validate(); err != nil {
		return nil, err
	}
	measures, err := score.ParseMeasures(sweep.Measures)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = io.Discard
	}

	cands := prepare(sets)
	total := len(cands) * len(sweep.Sizes) * len(sweep.Signals) * sweep.Reps * len(measures)
	h.logger.Info("simulation started",
		"targets", len(cands), "population", universe.Size,
		"tasks", total, "seed", h.seed)

	var (
		records []types.RankRecord
		tasks   int
		start   = h.now()
	)
	for _, target := range cands {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		tsize := target.members.Len()
		if tsize < sweep.MinTargetSize {
			continue
		}
		pool := noisePool(universe.Elements, target.members)

		for _, qsize := range sweep.Sizes {
			for _, signal := range sweep.Signals {
				for rep := 0; rep < sweep.Reps; rep++ {
					cSignal := max(1, int(math.Round(signal*float64(qsize))))
					if tsize < cSignal || len(pool) < qsize-cSignal {
						continue
					}
					query := types.NewElementSet(h.sample(target.sorted, cSignal))
					for _, id := range h.sample(pool, qsize-cSignal) {
						query[id] = struct{}{}
					}
					qlen := query.Len()

					overlaps := make([]int, len(cands))
					for i, other := range cands {
						overlaps[i] = len(query.Intersect(other.sorted))
					}

					for _, m := range measures {
						rank, val := rankOf(target.id, cands, overlaps, qlen, universe.Size, m)
						rec := types.RankRecord{
							Target: target.id,
							SimulationConfig: types.SimulationConfig{
								QuerySize: qsize,
								Signal:    signal,
								Rep:       rep,
								Measure:   m.String(),
							},
							QuerySizeActual: qlen,
							TargetSize:      tsize,
						}
						if rank > 0 {
							rec.Rank = &rank
							rec.Score = &val
						}
						records = append(records, rec)

						tasks++
						if sweep.ProgressEvery > 0 && tasks%sweep.ProgressEvery == 0 {
							fmt.Fprintf(w, "progress: %d/%d tasks, elapsed %.1fs\n",
								tasks, total, h.now().Sub(start).Seconds())
						}
					}
				}
			}
		}
	}

	h.logger.Info("simulation finished", "records", len(records),
		"elapsed", h.now().Sub(start).Round(time.Millisecond))
	return records, nil
}

// prepare copies sets in id order with sorted, deduplicated members.
func prepare(sets []types.TargetSet) []candidate {
	merged := types.MergeSets(sets)
	out := make([]candidate, 0, len(merged))
	for _, s := range merged {
		out = append(out, candidate{
			id:      s.ID,
			name:    s.Name,
			members: types.NewElementSet(s.Members),
			sorted:  s.Members,
		})
	}
	return out
}

// noisePool returns the universe elements outside target, in universe
// order.
func noisePool(elements []string, target types.ElementSet) []string {
	pool := make([]string, 0, len(elements))
	for _, e := range elements {
		if !target.Has(e) {
			pool = append(pool, e)
		}
	}
	return pool
}

// sample draws k distinct items from src uniformly without replacement
// using a partial Fisher-Yates shuffle. src is not modified.
func (h *Harness) sample(src []string, k int) []string {
	if k <= 0 {
		return nil
	}
	buf := make([]string, len(src))
	copy(buf, src)
	for i := 0; i < k; i++ {
		j := i + h.rng.IntN(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}

// rankOf scores every candidate under m and returns the 1-based rank of
// the candidate with id trueID and its score. Rank is 0 when trueID is not
// among the candidates.
func rankOf(trueID string, cands []candidate, overlaps []int, q, n int, m score.Measure) (int, float64) {
	rows := make([]types.ScoreResult, len(cands))
	for i, c := range cands {
		t := c.members.Len()
		rows[i] = types.ScoreResult{
			ID:         c.id,
			Name:       c.name,
			Common:     overlaps[i],
			TargetSize: t,
			Score:      m.Score(overlaps[i], q, t, n),
		}
	}
	enrich.SortResults(rows)

	for i, r := range rows {
		if r.ID == trueID {
			return i + 1, r.Score
		}
	}
	return 0, 0
}
