// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package simulate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/blastsets/pkg/types"
)

// --- test helpers ---

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func members(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s_%d", prefix, i+1)
	}
	return out
}

// disjointSets returns six disjoint targets of ten members and one target
// too small to be simulated.
func disjointSets() []types.TargetSet {
	var sets []types.TargetSet
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("T%d", i)
		sets = append(sets, types.TargetSet{ID: id, Name: "target " + id, Members: members(id, 10)})
	}
	sets = append(sets, types.TargetSet{ID: "S", Name: "small", Members: members("S", 3)})
	return sets
}

// overlappingSets returns targets that share members, so rankings depend
// on the sampled query.
func overlappingSets() []types.TargetSet {
	var sets []types.TargetSet
	for i := 0; i < 8; i++ {
		var m []string
		for j := 0; j < 12; j++ {
			m = append(m, fmt.Sprintf("g%d", i*6+j))
		}
		sets = append(sets, types.TargetSet{ID: fmt.Sprintf("K%d", i), Members: m})
	}
	return sets
}

func testSweep() types.SweepConfig {
	return types.SweepConfig{
		Label:         "Keyword",
		Reps:          3,
		Sizes:         []int{5},
		Signals:       []float64{1.0},
		Measures:      []string{"binomial", "hypergeometric", "chi2", "coverage"},
		MinTargetSize: 5,
	}
}

// --- harness ---

func TestRun_FullSignalRanksTrueTargetFirst(t *testing.T) {
	sets := disjointSets()
	universe := types.UniverseFromSets(sets)
	require.Equal(t, 63, universe.Size)

	h := New(42, quietLogger())
	records, err := h.Run(context.Background(), universe, sets, testSweep(), nil)
	require.NoError(t, err)

	// 6 eligible targets x 3 reps x 4 measures; S is too small.
	require.Len(t, records, 72)
	for _, r := range records {
		assert.NotEqual(t, "S", r.Target)
		require.NotNil(t, r.Rank, "%s %s", r.Target, r.Measure)
		assert.Equal(t, 1, *r.Rank, "%s %s", r.Target, r.Measure)
		assert.Equal(t, 5, r.QuerySizeActual)
		assert.Equal(t, 10, r.TargetSize)
		require.NotNil(t, r.Score)
		assert.Less(t, *r.Score, 1.0)
	}

	summary := Summarize(records)
	require.Len(t, summary, 4)
	for _, row := range summary {
		assert.Equal(t, 1.0, row.P1, row.Measure)
		assert.Equal(t, 1.0, row.P5, row.Measure)
		assert.Equal(t, 1.0, row.MRR, row.Measure)
		assert.Equal(t, 18, row.Valid, row.Measure)
		require.NotNil(t, row.MedianRank)
		assert.Equal(t, 1.0, *row.MedianRank)
	}
}

func TestRun_FixedSeedIsReproducible(t *testing.T) {
	sets := overlappingSets()
	universe := types.UniverseFromSets(sets)
	sweep := testSweep()
	sweep.Sizes = []int{6, 10}
	sweep.Signals = []float64{0.25, 0.5}
	sweep.Reps = 2

	first, err := New(7, quietLogger()).Run(context.Background(), universe, sets, sweep, nil)
	require.NoError(t, err)
	second, err := New(7, quietLogger()).Run(context.Background(), universe, sets, sweep, nil)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestRun_InputOrderDoesNotMatter(t *testing.T) {
	sets := overlappingSets()
	universe := types.UniverseFromSets(sets)
	sweep := testSweep()
	sweep.Sizes = []int{8}
	sweep.Signals = []float64{0.5}

	reversed := make([]types.TargetSet, len(sets))
	for i, s := range sets {
		reversed[len(sets)-1-i] = s
	}

	a, err := New(11, quietLogger()).Run(context.Background(), universe, sets, sweep, nil)
	require.NoError(t, err)
	b, err := New(11, quietLogger()).Run(context.Background(), universe, reversed, sweep, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNew_SeedZeroPicksSeed(t *testing.T) {
	h := New(0, quietLogger())
	assert.NotZero(t, h.Seed())
	assert.Equal(t, int64(9), New(9, nil).Seed())
}

func TestRun_SkipsUnreachableConfigurations(t *testing.T) {
	target := types.TargetSet{ID: "T1", Members: members("T1", 10)}
	universe := types.Universe{Size: 12, Elements: append(members("T1", 10), "x1", "x2")}

	tests := []struct {
		name   string
		size   int
		signal float64
	}{
		{"not enough signal", 20, 1.0},
		{"not enough noise", 6, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sweep := testSweep()
			sweep.Sizes = []int{tt.size}
			sweep.Signals = []float64{tt.signal}

			records, err := New(1, quietLogger()).Run(context.Background(), universe, []types.TargetSet{target}, sweep, nil)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

func TestRun_SignalCountIsAtLeastOne(t *testing.T) {
	sets := disjointSets()
	universe := types.UniverseFromSets(sets)
	sweep := testSweep()
	sweep.Sizes = []int{4}
	sweep.Signals = []float64{0, 0.1}
	sweep.Measures = []string{"coverage"}
	sweep.Reps = 1

	records, err := New(3, quietLogger()).Run(context.Background(), universe, sets, sweep, nil)
	require.NoError(t, err)
	require.Len(t, records, 12)
	for _, r := range records {
		require.NotNil(t, r.Score)
		// One signal element in a query of 4 against a target of 10.
		assert.InDelta(t, 1-(1.0/4)*(1.0/10), *r.Score, 1e-12)
	}
}

func TestRun_Progress(t *testing.T) {
	sets := disjointSets()
	universe := types.UniverseFromSets(sets)
	sweep := testSweep()
	sweep.ProgressEvery = 24

	h := New(5, quietLogger())
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	var buf bytes.Buffer
	_, err := h.Run(context.Background(), universe, sets, sweep, &buf)
	require.NoError(t, err)

	// The total counts every target, including the one skipped for size.
	want := "progress: 24/84 tasks, elapsed 0.0s\n" +
		"progress: 48/84 tasks, elapsed 0.0s\n" +
		"progress: 72/84 tasks, elapsed 0.0s\n"
	assert.Equal(t, want, buf.String())
}

func TestRun_InvalidSweep(t *testing.T) {
	sets := disjointSets()
	universe := types.UniverseFromSets(sets)

	tests := []struct {
		name   string
		modify func(*types.SweepConfig)
	}{
		{"zero reps", func(s *types.SweepConfig) { s.Reps = 0 }},
		{"no sizes", func(s *types.SweepConfig) { s.Sizes = nil }},
		{"signal above one", func(s *types.SweepConfig) { s.Signals = []float64{1.5} }},
		{"unknown measure", func(s *types.SweepConfig) { s.Measures = []string{"jaccard"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sweep := testSweep()
			tt.modify(&sweep)
			_, err := New(1, quietLogger()).Run(context.Background(), universe, sets, sweep, nil)
			assert.ErrorIs(t, err, types.ErrInvalidConfig)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	sets := disjointSets()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(1, quietLogger()).Run(ctx, types.UniverseFromSets(sets), sets, testSweep(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// --- metrics ---

func rank(v int) *int { return &v }

func TestSummarize(t *testing.T) {
	rec := func(measure string, size int, signal float64, r *int) types.RankRecord {
		return types.RankRecord{
			Target:           "T",
			SimulationConfig: types.SimulationConfig{QuerySize: size, Signal: signal, Measure: measure},
			Rank:             r,
		}
	}
	records := []types.RankRecord{
		rec("coverage", 25, 0.75, nil),
		rec("binomial", 10, 0.5, rank(1)),
		rec("binomial", 10, 0.5, rank(3)),
		rec("binomial", 10, 0.25, rank(2)),
		rec("binomial", 10, 0.5, nil),
		rec("binomial", 10, 0.5, rank(6)),
		rec("coverage", 25, 0.75, nil),
	}

	rows := Summarize(records)
	require.Len(t, rows, 3)

	assert.Equal(t, "binomial", rows[0].Measure)
	assert.Equal(t, 0.25, rows[0].Signal)
	assert.Equal(t, 0.0, rows[0].P1)
	assert.Equal(t, 1.0, rows[0].P5)
	assert.Equal(t, 0.5, rows[0].MRR)
	require.NotNil(t, rows[0].MedianRank)
	assert.Equal(t, 2.0, *rows[0].MedianRank)

	assert.Equal(t, 0.5, rows[1].Signal)
	assert.Equal(t, 0.25, rows[1].P1)
	assert.Equal(t, 0.5, rows[1].P5)
	assert.InDelta(t, 0.375, rows[1].MRR, 1e-12)
	require.NotNil(t, rows[1].MedianRank)
	assert.Equal(t, 3.0, *rows[1].MedianRank)
	assert.Equal(t, 3, rows[1].Valid)

	assert.Equal(t, "coverage", rows[2].Measure)
	assert.Equal(t, 0.0, rows[2].MRR)
	assert.Nil(t, rows[2].MedianRank)
	assert.Equal(t, 0, rows[2].Valid)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]int{3, 1, 2}))
	assert.Equal(t, 2.5, median([]int{4, 1, 3, 2}))
	assert.Equal(t, 7.0, median([]int{7}))
}

// --- output ---

func sampleRecords() []types.RankRecord {
	return []types.RankRecord{
		{
			Target:           "KW-1",
			SimulationConfig: types.SimulationConfig{QuerySize: 10, Signal: 0.5, Rep: 0, Measure: "binomial"},
			Rank:             rank(2),
			Score:            func() *float64 { v := 0.0125; return &v }(),
			QuerySizeActual:  10,
			TargetSize:       12,
		},
		{
			Target:           "KW-1",
			SimulationConfig: types.SimulationConfig{QuerySize: 10, Signal: 0.5, Rep: 0, Measure: "chi2"},
			QuerySizeActual:  9,
			TargetSize:       12,
		},
	}
}

func sampleSummary() []types.SummaryRow {
	med := 3.0
	return []types.SummaryRow{
		{Measure: "binomial", Size: 10, Signal: 0.5, P1: 0.25, P5: 0.5, MRR: 0.375, MedianRank: &med, Valid: 3},
		{Measure: "coverage", Size: 25, Signal: 0.75},
	}
}

func TestWriteTables_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	var records bytes.Buffer
	require.NoError(t, WriteRecords(&records, sampleRecords()))
	g.Assert(t, "results_all", records.Bytes())

	var summary bytes.Buffer
	require.NoError(t, WriteSummary(&summary, sampleSummary()))
	g.Assert(t, "summary", summary.Bytes())
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp2")
	require.NoError(t, WriteFiles(dir, sampleRecords(), sampleSummary()))

	results, err := os.ReadFile(filepath.Join(dir, ResultsFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(results), "target\tsize\tsignal\trep\tmeasure\t"))
	assert.Len(t, strings.Split(strings.TrimSpace(string(results)), "\n"), 3)

	summary, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	require.NoError(t, err)
	var want bytes.Buffer
	require.NoError(t, WriteSummary(&want, sampleSummary()))
	assert.Equal(t, want.String(), string(summary))
}
