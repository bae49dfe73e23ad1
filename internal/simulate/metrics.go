// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package simulate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pdiddy/blastsets/pkg/types"
)

type groupKey struct {
	measure string
	size    int
	signal  float64
}

// Summarize aggregates records per (measure, size, signal), ordered by
// measure name, then size, then signal. A missing rank counts as a miss
// for P1 and P5 and contributes 0 to MRR; the median uses present ranks
// only.
func Summarize(records []types.RankRecord) []types.SummaryRow {
	groups := make(map[groupKey][]*int)
	var keys []groupKey
	for _, r := range records {
		k := groupKey{measure: r.Measure, size: r.QuerySize, signal: r.Signal}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r.Rank)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.measure != b.measure {
			return a.measure < b.measure
		}
		if a.size != b.size {
			return a.size < b.size
		}
		return a.signal < b.signal
	})

	rows := make([]types.SummaryRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, summarizeGroup(k, groups[k]))
	}
	return rows
}

func summarizeGroup(k groupKey, ranks []*int) types.SummaryRow {
	row := types.SummaryRow{Measure: k.measure, Size: k.size, Signal: k.signal}
	hit1 := make([]float64, len(ranks))
	hit5 := make([]float64, len(ranks))
	rr := make([]float64, len(ranks))
	var valid []int
	for i, r := range ranks {
		if r == nil || *r <= 0 {
			continue
		}
		valid = append(valid, *r)
		rr[i] = 1 / float64(*r)
		if *r == 1 {
			hit1[i] = 1
		}
		if *r <= 5 {
			hit5[i] = 1
		}
	}
	row.P1 = stat.Mean(hit1, nil)
	row.P5 = stat.Mean(hit5, nil)
	row.MRR = stat.Mean(rr, nil)
	row.Valid = len(valid)
	if len(valid) > 0 {
		m := median(valid)
		row.MedianRank = &m
	}
	return row
}

// median averages the two middle values for an even count.
func median(xs []int) float64 {
	s := append([]int(nil), xs...)
	sort.Ints(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return float64(s[mid])
	}
	return float64(s[mid-1]+s[mid]) / 2
}
