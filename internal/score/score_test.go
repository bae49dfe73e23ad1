// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMeasure(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Measure
		wantErr bool
	}{
		{"binomial", "binomial", Binomial, false},
		{"hypergeometric", "hypergeometric", Hypergeometric, false},
		{"chi2", "chi2", Chi2, false},
		{"coverage", "coverage", Coverage, false},
		{"case and space", "  Coverage ", Coverage, false},
		{"unknown", "jaccard", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMeasure(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnknownMeasure))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMeasures_StopsAtUnknown(t *testing.T) {
	_, err := ParseMeasures([]string{"binomial", "dice"})
	assert.ErrorIs(t, err, ErrUnknownMeasure)

	got, err := ParseMeasures([]string{"chi2", "coverage"})
	require.NoError(t, err)
	assert.Equal(t, []Measure{Chi2, Coverage}, got)
}

func TestBinomialSF_Reference(t *testing.T) {
	// P(X >= 5) for Binomial(20, 0.05).
	got := Binomial.Score(5, 20, 50, 1000)
	assert.InDelta(t, 0.0025739403346522805, got, 1e-6)
}

func TestHypergeometricSF_Reference(t *testing.T) {
	assert.InDelta(t, 0.002240584042036518, Hypergeometric.Score(5, 20, 50, 1000), 1e-9)
	assert.InDelta(t, 0.03138817243846904, Hypergeometric.Score(3, 8, 10, 100), 1e-9)
}

func TestChi2_Reference(t *testing.T) {
	assert.InDelta(t, 0.000286310381682514, Chi2.Score(5, 20, 50, 1000), 1e-9)
	assert.InDelta(t, 0.036729238609440606, Chi2.Score(3, 8, 10, 100), 1e-9)
}

func TestCoverage_Example(t *testing.T) {
	a := Coverage.Score(3, 8, 10, 100)
	b := Coverage.Score(3, 8, 20, 100)
	assert.InDelta(t, 0.8875, a, 1e-12)
	assert.InDelta(t, 0.94375, b, 1e-12)
	assert.Less(t, a, b)
}

func TestDegenerateInputs(t *testing.T) {
	tests := []struct {
		name       string
		m          Measure
		c, q, t, n int
	}{
		{"binomial empty query", Binomial, 0, 0, 10, 100},
		{"binomial empty universe", Binomial, 1, 5, 10, 0},
		{"hypergeometric empty query", Hypergeometric, 0, 0, 10, 100},
		{"hypergeometric empty universe", Hypergeometric, 1, 5, 10, 0},
		{"hypergeometric target larger than universe", Hypergeometric, 1, 5, 200, 100},
		{"chi2 negative cell", Chi2, 5, 3, 10, 100},
		{"chi2 zero expected", Chi2, 0, 0, 10, 100},
		{"chi2 empty table", Chi2, 0, 0, 0, 0},
		{"coverage empty query", Coverage, 0, 0, 10, 100},
		{"coverage empty target", Coverage, 0, 5, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Neutral, tt.m.Score(tt.c, tt.q, tt.t, tt.n))
		})
	}
}

func TestChi2_NoOverlapSmallExpectation(t *testing.T) {
	// Yates' correction absorbs the whole deviation when the expected
	// overlap is below one half.
	assert.Equal(t, 1.0, Chi2.Score(0, 3, 5, 1000))
}

func TestScores_InUnitInterval(t *testing.T) {
	const n = 200
	for _, m := range All {
		for _, q := range []int{1, 5, 20, 60} {
			for _, tsize := range []int{2, 7, 30, 150} {
				for c := 0; c <= min(q, tsize); c++ {
					s := m.Score(c, q, tsize, n)
					if s < 0 || s > 1 {
						t.Fatalf("%s(c=%d,q=%d,t=%d,N=%d) = %v outside [0,1]", m, c, q, tsize, n, s)
					}
				}
			}
		}
	}
}

func TestScores_NonIncreasingInOverlap(t *testing.T) {
	const n = 500
	for _, m := range []Measure{Binomial, Hypergeometric, Coverage} {
		for _, q := range []int{3, 10, 40} {
			for _, tsize := range []int{5, 25, 100} {
				prev := m.Score(0, q, tsize, n)
				for c := 1; c <= min(q, tsize); c++ {
					cur := m.Score(c, q, tsize, n)
					if cur > prev+1e-12 {
						t.Fatalf("%s not monotone at c=%d q=%d t=%d: %v > %v", m, c, q, tsize, cur, prev)
					}
					prev = cur
				}
			}
		}
	}
}

func TestMeasureString(t *testing.T) {
	names := make([]string, len(All))
	for i, m := range All {
		names[i] = m.String()
	}
	assert.Equal(t, []string{"binomial", "hypergeometric", "chi2", "coverage"}, names)
	assert.Equal(t, "measure(0)", Measure(0).String())
}
