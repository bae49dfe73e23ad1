// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes overlap significance between a query set and a
// target set drawn from a common universe.
//
// Every measure maps (c, q, t, N) to a value where lower means a more
// significant or more similar overlap, so results under any measure sort
// ascending. Degenerate inputs yield the neutral value 1.0 instead of an
// error.
package score

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"
)

// Neutral is returned for inputs that carry no evidence.
const Neutral = 1.0

// ErrUnknownMeasure is returned by ParseMeasure for names outside the
// supported set.
var ErrUnknownMeasure = errors.New("unknown measure")

// Measure selects a scoring function.
type Measure int

const (
	Binomial Measure = iota + 1
	Hypergeometric
	Chi2
	Coverage
)

// All lists the measures in their canonical order.
var All = []Measure{Binomial, Hypergeometric, Chi2, Coverage}

var measureNames = map[Measure]string{
	Binomial:       "binomial",
	Hypergeometric: "hypergeometric",
	Chi2:           "chi2",
	Coverage:       "coverage",
}

// String returns the measure name used on the command line and in output.
func (m Measure) String() string {
	if name, ok := measureNames[m]; ok {
		return name
	}
	return fmt.Sprintf("measure(%d)", int(m))
}

// ParseMeasure resolves a measure name. Matching ignores case and
// surrounding whitespace.
func ParseMeasure(name string) (Measure, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	for m, n := range measureNames {
		if n == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w %q: use binomial, hypergeometric, chi2 or coverage", ErrUnknownMeasure, name)
}

// ParseMeasures resolves a list of names, failing on the first unknown one.
func ParseMeasures(names []string) ([]Measure, error) {
	out := make([]Measure, 0, len(names))
	for _, n := range names {
		m, err := ParseMeasure(n)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Score evaluates the measure for c common elements between a query of
// size q and a target of size t in a universe of size n.
func (m Measure) Score(c, q, t, n int) float64 {
	switch m {
	case Binomial:
		return BinomialSF(c, q, t, n)
	case Hypergeometric:
		return HypergeometricSF(c, q, t, n)
	case Chi2:
		return Chi2Independence(c, q, t, n)
	case Coverage:
		return CoverageDistance(c, q, t)
	default:
		panic(fmt.Sprintf("score: unresolved measure %d", int(m)))
	}
}

// BinomialSF returns P(X >= c) for X ~ Binomial(q, t/n).
func BinomialSF(c, q, t, n int) float64 {
	if q <= 0 || n <= 0 {
		return Neutral
	}
	if c <= 0 {
		return 1
	}
	if c > q {
		return 0
	}
	p := clamp01(float64(t) / float64(n))
	if p == 0 {
		return 0
	}
	if p == 1 {
		return 1
	}
	// P(X >= c) = I_p(c, q-c+1).
	return clamp01(mathext.RegIncBeta(float64(c), float64(q-c+1), p))
}

// HypergeometricSF returns P(X >= c) when q elements are drawn without
// replacement from n elements of which t are successes.
func HypergeometricSF(c, q, t, n int) float64 {
	if q <= 0 || n <= 0 {
		return Neutral
	}
	if t < 0 || t > n || q > n {
		return Neutral
	}
	lo := max(0, q+t-n)
	hi := min(q, t)
	if c <= lo {
		return 1
	}
	if c > hi {
		return 0
	}
	logTotal := combin.LogGeneralizedBinomial(float64(n), float64(q))
	var sf float64
	for k := c; k <= hi; k++ {
		logPMF := combin.LogGeneralizedBinomial(float64(t), float64(k)) +
			combin.LogGeneralizedBinomial(float64(n-t), float64(q-k)) -
			logTotal
		sf += math.Exp(logPMF)
	}
	return clamp01(sf)
}

// Chi2Independence returns the p-value of the chi-square test of
// independence on the 2x2 table [[c, q-c], [t-c, n-q-t+c]] with Yates'
// continuity correction.
func Chi2Independence(c, q, t, n int) float64 {
	table := [2][2]float64{
		{float64(c), float64(q - c)},
		{float64(t - c), float64(n - q - t + c)},
	}
	p, err := chi2Contingency(table)
	if err != nil {
		return Neutral
	}
	return p
}

var (
	errNegativeCell  = errors.New("negative cell in contingency table")
	errZeroExpected  = errors.New("zero expected frequency in contingency table")
	errNonFiniteStat = errors.New("non-finite chi-square statistic")
)

func chi2Contingency(obs [2][2]float64) (float64, error) {
	var rows, cols [2]float64
	var total float64
	for i := range 2 {
		for j := range 2 {
			if obs[i][j] < 0 {
				return 0, errNegativeCell
			}
			rows[i] += obs[i][j]
			cols[j] += obs[i][j]
			total += obs[i][j]
		}
	}
	if total == 0 {
		return 0, errZeroExpected
	}

	var stat float64
	for i := range 2 {
		for j := range 2 {
			expected := rows[i] * cols[j] / total
			if expected == 0 {
				return 0, errZeroExpected
			}
			diff := expected - obs[i][j]
			corrected := obs[i][j] + math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			d := corrected - expected
			stat += d * d / expected
		}
	}
	if math.IsNaN(stat) || math.IsInf(stat, 0) {
		return 0, errNonFiniteStat
	}
	return clamp01(distuv.ChiSquared{K: 1}.Survival(stat)), nil
}

// CoverageDistance returns 1 - (c/q)(c/t): 0 for identical sets, 1 for
// disjoint ones.
func CoverageDistance(c, q, t int) float64 {
	if q == 0 || t == 0 {
		return Neutral
	}
	return 1 - (float64(c)/float64(q))*(float64(c)/float64(t))
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return Neutral
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
