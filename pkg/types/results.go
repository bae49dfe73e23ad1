// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ScoreResult is one scored target for a query.
type ScoreResult struct {
	// ID is the target identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the target description.
	Name string `json:"desc" yaml:"desc"`

	// Common is the overlap count c = |query ∩ target|.
	Common int `json:"common_n" yaml:"common_n"`

	// TargetSize is t = |target|.
	TargetSize int `json:"target_n" yaml:"target_n"`

	// Score is the raw measure value; lower means a better match.
	Score float64 `json:"p_value" yaml:"p_value"`

	// Adjusted is the multiple-testing adjusted score, nil when no
	// adjustment was requested.
	Adjusted *float64 `json:"p_adjust,omitempty" yaml:"p_adjust,omitempty"`

	// Genes lists the common element ids in ascending order.
	Genes []string `json:"genes" yaml:"genes"`
}

// Significance returns the value compared against alpha: the adjusted
// score when present, the raw score otherwise.
func (r ScoreResult) Significance() float64 {
	if r.Adjusted != nil {
		return *r.Adjusted
	}
	return r.Score
}

// SimulationConfig identifies one cell of the harness sweep for one
// repetition.
type SimulationConfig struct {
	QuerySize int     `json:"size" yaml:"size"`
	Signal    float64 `json:"signal" yaml:"signal"`
	Rep       int     `json:"rep" yaml:"rep"`
	Measure   string  `json:"measure" yaml:"measure"`
}

// RankRecord is the outcome of one measure on one synthetic query.
type RankRecord struct {
	Target string `json:"target" yaml:"target"`
	SimulationConfig `yaml:",inline"`

	// Rank is the 1-based position of the true target, nil if it could not
	// be located.
	Rank *int `json:"rank" yaml:"rank"`

	// Score is the measure value at Rank, nil when Rank is nil.
	Score *float64 `json:"score" yaml:"score"`

	// QuerySizeActual is the realized query size after duplicates collapse.
	QuerySizeActual int `json:"qsize_actual" yaml:"qsize_actual"`

	// TargetSize is |true target|.
	TargetSize int `json:"target_size" yaml:"target_size"`
}

// SummaryRow aggregates rank records for one (measure, size, signal) group.
type SummaryRow struct {
	Measure string  `json:"measure" yaml:"measure"`
	Size    int     `json:"size" yaml:"size"`
	Signal  float64 `json:"signal" yaml:"signal"`

	// P1 is the fraction of repetitions with rank 1.
	P1 float64 `json:"p1" yaml:"p1"`

	// P5 is the fraction of repetitions with rank at most 5.
	P5 float64 `json:"p5" yaml:"p5"`

	// MRR is the mean reciprocal rank; a missing rank contributes 0.
	MRR float64 `json:"mrr" yaml:"mrr"`

	// MedianRank is nil when no repetition produced a rank.
	MedianRank *float64 `json:"median_rank" yaml:"median_rank"`

	// Valid counts repetitions with a non-nil rank.
	Valid int `json:"valid" yaml:"valid"`
}
