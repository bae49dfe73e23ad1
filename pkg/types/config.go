// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Neo4jConfig holds the connection settings for the graph source.
type Neo4jConfig struct {
	// URI is the bolt or neo4j URI (e.g. "neo4j://localhost").
	URI string `json:"uri" yaml:"uri" validate:"required"`

	// User and Password authenticate with basic auth.
	User     string `json:"user" yaml:"user"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// Database selects a named database; empty means the server default.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`

	// UniverseLabel is the label of universe elements (default "Gene").
	UniverseLabel string `json:"universe_label" yaml:"universe_label"`

	// ConnectTimeout bounds each connectivity check (default 10s).
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout"`

	// MaxRetries is the number of connectivity retries (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" validate:"min=0"`
}

// Validate checks field constraints.
func (c Neo4jConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: neo4j: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SetStoreConfig locates the local SQLite snapshot of target sets.
type SetStoreConfig struct {
	// Path is the database file; ":memory:" is accepted for tests.
	Path string `json:"path" yaml:"path" validate:"required"`
}

// Validate checks field constraints.
func (c SetStoreConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: set store: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SourceBackend names the implementation behind the graph source.
type SourceBackend string

const (
	BackendNeo4j  SourceBackend = "neo4j"
	BackendSQLite SourceBackend = "sqlite"
)

// EnrichConfig holds the settings of one enrichment run.
type EnrichConfig struct {
	// Label is the target-set node label (e.g. "Keyword").
	Label string `json:"label" yaml:"label" validate:"required"`

	// Alpha is the exclusive significance threshold. Zero keeps nothing and
	// a value above one keeps every candidate.
	Alpha float64 `json:"alpha" yaml:"alpha" validate:"gte=0"`

	// Adjust enables the multiple-testing adjustment.
	Adjust bool `json:"adjust" yaml:"adjust"`

	// Measure names the scoring measure.
	Measure string `json:"measure" yaml:"measure" validate:"required,oneof=binomial hypergeometric chi2 coverage"`

	// Limit truncates the result list when positive.
	Limit int `json:"limit" yaml:"limit" validate:"min=0"`

	// Where is an optional CEL filter over result rows.
	Where string `json:"where,omitempty" yaml:"where,omitempty"`
}

// Validate checks field constraints.
func (c EnrichConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: enrich: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SweepConfig is the parameter sweep of the simulation harness.
type SweepConfig struct {
	// Label is the target-set node label (default "Keyword").
	Label string `json:"label" yaml:"label" validate:"required"`

	// Reps is the number of repetitions per configuration.
	Reps int `json:"reps" yaml:"reps" validate:"gt=0"`

	// Sizes lists the nominal query sizes.
	Sizes []int `json:"sizes" yaml:"sizes" validate:"required,min=1,dive,gt=0"`

	// Signals lists the fractions of each query drawn from the true target.
	// Every query carries at least one signal element, so 0 acts as one.
	Signals []float64 `json:"signals" yaml:"signals" validate:"required,min=1,dive,gte=0,lte=1"`

	// Measures lists the measures to compare.
	Measures []string `json:"measures" yaml:"measures" validate:"required,min=1,dive,oneof=binomial hypergeometric chi2 coverage"`

	// Seed fixes the random source; 0 picks a time-based seed.
	Seed int64 `json:"seed" yaml:"seed"`

	// MinTargetSize skips smaller true targets (default 5).
	MinTargetSize int `json:"min_target_size" yaml:"min_target_size" validate:"min=0"`

	// ProgressEvery prints a progress line every this many tasks (default 500).
	ProgressEvery int `json:"progress_every" yaml:"progress_every" validate:"min=0"`

	// OutDir receives results_all.tsv and summary.tsv.
	OutDir string `json:"out_dir" yaml:"out_dir"`
}

// DefaultSweep returns the sweep used when no sweep file is given.
func DefaultSweep() SweepConfig {
	return SweepConfig{
		Label:         "Keyword",
		Reps:          2,
		Sizes:         []int{10, 25, 50},
		Signals:       []float64{0.25, 0.5, 0.75},
		Measures:      []string{"binomial", "hypergeometric", "chi2", "coverage"},
		MinTargetSize: 5,
		ProgressEvery: 500,
		OutDir:        "tmp2",
	}
}

// Validate checks field constraints.
func (c SweepConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: sweep: %v", ErrInvalidConfig, err)
	}
	return nil
}
