// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich runs a set-enrichment query: it loads the candidate
// targets for a query from a source, scores each with the selected measure,
// ranks them, optionally adjusts for multiple testing and keeps the rows
// below the significance threshold.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pdiddy/blastsets/internal/score"
	"github.com/pdiddy/blastsets/internal/source"
	"github.com/pdiddy/blastsets/pkg/types"
)

// DefaultAlpha is the default significance threshold of the CLI.
const DefaultAlpha = 0.05

// LoadQuery reads the query set from the file at arg when it exists, or
// parses arg itself as whitespace-separated ids otherwise.
func LoadQuery(arg string) (types.QuerySet, error) {
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return types.ParseQuery(arg), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return types.QuerySet{}, fmt.Errorf("reading query file %s: %w", arg, err)
	}
	return types.ParseQuery(string(data)), nil
}

// Outcome describes one enrichment run.
type Outcome struct {
	PopulationSize int
	QuerySize      int
	Candidates     int
	Adjusted       bool
	Rows           []types.ScoreResult
}

// Run executes the enrichment described by cfg against src. It returns
// ErrNoSignificantResult (with a populated Outcome) when no target passes
// the filters, and score.ErrUnknownMeasure for an unsupported measure.
func Run(ctx context.Context, src source.Source, query types.QuerySet, cfg types.EnrichConfig, logger *slog.Logger) (*Outcome, error) {
	if logger == nil {
		logger = slog.Default()
	}
	measure, err := score.ParseMeasure(cfg.Measure)
	if err != nil {
		return nil, err
	}
	cfg.Measure = measure.String()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	filter, err := CompileFilter(cfg.Where)
	if err != nil {
		return nil, err
	}

	population, err := src.PopulationSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading population size: %w", err)
	}
	sets, err := source.LoadCandidates(ctx, src, cfg.Label, query)
	if err != nil {
		return nil, err
	}
	logger.Debug("enrichment input",
		"query_size", query.Len(), "population", population,
		"label", cfg.Label, "candidates", len(sets), "measure", measure)

	out := &Outcome{
		PopulationSize: population,
		QuerySize:      query.Len(),
		Candidates:     len(sets),
		Adjusted:       cfg.Adjust,
	}
	rows, err := Aggregate(query, sets, population, Options{
		Measure: measure,
		Alpha:   cfg.Alpha,
		Adjust:  cfg.Adjust,
		Limit:   cfg.Limit,
		Filter:  filter,
	})
	out.Rows = rows
	if err != nil {
		return out, err
	}
	logger.Debug("enrichment result", "rows", len(rows))
	return out, nil
}
