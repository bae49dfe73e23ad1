// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/blastsets/internal/simulate"
	"github.com/pdiddy/blastsets/pkg/types"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Benchmark the scoring measures on synthetic queries",
	Long: `Simulate loads every target set of a label, and for each target with at
least five members draws synthetic queries mixing members of the target
(signal) with other elements (noise). Every target is ranked under every
measure and the rank of the true target is recorded.

The detailed table (results_all.tsv) and the per (measure, size, signal)
summary (summary.tsv) are written to --out-dir; the summary is also
printed. A --sweep YAML file sets defaults for any flag not given.`,
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sweep, err := sweepConfig(cmd)
	if err != nil {
		return err
	}
	if err := sweep.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	src, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	sets, err := src.AllSets(ctx, sweep.Label)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return fmt.Errorf("no target sets found for label %q", sweep.Label)
	}
	universe := types.UniverseFromSets(sets)
	fmt.Fprintf(os.Stderr, "Targets: %d\nPopulation: %d\n", len(sets), universe.Size)

	h := simulate.New(sweep.Seed, logger)
	records, err := h.Run(ctx, universe, sets, sweep, os.Stderr)
	if err != nil {
		return err
	}
	summary := simulate.Summarize(records)

	if err := simulate.WriteFiles(sweep.OutDir, records, summary); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Results written to %s and %s (seed %d)\n",
		filepath.Join(sweep.OutDir, simulate.SummaryFile),
		filepath.Join(sweep.OutDir, simulate.ResultsFile), h.Seed())
	return simulate.WriteSummary(os.Stdout, summary)
}

// sweepConfig layers the defaults, the optional sweep file and the flags
// the user set explicitly.
func sweepConfig(cmd *cobra.Command) (types.SweepConfig, error) {
	sweep := types.DefaultSweep()

	if path, _ := cmd.Flags().GetString("sweep"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return sweep, fmt.Errorf("reading sweep file: %w", err)
		}
		if err := yaml.Unmarshal(data, &sweep); err != nil {
			return sweep, fmt.Errorf("parsing sweep file %s: %w", path, err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("sets") {
		sweep.Label, _ = flags.GetString("sets")
	}
	if flags.Changed("reps") {
		sweep.Reps, _ = flags.GetInt("reps")
	}
	if flags.Changed("sizes") {
		sweep.Sizes, _ = flags.GetIntSlice("sizes")
	}
	if flags.Changed("signals") {
		sweep.Signals, _ = flags.GetFloat64Slice("signals")
	}
	if flags.Changed("measures") {
		sweep.Measures, _ = flags.GetStringSlice("measures")
	}
	if flags.Changed("seed") {
		sweep.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("out-dir") {
		sweep.OutDir, _ = flags.GetString("out-dir")
	}
	if sweep.OutDir == "" {
		sweep.OutDir = types.DefaultSweep().OutDir
	}
	return sweep, nil
}

// addSweepFlags registers the sweep flags on cmd.
func addSweepFlags(cmd *cobra.Command) {
	def := types.DefaultSweep()
	cmd.Flags().StringP("sets", "t", def.Label, "target-set node label")
	cmd.Flags().Int("reps", def.Reps, "repetitions per configuration")
	cmd.Flags().IntSlice("sizes", def.Sizes, "nominal query sizes")
	cmd.Flags().Float64Slice("signals", def.Signals, "fractions of each query drawn from the true target")
	cmd.Flags().StringSlice("measures", def.Measures, "measures to compare")
	cmd.Flags().Int64("seed", 0, "random seed (0 = time-based)")
	cmd.Flags().String("out-dir", def.OutDir, "output directory for results_all.tsv and summary.tsv")
	cmd.Flags().String("sweep", "", "YAML sweep file")
}

func init() {
	addSweepFlags(simulateCmd)
	rootCmd.AddCommand(simulateCmd)
}
