// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/blastsets/internal/enrich"
	"github.com/pdiddy/blastsets/pkg/types"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Score and rank target sets against a query set",
	Long: `Enrich loads every target set of the given label that shares at least
one element with the query, scores the overlap with the selected measure
and prints the targets whose (adjusted) score is below alpha as a
tab-separated table, best first.

The query is a file of whitespace-separated identifiers or the
identifiers themselves, e.g. -q "TP53 BAX CASP3".

--where filters rows with a CEL expression over id, name, common_n,
target_n, score and adjusted, e.g. --where "common_n >= 3".`,
	RunE: runEnrich,
}

func runEnrich(cmd *cobra.Command, args []string) error {
	queryArg, _ := cmd.Flags().GetString("query")
	label, _ := cmd.Flags().GetString("sets")
	alpha, _ := cmd.Flags().GetFloat64("alpha")
	adjust, _ := cmd.Flags().GetBool("adjust")
	measure, _ := cmd.Flags().GetString("measure")
	limit, _ := cmd.Flags().GetInt("limit")
	where, _ := cmd.Flags().GetString("where")

	query, err := enrich.LoadQuery(queryArg)
	if err != nil {
		return err
	}
	if query.Len() == 0 {
		return fmt.Errorf("query %q contains no identifiers", queryArg)
	}

	cfg := types.EnrichConfig{
		Label:   label,
		Alpha:   alpha,
		Adjust:  adjust,
		Measure: measure,
		Limit:   limit,
		Where:   where,
	}

	ctx := context.Background()
	src, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := enrich.Run(ctx, src, query, cfg, logger)
	if errors.Is(err, enrich.ErrNoSignificantResult) {
		fmt.Fprintln(os.Stdout, enrich.NoSignificantMessage)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Debug("writing results", "rows", len(out.Rows), "candidates", out.Candidates)
	return enrich.WriteTSV(os.Stdout, out.Rows, out.Adjusted)
}

func init() {
	enrichCmd.Flags().StringP("query", "q", "", "query file or whitespace-separated identifiers (required)")
	enrichCmd.Flags().StringP("sets", "t", "", "target-set node label, e.g. Keyword (required)")
	enrichCmd.Flags().Float64P("alpha", "a", enrich.DefaultAlpha, "significance threshold")
	enrichCmd.Flags().BoolP("adjust", "c", false, "adjust scores for multiple testing")
	enrichCmd.Flags().StringP("measure", "m", "binomial", "binomial, hypergeometric, chi2 or coverage")
	enrichCmd.Flags().IntP("limit", "l", 0, "maximum rows to print (0 = all)")
	enrichCmd.Flags().String("where", "", "CEL filter over result rows")
	_ = enrichCmd.MarkFlagRequired("query")
	_ = enrichCmd.MarkFlagRequired("sets")

	rootCmd.AddCommand(enrichCmd)
}
