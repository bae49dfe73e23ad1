// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package simulate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/blastsets/internal/enrich"
	"github.com/pdiddy/blastsets/pkg/types"
)

// Output file names inside the sweep output directory.
const (
	ResultsFile = "results_all.tsv"
	SummaryFile = "summary.tsv"
)

// WriteRecords writes the per-repetition table.
func WriteRecords(w io.Writer, records []types.RankRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"target", "size", "signal", "rep", "measure", "rank", "score", "qsize_actual", "target_size"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		rank, sc := "", ""
		if r.Rank != nil {
			rank = strconv.Itoa(*r.Rank)
		}
		if r.Score != nil {
			sc = enrich.FormatFloat(*r.Score)
		}
		rec := []string{
			r.Target,
			strconv.Itoa(r.QuerySize),
			enrich.FormatFloat(r.Signal),
			strconv.Itoa(r.Rep),
			r.Measure,
			rank,
			sc,
			strconv.Itoa(r.QuerySizeActual),
			strconv.Itoa(r.TargetSize),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing record for %s: %w", r.Target, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes the aggregated table.
func WriteSummary(w io.Writer, rows []types.SummaryRow) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write([]string{"measure", "size", "signal", "p1", "p5", "mrr", "median_rank", "valid"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rows {
		med := ""
		if r.MedianRank != nil {
			med = enrich.FormatFloat(*r.MedianRank)
		}
		rec := []string{
			r.Measure,
			strconv.Itoa(r.Size),
			enrich.FormatFloat(r.Signal),
			enrich.FormatFloat(r.P1),
			enrich.FormatFloat(r.P5),
			enrich.FormatFloat(r.MRR),
			med,
			strconv.Itoa(r.Valid),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing summary row %s: %w", r.Measure, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles creates dir if needed and writes ResultsFile and SummaryFile
// into it.
func WriteFiles(dir string, records []types.RankRecord, rows []types.SummaryRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	if err := writeFile(filepath.Join(dir, ResultsFile), func(w io.Writer) error {
		return WriteRecords(w, records)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, SummaryFile), func(w io.Writer) error {
		return WriteSummary(w, rows)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
