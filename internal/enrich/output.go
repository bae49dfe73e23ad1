// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/blastsets/pkg/types"
)

// WriteTSV writes results as a tab-separated table with a header row. The
// p-adjust column is present only when adjusted is true.
func WriteTSV(w io.Writer, rows []types.ScoreResult, adjusted bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	header := []string{"id", "desc", "common.n", "target.n", "p-value"}
	if adjusted {
		header = append(header, "p-adjust")
	}
	header = append(header, "genes")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		rec := []string{
			r.ID,
			r.Name,
			strconv.Itoa(r.Common),
			strconv.Itoa(r.TargetSize),
			FormatFloat(r.Score),
		}
		if adjusted {
			adj := ""
			if r.Adjusted != nil {
				adj = FormatFloat(*r.Adjusted)
			}
			rec = append(rec, adj)
		}
		rec = append(rec, strings.Join(r.Genes, ", "))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatFloat renders v with the shortest representation that round-trips.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
