// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package setstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// Export formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Collection returns the stored sets of label in the import format, so an
// export can be re-imported elsewhere. Stored elements outside every set of
// label go to Universe, which keeps the population size of a re-import.
func (s *Store) Collection(ctx context.Context, label string) (*Collection, error) {
	sets, err := s.AllSets(ctx, label)
	if err != nil {
		return nil, err
	}
	universe, err := s.looseElements(ctx, label)
	if err != nil {
		return nil, err
	}
	return &Collection{Label: label, Universe: universe, Sets: sets}, nil
}

// looseElements lists the stored elements that belong to no set of label.
func (s *Store) looseElements(ctx context.Context, label string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM elements
		 EXCEPT
		 SELECT element_id FROM memberships WHERE label = ?
		 ORDER BY 1`, label)
	if err != nil {
		return nil, fmt.Errorf("querying universe of %s: %w", label, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning element: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Export writes the sets of label to w as YAML or JSON.
func (s *Store) Export(ctx context.Context, label, format string, w io.Writer) error {
	coll, err := s.Collection(ctx, label)
	if err != nil {
		return err
	}

	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(coll); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(coll); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
}
