// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package setstore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/blastsets/internal/source"
	"github.com/pdiddy/blastsets/pkg/types"
)

// Collection is the YAML import format: a labeled group of target sets
// plus optional universe elements that belong to no set.
type Collection struct {
	Label    string            `json:"label" yaml:"label"`
	Universe []string          `json:"universe,omitempty" yaml:"universe,omitempty"`
	Sets     []types.TargetSet `json:"sets" yaml:"sets"`
}

// ParseYAML decodes a collection file.
func ParseYAML(data []byte) (*Collection, error) {
	var c Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing collection: %w", err)
	}
	return &c, nil
}

// ParseGMT decodes the tab-separated GMT gene-set format: one set per line
// as name, description, then members. Blank lines and lines starting with
// '#' are ignored.
func ParseGMT(r io.Reader, label string) (*Collection, error) {
	c := &Collection{Label: label}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 || strings.TrimSpace(fields[0]) == "" {
			return nil, fmt.Errorf("gmt line %d: expected name, description and members", line)
		}
		set := types.TargetSet{
			ID:   strings.TrimSpace(fields[0]),
			Name: strings.TrimSpace(fields[1]),
		}
		for _, m := range fields[2:] {
			if m = strings.TrimSpace(m); m != "" {
				set.Members = append(set.Members, m)
			}
		}
		c.Sets = append(c.Sets, set)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading gmt: %w", err)
	}
	return c, nil
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Updated  int
	Skipped  int
	Failed   int
}

// Total returns the number of files processed.
func (s ImportSummary) Total() int {
	return s.Imported + s.Updated + s.Skipped + s.Failed
}

// Import loads collection files into the store. GMT files (".gmt") take
// their label from defaultLabel; YAML files use their own label and fall
// back to defaultLabel. Per-file failures are reported on w and counted,
// not returned.
func (s *Store) Import(ctx context.Context, paths []string, defaultLabel string, w io.Writer) (ImportSummary, error) {
	var summary ImportSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)
		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM import_status WHERE path = ?`, key,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		coll, err := readCollection(path, defaultLabel)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if err := s.importCollection(ctx, key, modTime, coll); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%s, %d sets)\n", path, coll.Label, len(coll.Sets))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "imported %s (%s, %d sets)\n", path, coll.Label, len(coll.Sets))
			summary.Imported++
		}
	}

	fmt.Fprintf(w, "\nimported: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Imported, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func readCollection(path, defaultLabel string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var coll *Collection
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gmt":
		coll, err = ParseGMT(bytes.NewReader(data), defaultLabel)
	case ".yaml", ".yml":
		coll, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported collection format %q: use .yaml, .yml or .gmt", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if coll.Label == "" {
		coll.Label = defaultLabel
	}
	if err := source.ValidateLabel(coll.Label); err != nil {
		return nil, err
	}
	return coll, nil
}

func (s *Store) importCollection(ctx context.Context, key, modTime string, coll *Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace whatever this file contributed before.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM memberships WHERE (label, set_id) IN
			(SELECT label, id FROM target_sets WHERE source_path = ?)`, key); err != nil {
		return fmt.Errorf("deleting old memberships: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM target_sets WHERE source_path = ?`, key); err != nil {
		return fmt.Errorf("deleting old sets: %w", err)
	}

	elemStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO elements (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("preparing element insert: %w", err)
	}
	defer elemStmt.Close()

	setStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO target_sets (label, id, name, source_path) VALUES (?, ?, ?, ?)
		 ON CONFLICT(label, id) DO UPDATE SET name=excluded.name, source_path=excluded.source_path`)
	if err != nil {
		return fmt.Errorf("preparing set insert: %w", err)
	}
	defer setStmt.Close()

	memberStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO memberships (label, set_id, element_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing membership insert: %w", err)
	}
	defer memberStmt.Close()

	for _, id := range coll.Universe {
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		if _, err := elemStmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("inserting element %s: %w", id, err)
		}
	}

	for _, set := range types.MergeSets(coll.Sets) {
		if _, err := setStmt.ExecContext(ctx, coll.Label, set.ID, set.Name, key); err != nil {
			return fmt.Errorf("inserting set %s: %w", set.ID, err)
		}
		for _, m := range set.Members {
			if _, err := elemStmt.ExecContext(ctx, m); err != nil {
				return fmt.Errorf("inserting element %s: %w", m, err)
			}
			if _, err := memberStmt.ExecContext(ctx, coll.Label, set.ID, m); err != nil {
				return fmt.Errorf("inserting membership %s/%s: %w", set.ID, m, err)
			}
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO import_status (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		key, modTime)
	if err != nil {
		return fmt.Errorf("updating import status: %w", err)
	}

	return tx.Commit()
}
