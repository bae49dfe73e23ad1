// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package setstore keeps a local SQLite snapshot of target-set collections
// so enrichment and simulation can run without the graph database.
//
// Collections are imported from YAML or GMT files. Each file is tracked by
// modification time; unchanged files are skipped on re-import and changed
// files replace the sets they contributed before.
package setstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/blastsets/internal/source"
	"github.com/pdiddy/blastsets/pkg/types"
)

const memoryPath = ":memory:"

// maxQueryVars bounds the number of bound parameters per IN clause.
const maxQueryVars = 500

var _ source.Source = (*Store)(nil)

// Store is a SQLite-backed source.Source.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.Path and ensures the schema.
func Open(cfg types.SetStoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	path := cfg.Path

	dsn := memoryPath
	if path != memoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating set store directory: %w", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening set store: %w", err)
	}
	if path == memoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS elements (
			id TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS target_sets (
			label TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT,
			source_path TEXT,
			PRIMARY KEY (label, id)
		)`,
		`CREATE TABLE IF NOT EXISTS memberships (
			label TEXT NOT NULL,
			set_id TEXT NOT NULL,
			element_id TEXT NOT NULL REFERENCES elements(id),
			PRIMARY KEY (label, set_id, element_id),
			FOREIGN KEY (label, set_id) REFERENCES target_sets(label, id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_element ON memberships(element_id)`,
		`CREATE INDEX IF NOT EXISTS idx_target_sets_source ON target_sets(source_path)`,
		`CREATE TABLE IF NOT EXISTS import_status (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// PopulationSize returns the number of distinct universe elements.
func (s *Store) PopulationSize(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM elements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting elements: %w", err)
	}
	return n, nil
}

// CandidateSets lists the label targets sharing at least one element with
// query, ordered by id.
func (s *Store) CandidateSets(ctx context.Context, label string, query types.QuerySet) ([]types.TargetSet, error) {
	if err := source.ValidateLabel(label); err != nil {
		return nil, err
	}

	ids := query.Sorted()
	seen := make(map[string]bool)
	var sets []types.TargetSet

	for start := 0; start < len(ids); start += maxQueryVars {
		chunk := ids[start:min(start+maxQueryVars, len(ids))]
		args := make([]any, 0, len(chunk)+1)
		args = append(args, label)
		for _, id := range chunk {
			args = append(args, id)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		rows, err := s.db.QueryContext(ctx,
			`SELECT DISTINCT t.id, COALESCE(t.name, '')
			 FROM target_sets t
			 JOIN memberships m ON m.label = t.label AND m.set_id = t.id
			 WHERE t.label = ? AND m.element_id IN (`+placeholders+`)
			 ORDER BY t.id`, args...)
		if err != nil {
			return nil, fmt.Errorf("querying candidate sets: %w", err)
		}
		for rows.Next() {
			var t types.TargetSet
			if err := rows.Scan(&t.ID, &t.Name); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning candidate set: %w", err)
			}
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			sets = append(sets, t)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return types.MergeSets(sets), nil
}

// Members lists the elements of one target in ascending order.
func (s *Store) Members(ctx context.Context, label, id string) ([]string, error) {
	if err := source.ValidateLabel(label); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT element_id FROM memberships WHERE label = ? AND set_id = ? ORDER BY element_id`,
		label, id)
	if err != nil {
		return nil, fmt.Errorf("querying members of %s: %w", id, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AllSets loads every label target with its members, ordered by id.
func (s *Store) AllSets(ctx context.Context, label string) ([]types.TargetSet, error) {
	if err := source.ValidateLabel(label); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, COALESCE(t.name, ''), m.element_id
		 FROM target_sets t
		 JOIN memberships m ON m.label = t.label AND m.set_id = t.id
		 WHERE t.label = ?
		 ORDER BY t.id, m.element_id`, label)
	if err != nil {
		return nil, fmt.Errorf("querying %s sets: %w", label, err)
	}
	defer rows.Close()

	var sets []types.TargetSet
	for rows.Next() {
		var id, name, member string
		if err := rows.Scan(&id, &name, &member); err != nil {
			return nil, fmt.Errorf("scanning set member: %w", err)
		}
		if n := len(sets); n > 0 && sets[n-1].ID == id {
			sets[n-1].Members = append(sets[n-1].Members, member)
			continue
		}
		sets = append(sets, types.TargetSet{ID: id, Name: name, Members: []string{member}})
	}
	return sets, rows.Err()
}

// SetSummary describes one stored target for listings.
type SetSummary struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Size int    `json:"size" yaml:"size"`
}

// List returns every label target with its member count, ordered by id.
func (s *Store) List(ctx context.Context, label string) ([]SetSummary, error) {
	if err := source.ValidateLabel(label); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, COALESCE(t.name, ''), count(m.element_id)
		 FROM target_sets t
		 LEFT JOIN memberships m ON m.label = t.label AND m.set_id = t.id
		 WHERE t.label = ?
		 GROUP BY t.id, t.name
		 ORDER BY t.id`, label)
	if err != nil {
		return nil, fmt.Errorf("listing %s sets: %w", label, err)
	}
	defer rows.Close()

	var out []SetSummary
	for rows.Next() {
		var r SetSummary
		if err := rows.Scan(&r.ID, &r.Name, &r.Size); err != nil {
			return nil, fmt.Errorf("scanning set summary: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
