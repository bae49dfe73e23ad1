// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source defines the graph data collaborator that supplies the
// universe and target-set collection, and implements it on Neo4j.
package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/pdiddy/blastsets/pkg/types"
)

// ErrInvalidLabel is returned for node labels that are not plain
// identifiers. Labels are interpolated into Cypher and cannot be passed
// as parameters.
var ErrInvalidLabel = errors.New("invalid node label")

var labelPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateLabel reports ErrInvalidLabel unless label is an identifier.
func ValidateLabel(label string) error {
	if !labelPattern.MatchString(label) {
		return fmt.Errorf("%w %q", ErrInvalidLabel, label)
	}
	return nil
}

// Source supplies a read-only snapshot of the universe and target sets.
// Implementations: Neo4j (this package) and the SQLite set store.
type Source interface {
	// PopulationSize returns the number of universe elements.
	PopulationSize(ctx context.Context) (int, error)

	// CandidateSets returns the targets of label linked to at least one
	// query element. Members are not populated.
	CandidateSets(ctx context.Context, label string, query types.QuerySet) ([]types.TargetSet, error)

	// Members returns the distinct universe element ids of one target.
	Members(ctx context.Context, label, id string) ([]string, error)

	// AllSets returns every target of label with its members, merged by id
	// and ordered by id.
	AllSets(ctx context.Context, label string) ([]types.TargetSet, error)

	Close() error
}

// LoadCandidates fetches the candidate targets for query along with their
// members, the way an enrichment run needs them.
func LoadCandidates(ctx context.Context, src Source, label string, query types.QuerySet) ([]types.TargetSet, error) {
	sets, err := src.CandidateSets(ctx, label, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s sets: %w", label, err)
	}
	out := make([]types.TargetSet, 0, len(sets))
	for _, s := range sets {
		members, err := src.Members(ctx, label, s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading members of %s: %w", s.ID, err)
		}
		s.Members = members
		out = append(out, s)
	}
	return types.MergeSets(out), nil
}
