// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for blastsets.
//
// The universe, target sets and query sets are loaded once per invocation
// and treated as read-only snapshots by the scoring, enrichment and
// simulation packages.
package types

import (
	"sort"
	"strings"
)

// MinTargetSize is the smallest target set that takes part in enrichment.
const MinTargetSize = 2

// TargetSet is a labeled group of universe elements (e.g. the genes
// annotated with one keyword).
type TargetSet struct {
	// ID is the target identifier in the graph source.
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable description.
	Name string `json:"name" yaml:"name"`

	// Members holds the unique element ids of the set.
	Members []string `json:"members" yaml:"members"`
}

// Size returns the number of members.
func (t TargetSet) Size() int {
	return len(t.Members)
}

// ElementSet is an unordered collection of element ids with set semantics.
type ElementSet map[string]struct{}

// NewElementSet builds a set from ids, collapsing duplicates and ignoring
// empty strings.
func NewElementSet(ids []string) ElementSet {
	s := make(ElementSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s ElementSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the cardinality.
func (s ElementSet) Len() int {
	return len(s)
}

// Sorted returns the ids in ascending order.
func (s ElementSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members of ids that are also in s, sorted and
// deduplicated.
func (s ElementSet) Intersect(ids []string) []string {
	var common []string
	seen := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := s[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		common = append(common, id)
	}
	sort.Strings(common)
	return common
}

// QuerySet is the caller's set of element ids.
type QuerySet struct {
	ElementSet
}

// ParseQuery splits text on any whitespace (spaces, tabs, newlines) and
// returns the resulting set.
func ParseQuery(text string) QuerySet {
	return QuerySet{NewElementSet(strings.Fields(text))}
}

// Universe is the population shared by the query and every target set.
type Universe struct {
	// Size is the population size N.
	Size int `json:"size" yaml:"size"`

	// Elements optionally lists the population explicitly. The simulation
	// harness needs it to draw noise; enrichment only needs Size.
	Elements []string `json:"elements,omitempty" yaml:"elements,omitempty"`
}

// UniverseFromSets returns the union of all target members as a universe.
func UniverseFromSets(sets []TargetSet) Universe {
	all := make(ElementSet)
	for _, t := range sets {
		for _, m := range t.Members {
			if m != "" {
				all[m] = struct{}{}
			}
		}
	}
	elems := all.Sorted()
	return Universe{Size: len(elems), Elements: elems}
}

// MergeSets deduplicates target sets by id, merging member lists and
// dropping rows with an empty id. The result is ordered by id; a target
// without members keeps a nil member list.
func MergeSets(sets []TargetSet) []TargetSet {
	byID := make(map[string]*TargetSet)
	members := make(map[string]ElementSet)
	var order []string
	for _, t := range sets {
		if t.ID == "" {
			continue
		}
		if _, ok := byID[t.ID]; !ok {
			cp := TargetSet{ID: t.ID, Name: t.Name}
			byID[t.ID] = &cp
			members[t.ID] = make(ElementSet)
			order = append(order, t.ID)
		}
		if byID[t.ID].Name == "" {
			byID[t.ID].Name = t.Name
		}
		for _, m := range t.Members {
			if m != "" {
				members[t.ID][m] = struct{}{}
			}
		}
	}
	sort.Strings(order)
	out := make([]TargetSet, 0, len(order))
	for _, id := range order {
		t := *byID[id]
		if len(members[id]) > 0 {
			t.Members = members[id].Sorted()
		}
		out = append(out, t)
	}
	return out
}
