// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pdiddy/blastsets/pkg/types"
)

const (
	defaultUniverseLabel  = "Gene"
	defaultConnectTimeout = 10 * time.Second
)

// row is one result record keyed by column name.
type row map[string]any

// runFunc executes a read query and returns its records. The Neo4j source
// uses the driver; tests substitute a fake.
type runFunc func(ctx context.Context, cypher string, params map[string]any) ([]row, error)

// Neo4j reads target sets from a graph where target nodes point at
// universe nodes, e.g. (:Keyword)-[]->(:Gene).
type Neo4j struct {
	driver        neo4j.DriverWithContext
	run           runFunc
	universeLabel string
	logger        *slog.Logger
}

// OpenNeo4j connects to the server in cfg and verifies connectivity,
// retrying with exponential backoff. The universe label defaults to "Gene".
func OpenNeo4j(ctx context.Context, cfg types.Neo4jConfig, logger *slog.Logger) (*Neo4j, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	universeLabel := cfg.UniverseLabel
	if universeLabel == "" {
		universeLabel = defaultUniverseLabel
	}
	if err := ValidateLabel(universeLabel); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver for %s: %w", cfg.URI, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	verify := func(ctx context.Context) error {
		vctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return driver.VerifyConnectivity(vctx)
	}
	if err := withRetry(ctx, cfg.MaxRetries, logger, verify); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j at %s: %w", cfg.URI, err)
	}

	var opts []neo4j.ExecuteQueryConfigurationOption
	opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
	if cfg.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(cfg.Database))
	}

	run := func(ctx context.Context, cypher string, params map[string]any) ([]row, error) {
		res, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
		if err != nil {
			return nil, err
		}
		rows := make([]row, 0, len(res.Records))
		for _, rec := range res.Records {
			r := make(row, len(rec.Keys))
			for i, k := range rec.Keys {
				r[k] = rec.Values[i]
			}
			rows = append(rows, r)
		}
		return rows, nil
	}

	return &Neo4j{driver: driver, run: run, universeLabel: universeLabel, logger: logger}, nil
}

// Close releases the driver.
func (n *Neo4j) Close() error {
	if n.driver == nil {
		return nil
	}
	return n.driver.Close(context.Background())
}

// PopulationSize counts universe-labeled nodes.
func (n *Neo4j) PopulationSize(ctx context.Context) (int, error) {
	cypher := fmt.Sprintf("MATCH (n:`%s`) RETURN count(n) AS n", n.universeLabel)
	rows, err := n.run(ctx, cypher, nil)
	if err != nil {
		return 0, fmt.Errorf("counting %s nodes: %w", n.universeLabel, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	switch v := rows[0]["n"].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("counting %s nodes: unexpected count type %T", n.universeLabel, v)
	}
}

// CandidateSets lists the label targets linked to any query element.
func (n *Neo4j) CandidateSets(ctx context.Context, label string, query types.QuerySet) ([]types.TargetSet, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(
		"MATCH (t:`%s`)-[]->(g:`%s`) WHERE g.id IN $ids RETURN DISTINCT t.id AS id, t.name AS name",
		label, n.universeLabel)
	rows, err := n.run(ctx, cypher, map[string]any{"ids": query.Sorted()})
	if err != nil {
		return nil, err
	}

	var sets []types.TargetSet
	for _, r := range rows {
		id := asString(r["id"])
		if id == "" {
			continue
		}
		sets = append(sets, types.TargetSet{ID: id, Name: asString(r["name"])})
	}
	n.logger.Debug("candidate sets", "label", label, "count", len(sets))
	return sets, nil
}

// Members lists the universe elements of one target.
func (n *Neo4j) Members(ctx context.Context, label, id string) ([]string, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(
		"MATCH (t:`%s`)-[]->(g:`%s`) WHERE t.id = $id RETURN DISTINCT g.id AS id",
		label, n.universeLabel)
	rows, err := n.run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(rows))
	for _, r := range rows {
		if m := asString(r["id"]); m != "" {
			members = append(members, m)
		}
	}
	sort.Strings(members)
	return members, nil
}

// AllSets loads every label target with its members.
func (n *Neo4j) AllSets(ctx context.Context, label string) ([]types.TargetSet, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, err
	}
	cypher := fmt.Sprintf(
		"MATCH (t:`%s`)-[]->(g:`%s`) RETURN t.id AS id, t.name AS name, collect(DISTINCT g.id) AS members",
		label, n.universeLabel)
	rows, err := n.run(ctx, cypher, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s sets: %w", label, err)
	}

	sets := make([]types.TargetSet, 0, len(rows))
	for _, r := range rows {
		t := types.TargetSet{ID: asString(r["id"]), Name: asString(r["name"])}
		if list, ok := r["members"].([]any); ok {
			for _, m := range list {
				t.Members = append(t.Members, asString(m))
			}
		}
		sets = append(sets, t)
	}
	return types.MergeSets(sets), nil
}

// asString renders a property value as an id; nil becomes "".
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}
