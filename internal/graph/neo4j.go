package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds connection settings for a Neo4j server.
type Neo4jConfig struct {
	URI      string
	Database string
	Username string
	Password string
}

// Neo4jStore writes the derivation graph to Neo4j with Cypher. Node kinds
// become node labels and the node's label is its `name` property.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	db     string
}

// OpenNeo4jStore connects and verifies connectivity.
func OpenNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, &StoreConnectivityError{Op: "connect", Err: err}
	}
	s := &Neo4jStore{driver: driver, db: cfg.Database}
	if err := s.Ping(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, &StoreConnectivityError{Op: "connect", Err: err}
	}
	return s, nil
}

func (s *Neo4jStore) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if s.db != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.db))
	}
	return neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer, opts...)
}

func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) CreateNode(ctx context.Context, label, kind string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	_, err := s.run(ctx, fmt.Sprintf(`MERGE (n:%s {name: $name})`, kind), map[string]any{"name": label})
	return err
}

func (s *Neo4jStore) CreateEdge(ctx context.Context, fromLabel, fromKind, toLabel, toKind, edgeLabel string) error {
	if err := checkKind(fromKind); err != nil {
		return err
	}
	if err := checkKind(toKind); err != nil {
		return err
	}
	q := fmt.Sprintf(`
		MERGE (a:%s {name: $from})
		MERGE (b:%s {name: $to})
		MERGE (a)-[r:%s {%s: $li}]->(b)
		ON CREATE SET r.%s = ''`, fromKind, toKind, EdgeType, EdgeLabelKey, MoveKey)
	_, err := s.run(ctx, q, map[string]any{"from": fromLabel, "to": toLabel, "li": edgeLabel})
	return err
}

func (s *Neo4jStore) SetNodeProperty(ctx context.Context, kind, label, key, value string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	q := fmt.Sprintf(`MATCH (n:%s {name: $name}) SET n += $props RETURN count(n) AS n`, kind)
	res, err := s.run(ctx, q, map[string]any{"name": label, "props": map[string]any{key: value}})
	if err != nil {
		return err
	}
	if countOf(res) == 0 {
		return fmt.Errorf("%w: %s node %q", ErrNotFound, kind, label)
	}
	return nil
}

func (s *Neo4jStore) SetEdgeProperty(ctx context.Context, edgeKey, edgeValue, key, value string) error {
	q := fmt.Sprintf(`MATCH ()-[r:%s]->() WHERE r[$ek] = $ev SET r += $props RETURN count(r) AS n`, EdgeType)
	res, err := s.run(ctx, q, map[string]any{"ek": edgeKey, "ev": edgeValue, "props": map[string]any{key: value}})
	if err != nil {
		return err
	}
	if countOf(res) == 0 {
		return fmt.Errorf("%w: edge with %s=%q", ErrNotFound, edgeKey, edgeValue)
	}
	return nil
}

func countOf(res *neo4j.EagerResult) int64 {
	if res == nil || len(res.Records) == 0 {
		return 0
	}
	v, _ := res.Records[0].Get("n")
	n, _ := v.(int64)
	return n
}

func (s *Neo4jStore) Clear(ctx context.Context) error {
	if _, err := s.run(ctx, `MATCH (n) DETACH DELETE n`, nil); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	return nil
}

// RemoveRedundantNodes computes merges locally from a snapshot and applies
// them as Cypher rewrites, so every backend shares one notion of redundancy.
func (s *Neo4jStore) RemoveRedundantNodes(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	for dup, keep := range redundantMerges(snap) {
		redirect := fmt.Sprintf(`
			MATCH (p)-[r:%s]->(d:%s {name: $dup})
			MATCH (k:%s {name: $keep})
			MERGE (p)-[nr:%s {%s: r.%s}]->(k)
			SET nr += properties(r)`,
			EdgeType, dup.kind, keep.kind, EdgeType, EdgeLabelKey, EdgeLabelKey)
		params := map[string]any{"dup": dup.label, "keep": keep.label}
		if _, err := s.run(ctx, redirect, params); err != nil {
			return fmt.Errorf("redirect edges of %s: %w", dup, err)
		}
		drop := fmt.Sprintf(`MATCH (d:%s {name: $dup}) DETACH DELETE d`, dup.kind)
		if _, err := s.run(ctx, drop, params); err != nil {
			return fmt.Errorf("drop node %s: %w", dup, err)
		}
	}
	return nil
}

func (s *Neo4jStore) AllPaths(ctx context.Context, start, end string) ([]string, error) {
	q := fmt.Sprintf(`
		MATCH p = (a {name: $start})-[:%s*]->(b {name: $end})
		WHERE all(n IN nodes(p) WHERE single(m IN nodes(p) WHERE m = n))
		RETURN [r IN relationships(p) | r.%s] AS items`, EdgeType, EdgeLabelKey)
	return s.paths(ctx, q, start, end)
}

func (s *Neo4jStore) ShortestPaths(ctx context.Context, start, end string) ([]string, error) {
	q := fmt.Sprintf(`
		MATCH p = allShortestPaths((a {name: $start})-[:%s*]->(b {name: $end}))
		RETURN [r IN relationships(p) | r.%s] AS items`, EdgeType, EdgeLabelKey)
	return s.paths(ctx, q, start, end)
}

func (s *Neo4jStore) paths(ctx context.Context, q, start, end string) ([]string, error) {
	res, err := s.run(ctx, q, map[string]any{"start": start, "end": end})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rec := range res.Records {
		v, _ := rec.Get("items")
		items, _ := v.([]any)
		labels := make([]string, 0, len(items))
		for _, it := range items {
			labels = append(labels, fmt.Sprint(it))
		}
		out = append(out, strings.Join(labels, PathSep))
	}
	sort.Strings(out)
	return out, nil
}

func (s *Neo4jStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	res, err := s.run(ctx, `MATCH (n) RETURN labels(n)[0] AS kind, n.name AS label, properties(n) AS props`, nil)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	for _, rec := range res.Records {
		kind, _ := rec.Get("kind")
		label, _ := rec.Get("label")
		props, _ := rec.Get("props")
		n := NodeRecord{Kind: fmt.Sprint(kind), Label: fmt.Sprint(label), Properties: stringProps(props)}
		delete(n.Properties, "name")
		snap.Nodes = append(snap.Nodes, n)
	}

	q := fmt.Sprintf(`
		MATCH (a)-[r:%s]->(b)
		RETURN labels(a)[0] AS fk, a.name AS f, labels(b)[0] AS tk, b.name AS t, properties(r) AS props`, EdgeType)
	res, err = s.run(ctx, q, nil)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	for _, rec := range res.Records {
		fk, _ := rec.Get("fk")
		f, _ := rec.Get("f")
		tk, _ := rec.Get("tk")
		t, _ := rec.Get("t")
		props, _ := rec.Get("props")
		e := EdgeRecord{
			FromKind: fmt.Sprint(fk), From: fmt.Sprint(f),
			ToKind: fmt.Sprint(tk), To: fmt.Sprint(t),
			Properties: stringProps(props),
		}
		e.Label = e.Properties[EdgeLabelKey]
		snap.Edges = append(snap.Edges, e)
	}
	snap.Sort()
	return snap, nil
}

func stringProps(v any) map[string]string {
	out := make(map[string]string)
	m, _ := v.(map[string]any)
	for k, val := range m {
		out[k] = fmt.Sprint(val)
	}
	return out
}

func (s *Neo4jStore) Close() error {
	return s.driver.Close(context.Background())
}

var _ Store = (*Neo4jStore)(nil)
