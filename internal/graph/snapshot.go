package graph

import (
	"context"
	"sort"
	"strings"
)

// NodeRecord is a node as held by a store.
type NodeRecord struct {
	Kind       string            `json:"kind"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// EdgeRecord is a MERGE edge as held by a store. Label is the value of the
// edge's EdgeLabelKey property.
type EdgeRecord struct {
	From       string            `json:"from"`
	FromKind   string            `json:"from_kind"`
	To         string            `json:"to"`
	ToKind     string            `json:"to_kind"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Snapshot is a point-in-time copy of a store's contents.
type Snapshot struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// Node returns the first node with the given label, of any kind.
func (s *Snapshot) Node(label string) (NodeRecord, bool) {
	for _, n := range s.Nodes {
		if n.Label == label {
			return n, true
		}
	}
	return NodeRecord{}, false
}

// EdgesLabelled returns every edge whose label equals label.
func (s *Snapshot) EdgesLabelled(label string) []EdgeRecord {
	var out []EdgeRecord
	for _, e := range s.Edges {
		if e.Label == label {
			out = append(out, e)
		}
	}
	return out
}

// Sort orders nodes and edges deterministically.
func (s *Snapshot) Sort() {
	sort.Slice(s.Nodes, func(i, j int) bool {
		if s.Nodes[i].Label != s.Nodes[j].Label {
			return s.Nodes[i].Label < s.Nodes[j].Label
		}
		return s.Nodes[i].Kind < s.Nodes[j].Kind
	})
	sort.Slice(s.Edges, func(i, j int) bool {
		a, b := s.Edges[i], s.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Label < b.Label
	})
}

type nodeKey struct {
	kind, label string
}

func (k nodeKey) String() string {
	return k.kind + ":" + k.label
}

// redundantMerges finds intermediate nodes that are structurally equivalent:
// same move property and the same set of outgoing (label, target) edges.
// The result maps each duplicate to the node that survives it. Merging is
// repeated until no new equivalence appears, since collapsing two nodes can
// make their predecessors equivalent.
func redundantMerges(s *Snapshot) map[nodeKey]nodeKey {
	merged := make(map[nodeKey]nodeKey)
	resolve := func(k nodeKey) nodeKey {
		for {
			next, ok := merged[k]
			if !ok {
				return k
			}
			k = next
		}
	}

	for {
		out := make(map[nodeKey]map[string]struct{})
		for _, e := range s.Edges {
			from := resolve(nodeKey{e.FromKind, e.From})
			to := resolve(nodeKey{e.ToKind, e.To})
			if out[from] == nil {
				out[from] = make(map[string]struct{})
			}
			out[from][e.Label+"\x00"+to.String()] = struct{}{}
		}

		groups := make(map[string][]nodeKey)
		for _, n := range s.Nodes {
			k := nodeKey{n.Kind, n.Label}
			if n.Kind != KindInterm || resolve(k) != k {
				continue
			}
			edges := make([]string, 0, len(out[k]))
			for sig := range out[k] {
				edges = append(edges, sig)
			}
			if len(edges) == 0 {
				continue
			}
			sort.Strings(edges)
			sig := n.Properties[MoveKey] + "\x01" + strings.Join(edges, "\x01")
			groups[sig] = append(groups[sig], k)
		}

		changed := false
		for _, keys := range groups {
			if len(keys) < 2 {
				continue
			}
			sort.Slice(keys, func(i, j int) bool { return keys[i].label < keys[j].label })
			for _, dup := range keys[1:] {
				merged[dup] = keys[0]
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	for dup := range merged {
		merged[dup] = resolve(dup)
	}
	return merged
}

// findPaths enumerates simple paths from start to end, following edges of
// any node kind. With shortest set only the minimal-length paths are kept.
func findPaths(ctx context.Context, s *Snapshot, start, end string, shortest bool) ([]string, error) {
	adj := make(map[string][]EdgeRecord)
	for _, e := range s.Edges {
		adj[e.From] = append(adj[e.From], e)
	}
	for k := range adj {
		edges := adj[k]
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].Label != edges[j].Label {
				return edges[i].Label < edges[j].Label
			}
			return edges[i].To < edges[j].To
		})
	}

	var paths [][]string
	visited := map[string]bool{start: true}
	var labels []string
	var walk func(at string) error
	walk = func(at string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, e := range adj[at] {
			if visited[e.To] {
				continue
			}
			labels = append(labels, e.Label)
			if e.To == end {
				paths = append(paths, append([]string(nil), labels...))
			} else if len(paths) < maxPaths {
				visited[e.To] = true
				if err := walk(e.To); err != nil {
					return err
				}
				visited[e.To] = false
			}
			labels = labels[:len(labels)-1]
		}
		return nil
	}
	if start != end {
		if err := walk(start); err != nil {
			return nil, err
		}
	}

	if shortest && len(paths) > 0 {
		shortestLen := len(paths[0])
		for _, p := range paths {
			shortestLen = min(shortestLen, len(p))
		}
		kept := paths[:0]
		for _, p := range paths {
			if len(p) == shortestLen {
				kept = append(kept, p)
			}
		}
		paths = kept
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.Join(p, PathSep)
	}
	sort.Strings(out)
	return out, nil
}

// maxPaths bounds path enumeration on dense graphs.
const maxPaths = 10000
