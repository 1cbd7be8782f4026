package graph

import (
	"context"
	"fmt"
	"sync"
)

type memEdge struct {
	from, to nodeKey
	label    string
	props    map[string]string
}

// MemoryStore is an in-process Store. It backs tests and `--store memory`.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[nodeKey]map[string]string // node -> properties
	order []nodeKey                     // creation order, for stable snapshots
	edges []*memEdge
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[nodeKey]map[string]string)}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateNode(_ context.Context, label, kind string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureNode(nodeKey{kind, label})
	return nil
}

// ensureNode must be called with s.mu held.
func (s *MemoryStore) ensureNode(k nodeKey) {
	if _, ok := s.nodes[k]; ok {
		return
	}
	s.nodes[k] = make(map[string]string)
	s.order = append(s.order, k)
}

func (s *MemoryStore) CreateEdge(_ context.Context, fromLabel, fromKind, toLabel, toKind, edgeLabel string) error {
	if err := checkKind(fromKind); err != nil {
		return err
	}
	if err := checkKind(toKind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := nodeKey{fromKind, fromLabel}, nodeKey{toKind, toLabel}
	s.ensureNode(from)
	s.ensureNode(to)
	for _, e := range s.edges {
		if e.from == from && e.to == to && e.label == edgeLabel {
			return nil
		}
	}
	s.edges = append(s.edges, &memEdge{
		from:  from,
		to:    to,
		label: edgeLabel,
		props: map[string]string{EdgeLabelKey: edgeLabel, MoveKey: ""},
	})
	return nil
}

func (s *MemoryStore) SetNodeProperty(_ context.Context, kind, label, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	props, ok := s.nodes[nodeKey{kind, label}]
	if !ok {
		return fmt.Errorf("%w: %s node %q", ErrNotFound, kind, label)
	}
	props[key] = value
	return nil
}

func (s *MemoryStore) SetEdgeProperty(_ context.Context, edgeKey, edgeValue, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := false
	for _, e := range s.edges {
		if e.props[edgeKey] == edgeValue {
			e.props[key] = value
			if key == EdgeLabelKey {
				e.label = value
			}
			matched = true
		}
	}
	if !matched {
		return fmt.Errorf("%w: edge with %s=%q", ErrNotFound, edgeKey, edgeValue)
	}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[nodeKey]map[string]string)
	s.order = nil
	s.edges = nil
	return nil
}

func (s *MemoryStore) RemoveRedundantNodes(ctx context.Context) error {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	merges := redundantMerges(snap)
	if len(merges) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*memEdge
	seen := make(map[string]bool)
	for _, e := range s.edges {
		if to, ok := merges[e.to]; ok {
			e.to = to
		}
		if _, dup := merges[e.from]; dup {
			// Outgoing edges of a duplicate already exist on its survivor.
			continue
		}
		sig := e.from.String() + "\x00" + e.to.String() + "\x00" + e.label
		if seen[sig] {
			continue
		}
		seen[sig] = true
		kept = append(kept, e)
	}
	s.edges = kept

	order := s.order[:0]
	for _, k := range s.order {
		if _, dup := merges[k]; dup {
			delete(s.nodes, k)
			continue
		}
		order = append(order, k)
	}
	s.order = order
	return nil
}

func (s *MemoryStore) AllPaths(ctx context.Context, start, end string) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return findPaths(ctx, snap, start, end, false)
}

func (s *MemoryStore) ShortestPaths(ctx context.Context, start, end string) ([]string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return findPaths(ctx, snap, start, end, true)
}

func (s *MemoryStore) Snapshot(context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		Nodes: make([]NodeRecord, 0, len(s.order)),
		Edges: make([]EdgeRecord, 0, len(s.edges)),
	}
	for _, k := range s.order {
		snap.Nodes = append(snap.Nodes, NodeRecord{Kind: k.kind, Label: k.label, Properties: copyProps(s.nodes[k])})
	}
	for _, e := range s.edges {
		snap.Edges = append(snap.Edges, EdgeRecord{
			From:       e.from.label,
			FromKind:   e.from.kind,
			To:         e.to.label,
			ToKind:     e.to.kind,
			Label:      e.label,
			Properties: copyProps(e.props),
		})
	}
	return snap, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyProps(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
