// Package graph provides the property-graph stores a derivation graph is
// written to, and the path and redundancy algorithms they share.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// Node kinds written by the derivation builder.
const (
	KindState  = "State"
	KindInterm = "Interm"
)

// EdgeType is the relationship type of every derivation edge.
const EdgeType = "MERGE"

// EdgeLabelKey is the edge property holding the merge label (the lexical
// item's morph, or a feature id for intermediate hops).
const EdgeLabelKey = "li"

// MoveKey is the node and edge property holding movement features. New
// edges start with it empty.
const MoveKey = "move"

// PathSep joins edge labels when rendering a path.
const PathSep = " => "

var (
	ErrNotFound     = errors.New("graph element not found")
	ErrConnectivity = errors.New("graph store unreachable")
	ErrInvalidKind  = errors.New("invalid node kind")
)

// Store is the capability the derivation builder writes through.
// Every method is a single sequential operation; none may be called
// concurrently with a write on the same store.
type Store interface {
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
	// CreateNode creates the node if it does not exist.
	CreateNode(ctx context.Context, label, kind string) error
	// CreateEdge connects two nodes with a labelled MERGE edge, creating
	// missing endpoints with the given kinds. A new edge has an empty
	// MoveKey property; an existing one is left as it is.
	CreateEdge(ctx context.Context, fromLabel, fromKind, toLabel, toKind, edgeLabel string) error
	SetNodeProperty(ctx context.Context, kind, label, key, value string) error
	// SetEdgeProperty sets key=value on every edge whose edgeKey property
	// equals edgeValue.
	SetEdgeProperty(ctx context.Context, edgeKey, edgeValue, key, value string) error
	Clear(ctx context.Context) error
	// RemoveRedundantNodes merges structurally equivalent intermediate nodes.
	RemoveRedundantNodes(ctx context.Context) error
	// AllPaths returns every simple path between two labels.
	AllPaths(ctx context.Context, start, end string) ([]string, error)
	// ShortestPaths returns every path of minimal length between two labels.
	ShortestPaths(ctx context.Context, start, end string) ([]string, error)
	// Snapshot returns the full graph contents.
	Snapshot(ctx context.Context) (*Snapshot, error)
	Close() error
}

// StoreConnectivityError means the store itself is unusable. It aborts a
// build pass.
type StoreConnectivityError struct {
	Op  string
	Err error
}

func (e *StoreConnectivityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: graph store unreachable", e.Op)
	}
	return fmt.Sprintf("%s: graph store unreachable: %v", e.Op, e.Err)
}

func (e *StoreConnectivityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConnectivity}
	}
	return []error{ErrConnectivity, e.Err}
}

// StoreOperationError is a single failed store call. A build pass logs it
// and continues.
type StoreOperationError struct {
	Op     string // e.g. "create_node"
	Target string // node label or edge description
	Err    error
}

func (e *StoreOperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *StoreOperationError) Unwrap() error { return e.Err }

func checkKind(kind string) error {
	if kind != KindState && kind != KindInterm {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	return nil
}
