package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every store that runs without a
// server.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	mem, err := OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	return map[string]Store{
		"memory":        NewMemoryStore(),
		"sqlite":        sqlite,
		"sqlite-memory": mem,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) { fn(t, s) })
	}
}

func TestStore_CreateNodeIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.CreateNode(ctx, "d", KindState))
		require.NoError(t, s.CreateNode(ctx, "d", KindState))
		require.NoError(t, s.CreateNode(ctx, "<LI.v>", KindInterm))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Nodes, 2)
		n, ok := snap.Node("<LI.v>")
		require.True(t, ok)
		assert.Equal(t, KindInterm, n.Kind)
	})
}

func TestStore_InvalidKind(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		assert.ErrorIs(t, s.CreateNode(ctx, "d", "Person"), ErrInvalidKind)
		assert.ErrorIs(t, s.CreateEdge(ctx, "d", KindState, "t", "State) DELETE", "x"), ErrInvalidKind)
	})
}

func TestStore_CreateEdgeCreatesEndpoints(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateEdge(ctx, "d", KindState, "t", KindState, "laughs"))
		require.NoError(t, s.CreateEdge(ctx, "d", KindState, "t", KindState, "laughs"))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Nodes, 2)
		require.Len(t, snap.Edges, 1)
		e := snap.Edges[0]
		assert.Equal(t, "d", e.From)
		assert.Equal(t, "t", e.To)
		assert.Equal(t, "laughs", e.Label)
		assert.Equal(t, "laughs", e.Properties[EdgeLabelKey])
		assert.Equal(t, "", e.Properties[MoveKey])
		_, ok := e.Properties[MoveKey]
		assert.True(t, ok, "new edges start with an empty move")
	})
}

func TestStore_Properties(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateNode(ctx, "d", KindState))
		require.NoError(t, s.SetNodeProperty(ctx, KindState, "d", "move", "-k"))
		require.NoError(t, s.CreateEdge(ctx, "d", KindState, "t", KindState, "laughs"))
		require.NoError(t, s.SetEdgeProperty(ctx, EdgeLabelKey, "laughs", "move", "+k"))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		n, _ := snap.Node("d")
		assert.Equal(t, "-k", n.Properties["move"])
		edges := snap.EdgesLabelled("laughs")
		require.Len(t, edges, 1)
		assert.Equal(t, "+k", edges[0].Properties["move"])

		assert.ErrorIs(t, s.SetNodeProperty(ctx, KindState, "nope", "move", ""), ErrNotFound)
		assert.ErrorIs(t, s.SetNodeProperty(ctx, KindInterm, "d", "move", ""), ErrNotFound)
		assert.ErrorIs(t, s.SetEdgeProperty(ctx, EdgeLabelKey, "nope", "move", ""), ErrNotFound)
	})
}

func TestStore_CreateEdgeKeepsExistingMove(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateEdge(ctx, "<LI.v>", KindInterm, "t", KindState, "d"))
		require.NoError(t, s.SetEdgeProperty(ctx, EdgeLabelKey, "d", MoveKey, "+k"))
		require.NoError(t, s.CreateEdge(ctx, "<LI.v>", KindInterm, "t", KindState, "d"))
		require.NoError(t, s.CreateEdge(ctx, "<LI.a>", KindInterm, "<<LI.a>.d>", KindInterm, "d"))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		moves := map[string]string{}
		for _, e := range snap.EdgesLabelled("d") {
			moves[e.From] = e.Properties[MoveKey]
		}
		assert.Equal(t, map[string]string{"<LI.v>": "+k", "<LI.a>": ""}, moves)
	})
}

func TestStore_RelabelEdge(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.CreateEdge(ctx, "d", KindState, "t", KindState, "laugh"))
		require.NoError(t, s.SetEdgeProperty(ctx, EdgeLabelKey, "laugh", EdgeLabelKey, "laughs"))

		paths, err := s.AllPaths(ctx, "d", "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"laughs"}, paths)
	})
}

// diamond: d -> t directly, and d -> <LI.v> -> t.
func buildDiamond(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateEdge(ctx, "d", KindState, "t", KindState, "laughs"))
	require.NoError(t, s.CreateEdge(ctx, "d", KindState, "<LI.v>", KindInterm, "sees"))
	require.NoError(t, s.CreateEdge(ctx, "<LI.v>", KindInterm, "t", KindState, "d"))
	require.NoError(t, s.CreateEdge(ctx, "t", KindState, "d", KindState, "that"))
}

func TestStore_Paths(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		buildDiamond(t, s)

		all, err := s.AllPaths(ctx, "d", "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"laughs", "sees => d"}, all)

		shortest, err := s.ShortestPaths(ctx, "d", "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"laughs"}, shortest)

		none, err := s.AllPaths(ctx, "t", "missing")
		require.NoError(t, err)
		assert.Empty(t, none)

		self, err := s.AllPaths(ctx, "d", "d")
		require.NoError(t, err)
		assert.Empty(t, self)
	})
}

func TestStore_Clear(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		buildDiamond(t, s)
		require.NoError(t, s.Clear(ctx))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Nodes)
		assert.Empty(t, snap.Edges)
	})
}

func TestStore_RemoveRedundantNodes(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		// see :: =v =d t; hear :: =w =d t;
		require.NoError(t, s.CreateEdge(ctx, "v", KindState, "<LI.v>", KindInterm, "see"))
		require.NoError(t, s.CreateEdge(ctx, "<LI.v>", KindInterm, "t", KindState, "d"))
		require.NoError(t, s.CreateEdge(ctx, "w", KindState, "<LI.w>", KindInterm, "hear"))
		require.NoError(t, s.CreateEdge(ctx, "<LI.w>", KindInterm, "t", KindState, "d"))
		// A different move keeps <LI.x> distinct.
		require.NoError(t, s.CreateEdge(ctx, "x", KindState, "<LI.x>", KindInterm, "say"))
		require.NoError(t, s.CreateEdge(ctx, "<LI.x>", KindInterm, "t", KindState, "d"))
		require.NoError(t, s.SetNodeProperty(ctx, KindInterm, "<LI.x>", "move", "+k"))

		require.NoError(t, s.RemoveRedundantNodes(ctx))

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		_, ok := snap.Node("<LI.w>")
		assert.False(t, ok, "duplicate removed")
		_, ok = snap.Node("<LI.v>")
		assert.True(t, ok, "survivor kept")
		_, ok = snap.Node("<LI.x>")
		assert.True(t, ok)

		paths, err := s.AllPaths(ctx, "w", "t")
		require.NoError(t, err)
		assert.Equal(t, []string{"hear => d"}, paths)
		assert.Len(t, snap.EdgesLabelled("d"), 2)

		// A second pass finds nothing new.
		require.NoError(t, s.RemoveRedundantNodes(ctx))
		again, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Len(t, again.Nodes, len(snap.Nodes))
	})
}

func TestRedundantMerges_Cascade(t *testing.T) {
	// Collapsing the inner pair makes the outer pair equivalent.
	snap := &Snapshot{
		Nodes: []NodeRecord{
			{Kind: KindInterm, Label: "a1"}, {Kind: KindInterm, Label: "a2"},
			{Kind: KindInterm, Label: "b1"}, {Kind: KindInterm, Label: "b2"},
			{Kind: KindState, Label: "t"},
		},
		Edges: []EdgeRecord{
			{FromKind: KindInterm, From: "a1", ToKind: KindInterm, To: "b1", Label: "p"},
			{FromKind: KindInterm, From: "a2", ToKind: KindInterm, To: "b2", Label: "p"},
			{FromKind: KindInterm, From: "b1", ToKind: KindState, To: "t", Label: "d"},
			{FromKind: KindInterm, From: "b2", ToKind: KindState, To: "t", Label: "d"},
		},
	}
	merges := redundantMerges(snap)
	assert.Equal(t, map[nodeKey]nodeKey{
		{KindInterm, "b2"}: {KindInterm, "b1"},
		{KindInterm, "a2"}: {KindInterm, "a1"},
	}, merges)
}

func TestFindPaths_Cancelled(t *testing.T) {
	s := NewMemoryStore()
	buildDiamond(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.AllPaths(ctx, "d", "t")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapshot_Sort(t *testing.T) {
	snap := &Snapshot{
		Nodes: []NodeRecord{{Kind: KindState, Label: "t"}, {Kind: KindState, Label: "d"}},
		Edges: []EdgeRecord{{From: "v", To: "t", Label: "b"}, {From: "d", To: "t", Label: "a"}},
	}
	snap.Sort()
	assert.Equal(t, "d", snap.Nodes[0].Label)
	assert.Equal(t, "d", snap.Edges[0].From)
}

func TestStoreErrors(t *testing.T) {
	conn := &StoreConnectivityError{Op: "ping"}
	assert.ErrorIs(t, conn, ErrConnectivity)
	assert.Equal(t, "ping: graph store unreachable", conn.Error())

	op := &StoreOperationError{Op: "create_node", Target: "d", Err: ErrInvalidKind}
	assert.ErrorIs(t, op, ErrInvalidKind)
	assert.Equal(t, "create_node d: invalid node kind", op.Error())
}
