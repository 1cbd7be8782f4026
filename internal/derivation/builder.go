// Package derivation renders a grammar's lexical items into a derivation
// graph: one State node per realised category, intermediate nodes for
// items that select more than once, and MERGE edges labelled by morph or
// feature id.
package derivation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/graph"
	"github.com/agentic-research/mggraph/internal/mg"
)

// MoveKey is the node and edge property holding movement features.
const MoveKey = graph.MoveKey

// MoveSep joins several movement features into one property value.
const MoveSep = ","

// Builder writes grammars into a graph store.
type Builder struct {
	Store  graph.Store
	Logger *slog.Logger
}

// NewBuilder returns a Builder writing to store.
func NewBuilder(store graph.Store, logger *slog.Logger) *Builder {
	return &Builder{Store: store, Logger: logger}
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Rebuild clears the store and builds g into it.
func (b *Builder) Rebuild(ctx context.Context, g *mg.Grammar) (*diag.Report, error) {
	if b.Store == nil {
		return nil, &graph.StoreConnectivityError{Op: "clear"}
	}
	if err := b.Store.Clear(ctx); err != nil {
		return nil, &graph.StoreConnectivityError{Op: "clear", Err: err}
	}
	return b.Build(ctx, g)
}

// Build walks every lexical item of g and emits store operations. The
// grammar's state cache is cleared first and repopulated as nodes are
// created. Failed store calls are collected in the report and the walk
// continues; an unreachable store or a cancelled context aborts the pass
// and leaves the store partially written.
func (b *Builder) Build(ctx context.Context, g *mg.Grammar) (*diag.Report, error) {
	if b.Store == nil {
		return nil, &graph.StoreConnectivityError{Op: "build"}
	}
	if err := b.Store.Ping(ctx); err != nil {
		return nil, &graph.StoreConnectivityError{Op: "ping", Err: err}
	}

	report := &diag.Report{}
	p := &pass{ctx: ctx, store: b.Store, log: b.logger(), report: report, g: g}
	g.ClearStates()
	for i, li := range g.Items() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("build interrupted at item %d: %w", i, err)
		}
		if len(li.Bundle) == 0 {
			w := &mg.EmptyBundleWarning{Index: i, Morph: li.Morph}
			b.logger().Warn("skipping lexical item", "error", w)
			report.Warn(w)
			continue
		}
		p.item(i, li)
	}

	if err := b.Store.RemoveRedundantNodes(ctx); err != nil {
		report.Fail(&graph.StoreOperationError{Op: "remove_redundant_nodes", Target: "graph", Err: err})
	}
	b.logger().Info("derivation graph built",
		"items", g.Len(), "states", g.States(),
		"warnings", len(report.Warnings()), "errors", len(report.Errors()))
	return report, nil
}

// IsHead reports whether li selects before realising its own category.
func IsHead(li mg.LexicalItem) bool {
	if len(li.Bundle) == 0 {
		return false
	}
	switch li.Bundle[0].Rel {
	case mg.LeftMerge, mg.RightMerge, mg.LeftMergeIntermediate, mg.RightMergeIntermediate:
		return true
	case mg.LeftMergeHead, mg.RightMergeHead, mg.MinusMove, mg.PlusMove, mg.State:
		return false
	}
	panic(fmt.Sprintf("derivation: unhandled relation %s", li.Bundle[0].Rel))
}

// Walk turns a bundle into the ordered derivation states it passes through.
// It returns the states, the index of the final State feature's state (or
// -1), and the pivot: the index of the last intermediate merge, where the
// intermediate chain rejoins the final state.
func Walk(bundle []mg.Feature) (states []mg.DerivationState, final, pivot int) {
	final = -1
	merges := 0
	for _, f := range bundle {
		switch f.Rel {
		case mg.LeftMerge, mg.RightMerge, mg.LeftMergeHead, mg.RightMergeHead:
			merges++
			states = append(states, mg.DerivationState{ID: f.ID})
		case mg.LeftMergeIntermediate, mg.RightMergeIntermediate:
			merges++
			pivot = merges - 1
			states = append(states, mg.DerivationState{ID: f.ID, Intermediate: true})
		case mg.MinusMove, mg.PlusMove:
			if n := len(states); n > 0 {
				states[n-1].Moves = append(states[n-1].Moves, f.Raw)
			}
		case mg.State:
			final = len(states)
			states = append(states, mg.DerivationState{ID: f.ID})
		default:
			panic(fmt.Sprintf("derivation: unhandled relation %s", f.Rel))
		}
	}
	return states, final, pivot
}

// IntermediateLabel names the node entered after merging id from previous.
// The first hop of an item is `<LI.id>`, later ones nest: `<<LI.v>.d>`.
func IntermediateLabel(previous, id string) string {
	if previous == "" {
		return "<LI." + id + ">"
	}
	return "<" + previous + "." + id + ">"
}

// pass holds the per-item context of one build.
type pass struct {
	ctx    context.Context
	store  graph.Store
	log    *slog.Logger
	report *diag.Report
	g      *mg.Grammar
}

func (p *pass) item(index int, li mg.LexicalItem) {
	p.log.Debug("building lexical item", "morph", li.Morph, "head", IsHead(li))

	for _, f := range li.Bundle {
		if f.Rel.IsNode() && p.g.AddState(f.ID) {
			p.createNode(f.ID, graph.KindState)
		}
	}

	states, final, pivot := Walk(li.Bundle)
	if len(states) == 1 {
		s := states[0]
		if len(s.Moves) > 0 {
			p.setNode(graph.KindState, s.ID, strings.Join(s.Moves, MoveSep))
		}
		return
	}

	finalUsed := final < 0
	var previous string
	for i, s := range states {
		switch {
		case i == 0 && !s.Intermediate:
			if final == 0 {
				w := &mg.UnconnectedItemWarning{Index: index, Morph: li.Morph}
				p.log.Warn("lexical item not connected", "error", w)
				p.report.Warn(w)
				continue
			}
			if finalUsed {
				continue
			}
			finalUsed = true
			p.connect(s.ID, graph.KindState, states[final].ID, graph.KindState, li.Morph)
			p.setEdge(li.Morph, strings.Join(s.Moves, MoveSep))

		case i == 0:
			label := IntermediateLabel("", s.ID)
			p.createInterm(label)
			p.connect(s.ID, graph.KindState, label, graph.KindInterm, li.Morph)
			p.setEdge(li.Morph, strings.Join(s.Moves, MoveSep))
			previous = label

		case i == pivot && s.Intermediate && previous != "":
			if finalUsed {
				continue
			}
			finalUsed = true
			p.connect(previous, graph.KindInterm, states[final].ID, graph.KindState, s.ID)
			p.setEdge(s.ID, strings.Join(s.Moves, MoveSep))

		case s.Intermediate:
			if previous == "" {
				// Nothing to chain from: the item opened with its category.
				p.log.Debug("intermediate merge without a head", "morph", li.Morph, "feature", s.ID)
				continue
			}
			label := IntermediateLabel(previous, s.ID)
			p.createInterm(label)
			p.connect(previous, graph.KindInterm, label, graph.KindInterm, s.ID)
			if len(s.Moves) > 0 {
				p.setNode(graph.KindInterm, label, strings.Join(s.Moves, MoveSep))
			}
			previous = label
		}
	}
}

func (p *pass) fail(op, target string, err error) {
	e := &graph.StoreOperationError{Op: op, Target: target, Err: err}
	p.log.Warn("store operation failed", "op", op, "target", target, "error", err)
	p.report.Fail(e)
}

func (p *pass) createNode(label, kind string) {
	if err := p.store.CreateNode(p.ctx, label, kind); err != nil {
		p.fail("create_node", label, err)
		return
	}
	if err := p.store.SetNodeProperty(p.ctx, kind, label, MoveKey, ""); err != nil {
		p.fail("set_node_property", label, err)
	}
}

func (p *pass) createInterm(label string) {
	if p.g.AddState(label) {
		p.createNode(label, graph.KindInterm)
	}
}

func (p *pass) connect(from, fromKind, to, toKind, label string) {
	if err := p.store.CreateEdge(p.ctx, from, fromKind, to, toKind, label); err != nil {
		p.fail("create_edge", fmt.Sprintf("%s -[%s]-> %s", from, label, to), err)
	}
}

func (p *pass) setEdge(label, moves string) {
	if err := p.store.SetEdgeProperty(p.ctx, graph.EdgeLabelKey, label, MoveKey, moves); err != nil {
		p.fail("set_edge_property", label, err)
	}
}

func (p *pass) setNode(kind, label, moves string) {
	if err := p.store.SetNodeProperty(p.ctx, kind, label, MoveKey, moves); err != nil {
		p.fail("set_node_property", label, err)
	}
}
