// Package workspace owns the live grammar together with its graph store and
// decomposition cache. All access goes through Workspace.With, which holds
// the workspace exclusively for the duration of one operation.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/mggraph/api"
	"github.com/agentic-research/mggraph/internal/collection"
	"github.com/agentic-research/mggraph/internal/decomp"
	"github.com/agentic-research/mggraph/internal/derivation"
	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/graph"
	"github.com/agentic-research/mggraph/internal/ingest"
	"github.com/agentic-research/mggraph/internal/logging"
	"github.com/agentic-research/mggraph/internal/mdl"
	"github.com/agentic-research/mggraph/internal/mg"
)

// ErrNoSuggestions is returned by Decompose when no indices were given and
// none are cached for the affix.
var ErrNoSuggestions = errors.New("no cached suggestions for affix")

// Options configure a Workspace.
type Options struct {
	AlphabetSize int
	FeatureTypes int
	Similarity   decomp.Options
	Collection   *collection.Store // optional; receives recent.json
	Logger       *slog.Logger
}

// Workspace serialises operations on one grammar and store pair.
type Workspace struct {
	mu      sync.Mutex
	session *Session
}

// New returns a workspace over store with an empty grammar.
func New(store graph.Store, opts Options) *Workspace {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	if opts.AlphabetSize == 0 && opts.FeatureTypes == 0 {
		opts.AlphabetSize, opts.FeatureTypes = mdl.DefaultAlphabetSize, mdl.DefaultFeatureTypes
	}
	return &Workspace{session: &Session{
		grammar:    mg.New(nil),
		store:      store,
		classifier: &ingest.Classifier{Logger: logging.Component(log, "ingest")},
		builder:    derivation.NewBuilder(store, logging.Component(log, "derivation")),
		decomposer: decomp.New(opts.Similarity, logging.Component(log, "decomp")),
		calculator: mdl.New(opts.AlphabetSize, opts.FeatureTypes, logging.Component(log, "mdl")),
		collection: opts.Collection,
		log:        log,
	}}
}

// With runs fn with exclusive access to the session. The lock is released
// when fn returns or panics.
func (w *Workspace) With(ctx context.Context, fn func(*Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return fn(w.session)
}

// Close releases the store.
func (w *Workspace) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.store == nil {
		return nil
	}
	return w.session.store.Close()
}

// Session is the state reachable inside Workspace.With. It must not be
// retained after fn returns.
type Session struct {
	grammar    *mg.Grammar
	store      graph.Store
	classifier *ingest.Classifier
	builder    *derivation.Builder
	decomposer *decomp.Decomposer
	calculator *mdl.Calculator
	collection *collection.Store
	log        *slog.Logger
}

// Grammar returns the live grammar.
func (s *Session) Grammar() *mg.Grammar { return s.grammar }

// Store returns the graph store.
func (s *Session) Store() graph.Store { return s.store }

// Load parses text, replaces the live grammar and rebuilds the graph. The
// report holds both parse and build diagnostics.
func (s *Session) Load(ctx context.Context, text string) (*diag.Report, error) {
	g, report := s.classifier.Classify(text)
	s.grammar = g
	build, err := s.rebuild(ctx)
	report.Merge(build)
	return report, err
}

// LoadGrammar replaces the live grammar with a copy of g and rebuilds.
func (s *Session) LoadGrammar(ctx context.Context, g *mg.Grammar) (*diag.Report, error) {
	s.grammar = g.Clone()
	return s.rebuild(ctx)
}

func (s *Session) rebuild(ctx context.Context) (*diag.Report, error) {
	report, err := s.builder.Rebuild(ctx, s.grammar)
	if err != nil {
		return report, err
	}
	s.saveRecent()
	return report, nil
}

func (s *Session) saveRecent() {
	if s.collection == nil {
		return
	}
	if err := s.collection.SaveRecent(s.grammar.Document()); err != nil {
		s.log.Warn("saving recent grammar", "error", err)
	}
}

// Suggestions recomputes affix suggestions for the live grammar and caches
// them for Decompose.
func (s *Session) Suggestions() map[string][]int {
	return s.decomposer.Suggestions(s.grammar.Items())
}

// Candidates returns the scored affix buckets without thresholding.
func (s *Session) Candidates() map[string][]decomp.Candidate {
	return s.decomposer.FindCandidates(s.grammar.Items())
}

// Decompose factors affix out of the items at indices, or out of the cached
// suggestions for affix when indices is empty, then rebuilds the graph. On
// any validation error the live grammar is left as it was.
func (s *Session) Decompose(ctx context.Context, affix string, split int, indices []int) (*diag.Report, error) {
	a, err := decomp.ParseAffix(affix)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		cached, ok := s.decomposer.Cached(a.Morph)
		if !ok || len(cached) == 0 {
			return nil, fmt.Errorf("%w %q", ErrNoSuggestions, a.Morph)
		}
		indices = cached
	}
	items, err := s.decomposer.Decompose(s.grammar.Items(), indices, a, split)
	if err != nil {
		return nil, err
	}
	s.grammar.Replace(items)
	s.log.Info("decomposed grammar", "affix", a.Morph, "items", len(indices), "split", split)
	return s.rebuild(ctx)
}

// Size computes the MDL estimate of the live grammar.
func (s *Session) Size() mdl.Result {
	return s.calculator.FromGrammar(s.grammar)
}

// Document returns the interchange form of the live grammar.
func (s *Session) Document() api.Document {
	return s.grammar.Document()
}

// Text returns the canonical textual form of the live grammar.
func (s *Session) Text() string {
	return s.grammar.String()
}

// Pathways holds the paths between two states.
type Pathways struct {
	All      []string `json:"all"`
	Shortest []string `json:"shortest"`
}

// Pathways queries all and shortest paths concurrently. Both queries only
// read the store.
func (s *Session) Pathways(ctx context.Context, from, to string) (Pathways, error) {
	if s.store == nil {
		return Pathways{}, &graph.StoreConnectivityError{Op: "pathways"}
	}
	var p Pathways
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := s.store.AllPaths(gctx, from, to)
		if err != nil {
			return fmt.Errorf("all paths %s -> %s: %w", from, to, err)
		}
		p.All = all
		return nil
	})
	g.Go(func() error {
		shortest, err := s.store.ShortestPaths(gctx, from, to)
		if err != nil {
			return fmt.Errorf("shortest paths %s -> %s: %w", from, to, err)
		}
		p.Shortest = shortest
		return nil
	})
	if err := g.Wait(); err != nil {
		return Pathways{}, err
	}
	return p, nil
}

// Snapshot returns the current graph contents.
func (s *Session) Snapshot(ctx context.Context) (*graph.Snapshot, error) {
	return s.store.Snapshot(ctx)
}
