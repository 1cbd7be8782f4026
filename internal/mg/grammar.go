// Package mg holds the in-memory model of a Minimalist Grammar: features,
// lexical items, the grammar that owns them, and their canonical textual and
// interchange forms.
package mg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentic-research/mggraph/api"
)

// Feature is one classified token of a lexical item's bundle.
type Feature struct {
	Raw string       // token as written, e.g. "=d", "+k", "t"
	ID  string       // Raw without merge or move markers
	Rel RelationKind // fixed at classification
}

// LexicalItem is a phonological form paired with its ordered feature bundle.
type LexicalItem struct {
	Morph  string
	Bundle []Feature
}

// Clone returns a deep copy of the item.
func (li LexicalItem) Clone() LexicalItem {
	out := LexicalItem{Morph: li.Morph}
	if li.Bundle != nil {
		out.Bundle = make([]Feature, len(li.Bundle))
		copy(out.Bundle, li.Bundle)
	}
	return out
}

// RawFeatures returns the raw tokens of the bundle.
func (li LexicalItem) RawFeatures() []string {
	raws := make([]string, len(li.Bundle))
	for i, f := range li.Bundle {
		raws[i] = f.Raw
	}
	return raws
}

// String renders the item as `morph :: f1 f2;`.
func (li LexicalItem) String() string {
	return fmt.Sprintf("%s :: %s;", li.Morph, strings.Join(li.RawFeatures(), " "))
}

// DerivationState is a transient value produced while walking one bundle.
type DerivationState struct {
	ID           string
	Intermediate bool
	Moves        []string
}

// Grammar owns an ordered sequence of lexical items and the cache of ids
// already realised as graph nodes.
type Grammar struct {
	items  []LexicalItem
	states map[string]struct{}
}

// New returns a grammar owning a copy of items.
func New(items []LexicalItem) *Grammar {
	g := &Grammar{states: make(map[string]struct{})}
	g.Replace(items)
	return g
}

// Items returns the lexical items. Callers must not modify the slice.
func (g *Grammar) Items() []LexicalItem {
	return g.items
}

// Len returns the number of lexical items.
func (g *Grammar) Len() int {
	return len(g.items)
}

// Item returns the item at i.
func (g *Grammar) Item(i int) (LexicalItem, error) {
	if i < 0 || i >= len(g.items) {
		return LexicalItem{}, &IndexOutOfRangeError{Kind: "item", Index: i, Len: len(g.items)}
	}
	return g.items[i], nil
}

// Replace swaps in a deep copy of items and clears the state cache.
func (g *Grammar) Replace(items []LexicalItem) {
	g.items = make([]LexicalItem, len(items))
	for i, li := range items {
		g.items[i] = li.Clone()
	}
	g.ClearStates()
}

// Snapshot returns a deep copy of the items.
func (g *Grammar) Snapshot() []LexicalItem {
	out := make([]LexicalItem, len(g.items))
	for i, li := range g.items {
		out[i] = li.Clone()
	}
	return out
}

// Clone returns an independent grammar with the same items and an empty
// state cache.
func (g *Grammar) Clone() *Grammar {
	return New(g.items)
}

// ClearStates empties the realised-state cache.
func (g *Grammar) ClearStates() {
	g.states = make(map[string]struct{})
}

// HasState reports whether id has been realised as a node in this pass.
func (g *Grammar) HasState(id string) bool {
	_, ok := g.states[id]
	return ok
}

// AddState records id as realised. It reports whether id was new.
func (g *Grammar) AddState(id string) bool {
	if g.states == nil {
		g.states = make(map[string]struct{})
	}
	if _, ok := g.states[id]; ok {
		return false
	}
	g.states[id] = struct{}{}
	return true
}

// States returns the number of realised states.
func (g *Grammar) States() int {
	return len(g.states)
}

// String renders the canonical text form, one `morph :: features;` per line.
func (g *Grammar) String() string {
	var b strings.Builder
	for _, li := range g.items {
		b.WriteString(li.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Document converts the grammar to its interchange form.
func (g *Grammar) Document() api.Document {
	doc := api.Document{Version: api.DocumentVersion, Items: make([]api.LexicalItem, len(g.items))}
	for i, li := range g.items {
		item := api.LexicalItem{Morph: li.Morph, Bundle: make([]api.Feature, len(li.Bundle))}
		for j, f := range li.Bundle {
			item.Bundle[j] = api.Feature{Raw: f.Raw, ID: f.ID, Rel: f.Rel.String()}
		}
		doc.Items[i] = item
	}
	return doc
}

// FromDocument builds a grammar from its interchange form.
func FromDocument(doc api.Document) (*Grammar, error) {
	items := make([]LexicalItem, len(doc.Items))
	for i, di := range doc.Items {
		li := LexicalItem{Morph: di.Morph, Bundle: make([]Feature, len(di.Bundle))}
		for j, df := range di.Bundle {
			rel, err := ParseRelation(df.Rel)
			if err != nil {
				return nil, fmt.Errorf("item %d feature %d: %w", i, j, err)
			}
			li.Bundle[j] = Feature{Raw: df.Raw, ID: df.ID, Rel: rel}
		}
		items[i] = li
	}
	return New(items), nil
}

// MarshalDocument encodes the grammar as an indented interchange document.
func (g *Grammar) MarshalDocument() ([]byte, error) {
	return json.MarshalIndent(g.Document(), "", "  ")
}

// UnmarshalDocument decodes an interchange document into a grammar.
func UnmarshalDocument(data []byte) (*Grammar, error) {
	var doc api.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode grammar document: %w", err)
	}
	return FromDocument(doc)
}
