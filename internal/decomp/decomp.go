// Package decomp finds affixes shared across lexical items and rewrites a
// grammar so that a chosen affix becomes its own lexical item.
package decomp

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/mggraph/internal/ingest"
	"github.com/agentic-research/mggraph/internal/mg"
)

// ErrNoSelection is returned when Decompose is given no item indices.
var ErrNoSelection = errors.New("no lexical items selected")

// Alpha scales the standard deviation in the suggestion threshold.
const Alpha = 1.0

// DecayRate is the exponent base of the positional weight used when
// Options.Weighted is set.
const DecayRate = 2.0

// thresholdSlack absorbs rounding in mean and stddev so that a bucket of
// identical scores keeps every member.
const thresholdSlack = 1e-9

// Options select variants of the similarity scoring.
type Options struct {
	// Weighted applies exp(-DecayRate*(i-1)) to each positional match.
	Weighted bool
	// ExcludeSelf leaves an item out of its own average similarity.
	ExcludeSelf bool
}

// Candidate is one member of an affix bucket with its average similarity
// to the bucket.
type Candidate struct {
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

// Decomposer scores affix candidates and remembers the last suggestions.
type Decomposer struct {
	Options Options
	Logger  *slog.Logger

	cache map[string][]int
}

// New returns a Decomposer with the given options.
func New(opts Options, logger *slog.Logger) *Decomposer {
	return &Decomposer{Options: opts, Logger: logger}
}

func (d *Decomposer) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// CommonAffix returns the longest common prefix and suffix of two morphs,
// compared rune by rune.
func CommonAffix(a, b string) (prefix, suffix string) {
	ra, rb := []rune(a), []rune(b)
	n := min(len(ra), len(rb))

	p := 0
	for p < n && ra[p] == rb[p] {
		p++
	}
	s := 0
	for s < n && ra[len(ra)-1-s] == rb[len(rb)-1-s] {
		s++
	}
	return string(ra[:p]), string(ra[len(ra)-s:])
}

// AffixMap compares every pair of items and indexes them by shared affix:
// "<prefix>-" for a common prefix and "-<suffix>" for a common suffix.
func AffixMap(items []mg.LexicalItem) map[string]*roaring.Bitmap {
	out := make(map[string]*roaring.Bitmap)
	add := func(affix string, i, j int) {
		bm, ok := out[affix]
		if !ok {
			bm = roaring.New()
			out[affix] = bm
		}
		bm.Add(uint32(i))
		bm.Add(uint32(j))
	}
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			pre, suf := CommonAffix(items[i].Morph, items[j].Morph)
			if pre != "" {
				add(pre+"-", i, j)
			}
			if suf != "" {
				add("-"+suf, i, j)
			}
		}
	}
	return out
}

// SyntacticSimilarity scores how closely two bundles align. Bundles with a
// different active (first) feature score 0. Otherwise each later position
// with an equal raw token adds 1/n, n being the shorter bundle's length.
func (d *Decomposer) SyntacticSimilarity(a, b mg.LexicalItem) float64 {
	if len(a.Bundle) == 0 || len(b.Bundle) == 0 || a.Bundle[0].Raw != b.Bundle[0].Raw {
		return 0
	}
	n := min(len(a.Bundle), len(b.Bundle))
	var sim float64
	for i := 1; i < n; i++ {
		if a.Bundle[i].Raw != b.Bundle[i].Raw {
			continue
		}
		w := 1.0
		if d.Options.Weighted {
			w = math.Exp(-DecayRate * float64(i-1))
		}
		sim += w / float64(n)
	}
	return sim
}

// FindCandidates scores every member of every affix bucket by its average
// similarity to the bucket. Buckets are sorted by descending similarity,
// ties by index.
func (d *Decomposer) FindCandidates(items []mg.LexicalItem) map[string][]Candidate {
	out := make(map[string][]Candidate)
	for affix, bm := range AffixMap(items) {
		members := bm.ToArray()
		cands := make([]Candidate, 0, len(members))
		for _, i := range members {
			var total float64
			count := 0
			for _, j := range members {
				if d.Options.ExcludeSelf && i == j {
					continue
				}
				total += d.SyntacticSimilarity(items[j], items[i])
				count++
			}
			avg := 0.0
			if count > 0 {
				avg = total / float64(count)
			}
			cands = append(cands, Candidate{Index: int(i), Similarity: avg})
		}
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].Similarity != cands[b].Similarity {
				return cands[a].Similarity > cands[b].Similarity
			}
			return cands[a].Index < cands[b].Index
		})
		out[affix] = cands
	}
	return out
}

// Suggestions keeps, per affix, the items scoring at least mean + Alpha·σ
// (population standard deviation) of their bucket. The result replaces
// the decomposer's cache.
func (d *Decomposer) Suggestions(items []mg.LexicalItem) map[string][]int {
	out := make(map[string][]int)
	for affix, cands := range d.FindCandidates(items) {
		var sum float64
		for _, c := range cands {
			sum += c.Similarity
		}
		mean := sum / float64(len(cands))
		var variance float64
		for _, c := range cands {
			diff := mean - c.Similarity
			variance += diff * diff
		}
		threshold := mean + Alpha*math.Sqrt(variance/float64(len(cands)))

		kept := make([]int, 0, len(cands))
		for _, c := range cands {
			if c.Similarity >= threshold-thresholdSlack {
				kept = append(kept, c.Index)
			}
		}
		out[affix] = kept
	}

	d.cache = make(map[string][]int, len(out))
	for affix, idx := range out {
		d.cache[affix] = append([]int(nil), idx...)
	}
	d.logger().Debug("decomposition suggestions", "affixes", len(out))
	return out
}

// Cached returns the indices last suggested for affix.
func (d *Decomposer) Cached(affix string) ([]int, bool) {
	idx, ok := d.cache[affix]
	if !ok {
		return nil, false
	}
	return append([]int(nil), idx...), true
}

// Decompose factors affix out of the items at indices. Each selected item's
// bundle is split at split: the kept head gains a trailing `:<affix>` State
// feature, and the tail of the first selected item becomes a new affix item
// `<affix> :: =>:<affix> <tail>` appended to the grammar. The residual morph
// drops the affix's length from the matching end.
//
// Every argument is validated before anything is built; on error items is
// untouched and nil is returned.
func (d *Decomposer) Decompose(items []mg.LexicalItem, indices []int, affix mg.Affix, split int) ([]mg.LexicalItem, error) {
	kind, err := affix.Kind()
	if err != nil {
		return nil, err
	}
	bare := affix.Bare()
	if bare == "" {
		return nil, &mg.InvalidAffixError{Morph: affix.Morph}
	}
	if len(indices) == 0 {
		return nil, ErrNoSelection
	}
	affixLen := len([]rune(bare))
	for _, i := range indices {
		if i < 0 || i >= len(items) {
			return nil, &mg.IndexOutOfRangeError{Kind: "item", Index: i, Len: len(items)}
		}
		li := items[i]
		if split < 0 || split > len(li.Bundle) {
			return nil, fmt.Errorf("item %d %q: %w", i, li.Morph,
				&mg.IndexOutOfRangeError{Kind: "split", Index: split, Len: len(li.Bundle) + 1})
		}
		if n := len([]rune(li.Morph)); affixLen > n {
			return nil, fmt.Errorf("item %d %q: %w", i, li.Morph,
				&mg.IndexOutOfRangeError{Kind: "morph", Index: affixLen, Len: n + 1})
		}
	}

	out := make([]mg.LexicalItem, len(items), len(items)+1)
	for i, li := range items {
		out[i] = li.Clone()
	}

	stateID := affix.StateID()
	var affixItem mg.LexicalItem
	for n, i := range indices {
		li := items[i]
		raws := li.RawFeatures()
		head, tail := raws[:split], raws[split:]

		if n == 0 {
			tokens := append([]string{"=>" + stateID}, tail...)
			affixItem = mg.LexicalItem{Morph: affix.Morph, Bundle: ingest.ClassifyTokens(tokens)}
		}

		root := make([]string, 0, len(head)+1)
		root = append(root, head...)
		root = append(root, stateID)
		out[i] = mg.LexicalItem{
			Morph:  residual(li.Morph, affixLen, kind),
			Bundle: ingest.ClassifyTokens(root),
		}
		d.logger().Debug("decomposed item", "index", i, "from", li.Morph, "to", out[i].Morph)
	}
	out = append(out, affixItem)
	return out, nil
}

func residual(morph string, affixLen int, kind mg.AffixKind) string {
	r := []rune(morph)
	if kind == mg.Prefix {
		return string(r[affixLen:])
	}
	return string(r[:len(r)-affixLen])
}

// ParseAffix trims and wraps s as an Affix, checking its direction.
func ParseAffix(s string) (mg.Affix, error) {
	a := mg.Affix{Morph: strings.TrimSpace(s)}
	if _, err := a.Kind(); err != nil {
		return mg.Affix{}, err
	}
	return a, nil
}
