// Package mdl estimates the description length of a grammar: the number of
// symbols needed to write it down times the bits needed per symbol.
package mdl

import (
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/ingest"
	"github.com/agentic-research/mggraph/internal/mg"
)

// Defaults used by the CLI and tool server.
const (
	DefaultAlphabetSize = 26
	DefaultFeatureTypes = 7
)

// markers are stripped from raw features, longest first, to count distinct
// base categories.
var markers = strings.NewReplacer("<=", "", "=>", "", "=", "", "+", "", "-", "")

// Input holds parallel sequences of phonological forms and raw bundles.
type Input struct {
	Phon    []string
	Bundles [][]string
}

// Result is the size estimate of one grammar.
type Result struct {
	Features      int     `json:"n_features"`
	Phonemes      int     `json:"n_phonemes"`
	Symbols       int     `json:"n_symbols"`
	BaseSize      int     `json:"base_size"`
	CostPerSymbol float64 `json:"encoding_cost_per_symbol"`
	Size          float64 `json:"mdl"`
}

// Calculate sums len(phon) + 2·len(bundle) + 1 over all items and multiplies
// by log2(alphabetSize + featureTypes + base + 1). Extra entries in the longer
// of the two sequences are ignored.
func Calculate(in Input, alphabetSize, featureTypes int) Result {
	return (&Calculator{AlphabetSize: alphabetSize, FeatureTypes: featureTypes}).Calculate(in)
}

// BaseSize counts distinct feature ids once merge and move markers are
// removed.
func BaseSize(bundles [][]string) int {
	seen := make(map[string]struct{})
	for _, b := range bundles {
		for _, f := range b {
			seen[markers.Replace(f)] = struct{}{}
		}
	}
	return len(seen)
}

// Calculator carries the alphabet parameters. Per-item working is logged
// at debug level.
type Calculator struct {
	AlphabetSize int
	FeatureTypes int
	Logger       *slog.Logger
}

// New returns a Calculator with the given alphabet parameters.
func New(alphabetSize, featureTypes int, logger *slog.Logger) *Calculator {
	return &Calculator{AlphabetSize: alphabetSize, FeatureTypes: featureTypes, Logger: logger}
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (c *Calculator) Calculate(in Input) Result {
	log := c.logger()
	var r Result
	n := min(len(in.Phon), len(in.Bundles))
	for i := 0; i < n; i++ {
		phonemes := utf8.RuneCountInString(in.Phon[i])
		features := len(in.Bundles[i])
		r.Phonemes += phonemes
		r.Features += features
		r.Symbols += phonemes + 2*features + 1
		log.Debug("item size", "phon", in.Phon[i], "features", strings.Join(in.Bundles[i], " "),
			"phonemes", phonemes, "n_features", features)
	}
	r.BaseSize = BaseSize(in.Bundles[:n])
	r.CostPerSymbol = math.Log2(float64(c.AlphabetSize + c.FeatureTypes + r.BaseSize + 1))
	r.Size = float64(r.Symbols) * r.CostPerSymbol
	log.Debug("grammar size", "base_size", r.BaseSize, "cost_per_symbol", r.CostPerSymbol, "mdl", r.Size)
	return r
}

// FromGrammar sizes a classified grammar.
func (c *Calculator) FromGrammar(g *mg.Grammar) Result {
	in := Input{Phon: make([]string, 0, g.Len()), Bundles: make([][]string, 0, g.Len())}
	for _, li := range g.Items() {
		in.Phon = append(in.Phon, li.Morph)
		in.Bundles = append(in.Bundles, li.RawFeatures())
	}
	return c.Calculate(in)
}

// FromText classifies text and sizes the result. Malformed statements are
// left out of the count and reported.
func (c *Calculator) FromText(text string) (Result, *diag.Report) {
	g, report := (&ingest.Classifier{Logger: c.Logger}).Classify(text)
	return c.FromGrammar(g), report
}
