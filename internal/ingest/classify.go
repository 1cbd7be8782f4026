// Package ingest turns grammar text into the mg model and queries the
// model's interchange form.
package ingest

import (
	"log/slog"
	"strings"

	"github.com/agentic-research/mggraph/internal/diag"
	"github.com/agentic-research/mggraph/internal/mg"
)

// StatementDelim separates statements in grammar text.
const StatementDelim = ";"

// FeatureSep separates a morph from its feature bundle.
const FeatureSep = "::"

// Classifier parses grammar text into lexical items.
type Classifier struct {
	Logger *slog.Logger
}

// Classify parses text with a discard logger.
func Classify(text string) (*mg.Grammar, *diag.Report) {
	return (&Classifier{}).Classify(text)
}

// Classify parses `;`-delimited statements of the form `phon :: f1 f2 ...`.
// Parsing is best-effort: a statement without `::` is skipped and reported,
// the rest are kept. The returned grammar has an empty state cache.
func (c *Classifier) Classify(text string) (*mg.Grammar, *diag.Report) {
	log := c.logger()
	report := &diag.Report{}
	var items []mg.LexicalItem

	index := 0
	for _, stmt := range strings.Split(text, StatementDelim) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		li, err := ParseStatement(stmt, index)
		if err != nil {
			log.Warn("skipping statement", "index", index, "error", err)
			report.Fail(err)
		} else {
			log.Debug("parsed statement", "morph", li.Morph, "features", len(li.Bundle))
			items = append(items, li)
		}
		index++
	}
	return mg.New(items), report
}

func (c *Classifier) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// ParseStatement parses a single statement without its trailing `;`.
// index is only used to label the error.
func ParseStatement(stmt string, index int) (mg.LexicalItem, error) {
	morph, features, ok := strings.Cut(stmt, FeatureSep)
	if !ok {
		return mg.LexicalItem{}, &mg.StatementParseError{Index: index, Statement: strings.TrimSpace(stmt)}
	}
	return mg.LexicalItem{
		Morph:  strings.TrimSpace(morph),
		Bundle: ClassifyTokens(strings.Fields(features)),
	}, nil
}

// ClassifyTokens tags each token of one bundle with its relation kind.
//
// When a bundle carries more than one merge-marked token, every merge token
// other than the last selectional position is tagged intermediate. Movement
// tokens are subtracted from both the position and the total so they do not
// take part in lastness.
func ClassifyTokens(tokens []string) []mg.Feature {
	total := len(tokens)
	moves, merges := 0, 0
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "+-") {
			moves++
		}
		if strings.Contains(tok, "=") {
			merges++
		}
	}
	needsIntermediate := merges > 1

	bundle := make([]mg.Feature, 0, total)
	for i, tok := range tokens {
		isLastSelection := i-moves == total-moves-1
		id, rel := classifyToken(tok)
		if rel.IsMerge() && needsIntermediate && !isLastSelection {
			rel = rel.Intermediate()
		}
		bundle = append(bundle, mg.Feature{Raw: tok, ID: id, Rel: rel})
	}
	return bundle
}

// classifyToken strips the longest matching marker, in precedence order.
func classifyToken(tok string) (string, mg.RelationKind) {
	switch {
	case strings.HasPrefix(tok, "=>"):
		return tok[2:], mg.LeftMergeHead
	case strings.HasPrefix(tok, "="):
		return tok[1:], mg.LeftMerge
	case strings.HasSuffix(tok, "<="):
		return tok[:len(tok)-2], mg.RightMergeHead
	case strings.HasSuffix(tok, "="):
		return tok[:len(tok)-1], mg.RightMerge
	case strings.HasPrefix(tok, "-"):
		return tok[1:], mg.MinusMove
	case strings.HasPrefix(tok, "+"):
		return tok[1:], mg.PlusMove
	}
	return tok, mg.State
}
