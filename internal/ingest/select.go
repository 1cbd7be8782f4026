package ingest

import (
	"fmt"

	"github.com/agentic-research/mggraph/internal/mg"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Select evaluates a JSONPath expression against the interchange document of
// g, e.g. `$.items[*].morph` or `$.items[?(@.bundle[0].rel == 'LMerge')].morph`.
func Select(g *mg.Grammar, selector string) ([]any, error) {
	data, err := g.MarshalDocument()
	if err != nil {
		return nil, err
	}
	return SelectJSON(data, selector)
}

// SelectJSON evaluates a JSONPath expression against raw JSON.
func SelectJSON(data []byte, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	root, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return x.Get(root), nil
}
