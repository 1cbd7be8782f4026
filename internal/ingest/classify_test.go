package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mggraph/internal/mg"
)

func rels(fs []mg.Feature) []mg.RelationKind {
	out := make([]mg.RelationKind, len(fs))
	for i, f := range fs {
		out[i] = f.Rel
	}
	return out
}

func TestClassifyToken(t *testing.T) {
	tests := []struct {
		tok string
		id  string
		rel mg.RelationKind
	}{
		{"=d", "d", mg.LeftMerge},
		{"d=", "d", mg.RightMerge},
		{"=>v", "v", mg.LeftMergeHead},
		{"v<=", "v", mg.RightMergeHead},
		{"-k", "k", mg.MinusMove},
		{"+k", "k", mg.PlusMove},
		{"t", "t", mg.State},
		{"=>:-s", ":-s", mg.LeftMergeHead},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			id, rel := classifyToken(tt.tok)
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.rel, rel)
		})
	}
}

func TestClassifyTokens_Lastness(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []mg.RelationKind
	}{
		{
			name:   "single merge stays plain",
			tokens: []string{"=d", "+k", "t"},
			want:   []mg.RelationKind{mg.LeftMerge, mg.PlusMove, mg.State},
		},
		{
			name:   "earlier merges become intermediate",
			tokens: []string{"=d", "=d", "v"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.LeftMergeIntermediate, mg.State},
		},
		{
			name:   "move before merges",
			tokens: []string{"+k", "=v", "d="},
			want:   []mg.RelationKind{mg.PlusMove, mg.LeftMergeIntermediate, mg.RightMerge},
		},
		{
			name:   "move between merges",
			tokens: []string{"=v", "+k", "=d", "=p", "t"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.PlusMove, mg.LeftMergeIntermediate, mg.LeftMergeIntermediate, mg.State},
		},
		{
			name:   "move after merges",
			tokens: []string{"=v", "=d", "+k", "t"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.LeftMergeIntermediate, mg.PlusMove, mg.State},
		},
		{
			name:   "several moves after merges",
			tokens: []string{"=v", "=d", "-k", "+q", "t"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.LeftMergeIntermediate, mg.MinusMove, mg.PlusMove, mg.State},
		},
		{
			name:   "moves before, between and after merges",
			tokens: []string{"+k", "=v", "-f", "=d", "+q", "t"},
			want:   []mg.RelationKind{mg.PlusMove, mg.LeftMergeIntermediate, mg.MinusMove, mg.LeftMergeIntermediate, mg.PlusMove, mg.State},
		},
		{
			// Move counts cancel out of the position test, so a trailing
			// move makes every merge intermediate.
			name:   "move trailing the last merge",
			tokens: []string{"=v", "d=", "-k"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.RightMergeIntermediate, mg.MinusMove},
		},
		{
			name:   "head merge collapses to intermediate",
			tokens: []string{"=>v", "=d", "t"},
			want:   []mg.RelationKind{mg.LeftMergeIntermediate, mg.LeftMergeIntermediate, mg.State},
		},
		{
			name:   "right head merge collapses to right intermediate",
			tokens: []string{"v<=", "=d"},
			want:   []mg.RelationKind{mg.RightMergeIntermediate, mg.LeftMerge},
		},
		{
			name:   "empty",
			tokens: nil,
			want:   []mg.RelationKind{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rels(ClassifyTokens(tt.tokens)))
		})
	}
}

func TestClassify(t *testing.T) {
	g, report := Classify(" Mary :: d -k ;\n laughs :: =d +k t;;  ")
	require.NoError(t, report.Err())
	require.Equal(t, 2, g.Len())

	mary := g.Items()[0]
	assert.Equal(t, "Mary", mary.Morph)
	assert.Equal(t, []string{"d", "-k"}, mary.RawFeatures())
	assert.Equal(t, "k", mary.Bundle[1].ID)
	assert.Equal(t, 0, g.States())
}

func TestClassify_SkipsMalformedStatements(t *testing.T) {
	g, report := Classify("laughs :: =d t; nonsense; Mary :: d;")
	assert.Equal(t, 2, g.Len())

	errs := report.Errors()
	require.Len(t, errs, 1)
	var pe *mg.StatementParseError
	require.ErrorAs(t, errs[0], &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "nonsense", pe.Statement)
	assert.ErrorIs(t, report.Err(), mg.ErrStatementParse)
}

func TestClassify_EmptyBundleKept(t *testing.T) {
	g, report := Classify("e ::;")
	require.NoError(t, report.Err())
	require.Equal(t, 1, g.Len())
	assert.Empty(t, g.Items()[0].Bundle)
}

func TestClassify_RenderRoundTrip(t *testing.T) {
	g, _ := Classify("give :: =v =d +k =p t; Mary :: d -k; to :: =d p;")
	again, report := Classify(g.String())
	require.NoError(t, report.Err())
	assert.Equal(t, g.Items(), again.Items())
}

func TestSelect(t *testing.T) {
	g, _ := Classify("Mary :: d -k; laughs :: =d +k t;")

	morphs, err := Select(g, "$.items[*].morph")
	require.NoError(t, err)
	assert.Equal(t, []any{"Mary", "laughs"}, morphs)

	heads, err := Select(g, `$.items[?(@.bundle[0].rel == 'LMerge')].morph`)
	require.NoError(t, err)
	assert.Equal(t, []any{"laughs"}, heads)

	_, err = Select(g, "$.items[")
	assert.ErrorContains(t, err, "invalid jsonpath")
}

func TestSelectJSON_BadDocument(t *testing.T) {
	_, err := SelectJSON([]byte("{"), "$.items")
	assert.ErrorContains(t, err, "parse document")
}
