package collection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/mggraph/api"
	"github.com/agentic-research/mggraph/internal/ingest"
)

func TestList_Empty(t *testing.T) {
	s := New(memfs.New())
	all, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSave_AppendsAndReplaces(t *testing.T) {
	s := New(memfs.New())
	require.NoError(t, s.Save(api.Example{Title: "laugh", Lang: "en", Grammar: []string{"laugh :: =d t;"}}))
	require.NoError(t, s.Save(api.Example{Title: "danken", Lang: "de", Grammar: []string{"danken :: =d v;"}}))
	require.NoError(t, s.Save(api.Example{Title: " laugh ", Lang: "en", Grammar: []string{"laughs :: =d +k t;"}}))

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "laugh", all[0].Title)
	assert.Equal(t, []string{"laughs :: =d +k t;"}, all[0].Grammar)

	ex, ok, err := s.Get("danken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "de", ex.Lang)
}

func TestSave_RequiresTitle(t *testing.T) {
	assert.ErrorIs(t, New(memfs.New()).Save(api.Example{Title: "  "}), ErrMissingTitle)
}

func TestRecent_RoundTrip(t *testing.T) {
	s := New(memfs.New())
	g, _ := ingest.Classify("Mary :: d -k; laughs :: =d +k t;")
	require.NoError(t, s.SaveRecent(g.Document()))

	back, err := s.LoadRecent()
	require.NoError(t, err)
	assert.Equal(t, g.Items(), back.Items())
}

func TestOpen_WritesToDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := Open(dir)
	require.NoError(t, err)

	g, _ := ingest.Classify("laugh :: =d t;")
	require.NoError(t, s.Save(FromGrammar("laugh", "en", g)))

	data, err := os.ReadFile(filepath.Join(dir, ExamplesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"laugh :: =d t;"`)

	again, err := Open(dir)
	require.NoError(t, err)
	ex, ok, err := again.Get("laugh")
	require.NoError(t, err)
	require.True(t, ok)
	back, report := ingest.Classify(Text(ex))
	require.NoError(t, report.Err())
	assert.Equal(t, g.Items(), back.Items())
}
