package mdl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const undergeneralised = `Mary :: d -k;
	laughs :: =d +k t;
	laughed :: =d +k t;
	jumps :: =d +k t;
	jumped :: =d +k t;`

func TestFromText_Undergeneralised(t *testing.T) {
	r, report := New(DefaultAlphabetSize, DefaultFeatureTypes, nil).FromText(undergeneralised)
	require.NoError(t, report.Err())

	assert.Equal(t, 318.0, math.Round(r.Size))
	assert.Equal(t, 61, r.Symbols)
	assert.Equal(t, 3, r.BaseSize)
	assert.Equal(t, 14, r.Features)
	assert.Equal(t, 28, r.Phonemes)
	assert.InDelta(t, math.Log2(37), r.CostPerSymbol, 1e-12)
}

func TestFromText_SkipsMalformed(t *testing.T) {
	r, report := New(26, 7, nil).FromText("laugh :: =d t; broken; Mary :: d;")
	assert.Len(t, report.Errors(), 1)
	assert.Equal(t, 3, r.Features)
}

func TestCalculate_Empty(t *testing.T) {
	r := Calculate(Input{}, 26, 7)
	assert.Zero(t, r.Size)
	assert.Zero(t, r.Symbols)
	assert.InDelta(t, math.Log2(34), r.CostPerSymbol, 1e-12)
}

func TestCalculate_MismatchedInputUsesShorter(t *testing.T) {
	r := Calculate(Input{
		Phon:    []string{"a", "b"},
		Bundles: [][]string{{"x"}},
	}, 0, 0)
	assert.Equal(t, 1+2+1, r.Symbols)
	assert.Equal(t, 1, r.BaseSize)
}

func TestBaseSize(t *testing.T) {
	assert.Equal(t, 2, BaseSize([][]string{{"=d", "d=", "=>d", "d<=", "+d", "-d"}, {"t"}}))
	assert.Zero(t, BaseSize(nil))
}
