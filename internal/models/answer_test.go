package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAnswer_ShapePerType(t *testing.T) {
	text, err := DecodeAnswer(MultipleChoice, []byte(`{"text":"Water"}`))
	require.NoError(t, err)
	assert.Equal(t, TextAnswer{Text: "Water"}, text)

	selection, err := DecodeAnswer(Tickbox, []byte(`{"selected":["Tree","Dog"]}`))
	require.NoError(t, err)
	assert.Equal(t, SelectionAnswer{Selected: []string{"Tree", "Dog"}}, selection)

	grid, err := DecodeAnswer(Grid, []byte(`{"cells":{"Mercury":"Planet"}}`))
	require.NoError(t, err)
	assert.Equal(t, GridAnswer{Cells: map[string]string{"Mercury": "Planet"}}, grid)
}

func TestDecodeAnswer_RejectsMalformedPayloads(t *testing.T) {
	_, err := DecodeAnswer(MultipleChoice, []byte(`{"text":42}`))
	assert.Error(t, err)

	_, err = DecodeAnswer(Tickbox, []byte(`{"selected":"Tree"}`))
	assert.Error(t, err)

	_, err = DecodeAnswer(QuestionType("essay"), []byte(`{}`))
	assert.Error(t, err)
}
