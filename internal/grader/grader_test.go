package grader

import (
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestGrade_MultipleChoice(t *testing.T) {
	question := &models.Question{
		ID:            1,
		Type:          models.MultipleChoice,
		Points:        2,
		CorrectAnswer: mustJSON(t, models.TextAnswer{Text: "Water and sunlight"}),
	}

	t.Run("case and whitespace insensitive match", func(t *testing.T) {
		result := Grade(question, models.TextAnswer{Text: "  water and sunlight "})
		assert.True(t, result.Gradable)
		assert.True(t, result.Correct)
		assert.Equal(t, 2.0, result.PointsEarned)
	})

	t.Run("internal whitespace collapsed", func(t *testing.T) {
		result := Grade(question, models.TextAnswer{Text: "Water  and   sunlight"})
		assert.True(t, result.Correct)
	})

	t.Run("wrong answer", func(t *testing.T) {
		result := Grade(question, models.TextAnswer{Text: "water"})
		assert.True(t, result.Gradable)
		assert.False(t, result.Correct)
		assert.Zero(t, result.PointsEarned)
	})

	t.Run("malformed payload grades as ungraded", func(t *testing.T) {
		result := Grade(question, models.SelectionAnswer{Selected: []string{"Water and sunlight"}})
		assert.False(t, result.Gradable)
		assert.Zero(t, result.PointsEarned)
	})

	t.Run("missing correct answer reference", func(t *testing.T) {
		bare := &models.Question{ID: 2, Type: models.MultipleChoice, Points: 2}
		result := Grade(bare, models.TextAnswer{Text: "anything"})
		assert.False(t, result.Gradable)
	})
}

func TestGrade_Tickbox(t *testing.T) {
	question := &models.Question{
		ID:            3,
		Type:          models.Tickbox,
		Points:        3,
		CorrectAnswer: mustJSON(t, models.SelectionAnswer{Selected: []string{"Tree", "Dog", "Flower"}}),
	}

	t.Run("missing element grades incorrect", func(t *testing.T) {
		result := Grade(question, models.SelectionAnswer{Selected: []string{"Tree", "Flower"}})
		assert.True(t, result.Gradable)
		assert.False(t, result.Correct)
		assert.Zero(t, result.PointsEarned)
	})

	t.Run("exact set grades correct regardless of order", func(t *testing.T) {
		result := Grade(question, models.SelectionAnswer{Selected: []string{"Flower", "Tree", "Dog"}})
		assert.True(t, result.Correct)
		assert.Equal(t, 3.0, result.PointsEarned)
	})

	t.Run("superset grades incorrect", func(t *testing.T) {
		result := Grade(question, models.SelectionAnswer{Selected: []string{"Tree", "Dog", "Flower", "Cat"}})
		assert.False(t, result.Correct)
	})

	t.Run("duplicate selections do not fake a match", func(t *testing.T) {
		result := Grade(question, models.SelectionAnswer{Selected: []string{"Tree", "Tree", "Dog"}})
		assert.False(t, result.Correct)
	})
}

func TestGrade_Grid(t *testing.T) {
	question := &models.Question{
		ID:     4,
		Type:   models.Grid,
		Points: 4,
		CorrectAnswer: mustJSON(t, models.GridAnswer{Cells: map[string]string{
			"mammal": "Dog",
			"plant":  "Tree",
		}}),
	}

	t.Run("all cells match", func(t *testing.T) {
		result := Grade(question, models.GridAnswer{Cells: map[string]string{
			"mammal": "dog",
			"plant":  "Tree",
		}})
		assert.True(t, result.Correct)
		assert.Equal(t, 4.0, result.PointsEarned)
	})

	t.Run("one wrong cell", func(t *testing.T) {
		result := Grade(question, models.GridAnswer{Cells: map[string]string{
			"mammal": "Tree",
			"plant":  "Dog",
		}})
		assert.True(t, result.Gradable)
		assert.False(t, result.Correct)
	})

	t.Run("missing row", func(t *testing.T) {
		result := Grade(question, models.GridAnswer{Cells: map[string]string{
			"mammal": "Dog",
		}})
		assert.False(t, result.Correct)
	})
}

func TestGrade_FreeTextNeedsReview(t *testing.T) {
	for _, qt := range []models.QuestionType{models.ShortAnswer, models.LongAnswer} {
		question := &models.Question{ID: 5, Type: qt, Points: 5}
		result := Grade(question, models.TextAnswer{Text: "an essay"})
		assert.False(t, result.Gradable, "type %s", qt)
		assert.True(t, result.NeedsReview, "type %s", qt)
		assert.Zero(t, result.PointsEarned, "type %s", qt)
	}
}

func TestGrade_UnknownType(t *testing.T) {
	question := &models.Question{ID: 6, Type: models.QuestionType("matching"), Points: 1}
	result := Grade(question, models.TextAnswer{Text: "x"})
	assert.False(t, result.Gradable)
	assert.True(t, result.NeedsReview)
}
