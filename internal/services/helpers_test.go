package services

import (
	"encoding/json"
	"testing"

	"github.com/SAP-F-2025/homework-service/internal/models"
	"github.com/SAP-F-2025/homework-service/internal/repositories/memory"
	"github.com/SAP-F-2025/homework-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func testLogger() utils.Logger {
	return utils.NewDevelopmentLogger()
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// seedStore builds a memory store with one three-question assignment.
func seedStore(t *testing.T) (*memory.Store, *models.Assignment) {
	t.Helper()
	assignment := &models.Assignment{
		ID:          1,
		Title:       "Plant biology",
		TotalPoints: 6,
		Questions: []models.Question{
			{
				ID:           11,
				AssignmentID: 1,
				Position:     0,
				Type:         models.MultipleChoice,
				Prompt:       "What do plants need to grow?",
				Points:       2,
				CorrectAnswer: mustJSON(t, models.TextAnswer{
					Text: "Water and sunlight",
				}),
			},
			{
				ID:           12,
				AssignmentID: 1,
				Position:     1,
				Type:         models.Tickbox,
				Prompt:       "Select all living things",
				Points:       3,
				CorrectAnswer: mustJSON(t, models.SelectionAnswer{
					Selected: []string{"Tree", "Dog", "Flower"},
				}),
			},
			{
				ID:           13,
				AssignmentID: 1,
				Position:     2,
				Type:         models.ShortAnswer,
				Prompt:       "Describe photosynthesis",
				Points:       1,
			},
		},
	}
	store := memory.NewStore()
	store.SeedAssignment(assignment)
	return store, assignment
}

func question(t *testing.T, assignment *models.Assignment, id uint) *models.Question {
	t.Helper()
	for i := range assignment.Questions {
		if assignment.Questions[i].ID == id {
			return &assignment.Questions[i]
		}
	}
	t.Fatalf("question %d not in assignment", id)
	return nil
}
