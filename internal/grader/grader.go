// Package grader auto-grades objective question types. It is pure: no I/O,
// no shared state, and no failure mode beyond malformed input, which grades
// as ungraded with zero points.
package grader

import (
	"encoding/json"
	"strings"

	"github.com/SAP-F-2025/homework-service/internal/models"
)

// Result is the outcome of grading a single answer.
type Result struct {
	Gradable     bool    // false when the type needs manual review or input was malformed
	Correct      bool    // meaningful only when Gradable
	PointsEarned float64
	NeedsReview  bool
}

type strategy interface {
	grade(q *models.Question, answer interface{}) Result
}

var strategies = map[models.QuestionType]strategy{
	models.MultipleChoice: multipleChoiceStrategy{},
	models.Tickbox:        tickboxStrategy{},
	models.Grid:           gridStrategy{},
	models.ShortAnswer:    manualStrategy{},
	models.LongAnswer:     manualStrategy{},
}

// Grade routes by question type to the matching strategy. Unknown types and
// questions without a correct-answer reference grade as ungraded.
func Grade(q *models.Question, answer interface{}) Result {
	s, ok := strategies[q.Type]
	if !ok {
		return Result{NeedsReview: true}
	}
	return s.grade(q, answer)
}

type multipleChoiceStrategy struct{}

func (multipleChoiceStrategy) grade(q *models.Question, answer interface{}) Result {
	given, ok := answer.(models.TextAnswer)
	if !ok || len(q.CorrectAnswer) == 0 {
		return Result{}
	}
	var correct models.TextAnswer
	if err := json.Unmarshal(q.CorrectAnswer, &correct); err != nil {
		return Result{}
	}
	return scored(q, strings.EqualFold(normalize(given.Text), normalize(correct.Text)))
}

type tickboxStrategy struct{}

func (tickboxStrategy) grade(q *models.Question, answer interface{}) Result {
	given, ok := answer.(models.SelectionAnswer)
	if !ok || len(q.CorrectAnswer) == 0 {
		return Result{}
	}
	var correct models.SelectionAnswer
	if err := json.Unmarshal(q.CorrectAnswer, &correct); err != nil {
		return Result{}
	}
	// Set equality, no partial credit; selection order never matters.
	return scored(q, setEqual(given.Selected, correct.Selected))
}

type gridStrategy struct{}

func (gridStrategy) grade(q *models.Question, answer interface{}) Result {
	given, ok := answer.(models.GridAnswer)
	if !ok || len(q.CorrectAnswer) == 0 {
		return Result{}
	}
	var correct models.GridAnswer
	if err := json.Unmarshal(q.CorrectAnswer, &correct); err != nil {
		return Result{}
	}
	if len(given.Cells) != len(correct.Cells) {
		return scored(q, false)
	}
	for row, want := range correct.Cells {
		got, ok := given.Cells[row]
		if !ok || !strings.EqualFold(normalize(got), normalize(want)) {
			return scored(q, false)
		}
	}
	return scored(q, true)
}

// manualStrategy covers free-text types: never auto-graded, flagged for
// teacher review.
type manualStrategy struct{}

func (manualStrategy) grade(q *models.Question, answer interface{}) Result {
	return Result{NeedsReview: true}
}

func scored(q *models.Question, correct bool) Result {
	r := Result{Gradable: true, Correct: correct}
	if correct {
		r.PointsEarned = float64(q.Points)
	}
	return r
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}

func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[normalizeFold(v)]++
	}
	for _, v := range b {
		key := normalizeFold(v)
		if seen[key] == 0 {
			return false
		}
		seen[key]--
	}
	return true
}

func normalizeFold(s string) string {
	return strings.ToLower(normalize(s))
}
