package models

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Answer payloads, one shape per question type. The raw wire value is
// decoded exactly once at the service boundary; everything downstream
// works with the typed variant.

type TextAnswer struct {
	Text string `json:"text"`
}

type SelectionAnswer struct {
	Selected []string `json:"selected"`
}

type GridAnswer struct {
	Cells map[string]string `json:"cells"` // row label -> selected column
}

// Option payloads stored on Question.Options.

type ChoiceOptions struct {
	Choices []string `json:"choices"`
}

type GridOptions struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
}

// DecodeAnswer parses a raw answer payload according to the question type.
func DecodeAnswer(qt QuestionType, raw []byte) (interface{}, error) {
	switch qt {
	case MultipleChoice, ShortAnswer, LongAnswer:
		var a TextAnswer
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid text answer: %w", err)
		}
		return a, nil
	case Tickbox:
		var a SelectionAnswer
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid selection answer: %w", err)
		}
		return a, nil
	case Grid:
		var a GridAnswer
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, fmt.Errorf("invalid grid answer: %w", err)
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", qt)
	}
}

// EncodeAnswer serializes a typed answer payload for storage.
func EncodeAnswer(answer interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answer: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodeChoiceOptions parses the option payload of a choice-style question.
func DecodeChoiceOptions(raw datatypes.JSON) (*ChoiceOptions, error) {
	var opts ChoiceOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("invalid choice options: %w", err)
	}
	return &opts, nil
}

// DecodeGridOptions parses the option payload of a grid question.
func DecodeGridOptions(raw datatypes.JSON) (*GridOptions, error) {
	var opts GridOptions
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("invalid grid options: %w", err)
	}
	return &opts, nil
}
