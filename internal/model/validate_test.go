package model

import (
	"errors"
	"testing"
)

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{"valid true/false", Question{ID: "q1", Type: TypeTrueFalse, CorrectAnswer: TextAnswer("True"), Points: 5}, false},
		{"valid essay", Question{ID: "q1", Type: TypeEssay, CorrectAnswer: TextAnswer("model"), Points: 10}, false},
		{"valid multiple choice", Question{ID: "q1", Type: TypeMultipleChoice, Options: []string{"a", "b"}, CorrectAnswer: TextAnswer("a"), Points: 1}, false},
		{"valid matching", Question{
			ID: "q1", Type: TypeMatching,
			Prompts: []string{"Go", "Rust"}, Options: []string{"Google", "Mozilla"},
			CorrectAnswer: ListAnswer("Google", "Mozilla"), Points: 4,
		}, false},
		{"empty id", Question{Type: TypeEssay, CorrectAnswer: TextAnswer("x"), Points: 1}, true},
		{"unknown type", Question{ID: "q1", Type: "fill_blank", CorrectAnswer: TextAnswer("x"), Points: 1}, true},
		{"zero points", Question{ID: "q1", Type: TypeEssay, CorrectAnswer: TextAnswer("x")}, true},
		{"choice without options", Question{ID: "q1", Type: TypeMultipleChoice, CorrectAnswer: TextAnswer("a"), Points: 1}, true},
		{"select with one option", Question{ID: "q1", Type: TypeMultipleSelect, Options: []string{"a"}, CorrectAnswer: ListAnswer("a"), Points: 1}, true},
		{"select with text key", Question{ID: "q1", Type: TypeMultipleSelect, Options: []string{"a", "b"}, CorrectAnswer: TextAnswer("a"), Points: 1}, true},
		{"ordering with text key", Question{ID: "q1", Type: TypeOrdering, Options: []string{"a", "b"}, CorrectAnswer: TextAnswer("a"), Points: 1}, true},
		{"matching without prompts", Question{ID: "q1", Type: TypeMatching, Options: []string{"a"}, CorrectAnswer: ListAnswer("a"), Points: 1}, true},
		{"matching key length mismatch", Question{
			ID: "q1", Type: TypeMatching,
			Prompts: []string{"Go", "Rust"}, Options: []string{"Google", "Mozilla"},
			CorrectAnswer: ListAnswer("Google"), Points: 1,
		}, true},
		{"prompts on non-matching", Question{ID: "q1", Type: TypeShortAnswer, Prompts: []string{"p"}, CorrectAnswer: TextAnswer("x"), Points: 1}, true},
		{"missing key", Question{ID: "q1", Type: TypeShortAnswer, Points: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidExam) {
				t.Errorf("expected ErrInvalidExam, got %v", err)
			}
		})
	}
}

func TestExamValidate(t *testing.T) {
	q := Question{ID: "q1", Type: TypeTrueFalse, CorrectAnswer: TextAnswer("True"), Points: 5}

	if err := (Exam{ID: "e1", Questions: []Question{q}}).Validate(); err != nil {
		t.Fatalf("valid exam: %v", err)
	}
	if err := (Exam{Questions: []Question{q}}).Validate(); err == nil {
		t.Error("expected error for empty exam id")
	}
	if err := (Exam{ID: "e1"}).Validate(); err == nil {
		t.Error("expected error for exam without questions")
	}
	if err := (Exam{ID: "e1", Questions: []Question{q, q}}).Validate(); err == nil {
		t.Error("expected error for duplicate question ids")
	}
}

func TestExamHelpers(t *testing.T) {
	e := Exam{ID: "e1", Questions: []Question{
		{ID: "q1", Type: TypeTrueFalse, CorrectAnswer: TextAnswer("True"), Points: 5, Rubric: "r"},
		{ID: "q2", Type: TypeEssay, CorrectAnswer: TextAnswer("model"), Points: 10},
	}}

	if got := e.TotalPoints(); got != 15 {
		t.Errorf("TotalPoints() = %d, want 15", got)
	}
	if _, ok := e.Question("q2"); !ok {
		t.Error("Question(q2) not found")
	}
	if _, ok := e.Question("missing"); ok {
		t.Error("Question(missing) should not be found")
	}

	safe := e.WithoutAnswerKeys()
	for _, q := range safe.Questions {
		if !q.CorrectAnswer.IsZero() || q.Rubric != "" {
			t.Errorf("question %s still carries its answer key", q.ID)
		}
	}
	if e.Questions[0].CorrectAnswer.IsZero() {
		t.Error("WithoutAnswerKeys modified the original exam")
	}
}
