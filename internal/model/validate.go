package model

import (
	"fmt"
	"strings"
)

// Validate checks that the question's options, prompts and answer key fit its type.
func (q Question) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: question id is empty", ErrInvalidExam)
	}
	if !q.Type.IsValid() {
		return fmt.Errorf("%w: question %q: unknown type %q", ErrInvalidExam, q.ID, q.Type)
	}
	if q.Points <= 0 {
		return fmt.Errorf("%w: question %q: points must be positive, got %d", ErrInvalidExam, q.ID, q.Points)
	}
	if q.Type != TypeMatching && len(q.Prompts) > 0 {
		return fmt.Errorf("%w: question %q: prompts are only allowed on matching questions", ErrInvalidExam, q.ID)
	}

	switch q.Type {
	case TypeMultipleChoice, TypeMultipleSelect, TypeOrdering:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %q: %s needs at least 2 options", ErrInvalidExam, q.ID, q.Type)
		}
	case TypeMatching:
		if len(q.Prompts) == 0 || len(q.Options) == 0 {
			return fmt.Errorf("%w: question %q: matching needs prompts and options", ErrInvalidExam, q.ID)
		}
	}

	switch q.Type {
	case TypeMultipleSelect, TypeOrdering, TypeMatching:
		key, ok := q.CorrectAnswer.AsList()
		if !ok {
			return fmt.Errorf("%w: question %q: correct answer must be a list of strings", ErrInvalidExam, q.ID)
		}
		if q.Type == TypeMatching && len(key) != len(q.Prompts) {
			return fmt.Errorf("%w: question %q: correct answer has %d entries for %d prompts",
				ErrInvalidExam, q.ID, len(key), len(q.Prompts))
		}
	default:
		if _, ok := q.CorrectAnswer.AsText(); !ok {
			return fmt.Errorf("%w: question %q: correct answer must be a string", ErrInvalidExam, q.ID)
		}
	}
	return nil
}

// Validate checks the exam and every question in it.
func (e Exam) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("%w: exam id is empty", ErrInvalidExam)
	}
	if len(e.Questions) == 0 {
		return fmt.Errorf("%w: exam %q has no questions", ErrInvalidExam, e.ID)
	}
	seen := make(map[string]bool, len(e.Questions))
	for _, q := range e.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if seen[q.ID] {
			return fmt.Errorf("%w: exam %q: duplicate question id %q", ErrInvalidExam, e.ID, q.ID)
		}
		seen[q.ID] = true
	}
	return nil
}
