// Package evaluate decides whether a submitted answer is correct for a question.
//
// It is the single source of truth for correctness: the scorer uses it when a
// submission comes in and the review projection uses it when results are
// shown later, so the two can never disagree.
package evaluate

import (
	"slices"
	"strings"

	"github.com/pavelanni/examscore/internal/model"
)

// IsCorrect reports whether submitted is a correct answer to q.
//
// Comparison rules per question type:
//   - multiple choice, short answer, true/false: case-insensitive string equality
//   - essay: never correct, essays need manual or AI-assisted grading
//   - multiple select: same strings in any order, case-sensitive
//   - ordering: same strings in the same order, case-sensitive
//   - true/false with justification: selection compared case-insensitively,
//     the justification is ignored
//   - matching: one entry per prompt, each mapped to the expected option,
//     case-sensitive
//
// A submitted answer of the wrong shape, or no answer at all, is incorrect.
func IsCorrect(q model.Question, submitted model.Answer) bool {
	switch q.Type {
	case model.TypeMultipleChoice, model.TypeShortAnswer, model.TypeTrueFalse:
		got, ok := submitted.AsText()
		if !ok {
			return false
		}
		want, ok := q.CorrectAnswer.AsText()
		return ok && strings.EqualFold(got, want)

	case model.TypeEssay:
		return false

	case model.TypeMultipleSelect:
		got, ok := submitted.AsList()
		if !ok {
			return false
		}
		want, ok := q.CorrectAnswer.AsList()
		if !ok {
			return false
		}
		// AsList hands out copies, so sorting in place is safe.
		slices.Sort(got)
		slices.Sort(want)
		return slices.Equal(got, want)

	case model.TypeOrdering:
		got, ok := submitted.AsList()
		if !ok {
			return false
		}
		want, ok := q.CorrectAnswer.AsList()
		return ok && slices.Equal(got, want)

	case model.TypeTrueFalseJustification:
		got, ok := submitted.AsJustified()
		if !ok {
			return false
		}
		want, ok := q.CorrectAnswer.AsText()
		return ok && strings.EqualFold(got.Selection, want)

	case model.TypeMatching:
		return matches(q, submitted)

	default:
		return false
	}
}

func matches(q model.Question, submitted model.Answer) bool {
	got, ok := submitted.AsPairs()
	if !ok {
		return false
	}
	want, ok := q.CorrectAnswer.AsList()
	if !ok || len(want) != len(q.Prompts) {
		return false
	}
	if len(got) != len(q.Prompts) {
		return false
	}
	for i, prompt := range q.Prompts {
		pick, ok := got[prompt]
		if !ok || pick != want[i] {
			return false
		}
	}
	return true
}
