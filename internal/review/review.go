// Package review recomputes per-question correctness of stored results for
// display. It never carries comparison rules of its own.
package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/examscore/internal/evaluate"
	"github.com/pavelanni/examscore/internal/i18n"
	"github.com/pavelanni/examscore/internal/model"
)

// ReviewCorrectness reports whether submitted answers q correctly.
func ReviewCorrectness(q model.Question, submitted model.Answer) bool {
	return evaluate.IsCorrect(q, submitted)
}

// RenderAnswer formats any answer for a human reader. It never fails.
func RenderAnswer(ctx context.Context, a model.Answer) string {
	switch a.Kind() {
	case model.AnswerNone:
		return i18n.T(ctx, "NotAnswered")
	case model.AnswerText:
		s, _ := a.AsText()
		return s
	case model.AnswerList:
		list, _ := a.AsList()
		return strings.Join(list, ", ")
	case model.AnswerPairs, model.AnswerJustified:
		return dump(a)
	default:
		return renderRaw(a.Raw())
	}
}

// dump renders structured answers as compact JSON. encoding/json sorts map
// keys, so the output is stable.
func dump(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func renderRaw(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch t := v.(type) {
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = renderValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		return dump(t)
	default:
		return renderValue(t)
	}
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		return dump(t)
	default:
		return fmt.Sprint(t)
	}
}

// BuildReview projects a stored result onto the exam's questions. The sum of
// Awarded equals result.Score as long as the exam has not changed since
// submission.
func BuildReview(ctx context.Context, exam model.Exam, result model.ExamResult, annotations []model.Annotation) model.ResultReview {
	byQuestion := make(map[string][]model.Annotation)
	for _, a := range annotations {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}

	questions := make([]model.QuestionReview, 0, len(exam.Questions))
	for _, q := range exam.Questions {
		submitted := result.Answers[q.ID]
		correct := ReviewCorrectness(q, submitted)
		qr := model.QuestionReview{
			QuestionID:  q.ID,
			Type:        q.Type,
			Text:        q.Text,
			Points:      q.Points,
			Correct:     correct,
			Answer:      RenderAnswer(ctx, submitted),
			Expected:    RenderAnswer(ctx, q.CorrectAnswer),
			Annotations: byQuestion[q.ID],
		}
		if correct {
			qr.Awarded = q.Points
		}
		if q.Type == model.TypeEssay {
			qr.Note = i18n.T(ctx, "ManualGradingRequired")
		}
		questions = append(questions, qr)
	}

	return model.ResultReview{
		ResultID:    result.ID,
		ExamID:      result.ExamID,
		ExamTitle:   exam.Title,
		ExamineeID:  result.ExamineeID,
		Score:       result.Score,
		TotalPoints: result.TotalPoints,
		Summary:     i18n.Td(ctx, "ScoreSummary", map[string]any{"Score": result.Score, "Total": result.TotalPoints}),
		SubmittedAt: result.SubmittedAt,
		Questions:   questions,
	}
}

// Store is the read side the review service needs.
type Store interface {
	GetExam(ctx context.Context, id string) (model.Exam, error)
	GetResult(ctx context.Context, id string) (model.ExamResult, error)
	ListAnnotations(ctx context.Context, resultID string) ([]model.Annotation, error)
}

// Service loads results and builds their reviews.
type Service struct {
	store Store
}

// NewService creates a review service.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// ReviewResult builds the review of a stored result.
func (s *Service) ReviewResult(ctx context.Context, resultID string) (model.ResultReview, error) {
	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return model.ResultReview{}, fmt.Errorf("get result %q: %w", resultID, err)
	}
	exam, err := s.store.GetExam(ctx, result.ExamID)
	if err != nil {
		return model.ResultReview{}, fmt.Errorf("get exam %q: %w", result.ExamID, err)
	}
	annotations, err := s.store.ListAnnotations(ctx, resultID)
	if err != nil {
		return model.ResultReview{}, fmt.Errorf("list annotations: %w", err)
	}
	return BuildReview(ctx, exam, result, annotations), nil
}
