// Package advisory attaches AI grade suggestions and teacher overrides to
// stored results as annotations. It never changes a result's score.
package advisory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examscore/internal/llm"
	"github.com/pavelanni/examscore/internal/model"
)

// ErrDisabled is returned by Suggest when no suggester is configured.
var ErrDisabled = errors.New("AI suggestions are disabled")

// ErrInvalidOverride is returned when an override names an unknown question
// or a score outside [0, points].
var ErrInvalidOverride = errors.New("invalid override")

// Suggester grades a single free-text answer.
type Suggester interface {
	SuggestGrade(ctx context.Context, q model.Question, answer string) (llm.Suggestion, error)
}

// Store is the persistence the advisory service needs.
type Store interface {
	GetExam(ctx context.Context, id string) (model.Exam, error)
	GetResult(ctx context.Context, id string) (model.ExamResult, error)
	AddAnnotation(ctx context.Context, a model.Annotation) error
	ListAnnotations(ctx context.Context, resultID string) ([]model.Annotation, error)
}

type Service struct {
	store     Store
	suggester Suggester
	now       func() time.Time
}

// NewService creates an advisory service. A nil suggester disables Suggest.
func NewService(store Store, suggester Suggester) *Service {
	return &Service{store: store, suggester: suggester, now: time.Now}
}

// Enabled reports whether AI suggestions are available.
func (s *Service) Enabled() bool {
	return s.suggester != nil
}

// Suggest asks for a grade on every answered essay and short-answer question
// of the result and stores each as an AI annotation. Questions that already
// carry an AI annotation are skipped, so repeated calls add nothing new.
// Questions the suggester fails on are logged and skipped.
func (s *Service) Suggest(ctx context.Context, resultID string) ([]model.Annotation, error) {
	if s.suggester == nil {
		return nil, ErrDisabled
	}
	result, exam, err := s.load(ctx, resultID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListAnnotations(ctx, resultID)
	if err != nil {
		return nil, fmt.Errorf("list annotations of %q: %w", resultID, err)
	}
	suggested := make(map[string]bool, len(existing))
	for _, a := range existing {
		if a.Source == model.SourceAI {
			suggested[a.QuestionID] = true
		}
	}

	var added []model.Annotation
	for _, q := range exam.Questions {
		if !q.Type.NeedsJudgment() || suggested[q.ID] {
			continue
		}
		answer, ok := result.Answers[q.ID].AsText()
		if !ok || strings.TrimSpace(answer) == "" {
			continue
		}

		sug, err := s.suggester.SuggestGrade(ctx, q, answer)
		if err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			slog.Error("grade suggestion failed", "result", resultID, "question", q.ID, "error", err)
			continue
		}

		a := model.Annotation{
			ID:             uuid.NewString(),
			ResultID:       resultID,
			QuestionID:     q.ID,
			Source:         model.SourceAI,
			SuggestedScore: sug.Score,
			Feedback:       sug.Feedback,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.store.AddAnnotation(ctx, a); err != nil {
			return added, fmt.Errorf("store suggestion for %q: %w", q.ID, err)
		}
		added = append(added, a)
	}

	slog.Info("grade suggestions stored", "result", resultID, "count", len(added))
	return added, nil
}

// Override records a teacher's score for one question of a result.
func (s *Service) Override(ctx context.Context, resultID, questionID string, score float64, comment string) (model.Annotation, error) {
	_, exam, err := s.load(ctx, resultID)
	if err != nil {
		return model.Annotation{}, err
	}
	q, ok := exam.Question(questionID)
	if !ok {
		return model.Annotation{}, fmt.Errorf("%w: question %q not in exam %q", ErrInvalidOverride, questionID, exam.ID)
	}
	if score < 0 || score > float64(q.Points) {
		return model.Annotation{}, fmt.Errorf("%w: score %.2f outside [0, %d]", ErrInvalidOverride, score, q.Points)
	}

	a := model.Annotation{
		ID:             uuid.NewString(),
		ResultID:       resultID,
		QuestionID:     questionID,
		Source:         model.SourceTeacher,
		SuggestedScore: score,
		Feedback:       comment,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.AddAnnotation(ctx, a); err != nil {
		return model.Annotation{}, fmt.Errorf("store override: %w", err)
	}
	slog.Info("score override stored", "result", resultID, "question", questionID, "score", score)
	return a, nil
}

func (s *Service) load(ctx context.Context, resultID string) (model.ExamResult, model.Exam, error) {
	result, err := s.store.GetResult(ctx, resultID)
	if err != nil {
		return model.ExamResult{}, model.Exam{}, fmt.Errorf("get result %q: %w", resultID, err)
	}
	exam, err := s.store.GetExam(ctx, result.ExamID)
	if err != nil {
		return model.ExamResult{}, model.Exam{}, fmt.Errorf("get exam %q: %w", result.ExamID, err)
	}
	return result, exam, nil
}
