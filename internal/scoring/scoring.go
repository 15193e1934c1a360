// Package scoring turns a submission into a persisted ExamResult.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/examscore/internal/evaluate"
	"github.com/pavelanni/examscore/internal/model"
)

// Repository is the storage the scorer needs: exam lookup and an append-only
// result log.
type Repository interface {
	GetExam(ctx context.Context, id string) (model.Exam, error)
	AppendResult(ctx context.Context, r model.ExamResult) error
}

// Score computes the awarded and the total points of a submission.
// Every question is all-or-nothing; essays contribute nothing here.
func Score(exam model.Exam, submitted model.SubmittedAnswers) (score, total int) {
	for _, q := range exam.Questions {
		total += q.Points
		if evaluate.IsCorrect(q, submitted[q.ID]) {
			score += q.Points
		}
	}
	return score, total
}

// Scorer scores submissions and records the results.
type Scorer struct {
	repo  Repository
	now   func() time.Time
	newID func() string
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option { return func(s *Scorer) { s.now = now } }

// WithIDs overrides the result ID generator.
func WithIDs(newID func() string) Option { return func(s *Scorer) { s.newID = newID } }

// New creates a Scorer backed by repo.
func New(repo Repository, opts ...Option) *Scorer {
	s := &Scorer{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ScoreSubmission scores the answers against the exam with the given ID and
// appends exactly one result. On any error no result is returned; the caller
// must not mistake a failure for a zero score.
func (s *Scorer) ScoreSubmission(ctx context.Context, examID, examineeID string, submitted model.SubmittedAnswers) (model.ExamResult, error) {
	exam, err := s.repo.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, model.ErrExamNotFound) {
			return model.ExamResult{}, fmt.Errorf("score submission for exam %q: %w", examID, err)
		}
		return model.ExamResult{}, fmt.Errorf("load exam %q: %w", examID, err)
	}

	score, total := Score(exam, submitted)
	result := model.ExamResult{
		ID:          s.newID(),
		ExamID:      exam.ID,
		ExamineeID:  examineeID,
		Score:       score,
		TotalPoints: total,
		Answers:     submitted.Clone(),
		SubmittedAt: s.now().UTC(),
	}

	if err := s.repo.AppendResult(ctx, result); err != nil {
		slog.Error("failed to persist result", "exam_id", examID, "examinee_id", examineeID, "error", err)
		return model.ExamResult{}, fmt.Errorf("persist result: %w", err)
	}

	slog.Info("scored submission",
		"result_id", result.ID,
		"exam_id", exam.ID,
		"examinee_id", examineeID,
		"score", score,
		"total_points", total,
	)
	return result, nil
}
