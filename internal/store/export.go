package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pavelanni/examscore/internal/model"
	"github.com/pavelanni/examscore/internal/review"
)

// ExportExam builds export-ready reviews of every result of an exam.
func (s *Store) ExportExam(ctx context.Context, examID string) (model.ResultExport, error) {
	exam, err := s.GetExam(ctx, examID)
	if err != nil {
		return model.ResultExport{}, fmt.Errorf("get exam %q: %w", examID, err)
	}

	results, err := s.ListResults(ctx, examID)
	if err != nil {
		return model.ResultExport{}, fmt.Errorf("list results: %w", err)
	}

	reviews := make([]model.ResultReview, 0, len(results))
	for _, r := range results {
		annotations, err := s.ListAnnotations(ctx, r.ID)
		if err != nil {
			return model.ResultExport{}, fmt.Errorf("list annotations of %q: %w", r.ID, err)
		}
		reviews = append(reviews, review.BuildReview(ctx, exam, r, annotations))
	}

	return model.ResultExport{
		ExamID:      exam.ID,
		Title:       exam.Title,
		ExportedAt:  time.Now().UTC(),
		TotalPoints: exam.TotalPoints(),
		NumResults:  len(reviews),
		Results:     reviews,
	}, nil
}
