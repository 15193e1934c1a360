package examfile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/examscore/internal/model"
)

// ImportStore is where imported exams and file hashes are recorded.
type ImportStore interface {
	SaveExam(ctx context.Context, e model.Exam, force bool) error
	GetImportedFileHash(ctx context.Context, path string) (string, error)
	SetImportedFileHash(ctx context.Context, path, sha string) error
}

// Import loads each exam file into the store. Files whose content hash is
// unchanged are skipped. A file that would change the questions of an exam
// that already has results is skipped with a warning unless force is set.
// The check is keyed by exam ID, so it holds when the same exam arrives
// from a different path. It returns the number of exams written.
func Import(ctx context.Context, s ImportStore, paths []string, force bool) (int, error) {
	imported := 0
	for _, path := range paths {
		exam, hash, err := Load(path)
		if err != nil {
			return imported, err
		}

		storedHash, err := s.GetImportedFileHash(ctx, path)
		if err != nil {
			return imported, fmt.Errorf("check import status for %s: %w", path, err)
		}
		if storedHash == hash {
			slog.Info("exam file unchanged, skipping", "path", path)
			continue
		}

		err = s.SaveExam(ctx, exam, force)
		if errors.Is(err, model.ErrExamInUse) {
			slog.Warn("exam has results scored against its current questions, skipping (use --force to replace)",
				"path", path, "exam", exam.ID)
			continue
		}
		if err != nil {
			return imported, fmt.Errorf("store exam from %s: %w", path, err)
		}
		if err := s.SetImportedFileHash(ctx, path, hash); err != nil {
			return imported, fmt.Errorf("record import for %s: %w", path, err)
		}
		imported++
		slog.Info("imported exam", "path", path, "exam", exam.ID, "questions", len(exam.Questions))
	}
	return imported, nil
}
