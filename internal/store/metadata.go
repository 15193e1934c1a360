package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SetImportedFileHash upserts the content hash recorded for an exam file.
func (s *Store) SetImportedFileHash(ctx context.Context, path, sha string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET sha256 = EXCLUDED.sha256, imported_at = EXCLUDED.imported_at`),
		path, sha, time.Now().UTC(),
	)
	return err
}

// GetImportedFileHash returns the hash recorded for path.
// Returns empty string and nil error if the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var sha string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT sha256 FROM imported_files WHERE path = ?`), path).Scan(&sha)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return sha, err
}
