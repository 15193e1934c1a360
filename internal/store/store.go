package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/examscore/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

// Driver names a supported database backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Store struct {
	db     *sql.DB
	driver Driver
}

// New opens a SQLite database at dbPath.
func New(dbPath string) (*Store, error) {
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open opens a database for the given driver and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "examscore.db"
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/examscore?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// One connection serializes result appends and keeps :memory:
		// databases from splitting across connections.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		questions_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_results (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL,
		examinee_id TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		answers_json TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (exam_id) REFERENCES exams(id)
	);

	CREATE INDEX IF NOT EXISTS idx_exam_results_exam ON exam_results(exam_id);

	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		result_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		source TEXT NOT NULL,
		suggested_score REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (result_id) REFERENCES exam_results(id)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`

const schemaPostgres = `
	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		questions_json TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exam_results (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL REFERENCES exams(id),
		examinee_id TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		total_points INTEGER NOT NULL,
		answers_json TEXT NOT NULL,
		submitted_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exam_results_exam ON exam_results(exam_id);

	CREATE TABLE IF NOT EXISTS annotations (
		id TEXT PRIMARY KEY,
		result_id TEXT NOT NULL REFERENCES exam_results(id),
		question_id TEXT NOT NULL,
		source TEXT NOT NULL,
		suggested_score DOUBLE PRECISION NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		sha256 TEXT NOT NULL,
		imported_at TIMESTAMPTZ NOT NULL
	);
	`

// PutExam inserts or replaces an exam definition. Replacing the questions of
// an exam that already has results fails with model.ErrExamInUse.
func (s *Store) PutExam(ctx context.Context, e model.Exam) error {
	return s.SaveExam(ctx, e, false)
}

// SaveExam inserts or replaces an exam definition. Unless force is set, the
// questions of an exam with stored results may not change, since every
// result was scored against them. Title edits are always allowed.
func (s *Store) SaveExam(ctx context.Context, e model.Exam, force bool) error {
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !force {
		var oldJSON string
		err := tx.QueryRowContext(ctx, s.rebind(
			`SELECT questions_json FROM exams WHERE id = ?`), e.ID,
		).Scan(&oldJSON)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			var old model.Exam
			if err := json.Unmarshal([]byte(oldJSON), &old.Questions); err != nil {
				return fmt.Errorf("decode questions of exam %q: %w", e.ID, err)
			}
			if !old.SameQuestions(e) {
				var n int
				if err := tx.QueryRowContext(ctx, s.rebind(
					`SELECT COUNT(*) FROM exam_results WHERE exam_id = ?`), e.ID,
				).Scan(&n); err != nil {
					return err
				}
				if n > 0 {
					return fmt.Errorf("%w: %q has %d results scored against its current questions", model.ErrExamInUse, e.ID, n)
				}
			}
		}
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO exams (id, title, questions_json, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, questions_json = EXCLUDED.questions_json`),
		e.ID, e.Title, string(qj), createdAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// GetExam returns the full exam, answer keys included.
func (s *Store) GetExam(ctx context.Context, id string) (model.Exam, error) {
	var e model.Exam
	var qjson string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, title, questions_json, created_at FROM exams WHERE id = ?`), id,
	).Scan(&e.ID, &e.Title, &qjson, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Exam{}, model.ErrExamNotFound
	}
	if err != nil {
		return model.Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return model.Exam{}, fmt.Errorf("decode questions of exam %q: %w", id, err)
	}
	return e, nil
}

// ListExams returns all exams ordered by ID.
func (s *Store) ListExams(ctx context.Context) ([]model.Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, questions_json, created_at FROM exams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		var qjson string
		if err := rows.Scan(&e.ID, &e.Title, &qjson, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
			return nil, fmt.Errorf("decode questions of exam %q: %w", e.ID, err)
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ExamCount returns the number of exams in the database.
func (s *Store) ExamCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exams`).Scan(&count)
	return count, err
}

// AppendResult inserts a new result. Results are never updated.
func (s *Store) AppendResult(ctx context.Context, r model.ExamResult) error {
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO exam_results (id, exam_id, examinee_id, score, total_points, answers_json, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.ExamID, r.ExamineeID, r.Score, r.TotalPoints, string(aj), r.SubmittedAt,
	)
	return err
}

const resultColumns = `id, exam_id, examinee_id, score, total_points, answers_json, submitted_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (model.ExamResult, error) {
	var r model.ExamResult
	var aj string
	if err := row.Scan(&r.ID, &r.ExamID, &r.ExamineeID, &r.Score, &r.TotalPoints, &aj, &r.SubmittedAt); err != nil {
		return model.ExamResult{}, err
	}
	if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
		return model.ExamResult{}, fmt.Errorf("decode answers of result %q: %w", r.ID, err)
	}
	return r, nil
}

// GetResult returns a result by ID.
func (s *Store) GetResult(ctx context.Context, id string) (model.ExamResult, error) {
	r, err := scanResult(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+resultColumns+` FROM exam_results WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExamResult{}, model.ErrResultNotFound
	}
	return r, err
}

// ListResults returns results for an exam, oldest first. An empty examID
// lists results of all exams.
func (s *Store) ListResults(ctx context.Context, examID string) ([]model.ExamResult, error) {
	query := `SELECT ` + resultColumns + ` FROM exam_results`
	var args []any
	if examID != "" {
		query += ` WHERE exam_id = ?`
		args = append(args, examID)
	}
	query += ` ORDER BY submitted_at, id`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.ExamResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// AddAnnotation stores an advisory annotation next to a result.
func (s *Store) AddAnnotation(ctx context.Context, a model.Annotation) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO annotations (id, result_id, question_id, source, suggested_score, feedback, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.ResultID, a.QuestionID, a.Source, a.SuggestedScore, a.Feedback, a.CreatedAt,
	)
	return err
}

// ListAnnotations returns the annotations of a result in creation order.
func (s *Store) ListAnnotations(ctx context.Context, resultID string) ([]model.Annotation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, result_id, question_id, source, suggested_score, feedback, created_at
		 FROM annotations WHERE result_id = ? ORDER BY created_at, id`), resultID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var annotations []model.Annotation
	for rows.Next() {
		var a model.Annotation
		if err := rows.Scan(&a.ID, &a.ResultID, &a.QuestionID, &a.Source, &a.SuggestedScore, &a.Feedback, &a.CreatedAt); err != nil {
			return nil, err
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}
