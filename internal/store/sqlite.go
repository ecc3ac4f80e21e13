package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS test_results (
	id              TEXT PRIMARY KEY,
	test_id         TEXT NOT NULL,
	student_name    TEXT NOT NULL,
	student_class   TEXT NOT NULL DEFAULT '',
	total_questions INTEGER NOT NULL,
	correct_answers INTEGER NOT NULL,
	wrong_answers   INTEGER NOT NULL,
	score           INTEGER NOT NULL,
	percentage      REAL NOT NULL,
	grade_band      TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	processed_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_test_id ON test_results(test_id);
CREATE INDEX IF NOT EXISTS idx_test_results_class ON test_results(student_class);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, result *model.GradedResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO test_results
			(id, test_id, student_name, student_class, total_questions,
			 correct_answers, wrong_answers, score, percentage, grade_band,
			 source, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.TestID, result.StudentName, result.StudentClass,
		result.TotalQuestions, result.CorrectAnswers, result.WrongAnswers,
		result.Score, result.Percentage, string(result.GradeBand),
		string(result.Source), result.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	return eris.Wrap(err, "sqlite: save result")
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.GradedResult, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, test_id, student_name, student_class, total_questions,
		       correct_answers, wrong_answers, score, percentage, grade_band,
		       source, processed_at
		FROM test_results WHERE id = ?`, id)

	result, err := scanResult(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrapf(err, "sqlite: result %s not found", id)
		}
		return nil, eris.Wrap(err, "sqlite: get result")
	}
	return result, nil
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.GradedResult, error) {
	query := `
		SELECT id, test_id, student_name, student_class, total_questions,
		       correct_answers, wrong_answers, score, percentage, grade_band,
		       source, processed_at
		FROM test_results WHERE 1=1`
	var args []any
	if filter.TestID != "" {
		query += " AND test_id = ?"
		args = append(args, filter.TestID)
	}
	if filter.StudentClass != "" {
		query += " AND student_class = ?"
		args = append(args, filter.StudentClass)
	}
	query += " ORDER BY processed_at"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list results")
	}
	defer rows.Close() //nolint:errcheck

	var results []model.GradedResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		results = append(results, *r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: iterate results")
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*model.GradedResult, error) {
	var (
		r           model.GradedResult
		band        string
		source      string
		processedAt string
	)
	if err := row.Scan(
		&r.ID, &r.TestID, &r.StudentName, &r.StudentClass, &r.TotalQuestions,
		&r.CorrectAnswers, &r.WrongAnswers, &r.Score, &r.Percentage, &band,
		&source, &processedAt,
	); err != nil {
		return nil, err
	}
	r.GradeBand = model.GradeBand(band)
	r.Source = model.AnswerSource(source)
	ts, err := time.Parse(time.RFC3339Nano, processedAt)
	if err != nil {
		return nil, eris.Wrap(err, "parse processed_at")
	}
	r.ProcessedAt = ts
	return &r, nil
}
