package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it for tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_result": `INSERT INTO test_results
		(id, test_id, student_name, student_class, total_questions,
		 correct_answers, wrong_answers, score, percentage, grade_band,
		 source, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"get_result": `SELECT id, test_id, student_name, student_class, total_questions,
		correct_answers, wrong_answers, score, percentage, grade_band,
		source, processed_at
		FROM test_results WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS test_results (
	id              TEXT PRIMARY KEY,
	test_id         TEXT NOT NULL,
	student_name    TEXT NOT NULL,
	student_class   TEXT NOT NULL DEFAULT '',
	total_questions INTEGER NOT NULL,
	correct_answers INTEGER NOT NULL,
	wrong_answers   INTEGER NOT NULL,
	score           INTEGER NOT NULL,
	percentage      DOUBLE PRECISION NOT NULL,
	grade_band      TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	processed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_test_results_test_id ON test_results(test_id);
CREATE INDEX IF NOT EXISTS idx_test_results_class ON test_results(student_class);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, result *model.GradedResult) error {
	_, err := s.pool.Exec(ctx, preparedStatements["insert_result"],
		result.ID, result.TestID, result.StudentName, result.StudentClass,
		result.TotalQuestions, result.CorrectAnswers, result.WrongAnswers,
		result.Score, result.Percentage, string(result.GradeBand),
		string(result.Source), result.ProcessedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save result")
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.GradedResult, error) {
	row := s.pool.QueryRow(ctx, preparedStatements["get_result"], id)

	var (
		r      model.GradedResult
		band   string
		source string
	)
	if err := row.Scan(
		&r.ID, &r.TestID, &r.StudentName, &r.StudentClass, &r.TotalQuestions,
		&r.CorrectAnswers, &r.WrongAnswers, &r.Score, &r.Percentage, &band,
		&source, &r.ProcessedAt,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: get result %s", id)
	}
	r.GradeBand = model.GradeBand(band)
	r.Source = model.AnswerSource(source)
	return &r, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]model.GradedResult, error) {
	query := `SELECT id, test_id, student_name, student_class, total_questions,
		correct_answers, wrong_answers, score, percentage, grade_band,
		source, processed_at
		FROM test_results WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.TestID != "" {
		query += " AND test_id = " + arg(filter.TestID)
	}
	if filter.StudentClass != "" {
		query += " AND student_class = " + arg(filter.StudentClass)
	}
	query += " ORDER BY processed_at"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list results")
	}
	defer rows.Close()

	var results []model.GradedResult
	for rows.Next() {
		var (
			r      model.GradedResult
			band   string
			source string
		)
		if err := rows.Scan(
			&r.ID, &r.TestID, &r.StudentName, &r.StudentClass, &r.TotalQuestions,
			&r.CorrectAnswers, &r.WrongAnswers, &r.Score, &r.Percentage, &band,
			&source, &r.ProcessedAt,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		r.GradeBand = model.GradeBand(band)
		r.Source = model.AnswerSource(source)
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: iterate results")
}
