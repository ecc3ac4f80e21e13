package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mirzabek3555/Ustoziya-new/internal/model"
)

func TestPostgres_SaveResult(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := storedResult("r1", "math-7a", "7-A", 60)
	mock.ExpectExec("INSERT INTO test_results").
		WithArgs(r.ID, r.TestID, r.StudentName, r.StudentClass,
			r.TotalQuestions, r.CorrectAnswers, r.WrongAnswers,
			r.Score, r.Percentage, string(r.GradeBand),
			string(r.Source), r.ProcessedAt.UTC()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgresWithPool(mock)
	require.NoError(t, s.SaveResult(context.Background(), r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetResult(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM test_results WHERE id").
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "test_id", "student_name", "student_class", "total_questions",
			"correct_answers", "wrong_answers", "score", "percentage", "grade_band",
			"source", "processed_at",
		}).AddRow("r1", "math-7a", "Alisher Navoiy", "7-A", 5, 3, 2, 3, 60.0,
			"POOR", "FALLBACK_REGEX", at))

	s := NewPostgresWithPool(mock)
	got, err := s.GetResult(context.Background(), "r1")
	require.NoError(t, err)

	assert.Equal(t, "Alisher Navoiy", got.StudentName)
	assert.Equal(t, model.BandPoor, got.GradeBand)
	assert.Equal(t, model.SourceFallbackRegex, got.Source)
	assert.True(t, at.Equal(got.ProcessedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListResults(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2026, 5, 12, 10, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM test_results WHERE 1=1 AND test_id").
		WithArgs("math-7a").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "test_id", "student_name", "student_class", "total_questions",
			"correct_answers", "wrong_answers", "score", "percentage", "grade_band",
			"source", "processed_at",
		}).
			AddRow("r1", "math-7a", "Ali", "7-A", 5, 5, 0, 5, 100.0, "EXCELLENT", "SEMANTIC", at).
			AddRow("r2", "math-7a", "Vali", "7-A", 5, 3, 2, 3, 60.0, "POOR", "FALLBACK_REGEX", at))

	s := NewPostgresWithPool(mock)
	got, err := s.ListResults(context.Background(), ResultFilter{TestID: "math-7a"})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, model.BandExcellent, got[0].GradeBand)
	assert.Equal(t, "Vali", got[1].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS test_results").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	s := NewPostgresWithPool(mock)
	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
