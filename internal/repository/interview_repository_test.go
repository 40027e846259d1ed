package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scholarship-api/internal/models"
)

func TestInterviewRepositoryUpsertKeepsExistingID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewInterviewRepository(db)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interviews")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("int-existing", created))

	interview := &models.Interview{
		ApplicationID: "app-1",
		ScheduledAt:   time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
		Status:        models.InterviewRescheduled,
		ScheduledBy:   "evaluator-1",
	}
	require.NoError(t, repo.Upsert(context.Background(), interview))
	assert.Equal(t, "int-existing", interview.ID)
	assert.Equal(t, created, interview.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTermRepositoryFindByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewTermRepository(db)
	start := time.Date(2027, 1, 11, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, semester, academic_year, start_date, end_date FROM academic_terms")).
		WithArgs(models.SemesterSecond, 2026).
		WillReturnRows(sqlmock.NewRows([]string{"id", "semester", "academic_year", "start_date", "end_date"}).
			AddRow("term-2", "SECOND", 2026, start, start.AddDate(0, 5, 0)))

	term, err := repo.FindByKey(context.Background(), models.TermKey{Semester: models.SemesterSecond, Year: 2026})
	require.NoError(t, err)
	assert.Equal(t, "term-2", term.ID)
	assert.Equal(t, "SECOND 2026-2027", term.Key().String())
	require.NoError(t, mock.ExpectationsWereMet())
}
