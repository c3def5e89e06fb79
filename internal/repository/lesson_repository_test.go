package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/models"
)

func TestLessonRepositoryListByGroup(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "starting_day_of_week", "starting_hour", "ending_day_of_week", "ending_hour",
		"capacity", "group_id", "is_active", "created_at", "updated_at", "group_name", "enrolled_count"}).
		AddRow("les-1", "Yüzme", 1, "17:00", 1, "18:00", 12, "grp-1", true, now, now, "Minikler", 4)
	mock.ExpectQuery(`FROM lessons l JOIN groups g ON g.id = l.group_id WHERE 1=1 AND l.group_id = \$1 ORDER BY`).
		WithArgs("grp-1").
		WillReturnRows(rows)

	lessons, err := repo.List(context.Background(), models.LessonFilter{GroupID: "grp-1"})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "Minikler", lessons[0].GroupName)
	assert.Equal(t, 4, lessons[0].EnrolledCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_students")).
		WithArgs(sqlmock.AnyArg(), "les-1", "stu-1", sqlmock.AnyArg(), true).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Enroll(context.Background(), nil, &models.LessonStudent{LessonID: "les-1", StudentID: "stu-1"})
	assert.ErrorIs(t, err, ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryWithdraw(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson_students SET is_active = false, left_at = $3")).
		WithArgs("les-1", "stu-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	withdrawn, err := repo.Withdraw(context.Background(), "les-1", "stu-1", at)
	require.NoError(t, err)
	assert.True(t, withdrawn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryStudentsWithoutLesson(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.is_active AND NOT EXISTS ( SELECT 1 FROM lesson_students ls WHERE ls.lesson_id = $1")).
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow("stu-2", "Ayşe", "22222222222", nil, "", "", "", "", "", false, nil, "m-2", "f-2", true, nil, now, now))

	students, err := repo.StudentsWithoutLesson(context.Background(), "les-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "stu-2", students[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM lesson_students WHERE lesson_id = $1 AND is_active")).
		WithArgs("les-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountActive(context.Background(), nil, "les-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
