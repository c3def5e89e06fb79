package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/models"
)

func TestAttendanceRepositoryUpsertBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	present, absent := true, false

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (lesson_id, student_id, attendance_date) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "les-1", "stu-1", date, true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (lesson_id, student_id, attendance_date) DO UPDATE")).
		WithArgs(sqlmock.AnyArg(), "les-1", "stu-2", date, false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.Attendance{
		{LessonID: "les-1", StudentID: "stu-1", AttendanceDate: date, IsPresent: &present},
		{LessonID: "les-1", StudentID: "stu-2", AttendanceDate: date, IsPresent: &absent},
	}

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.UpsertBatch(context.Background(), tx, records))
	require.NoError(t, tx.Commit())

	for _, record := range records {
		assert.NotEmpty(t, record.ID)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRosterForDateKeepsUnmarked(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"student_id", "name", "national_id", "attendance_id", "attendance_date", "is_present"}).
		AddRow("stu-1", "Ali", "11111111111", "att-1", date, true).
		AddRow("stu-2", "Ayşe", "22222222222", nil, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN attendances a ON a.lesson_id = ls.lesson_id")).
		WithArgs("les-1", date).
		WillReturnRows(rows)

	roster, err := repo.RosterForDate(context.Background(), "les-1", date)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NotNil(t, roster[0].IsPresent)
	assert.True(t, *roster[0].IsPresent)
	assert.Nil(t, roster[1].IsPresent)
	assert.Nil(t, roster[1].AttendanceID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTalliesForStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"lesson_id", "lesson_name", "present", "recorded"}).
		AddRow("les-1", "Basketbol", 2, 3).
		AddRow("les-2", "Yüzme", 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_students ls JOIN lessons l ON l.id = ls.lesson_id")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	tallies, err := repo.TalliesForStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	assert.Equal(t, 66.67, tallies[0].Percentage())
	assert.Equal(t, float64(0), tallies[1].Percentage())
	require.NoError(t, mock.ExpectationsWereMet())
}
