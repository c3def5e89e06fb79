package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

// AttendanceRepository persists per-lesson attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// UpsertBatch writes one row per (lesson, student, date), overwriting existing marks.
func (r *AttendanceRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, records []models.Attendance) error {
	if len(records) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO attendances (id, lesson_id, student_id, attendance_date, is_present, created_at, updated_at)
VALUES (:id, :lesson_id, :student_id, :attendance_date, :is_present, :created_at, :updated_at)
ON CONFLICT (lesson_id, student_id, attendance_date) DO UPDATE
SET is_present = EXCLUDED.is_present,
    updated_at = EXCLUDED.updated_at`

	for i := range records {
		record := &records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, record); err != nil {
			return fmt.Errorf("upsert attendance: %w", translate(err))
		}
	}
	return nil
}

// RosterForDate returns the active roster joined with each student's mark on date.
func (r *AttendanceRepository) RosterForDate(ctx context.Context, lessonID string, date time.Time) ([]models.AttendanceRosterRow, error) {
	const query = `SELECT ls.student_id, s.name, s.national_id, a.id AS attendance_id, a.attendance_date, a.is_present
        FROM lesson_students ls
        JOIN students s ON s.id = ls.student_id
        LEFT JOIN attendances a ON a.lesson_id = ls.lesson_id AND a.student_id = ls.student_id AND a.attendance_date = $2
        WHERE ls.lesson_id = $1 AND ls.is_active
        ORDER BY s.name`
	var rows []models.AttendanceRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, lessonID, date); err != nil {
		return nil, fmt.Errorf("attendance roster: %w", err)
	}
	return rows, nil
}

// ListByLesson returns every recorded mark of a lesson, newest date first.
func (r *AttendanceRepository) ListByLesson(ctx context.Context, lessonID string) ([]models.AttendanceRosterRow, error) {
	const query = `SELECT a.student_id, s.name, s.national_id, a.id AS attendance_id, a.attendance_date, a.is_present
        FROM attendances a JOIN students s ON s.id = a.student_id
        WHERE a.lesson_id = $1
        ORDER BY a.attendance_date DESC, s.name`
	var rows []models.AttendanceRosterRow
	if err := r.db.SelectContext(ctx, &rows, query, lessonID); err != nil {
		return nil, fmt.Errorf("list lesson attendance: %w", err)
	}
	return rows, nil
}

// Tally counts a student's marks in one lesson. A missing lesson yields sql.ErrNoRows.
func (r *AttendanceRepository) Tally(ctx context.Context, studentID, lessonID string) (*models.AttendanceTally, error) {
	const query = `SELECT l.id AS lesson_id, l.name AS lesson_name,
        COUNT(a.id) FILTER (WHERE a.is_present) AS present,
        COUNT(a.is_present) AS recorded
        FROM lessons l
        LEFT JOIN attendances a ON a.lesson_id = l.id AND a.student_id = $1
        WHERE l.id = $2
        GROUP BY l.id, l.name`
	var tally models.AttendanceTally
	if err := r.db.GetContext(ctx, &tally, query, studentID, lessonID); err != nil {
		return nil, err
	}
	return &tally, nil
}

// TalliesForStudent counts marks for every lesson the student is actively enrolled in.
func (r *AttendanceRepository) TalliesForStudent(ctx context.Context, studentID string) ([]models.AttendanceTally, error) {
	const query = `SELECT l.id AS lesson_id, l.name AS lesson_name,
        COUNT(a.id) FILTER (WHERE a.is_present) AS present,
        COUNT(a.is_present) AS recorded
        FROM lesson_students ls
        JOIN lessons l ON l.id = ls.lesson_id
        LEFT JOIN attendances a ON a.lesson_id = ls.lesson_id AND a.student_id = ls.student_id
        WHERE ls.student_id = $1 AND ls.is_active
        GROUP BY l.id, l.name
        ORDER BY l.name`
	var tallies []models.AttendanceTally
	if err := r.db.SelectContext(ctx, &tallies, query, studentID); err != nil {
		return nil, fmt.Errorf("attendance tallies: %w", err)
	}
	return tallies, nil
}
