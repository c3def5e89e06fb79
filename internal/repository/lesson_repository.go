package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

const lessonColumns = `l.id, l.name, l.starting_day_of_week, l.starting_hour, l.ending_day_of_week, l.ending_hour,
        l.capacity, l.group_id, l.is_active, l.created_at, l.updated_at`

const lessonDetailSelect = `SELECT ` + lessonColumns + `, g.name AS group_name,
        (SELECT COUNT(*) FROM lesson_students ls WHERE ls.lesson_id = l.id AND ls.is_active) AS enrolled_count
        FROM lessons l JOIN groups g ON g.id = l.group_id`

// LessonRepository persists lessons and their enrollments.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

func (r *LessonRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns lessons matching the filter.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("l.group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("l.is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	query := fmt.Sprintf("%s WHERE %s ORDER BY l.starting_day_of_week, l.starting_hour, l.name", lessonDetailSelect, strings.Join(conditions, " AND "))

	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	return lessons, nil
}

// FindByID loads a lesson with its group name and enrollment count.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	var lesson models.LessonDetail
	if err := r.db.GetContext(ctx, &lesson, lessonDetailSelect+" WHERE l.id = $1", id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Lock loads a lesson row FOR UPDATE so seat checks serialise per lesson.
func (r *LessonRepository) Lock(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Lesson, error) {
	var lesson models.Lesson
	query := fmt.Sprintf("SELECT %s FROM lessons l WHERE l.id = $1 FOR UPDATE", lessonColumns)
	if err := sqlx.GetContext(ctx, r.exec(exec), &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// Create inserts a lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	const query = `INSERT INTO lessons (id, name, starting_day_of_week, starting_hour, ending_day_of_week, ending_hour,
        capacity, group_id, is_active, created_at, updated_at)
        VALUES (:id, :name, :starting_day_of_week, :starting_hour, :ending_day_of_week, :ending_hour,
        :capacity, :group_id, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", translate(err))
	}
	return nil
}

// Update modifies a lesson.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET name = :name, starting_day_of_week = :starting_day_of_week, starting_hour = :starting_hour,
        ending_day_of_week = :ending_day_of_week, ending_hour = :ending_hour, capacity = :capacity,
        group_id = :group_id, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", translate(err))
	}
	return nil
}

// Delete removes a lesson together with its enrollments and attendance.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM lessons WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}

// Roster returns the actively enrolled students of a lesson.
func (r *LessonRepository) Roster(ctx context.Context, exec sqlx.ExtContext, lessonID string) ([]models.RosterStudent, error) {
	const query = `SELECT ls.student_id, s.name, s.national_id, ls.joined_at
        FROM lesson_students ls JOIN students s ON s.id = ls.student_id
        WHERE ls.lesson_id = $1 AND ls.is_active ORDER BY s.name`
	var roster []models.RosterStudent
	if err := sqlx.SelectContext(ctx, r.exec(exec), &roster, query, lessonID); err != nil {
		return nil, fmt.Errorf("lesson roster: %w", err)
	}
	return roster, nil
}

// IsEnrolled reports whether the student is actively enrolled.
func (r *LessonRepository) IsEnrolled(ctx context.Context, exec sqlx.ExtContext, lessonID, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM lesson_students WHERE lesson_id = $1 AND student_id = $2 AND is_active)`
	var enrolled bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &enrolled, query, lessonID, studentID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// CountActive returns the number of active enrollments.
func (r *LessonRepository) CountActive(ctx context.Context, exec sqlx.ExtContext, lessonID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, "SELECT COUNT(*) FROM lesson_students WHERE lesson_id = $1 AND is_active", lessonID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}

// Enroll inserts an active enrollment.
func (r *LessonRepository) Enroll(ctx context.Context, exec sqlx.ExtContext, enrollment *models.LessonStudent) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.JoinedAt.IsZero() {
		enrollment.JoinedAt = time.Now().UTC()
	}
	enrollment.IsActive = true
	const query = `INSERT INTO lesson_students (id, lesson_id, student_id, joined_at, is_active)
        VALUES (:id, :lesson_id, :student_id, :joined_at, :is_active)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, enrollment); err != nil {
		return fmt.Errorf("enroll student: %w", translate(err))
	}
	return nil
}

// Withdraw ends an active enrollment and reports whether one existed.
func (r *LessonRepository) Withdraw(ctx context.Context, lessonID, studentID string, at time.Time) (bool, error) {
	const query = `UPDATE lesson_students SET is_active = false, left_at = $3
        WHERE lesson_id = $1 AND student_id = $2 AND is_active`
	res, err := r.db.ExecContext(ctx, query, lessonID, studentID, at)
	if err != nil {
		return false, fmt.Errorf("withdraw student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("withdraw student: %w", err)
	}
	return affected > 0, nil
}

// StudentsWithoutLesson returns active students not actively enrolled in the lesson.
func (r *LessonRepository) StudentsWithoutLesson(ctx context.Context, lessonID string) ([]models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students s
        WHERE s.is_active AND NOT EXISTS (
            SELECT 1 FROM lesson_students ls WHERE ls.lesson_id = $1 AND ls.student_id = s.id AND ls.is_active)
        ORDER BY s.name`, studentColumns)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, lessonID); err != nil {
		return nil, fmt.Errorf("list students without lesson: %w", err)
	}
	return students, nil
}

// ListByStudent returns the lessons a student is actively enrolled in.
func (r *LessonRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LessonDetail, error) {
	query := lessonDetailSelect + ` JOIN lesson_students me ON me.lesson_id = l.id AND me.is_active
        WHERE me.student_id = $1 ORDER BY l.starting_day_of_week, l.starting_hour`
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, studentID); err != nil {
		return nil, fmt.Errorf("list student lessons: %w", err)
	}
	return lessons, nil
}
