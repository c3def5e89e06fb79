package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

const groupDetailSelect = `SELECT g.id, g.name, g.min_age, g.max_age, g.created_at, g.updated_at,
        (SELECT COUNT(*) FROM group_students gs WHERE gs.group_id = g.id) AS student_count,
        (SELECT COUNT(*) FROM lessons l WHERE l.group_id = g.id) AS lesson_count
        FROM groups g`

// GroupRepository persists groups and their memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns every group with member and lesson counts.
func (r *GroupRepository) List(ctx context.Context) ([]models.GroupDetail, error) {
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, groupDetailSelect+" ORDER BY g.name"); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// FindByID loads a group with its counts.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.GroupDetail, error) {
	var group models.GroupDetail
	if err := r.db.GetContext(ctx, &group, groupDetailSelect+" WHERE g.id = $1", id); err != nil {
		return nil, err
	}
	return &group, nil
}

// Exists reports whether a group with the id exists.
func (r *GroupRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM groups WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check group: %w", err)
	}
	return exists, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	const query = `INSERT INTO groups (id, name, min_age, max_age, created_at, updated_at)
        VALUES (:id, :name, :min_age, :max_age, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update modifies a group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, min_age = :min_age, max_age = :max_age, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group. Lessons still pointing at it surface as ErrReferenced.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM groups WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete group: %w", translate(err))
	}
	return nil
}

// ListStudents returns the members of a group.
func (r *GroupRepository) ListStudents(ctx context.Context, groupID string) ([]models.RosterStudent, error) {
	const query = `SELECT gs.student_id, s.name, s.national_id, gs.joined_at
        FROM group_students gs JOIN students s ON s.id = gs.student_id
        WHERE gs.group_id = $1 ORDER BY s.name`
	var students []models.RosterStudent
	if err := r.db.SelectContext(ctx, &students, query, groupID); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}

// MoveStudent puts a student into groupID and returns the group it left, if any.
// The student row and existing membership are locked, so exec must be a transaction.
func (r *GroupRepository) MoveStudent(ctx context.Context, exec sqlx.ExtContext, studentID, groupID string) (*string, error) {
	target := r.exec(exec)

	var locked string
	if err := sqlx.GetContext(ctx, target, &locked, "SELECT id FROM students WHERE id = $1 FOR UPDATE", studentID); err != nil {
		return nil, err
	}

	var previous *string
	var current string
	err := sqlx.GetContext(ctx, target, &current, "SELECT group_id FROM group_students WHERE student_id = $1 FOR UPDATE", studentID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("lock group membership: %w", err)
	default:
		previous = &current
		if current == groupID {
			return previous, nil
		}
		if _, err := target.ExecContext(ctx, "DELETE FROM group_students WHERE student_id = $1", studentID); err != nil {
			return nil, fmt.Errorf("leave group: %w", err)
		}
	}

	const insert = `INSERT INTO group_students (student_id, group_id, joined_at) VALUES ($1, $2, $3)`
	if _, err := target.ExecContext(ctx, insert, studentID, groupID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("join group: %w", translate(err))
	}
	return previous, nil
}

// RemoveStudent drops a membership and reports whether one existed.
func (r *GroupRepository) RemoveStudent(ctx context.Context, groupID, studentID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM group_students WHERE group_id = $1 AND student_id = $2", groupID, studentID)
	if err != nil {
		return false, fmt.Errorf("remove group student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove group student: %w", err)
	}
	return affected > 0, nil
}
