package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

const relativeColumns = "id, student_id, name, national_id, phone, occupation, relation_type, created_at, updated_at"

// RelativeRepository persists secondary contacts of students.
type RelativeRepository struct {
	db *sqlx.DB
}

// NewRelativeRepository constructs a RelativeRepository.
func NewRelativeRepository(db *sqlx.DB) *RelativeRepository {
	return &RelativeRepository{db: db}
}

// ListByStudent returns the relatives of a student.
func (r *RelativeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Relative, error) {
	query := fmt.Sprintf("SELECT %s FROM relatives WHERE student_id = $1 ORDER BY name", relativeColumns)
	var relatives []models.Relative
	if err := r.db.SelectContext(ctx, &relatives, query, studentID); err != nil {
		return nil, fmt.Errorf("list relatives: %w", err)
	}
	return relatives, nil
}

// FindByID loads a relative.
func (r *RelativeRepository) FindByID(ctx context.Context, id string) (*models.Relative, error) {
	query := fmt.Sprintf("SELECT %s FROM relatives WHERE id = $1", relativeColumns)
	var relative models.Relative
	if err := r.db.GetContext(ctx, &relative, query, id); err != nil {
		return nil, err
	}
	return &relative, nil
}

// Create inserts a relative.
func (r *RelativeRepository) Create(ctx context.Context, relative *models.Relative) error {
	if relative.ID == "" {
		relative.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	relative.CreatedAt = now
	relative.UpdatedAt = now
	const query = `INSERT INTO relatives (id, student_id, name, national_id, phone, occupation, relation_type, created_at, updated_at)
        VALUES (:id, :student_id, :name, :national_id, :phone, :occupation, :relation_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, relative); err != nil {
		return fmt.Errorf("create relative: %w", translate(err))
	}
	return nil
}

// Update overwrites a relative's contact fields.
func (r *RelativeRepository) Update(ctx context.Context, relative *models.Relative) error {
	relative.UpdatedAt = time.Now().UTC()
	const query = `UPDATE relatives SET name = :name, national_id = :national_id, phone = :phone,
        occupation = :occupation, relation_type = :relation_type, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, relative); err != nil {
		return fmt.Errorf("update relative: %w", err)
	}
	return nil
}

// Delete removes a relative.
func (r *RelativeRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM relatives WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete relative: %w", err)
	}
	return nil
}
