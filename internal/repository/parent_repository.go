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

const parentColumns = "id, name, national_id, phone, email, occupation, created_at, updated_at"

// ParentRepository persists mothers and fathers. Both tables share one shape.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

func (r *ParentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func parentTable(kind models.ParentKind) (string, error) {
	switch kind {
	case models.ParentMother:
		return "mothers", nil
	case models.ParentFather:
		return "fathers", nil
	}
	return "", fmt.Errorf("unknown parent kind %q", kind)
}

// FindByID loads a parent by id.
func (r *ParentRepository) FindByID(ctx context.Context, kind models.ParentKind, id string) (*models.Parent, error) {
	table, err := parentTable(kind)
	if err != nil {
		return nil, err
	}
	var parent models.Parent
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", parentColumns, table)
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// FindByNationalID looks a parent up by national ID, locking the row inside a transaction.
// A missing row is reported as a not-found lookup, not an error.
func (r *ParentRepository) FindByNationalID(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, nationalID string) (models.ParentLookup, error) {
	table, err := parentTable(kind)
	if err != nil {
		return models.ParentNotFound(), err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE national_id = $1", parentColumns, table)
	if exec != nil {
		query += " FOR UPDATE"
	}
	var parent models.Parent
	if err := sqlx.GetContext(ctx, r.exec(exec), &parent, query, nationalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ParentNotFound(), nil
		}
		return models.ParentNotFound(), fmt.Errorf("find %s by national id: %w", kind, err)
	}
	return models.ParentFound(&parent), nil
}

// Create inserts a parent.
func (r *ParentRepository) Create(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, parent *models.Parent) error {
	table, err := parentTable(kind)
	if err != nil {
		return err
	}
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	parent.CreatedAt = now
	parent.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO %s (id, name, national_id, phone, email, occupation, created_at, updated_at)
        VALUES (:id, :name, :national_id, :phone, :email, :occupation, :created_at, :updated_at)`, table)
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, parent); err != nil {
		return fmt.Errorf("create %s: %w", kind, translate(err))
	}
	return nil
}

// Update overwrites every mutable field of a parent.
func (r *ParentRepository) Update(ctx context.Context, exec sqlx.ExtContext, kind models.ParentKind, parent *models.Parent) error {
	table, err := parentTable(kind)
	if err != nil {
		return err
	}
	parent.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf(`UPDATE %s SET name = :name, national_id = :national_id, phone = :phone, email = :email,
        occupation = :occupation, updated_at = :updated_at WHERE id = :id`, table)
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, parent); err != nil {
		return fmt.Errorf("update %s: %w", kind, translate(err))
	}
	return nil
}
