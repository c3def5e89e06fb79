package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sports-club-api/internal/models"
)

const debtColumns = `d.id, d.student_id, d.due_date, d.date_of_payment, d.monthly_tuition_fee, d.material_fee,
        d.amount_paid, d.debt_amount, d.is_paid, d.created_at, d.updated_at`

// DebtRepository persists tuition debts.
type DebtRepository struct {
	db *sqlx.DB
}

// NewDebtRepository constructs a DebtRepository.
func NewDebtRepository(db *sqlx.DB) *DebtRepository {
	return &DebtRepository{db: db}
}

// FindByID loads a debt.
func (r *DebtRepository) FindByID(ctx context.Context, id string) (*models.Debt, error) {
	var debt models.Debt
	query := fmt.Sprintf("SELECT %s FROM debts d WHERE d.id = $1", debtColumns)
	if err := r.db.GetContext(ctx, &debt, query, id); err != nil {
		return nil, err
	}
	return &debt, nil
}

// ListByStudent returns a student's debts ordered by due date.
func (r *DebtRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Debt, error) {
	var debts []models.Debt
	query := fmt.Sprintf("SELECT %s FROM debts d WHERE d.student_id = $1 ORDER BY d.due_date", debtColumns)
	if err := r.db.SelectContext(ctx, &debts, query, studentID); err != nil {
		return nil, fmt.Errorf("list student debts: %w", err)
	}
	return debts, nil
}

// ListByPeriod returns debts due within the filter month, optionally limited to a group's members.
func (r *DebtRepository) ListByPeriod(ctx context.Context, filter models.DebtPeriodFilter) ([]models.DebtPeriodRow, error) {
	start, end := filter.Bounds()
	query := fmt.Sprintf(`SELECT %s, s.name AS student_name, s.national_id AS student_national_id
        FROM debts d JOIN students s ON s.id = d.student_id`, debtColumns)
	args := []interface{}{start, end}
	if filter.GroupID != "" {
		query += " JOIN group_students gs ON gs.student_id = d.student_id AND gs.group_id = $3"
		args = append(args, filter.GroupID)
	}
	query += " WHERE d.due_date >= $1 AND d.due_date < $2 ORDER BY s.name, d.due_date"

	var rows []models.DebtPeriodRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list debts by period: %w", err)
	}
	return rows, nil
}

// Create inserts a debt. Derived columns must already be computed.
func (r *DebtRepository) Create(ctx context.Context, debt *models.Debt) error {
	if debt.ID == "" {
		debt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	debt.CreatedAt = now
	debt.UpdatedAt = now
	const query = `INSERT INTO debts (id, student_id, due_date, date_of_payment, monthly_tuition_fee, material_fee,
        amount_paid, debt_amount, is_paid, created_at, updated_at)
        VALUES (:id, :student_id, :due_date, :date_of_payment, :monthly_tuition_fee, :material_fee,
        :amount_paid, :debt_amount, :is_paid, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, debt); err != nil {
		return fmt.Errorf("create debt: %w", translate(err))
	}
	return nil
}

// Update overwrites a debt row.
func (r *DebtRepository) Update(ctx context.Context, debt *models.Debt) error {
	debt.UpdatedAt = time.Now().UTC()
	const query = `UPDATE debts SET due_date = :due_date, date_of_payment = :date_of_payment,
        monthly_tuition_fee = :monthly_tuition_fee, material_fee = :material_fee, amount_paid = :amount_paid,
        debt_amount = :debt_amount, is_paid = :is_paid, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, debt); err != nil {
		return fmt.Errorf("update debt: %w", translate(err))
	}
	return nil
}

// Delete removes a debt.
func (r *DebtRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM debts WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return nil
}
