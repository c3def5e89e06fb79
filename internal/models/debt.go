package models

import "time"

// Debt is a student's tuition balance for one due period.
// DebtAmount and IsPaid are derived; see Recalculate.
type Debt struct {
	ID                string     `db:"id" json:"id"`
	StudentID         string     `db:"student_id" json:"studentId"`
	DueDate           time.Time  `db:"due_date" json:"dueDate"`
	DateOfPayment     *time.Time `db:"date_of_payment" json:"dateOfPayment,omitempty"`
	MonthlyTuitionFee float64    `db:"monthly_tuition_fee" json:"monthlyTuitionFee"`
	MaterialFee       float64    `db:"material_fee" json:"materialFee"`
	AmountPaid        float64    `db:"amount_paid" json:"amountPaid"`
	DebtAmount        float64    `db:"debt_amount" json:"debtAmount"`
	IsPaid            bool       `db:"is_paid" json:"isPaid"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// Recalculate derives DebtAmount and IsPaid from the fee and payment columns.
func (d *Debt) Recalculate() {
	d.DebtAmount = round2(d.MonthlyTuitionFee + d.MaterialFee - d.AmountPaid)
	d.IsPaid = d.DebtAmount <= 0
}

// TotalOutstanding sums the positive balances; overpayments do not offset other periods.
func TotalOutstanding[T interface{ Outstanding() float64 }](rows []T) float64 {
	var total float64
	for _, row := range rows {
		if v := row.Outstanding(); v > 0 {
			total += v
		}
	}
	return round2(total)
}

// Outstanding returns the derived balance.
func (d Debt) Outstanding() float64 {
	return d.DebtAmount
}

// DebtDetails lists a student's debts with the running total.
type DebtDetails struct {
	StudentID string  `json:"studentId"`
	Debts     []Debt  `json:"debts"`
	TotalDebt float64 `json:"totalDebt"`
}

// DebtPeriodRow is a billing worklist line.
type DebtPeriodRow struct {
	Debt
	StudentName       string `db:"student_name" json:"studentName"`
	StudentNationalID string `db:"student_national_id" json:"studentNationalId"`
}

// DebtPeriodFilter selects debts due in a calendar month, optionally for one group.
type DebtPeriodFilter struct {
	GroupID string
	Year    int
	Month   time.Month
}

// Bounds returns the half-open [start, end) date range of the month.
func (f DebtPeriodFilter) Bounds() (time.Time, time.Time) {
	start := time.Date(f.Year, f.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// DebtPeriodReport is the billing worklist for a month.
type DebtPeriodReport struct {
	Year      int             `json:"year"`
	Month     int             `json:"month"`
	GroupID   *string         `json:"groupId,omitempty"`
	Rows      []DebtPeriodRow `json:"rows"`
	TotalDebt float64         `json:"totalDebt"`
}
