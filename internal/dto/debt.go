package dto

// DebtRequest creates or updates a debt. Balance and paid state are always derived.
type DebtRequest struct {
	StudentID         string   `json:"studentId" validate:"required"`
	DueDate           string   `json:"dueDate" validate:"required,datetime=2006-01-02"`
	DateOfPayment     *string  `json:"dateOfPayment" validate:"omitempty,datetime=2006-01-02"`
	MonthlyTuitionFee float64  `json:"monthlyTuitionFee" validate:"min=0"`
	MaterialFee       float64  `json:"materialFee" validate:"min=0"`
	AmountPaid        float64  `json:"amountPaid" validate:"min=0"`
	DebtAmount        *float64 `json:"debtAmount,omitempty" swaggerignore:"true"`
	IsPaid            *bool    `json:"isPaid,omitempty" swaggerignore:"true"`
}

// DebtPeriodQuery selects the billing month.
type DebtPeriodQuery struct {
	GroupID string `form:"groupId"`
	Year    int    `form:"year" validate:"required,min=2000,max=2100"`
	Month   int    `form:"month" validate:"required,min=1,max=12"`
	Format  string `form:"format"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
