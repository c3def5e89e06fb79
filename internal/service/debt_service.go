package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/internal/repository"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/export"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

type debtRepository interface {
	FindByID(ctx context.Context, id string) (*models.Debt, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Debt, error)
	ListByPeriod(ctx context.Context, filter models.DebtPeriodFilter) ([]models.DebtPeriodRow, error)
	Create(ctx context.Context, debt *models.Debt) error
	Update(ctx context.Context, debt *models.Debt) error
	Delete(ctx context.Context, id string) error
}

var errDebtPeriodTaken = appErrors.Clone(appErrors.ErrConflict, "öğrencinin bu ay için zaten bir borç kaydı var")

var debtExportHeaders = []string{"Öğrenci", "TC Kimlik No", "Son Ödeme", "Aidat", "Malzeme", "Ödenen", "Borç", "Durum"}

// DebtService maintains tuition debts. Balances are always derived from fees and payments.
type DebtService struct {
	debts       debtRepository
	students    studentFinder
	cache       aggregateCache
	invalidator cacheInvalidator
	validator   *validation.Validator
	logger      *zap.Logger
	now         func() time.Time
}

// NewDebtService constructs the debt service.
func NewDebtService(debts debtRepository, students studentFinder, cache aggregateCache, invalidator cacheInvalidator, validate *validation.Validator, logger *zap.Logger) *DebtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = (*CacheService)(nil)
	}
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &DebtService{
		debts:       debts,
		students:    students,
		cache:       cache,
		invalidator: invalidator,
		validator:   defaultValidator(validate),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create records a debt for a due period.
func (s *DebtService) Create(ctx context.Context, req dto.DebtRequest) (*models.Debt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}
	debt := &models.Debt{StudentID: req.StudentID}
	if err := s.apply(debt, req); err != nil {
		return nil, err
	}
	if err := s.debts.Create(ctx, debt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDebtPeriodTaken
		}
		return nil, appErrors.Internal(err, "borç kaydedilemedi")
	}
	s.invalidator.Invalidate(ctx, debtDetailsKey(debt.StudentID))
	return debt, nil
}

// Update rewrites fees and payments of a debt and re-derives its balance.
func (s *DebtService) Update(ctx context.Context, id string, req dto.DebtRequest) (*models.Debt, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	debt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.StudentID != debt.StudentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "borç başka bir öğrenciye taşınamaz")
	}
	if err := s.apply(debt, req); err != nil {
		return nil, err
	}
	if err := s.debts.Update(ctx, debt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errDebtPeriodTaken
		}
		return nil, appErrors.Internal(err, "borç güncellenemedi")
	}
	s.invalidator.Invalidate(ctx, debtDetailsKey(debt.StudentID))
	return debt, nil
}

// Get returns a debt.
func (s *DebtService) Get(ctx context.Context, id string) (*models.Debt, error) {
	debt, err := s.debts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "borç kaydı bulunamadı")
		}
		return nil, appErrors.Internal(err, "borç bilgileri alınamadı")
	}
	return debt, nil
}

// Delete removes a debt.
func (s *DebtService) Delete(ctx context.Context, id string) error {
	debt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.debts.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "borç silinemedi")
	}
	s.invalidator.Invalidate(ctx, debtDetailsKey(debt.StudentID))
	return nil
}

// DetailsFor lists a student's debts with the outstanding total.
func (s *DebtService) DetailsFor(ctx context.Context, studentID string) (*models.DebtDetails, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}
	key := debtDetailsKey(studentID)
	var cached models.DebtDetails
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	debts, err := s.debts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "borç bilgileri alınamadı")
	}
	debts = emptyIfNil(debts)
	details := models.DebtDetails{StudentID: studentID, Debts: debts, TotalDebt: models.TotalOutstanding(debts)}
	_ = s.cache.Set(ctx, key, details, 0)
	return &details, nil
}

// PeriodFilter returns the debts due in a month, optionally for one group's members.
func (s *DebtService) PeriodFilter(ctx context.Context, query dto.DebtPeriodQuery) (*models.DebtPeriodReport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationFailed(s.validator, err)
	}
	filter := models.DebtPeriodFilter{GroupID: query.GroupID, Year: query.Year, Month: time.Month(query.Month)}
	rows, err := s.debts.ListByPeriod(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "dönem borçları alınamadı")
	}
	rows = emptyIfNil(rows)
	report := &models.DebtPeriodReport{Year: query.Year, Month: query.Month, Rows: rows, TotalDebt: models.TotalOutstanding(rows)}
	if query.GroupID != "" {
		groupID := query.GroupID
		report.GroupID = &groupID
	}
	return report, nil
}

// ExportPeriod renders the month's billing worklist as CSV or PDF.
func (s *DebtService) ExportPeriod(ctx context.Context, query dto.DebtPeriodQuery) (*dto.ExportFile, error) {
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.Validation(err, "desteklenmeyen dışa aktarma biçimi")
	}
	report, err := s.PeriodFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: debtExportHeaders}
	for _, row := range report.Rows {
		status := "Ödenmedi"
		if row.IsPaid {
			status = "Ödendi"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Öğrenci":      row.StudentName,
			"TC Kimlik No": row.StudentNationalID,
			"Son Ödeme":    row.DueDate.Format(dto.DateLayout),
			"Aidat":        money(row.MonthlyTuitionFee),
			"Malzeme":      money(row.MaterialFee),
			"Ödenen":       money(row.AmountPaid),
			"Borç":         money(row.DebtAmount),
			"Durum":        status,
		})
	}
	dataset.Rows = append(dataset.Rows, map[string]string{"Öğrenci": "Toplam", "Borç": money(report.TotalDebt)})

	title := fmt.Sprintf("Aidat Listesi %02d/%d", report.Month, report.Year)
	data, err := export.Render(format, dataset, title)
	if err != nil {
		return nil, appErrors.Internal(err, "dışa aktarma dosyası oluşturulamadı")
	}
	s.logger.Info("debt period exported", zap.Int("year", report.Year), zap.Int("month", report.Month), zap.String("format", string(format)), zap.Int("rows", len(report.Rows)))
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("borclar-%d-%02d.%s", report.Year, report.Month, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// apply copies the request onto debt and derives balance, paid state and payment date.
// Client supplied balance and paid flags are ignored.
func (s *DebtService) apply(debt *models.Debt, req dto.DebtRequest) error {
	due, err := time.Parse(dto.DateLayout, req.DueDate)
	if err != nil {
		return appErrors.Validation(err, "son ödeme tarihi YYYY-AA-GG biçiminde olmalıdır")
	}
	wasPaid := debt.IsPaid
	debt.DueDate = due
	debt.MonthlyTuitionFee = req.MonthlyTuitionFee
	debt.MaterialFee = req.MaterialFee
	debt.AmountPaid = req.AmountPaid
	debt.Recalculate()

	switch {
	case req.DateOfPayment != nil && *req.DateOfPayment != "":
		paidAt, err := time.Parse(dto.DateLayout, *req.DateOfPayment)
		if err != nil {
			return appErrors.Validation(err, "ödeme tarihi YYYY-AA-GG biçiminde olmalıdır")
		}
		debt.DateOfPayment = &paidAt
	case debt.IsPaid && (!wasPaid || debt.DateOfPayment == nil):
		now := s.now()
		debt.DateOfPayment = &now
	case wasPaid && !debt.IsPaid:
		debt.DateOfPayment = nil
	}
	return nil
}

func (s *DebtService) ensureStudent(ctx context.Context, studentID string) error {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errStudentNotFound
		}
		return appErrors.Internal(err, "öğrenci bilgileri alınamadı")
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
