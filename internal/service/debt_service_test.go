package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/internal/repository"
	"github.com/noah-isme/sports-club-api/pkg/jobs"
)

type fakeDebtRepo struct {
	debts      map[string]*models.Debt
	period     []models.DebtPeriodRow
	lastFilter models.DebtPeriodFilter
	listCalls  int
	seq        int
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{debts: map[string]*models.Debt{}}
}

func (f *fakeDebtRepo) FindByID(ctx context.Context, id string) (*models.Debt, error) {
	d, ok := f.debts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *d
	return &clone, nil
}

func (f *fakeDebtRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Debt, error) {
	f.listCalls++
	var out []models.Debt
	for _, d := range f.debts {
		if d.StudentID == studentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDebtRepo) ListByPeriod(ctx context.Context, filter models.DebtPeriodFilter) ([]models.DebtPeriodRow, error) {
	f.lastFilter = filter
	return f.period, nil
}

func (f *fakeDebtRepo) periodTaken(debt *models.Debt) bool {
	for _, d := range f.debts {
		if d.ID != debt.ID && d.StudentID == debt.StudentID &&
			d.DueDate.Year() == debt.DueDate.Year() && d.DueDate.Month() == debt.DueDate.Month() {
			return true
		}
	}
	return false
}

func (f *fakeDebtRepo) Create(ctx context.Context, debt *models.Debt) error {
	if f.periodTaken(debt) {
		return fmt.Errorf("create debt: %w", repository.ErrDuplicate)
	}
	f.seq++
	debt.ID = fmt.Sprintf("debt-%d", f.seq)
	clone := *debt
	f.debts[debt.ID] = &clone
	return nil
}

func (f *fakeDebtRepo) Update(ctx context.Context, debt *models.Debt) error {
	if f.periodTaken(debt) {
		return fmt.Errorf("update debt: %w", repository.ErrDuplicate)
	}
	clone := *debt
	f.debts[debt.ID] = &clone
	return nil
}

func (f *fakeDebtRepo) Delete(ctx context.Context, id string) error {
	delete(f.debts, id)
	return nil
}

var debtClock = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newDebtFixture() (*DebtService, *fakeDebtRepo, *memoryCache, *recordingInvalidator) {
	repo := newFakeDebtRepo()
	cache := newMemoryCache()
	invalidator := &recordingInvalidator{}
	svc := NewDebtService(repo, activeStudents("stu-1"), cache, invalidator, nil, nil)
	svc.now = func() time.Time { return debtClock }
	return svc, repo, cache, invalidator
}

func TestDebtServiceCreateDerivesBalance(t *testing.T) {
	svc, _, _, invalidator := newDebtFixture()
	clientBalance := 0.0
	clientPaid := true

	debt, err := svc.Create(context.Background(), dto.DebtRequest{
		StudentID:         "stu-1",
		DueDate:           "2024-03-01",
		MonthlyTuitionFee: 500,
		MaterialFee:       50,
		AmountPaid:        200,
		DebtAmount:        &clientBalance,
		IsPaid:            &clientPaid,
	})
	require.NoError(t, err)
	assert.Equal(t, 350.0, debt.DebtAmount)
	assert.False(t, debt.IsPaid)
	assert.Nil(t, debt.DateOfPayment)
	assert.Equal(t, []string{debtDetailsKey("stu-1")}, invalidator.keys)
}

func TestDebtServicePaymentDateFollowsPaidState(t *testing.T) {
	svc, repo, _, _ := newDebtFixture()
	req := dto.DebtRequest{StudentID: "stu-1", DueDate: "2024-03-01", MonthlyTuitionFee: 500}

	debt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.AmountPaid = 500
	paid, err := svc.Update(context.Background(), debt.ID, req)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Zero(t, paid.DebtAmount)
	require.NotNil(t, paid.DateOfPayment)
	assert.Equal(t, debtClock, *paid.DateOfPayment)

	req.AmountPaid = 100
	reopened, err := svc.Update(context.Background(), debt.ID, req)
	require.NoError(t, err)
	assert.False(t, reopened.IsPaid)
	assert.Nil(t, reopened.DateOfPayment)

	explicit := "2024-03-05"
	req.AmountPaid = 600
	req.DateOfPayment = &explicit
	overpaid, err := svc.Update(context.Background(), debt.ID, req)
	require.NoError(t, err)
	assert.Equal(t, -100.0, overpaid.DebtAmount)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), *repo.debts[debt.ID].DateOfPayment)
}

func TestDebtServiceUpdateCannotMoveDebt(t *testing.T) {
	svc, repo, _, _ := newDebtFixture()
	repo.debts["debt-1"] = &models.Debt{ID: "debt-1", StudentID: "stu-1"}

	_, err := svc.Update(context.Background(), "debt-1", dto.DebtRequest{StudentID: "stu-2", DueDate: "2024-03-01"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.Update(context.Background(), "missing", dto.DebtRequest{StudentID: "stu-1", DueDate: "2024-03-01"})
	requireStatus(t, err, http.StatusNotFound)
}

func TestDebtServiceOneDebtPerMonth(t *testing.T) {
	svc, repo, _, _ := newDebtFixture()
	req := dto.DebtRequest{StudentID: "stu-1", DueDate: "2024-03-01", MonthlyTuitionFee: 500, MaterialFee: 100}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.DueDate = "2024-03-15"
	_, err = svc.Create(context.Background(), req)
	appErr := requireStatus(t, err, http.StatusConflict)
	assert.Equal(t, errDebtPeriodTaken.Message, appErr.Message)

	req.DueDate = "2024-04-01"
	april, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	req.DueDate = "2024-03-20"
	_, err = svc.Update(context.Background(), april.ID, req)
	requireStatus(t, err, http.StatusConflict)

	details, err := svc.DetailsFor(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, repo.debts, 2)
	assert.Equal(t, 1200.0, details.TotalDebt)
}

func TestDebtServiceReadAfterWriteIsFresh(t *testing.T) {
	repo := newFakeDebtRepo()
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, true)
	invalidator := NewCacheInvalidator(cache, NewMetricsService(), jobs.QueueConfig{Workers: 1})
	invalidator.Start(context.Background())
	defer invalidator.Stop()
	svc := NewDebtService(repo, activeStudents("stu-1"), cache, invalidator, nil, nil)
	svc.now = func() time.Time { return debtClock }
	ctx := context.Background()

	for i, due := range []string{"2024-01-01", "2024-02-01", "2024-03-01"} {
		_, err := svc.Create(ctx, dto.DebtRequest{StudentID: "stu-1", DueDate: due, MonthlyTuitionFee: 100})
		require.NoError(t, err)

		details, err := svc.DetailsFor(ctx, "stu-1")
		require.NoError(t, err)
		assert.Len(t, details.Debts, i+1)
		assert.Equal(t, float64(100*(i+1)), details.TotalDebt)
	}
}

func TestDebtServiceCreateRequiresStudent(t *testing.T) {
	svc, _, _, _ := newDebtFixture()
	_, err := svc.Create(context.Background(), dto.DebtRequest{StudentID: "ghost", DueDate: "2024-03-01"})
	requireStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(context.Background(), dto.DebtRequest{StudentID: "stu-1", DueDate: "2024-03-01", AmountPaid: -1})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestDebtServiceDetailsForSumsOutstanding(t *testing.T) {
	svc, repo, cache, _ := newDebtFixture()
	repo.debts["a"] = &models.Debt{ID: "a", StudentID: "stu-1", DebtAmount: 300}
	repo.debts["b"] = &models.Debt{ID: "b", StudentID: "stu-1", DebtAmount: -50, IsPaid: true}
	repo.debts["c"] = &models.Debt{ID: "c", StudentID: "stu-1", DebtAmount: 120.5}

	details, err := svc.DetailsFor(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Len(t, details.Debts, 3)
	assert.Equal(t, 420.5, details.TotalDebt)

	_, err = svc.DetailsFor(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	assert.Equal(t, 1, cache.hits)

	_, err = svc.DetailsFor(context.Background(), "ghost")
	requireStatus(t, err, http.StatusNotFound)
}

func TestDebtServicePeriodFilter(t *testing.T) {
	svc, repo, _, _ := newDebtFixture()
	repo.period = []models.DebtPeriodRow{
		{Debt: models.Debt{DebtAmount: 200}, StudentName: "Deniz"},
		{Debt: models.Debt{DebtAmount: 0, IsPaid: true}, StudentName: "Ece"},
	}

	report, err := svc.PeriodFilter(context.Background(), dto.DebtPeriodQuery{GroupID: "g-1", Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 200.0, report.TotalDebt)
	require.NotNil(t, report.GroupID)
	assert.Equal(t, "g-1", *report.GroupID)
	assert.Equal(t, models.DebtPeriodFilter{GroupID: "g-1", Year: 2024, Month: time.March}, repo.lastFilter)

	_, err = svc.PeriodFilter(context.Background(), dto.DebtPeriodQuery{Year: 2024, Month: 13})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestDebtServiceExportPeriodCSV(t *testing.T) {
	svc, repo, _, _ := newDebtFixture()
	repo.period = []models.DebtPeriodRow{{
		Debt:              models.Debt{DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthlyTuitionFee: 500, DebtAmount: 500},
		StudentName:       "Deniz Yılmaz",
		StudentNationalID: "12345678901",
	}}

	file, err := svc.ExportPeriod(context.Background(), dto.DebtPeriodQuery{Year: 2024, Month: 3, Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "borclar-2024-03.csv", file.Filename)
	assert.True(t, strings.HasPrefix(file.ContentType, "text/csv"))
	body := string(file.Data)
	assert.Contains(t, body, "Deniz Yılmaz,12345678901,2024-03-01,500.00,0.00,0.00,500.00,Ödenmedi")
	assert.Contains(t, body, "Toplam,,,,,,500.00,")

	_, err = svc.ExportPeriod(context.Background(), dto.DebtPeriodQuery{Year: 2024, Month: 3, Format: "xlsx"})
	requireStatus(t, err, http.StatusBadRequest)
}
