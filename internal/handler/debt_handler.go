package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	appErrors "github.com/noah-isme/sports-club-api/pkg/errors"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type debtService interface {
	Create(ctx context.Context, req dto.DebtRequest) (*models.Debt, error)
	Get(ctx context.Context, id string) (*models.Debt, error)
	Update(ctx context.Context, id string, req dto.DebtRequest) (*models.Debt, error)
	Delete(ctx context.Context, id string) error
	DetailsFor(ctx context.Context, studentID string) (*models.DebtDetails, error)
	PeriodFilter(ctx context.Context, query dto.DebtPeriodQuery) (*models.DebtPeriodReport, error)
	ExportPeriod(ctx context.Context, query dto.DebtPeriodQuery) (*dto.ExportFile, error)
}

// DebtHandler exposes tuition debt endpoints.
type DebtHandler struct {
	debts debtService
}

// NewDebtHandler constructs DebtHandler.
func NewDebtHandler(debts debtService) *DebtHandler {
	return &DebtHandler{debts: debts}
}

// Create godoc
// @Summary Create debt
// @Description debtAmount and isPaid are derived from the fees and amountPaid.
// @Tags Debts
// @Accept json
// @Produce json
// @Param payload body dto.DebtRequest true "Debt payload"
// @Success 201 {object} response.Envelope
// @Router /Debts [post]
func (h *DebtHandler) Create(c *gin.Context) {
	var req dto.DebtRequest
	if !bindJSON(c, &req) {
		return
	}
	debt, err := h.debts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, debt)
}

// Get godoc
// @Summary Get debt
// @Tags Debts
// @Produce json
// @Param id path string true "Debt ID"
// @Success 200 {object} response.Envelope
// @Router /Debts/{id} [get]
func (h *DebtHandler) Get(c *gin.Context) {
	debt, err := h.debts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, debt)
}

// Update godoc
// @Summary Update debt
// @Tags Debts
// @Accept json
// @Produce json
// @Param id path string true "Debt ID"
// @Param payload body dto.DebtRequest true "Debt payload"
// @Success 200 {object} response.Envelope
// @Router /Debts/{id} [put]
func (h *DebtHandler) Update(c *gin.Context) {
	var req dto.DebtRequest
	if !bindJSON(c, &req) {
		return
	}
	debt, err := h.debts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, debt)
}

// Delete godoc
// @Summary Delete debt
// @Tags Debts
// @Param id path string true "Debt ID"
// @Success 204
// @Router /Debts/{id} [delete]
func (h *DebtHandler) Delete(c *gin.Context) {
	if err := h.debts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentDetails godoc
// @Summary Debts of a student with outstanding total
// @Tags Debts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /Debts/student/{id}/details [get]
func (h *DebtHandler) StudentDetails(c *gin.Context) {
	details, err := h.debts.DetailsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, details)
}

// PeriodFilter godoc
// @Summary Debts due in a month
// @Tags Debts
// @Produce json
// @Param groupId query string false "Restrict to a group's members"
// @Param year query int true "Year"
// @Param month query int true "Month 1-12"
// @Success 200 {object} response.Envelope
// @Router /Debts/group-period-filter [get]
func (h *DebtHandler) PeriodFilter(c *gin.Context) {
	query, ok := bindPeriodQuery(c)
	if !ok {
		return
	}
	report, err := h.debts.PeriodFilter(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// ExportPeriod godoc
// @Summary Download the month's billing worklist
// @Tags Debts
// @Produce text/csv
// @Produce application/pdf
// @Param groupId query string false "Restrict to a group's members"
// @Param year query int true "Year"
// @Param month query int true "Month 1-12"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /Debts/group-period-filter/export [get]
func (h *DebtHandler) ExportPeriod(c *gin.Context) {
	query, ok := bindPeriodQuery(c)
	if !ok {
		return
	}
	file, err := h.debts.ExportPeriod(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func bindPeriodQuery(c *gin.Context) (dto.DebtPeriodQuery, bool) {
	var query dto.DebtPeriodQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "yıl ve ay sayısal olmalıdır"))
		return query, false
	}
	return query, true
}
