package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type relativeService interface {
	Create(ctx context.Context, req dto.RelativeRequest) (*models.Relative, error)
	BulkSave(ctx context.Context, req dto.BulkRelativesRequest) (*dto.BulkRelativesResult, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Relative, error)
	Get(ctx context.Context, id string) (*models.Relative, error)
	Update(ctx context.Context, id string, req dto.RelativeRequest) (*models.Relative, error)
	Delete(ctx context.Context, id string) error
}

// RelativeHandler exposes student relative endpoints.
type RelativeHandler struct {
	relatives relativeService
}

// NewRelativeHandler constructs RelativeHandler.
func NewRelativeHandler(relatives relativeService) *RelativeHandler {
	return &RelativeHandler{relatives: relatives}
}

// Create godoc
// @Summary Add relative
// @Tags Relatives
// @Accept json
// @Produce json
// @Param payload body dto.RelativeRequest true "Relative payload with studentNationalId"
// @Success 201 {object} response.Envelope
// @Router /StudentRelatives [post]
func (h *RelativeHandler) Create(c *gin.Context) {
	var req dto.RelativeRequest
	if !bindJSON(c, &req) {
		return
	}
	relative, err := h.relatives.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, relative)
}

// BulkSave godoc
// @Summary Add several relatives
// @Description Each relative is stored independently; failures are listed without aborting the rest.
// @Tags Relatives
// @Accept json
// @Produce json
// @Param payload body dto.BulkRelativesRequest true "Relatives"
// @Success 200 {object} response.Envelope
// @Router /StudentRelatives/bulk [post]
func (h *RelativeHandler) BulkSave(c *gin.Context) {
	var req dto.BulkRelativesRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.relatives.BulkSave(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListByStudent godoc
// @Summary List relatives of a student
// @Tags Relatives
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /StudentRelatives/student/{studentId} [get]
func (h *RelativeHandler) ListByStudent(c *gin.Context) {
	relatives, err := h.relatives.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, relatives)
}

// Get godoc
// @Summary Get relative
// @Tags Relatives
// @Produce json
// @Param id path string true "Relative ID"
// @Success 200 {object} response.Envelope
// @Router /StudentRelatives/{id} [get]
func (h *RelativeHandler) Get(c *gin.Context) {
	relative, err := h.relatives.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, relative)
}

// Update godoc
// @Summary Update relative
// @Tags Relatives
// @Accept json
// @Produce json
// @Param id path string true "Relative ID"
// @Param payload body dto.RelativeRequest true "Relative payload"
// @Success 200 {object} response.Envelope
// @Router /StudentRelatives/{id} [put]
func (h *RelativeHandler) Update(c *gin.Context) {
	var req dto.RelativeRequest
	if !bindJSON(c, &req) {
		return
	}
	relative, err := h.relatives.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, relative)
}

// Delete godoc
// @Summary Delete relative
// @Tags Relatives
// @Param id path string true "Relative ID"
// @Success 204
// @Router /StudentRelatives/{id} [delete]
func (h *RelativeHandler) Delete(c *gin.Context) {
	if err := h.relatives.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

