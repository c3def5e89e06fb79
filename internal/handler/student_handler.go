package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentListItem, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Student, error)
	GetByNationalID(ctx context.Context, nationalID string) (*models.Student, error)
	GetWithParents(ctx context.Context, id string) (*models.StudentDetail, error)
	GetDetail(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, id string, req dto.StudentRequest) (*models.Student, error)
	Deactivate(ctx context.Context, id string) error
	GetProfileImage(ctx context.Context, id string) (*models.ProfileImage, error)
	UpdateProfileImage(ctx context.Context, id string, req dto.ProfileImageRequest) error
	DeleteProfileImage(ctx context.Context, id string) error
}

// StudentHandler exposes the student roster endpoints.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or national ID"
// @Param groupId query string false "Filter by group"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Param sortBy query string false "name, nationalId or createdAt"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := models.StudentFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		GroupID:   c.Query("groupId"),
		Active:    queryBool(c, "active"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 0),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// GetByNationalID godoc
// @Summary Find student by national ID
// @Tags Students
// @Produce json
// @Param nationalId path string true "11 digit national ID"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/national-id/{nationalId} [get]
func (h *StudentHandler) GetByNationalID(c *gin.Context) {
	student, err := h.students.GetByNationalID(c.Request.Context(), c.Param("nationalId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// GetWithParents godoc
// @Summary Get student with mother and father
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/{id}/with-parents [get]
func (h *StudentHandler) GetWithParents(c *gin.Context) {
	detail, err := h.students.GetWithParents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// GetDetail godoc
// @Summary Get student with parents and relatives
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/{id}/details [get]
func (h *StudentHandler) GetDetail(c *gin.Context) {
	detail, err := h.students.GetDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Create godoc
// @Summary Register student
// @Description Creates the student and finds or creates the mother and father by national ID.
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /StudentPersonalInfo [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body dto.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Deactivate godoc
// @Summary Deactivate student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /StudentPersonalInfo/{id} [delete]
func (h *StudentHandler) Deactivate(c *gin.Context) {
	if err := h.students.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetProfileImage godoc
// @Summary Get profile image
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /StudentPersonalInfo/{id}/profile-image [get]
func (h *StudentHandler) GetProfileImage(c *gin.Context) {
	img, err := h.students.GetProfileImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ProfileImageResponse{ContentType: img.ContentType, Data: base64.StdEncoding.EncodeToString(img.Data)})
}

// UpdateProfileImage godoc
// @Summary Replace profile image
// @Tags Students
// @Accept json
// @Param id path string true "Student ID"
// @Param payload body dto.ProfileImageRequest true "Base64 image"
// @Success 204
// @Router /StudentPersonalInfo/{id}/profile-image [put]
func (h *StudentHandler) UpdateProfileImage(c *gin.Context) {
	var req dto.ProfileImageRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.students.UpdateProfileImage(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteProfileImage godoc
// @Summary Remove profile image
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Router /StudentPersonalInfo/{id}/profile-image [delete]
func (h *StudentHandler) DeleteProfileImage(c *gin.Context) {
	if err := h.students.DeleteProfileImage(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
