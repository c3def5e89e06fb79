package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type groupService interface {
	List(ctx context.Context) ([]models.GroupDetail, error)
	Get(ctx context.Context, id string) (*models.GroupDetail, error)
	Create(ctx context.Context, req dto.GroupRequest) (*models.Group, error)
	Update(ctx context.Context, id string, req dto.GroupRequest) (*models.Group, error)
	Delete(ctx context.Context, id string) error
	ListStudents(ctx context.Context, groupID string) ([]models.RosterStudent, error)
	AddStudent(ctx context.Context, req dto.GroupMembershipRequest) (*models.GroupAssignment, error)
	RemoveStudent(ctx context.Context, groupID, studentID string) error
	StudentsWithoutGroup(ctx context.Context) ([]models.Student, error)
}

// GroupHandler exposes group and membership endpoints.
type GroupHandler struct {
	groups groupService
}

// NewGroupHandler constructs GroupHandler.
func NewGroupHandler(groups groupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /Groups [get]
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, groups)
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /Groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, group)
}

// Create godoc
// @Summary Create group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.GroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /Groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.GroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.groups.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update godoc
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.GroupRequest true "Group payload"
// @Success 200 {object} response.Envelope
// @Router /Groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	var req dto.GroupRequest
	if !bindJSON(c, &req) {
		return
	}
	group, err := h.groups.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, group)
}

// Delete godoc
// @Summary Delete group
// @Description Fails with 409 while lessons reference the group.
// @Tags Groups
// @Param id path string true "Group ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /Groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.groups.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// @Summary List group members
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /Groups/{id}/students [get]
func (h *GroupHandler) ListStudents(c *gin.Context) {
	students, err := h.groups.ListStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// AddStudent godoc
// @Summary Move student into group
// @Description Removes any previous membership and adds the new one in one transaction.
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.GroupMembershipRequest true "Membership"
// @Success 200 {object} response.Envelope
// @Router /Groups/add-student [post]
func (h *GroupHandler) AddStudent(c *gin.Context) {
	var req dto.GroupMembershipRequest
	if !bindJSON(c, &req) {
		return
	}
	assignment, err := h.groups.AddStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// RemoveStudent godoc
// @Summary Remove student from group
// @Tags Groups
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /Groups/{id}/students/{studentId} [delete]
func (h *GroupHandler) RemoveStudent(c *gin.Context) {
	if err := h.groups.RemoveStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentsWithoutGroup godoc
// @Summary List active students without a group
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /Groups/students-without-groups [get]
func (h *GroupHandler) StudentsWithoutGroup(c *gin.Context) {
	students, err := h.groups.StudentsWithoutGroup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}
