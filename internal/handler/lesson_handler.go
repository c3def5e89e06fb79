package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type lessonService interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, error)
	Get(ctx context.Context, id string) (*models.LessonDetail, error)
	Create(ctx context.Context, req dto.LessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, id string, req dto.LessonRequest) (*models.Lesson, error)
	Delete(ctx context.Context, id string) error
	CapacityAndStudents(ctx context.Context, lessonID string) (*models.LessonCapacity, error)
	AssignStudent(ctx context.Context, req dto.LessonAssignmentRequest) (*models.LessonStudent, error)
	UnassignStudent(ctx context.Context, lessonID, studentID string) error
	StudentsWithoutLesson(ctx context.Context, lessonID string) ([]models.Student, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LessonDetail, error)
}

// LessonHandler exposes lesson and enrollment endpoints.
type LessonHandler struct {
	lessons lessonService
}

// NewLessonHandler constructs LessonHandler.
func NewLessonHandler(lessons lessonService) *LessonHandler {
	return &LessonHandler{lessons: lessons}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Param groupId query string false "Filter by group"
// @Param active query bool false "Filter by active state"
// @Success 200 {object} response.Envelope
// @Router /Lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	lessons, err := h.lessons.List(c.Request.Context(), models.LessonFilter{GroupID: c.Query("groupId"), Active: queryBool(c, "active")})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lessons)
}

// Get godoc
// @Summary Get lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /Lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Create godoc
// @Summary Create lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /Lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path string true "Lesson ID"
// @Param payload body dto.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /Lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	var req dto.LessonRequest
	if !bindJSON(c, &req) {
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Delete godoc
// @Summary Delete lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /Lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CapacityAndStudents godoc
// @Summary Lesson seats and roster
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /Lessons/{id}/capacity-and-students [get]
func (h *LessonHandler) CapacityAndStudents(c *gin.Context) {
	capacity, err := h.lessons.CapacityAndStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, capacity)
}

// AssignStudent godoc
// @Summary Enroll student into lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.LessonAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /Lessons/assign-student [post]
func (h *LessonHandler) AssignStudent(c *gin.Context) {
	var req dto.LessonAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.lessons.AssignStudent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// UnassignStudent godoc
// @Summary Withdraw student from lesson
// @Tags Lessons
// @Param id path string true "Lesson ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /Lessons/{id}/students/{studentId} [delete]
func (h *LessonHandler) UnassignStudent(c *gin.Context) {
	if err := h.lessons.UnassignStudent(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentsWithoutLesson godoc
// @Summary Active students not enrolled in the lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /Lessons/{id}/students-without-lesson [get]
func (h *LessonHandler) StudentsWithoutLesson(c *gin.Context) {
	students, err := h.lessons.StudentsWithoutLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// ListByStudent godoc
// @Summary Lessons a student attends
// @Tags Lessons
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /Lessons/student/{studentId} [get]
func (h *LessonHandler) ListByStudent(c *gin.Context) {
	lessons, err := h.lessons.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lessons)
}
