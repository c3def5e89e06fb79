package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sports-club-api/internal/dto"
	"github.com/noah-isme/sports-club-api/internal/models"
	"github.com/noah-isme/sports-club-api/pkg/response"
)

type attendanceService interface {
	RecordBulk(ctx context.Context, req dto.BulkAttendanceRequest) ([]models.Attendance, error)
	GetForLesson(ctx context.Context, lessonID string, date *time.Time) ([]models.AttendanceRosterRow, error)
	PercentageFor(ctx context.Context, studentID, lessonID string) (*dto.AttendancePercentage, error)
	StudentSummary(ctx context.Context, studentID string) (*models.StudentAttendanceSummary, error)
}

// AttendanceHandler exposes lesson attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// LessonStudents godoc
// @Summary Lesson roster with attendance
// @Description With date, every enrolled student with the mark for that day; without, every recorded mark.
// @Tags Attendance
// @Produce json
// @Param id path string true "Lesson ID"
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /Attendances/lesson/{id}/students [get]
func (h *AttendanceHandler) LessonStudents(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, err := h.attendance.GetForLesson(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// BulkCreate godoc
// @Summary Record attendance for a lesson date
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.BulkAttendanceRequest true "Marks"
// @Success 201 {object} response.Envelope
// @Router /Attendances/bulk-create [post]
func (h *AttendanceHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	records, err := h.attendance.RecordBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, records)
}

// Percentage godoc
// @Summary Attendance percentage of a student in a lesson
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /Attendances/student/{studentId}/lesson/{lessonId}/percentage [get]
func (h *AttendanceHandler) Percentage(c *gin.Context) {
	pct, err := h.attendance.PercentageFor(c.Request.Context(), c.Param("studentId"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pct)
}

// Summary godoc
// @Summary Attendance summary across a student's lessons
// @Tags Attendance
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /Attendances/student/{studentId}/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	summary, err := h.attendance.StudentSummary(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}
