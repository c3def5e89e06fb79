package dto

// AttendanceMark is one student's presence in a bulk request. A nil IsPresent clears the mark.
type AttendanceMark struct {
	StudentID string `json:"studentId" validate:"required"`
	IsPresent *bool  `json:"isPresent"`
}

// BulkAttendanceRequest records a lesson's attendance for one date.
type BulkAttendanceRequest struct {
	LessonID string           `json:"lessonId" validate:"required"`
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Marks    []AttendanceMark `json:"attendances" validate:"required,min=1,dive"`
}

// AttendancePercentage is the presence ratio of a student in a lesson.
type AttendancePercentage struct {
	StudentID  string  `json:"studentId"`
	LessonID   string  `json:"lessonId"`
	Present    int     `json:"present"`
	Recorded   int     `json:"recorded"`
	Percentage float64 `json:"percentage"`
}
