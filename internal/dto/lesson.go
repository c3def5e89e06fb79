package dto

// LessonRequest creates or updates a lesson. IsActive defaults to true when omitted.
type LessonRequest struct {
	Name              string `json:"name" validate:"required,max=100"`
	StartingDayOfWeek int    `json:"startingDayOfWeek" validate:"min=0,max=6"`
	StartingHour      string `json:"startingHour" validate:"required,clock"`
	EndingDayOfWeek   int    `json:"endingDayOfWeek" validate:"min=0,max=6"`
	EndingHour        string `json:"endingHour" validate:"required,clock"`
	Capacity          int    `json:"capacity" validate:"required,min=1"`
	GroupID           string `json:"groupId" validate:"required"`
	IsActive          *bool  `json:"isActive"`
}

// LessonAssignmentRequest enrolls a student into a lesson.
type LessonAssignmentRequest struct {
	LessonID  string `json:"lessonId" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
}
