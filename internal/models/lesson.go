package models

import "time"

// Lesson is a recurring weekly class slot owned by a group.
type Lesson struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	StartingDayOfWeek int       `db:"starting_day_of_week" json:"startingDayOfWeek"`
	StartingHour      string    `db:"starting_hour" json:"startingHour"`
	EndingDayOfWeek   int       `db:"ending_day_of_week" json:"endingDayOfWeek"`
	EndingHour        string    `db:"ending_hour" json:"endingHour"`
	Capacity          int       `db:"capacity" json:"capacity"`
	GroupID           string    `db:"group_id" json:"groupId"`
	IsActive          bool      `db:"is_active" json:"isActive"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// LessonDetail adds group and enrollment context to a lesson.
type LessonDetail struct {
	Lesson
	GroupName     string `db:"group_name" json:"groupName"`
	EnrolledCount int    `db:"enrolled_count" json:"enrolledCount"`
}

// LessonFilter scopes lesson listings.
type LessonFilter struct {
	GroupID string
	Active  *bool
}

// LessonStudent links a student to a lesson; withdrawals are soft.
type LessonStudent struct {
	ID        string     `db:"id" json:"id"`
	LessonID  string     `db:"lesson_id" json:"lessonId"`
	StudentID string     `db:"student_id" json:"studentId"`
	JoinedAt  time.Time  `db:"joined_at" json:"joinedAt"`
	LeftAt    *time.Time `db:"left_at" json:"leftAt,omitempty"`
	IsActive  bool       `db:"is_active" json:"isActive"`
}

// LessonCapacity summarises seats and the active roster of a lesson.
type LessonCapacity struct {
	LessonID      string          `json:"lessonId"`
	Capacity      int             `json:"capacity"`
	EnrolledCount int             `json:"enrolledCount"`
	Remaining     int             `json:"remaining"`
	Students      []RosterStudent `json:"students"`
}

// NewLessonCapacity derives the seat counts from the roster.
func NewLessonCapacity(lessonID string, capacity int, roster []RosterStudent) LessonCapacity {
	if roster == nil {
		roster = []RosterStudent{}
	}
	remaining := capacity - len(roster)
	if remaining < 0 {
		remaining = 0
	}
	return LessonCapacity{
		LessonID:      lessonID,
		Capacity:      capacity,
		EnrolledCount: len(roster),
		Remaining:     remaining,
		Students:      roster,
	}
}
