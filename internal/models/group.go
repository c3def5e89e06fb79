package models

import "time"

// Group is an age-banded cohort of students.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	MinAge    int       `db:"min_age" json:"minAge"`
	MaxAge    int       `db:"max_age" json:"maxAge"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// GroupDetail adds roster counts to a group.
type GroupDetail struct {
	Group
	StudentCount int `db:"student_count" json:"studentCount"`
	LessonCount  int `db:"lesson_count" json:"lessonCount"`
}

// GroupAssignment reports the outcome of moving a student into a group.
type GroupAssignment struct {
	StudentID       string  `json:"studentId"`
	GroupID         string  `json:"groupId"`
	PreviousGroupID *string `json:"previousGroupId,omitempty"`
}
