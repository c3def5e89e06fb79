package models

import (
	"math"
	"time"
)

// Attendance records one student's presence at one lesson on one date.
// IsPresent is nil when the slot exists but nothing was marked.
type Attendance struct {
	ID             string    `db:"id" json:"id"`
	LessonID       string    `db:"lesson_id" json:"lessonId"`
	StudentID      string    `db:"student_id" json:"studentId"`
	AttendanceDate time.Time `db:"attendance_date" json:"attendanceDate"`
	IsPresent      *bool     `db:"is_present" json:"isPresent"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// AttendanceRosterRow is a lesson roster entry with the student's mark for a date.
type AttendanceRosterRow struct {
	StudentID      string     `db:"student_id" json:"studentId"`
	Name           string     `db:"name" json:"name"`
	NationalID     string     `db:"national_id" json:"nationalId"`
	AttendanceID   *string    `db:"attendance_id" json:"attendanceId,omitempty"`
	AttendanceDate *time.Time `db:"attendance_date" json:"attendanceDate,omitempty"`
	IsPresent      *bool      `db:"is_present" json:"isPresent"`
}

// AttendanceTally counts marked records for a student in a lesson.
type AttendanceTally struct {
	LessonID   string `db:"lesson_id" json:"lessonId"`
	LessonName string `db:"lesson_name" json:"lessonName"`
	Present    int    `db:"present" json:"present"`
	Recorded   int    `db:"recorded" json:"recorded"`
}

// Percentage returns present/recorded as a percentage rounded to two decimals, 0 without records.
func (t AttendanceTally) Percentage() float64 {
	return AttendancePercentage(t.Present, t.Recorded)
}

// AttendancePercentage is present/recorded*100 rounded to two decimals; 0 when nothing is recorded.
func AttendancePercentage(present, recorded int) float64 {
	if recorded <= 0 {
		return 0
	}
	return round2(float64(present) / float64(recorded) * 100)
}

// LessonAttendance is a per-lesson line of a student's attendance summary.
type LessonAttendance struct {
	AttendanceTally
	Percentage float64 `json:"percentage"`
}

// StudentAttendanceSummary aggregates attendance across every lesson a student attends.
type StudentAttendanceSummary struct {
	StudentID string             `json:"studentId"`
	Lessons   []LessonAttendance `json:"lessons"`
	Average   float64            `json:"average"`
}

// NewStudentAttendanceSummary computes per-lesson percentages and their mean.
func NewStudentAttendanceSummary(studentID string, tallies []AttendanceTally) StudentAttendanceSummary {
	summary := StudentAttendanceSummary{StudentID: studentID, Lessons: make([]LessonAttendance, 0, len(tallies))}
	var sum float64
	for _, tally := range tallies {
		pct := tally.Percentage()
		summary.Lessons = append(summary.Lessons, LessonAttendance{AttendanceTally: tally, Percentage: pct})
		sum += pct
	}
	if len(tallies) > 0 {
		summary.Average = round2(sum / float64(len(tallies)))
	}
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
