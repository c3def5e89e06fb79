package models

import "time"

// Relative is a secondary contact owned by a student.
type Relative struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	Name         string    `db:"name" json:"name"`
	NationalID   string    `db:"national_id" json:"nationalId"`
	Phone        string    `db:"phone" json:"phone"`
	Occupation   string    `db:"occupation" json:"occupation"`
	RelationType string    `db:"relation_type" json:"relationType"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
