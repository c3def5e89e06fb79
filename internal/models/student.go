package models

import "time"

// Student represents a club member's personal record.
type Student struct {
	ID                      string     `db:"id" json:"id"`
	Name                    string     `db:"name" json:"name"`
	NationalID              string     `db:"national_id" json:"nationalId"`
	DateOfBirth             *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	School                  string     `db:"school" json:"school"`
	Address                 string     `db:"address" json:"address"`
	Branch                  string     `db:"branch" json:"branch"`
	ClassName               string     `db:"class_name" json:"class"`
	Phone                   string     `db:"phone" json:"phone"`
	HasProfileImage         bool       `db:"has_profile_image" json:"hasProfileImage"`
	ProfileImageContentType *string    `db:"profile_image_content_type" json:"profileImageContentType,omitempty"`
	MotherID                string     `db:"mother_id" json:"motherId"`
	FatherID                string     `db:"father_id" json:"fatherId"`
	IsActive                bool       `db:"is_active" json:"isActive"`
	DeletedAt               *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentListItem is a student row enriched with the current group.
type StudentListItem struct {
	Student
	GroupID   *string `db:"group_id" json:"groupId,omitempty"`
	GroupName *string `db:"group_name" json:"groupName,omitempty"`
}

// StudentDetail bundles a student with eagerly loaded relations.
type StudentDetail struct {
	Student
	Mother    *Parent    `json:"mother,omitempty"`
	Father    *Parent    `json:"father,omitempty"`
	Relatives []Relative `json:"relatives,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	GroupID   string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ProfileImage is the inline image stored on a student row.
type ProfileImage struct {
	Data        []byte `db:"profile_image"`
	ContentType string `db:"profile_image_content_type"`
}

// RosterStudent is the compact student shape used in group and lesson rosters.
type RosterStudent struct {
	StudentID  string    `db:"student_id" json:"studentId"`
	Name       string    `db:"name" json:"name"`
	NationalID string    `db:"national_id" json:"nationalId"`
	JoinedAt   time.Time `db:"joined_at" json:"joinedAt"`
}
