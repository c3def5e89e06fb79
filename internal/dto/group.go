package dto

// GroupRequest creates or updates a group.
type GroupRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	MinAge int    `json:"minAge" validate:"min=0,max=100"`
	MaxAge int    `json:"maxAge" validate:"min=0,max=100,gtefield=MinAge"`
}

// GroupMembershipRequest moves a student into a group.
type GroupMembershipRequest struct {
	GroupID   string `json:"groupId" validate:"required"`
	StudentID string `json:"studentId" validate:"required"`
}
