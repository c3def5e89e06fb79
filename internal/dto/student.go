package dto

// DateLayout is the calendar date format accepted in request bodies and query strings.
const DateLayout = "2006-01-02"

// ParentRequest carries mother or father data embedded in a student payload.
type ParentRequest struct {
	Name       string `json:"name" validate:"required,max=150"`
	NationalID string `json:"nationalId" validate:"required,tckn"`
	Phone      string `json:"phone" validate:"omitempty,max=20"`
	Email      string `json:"email" validate:"omitempty,email"`
	Occupation string `json:"occupation" validate:"omitempty,max=100"`
}

// StudentRequest is the create and update payload of the roster endpoints.
// ProfileImage is base64; it is applied only when non-nil.
type StudentRequest struct {
	Name                    string        `json:"name" validate:"required,max=150"`
	NationalID              string        `json:"nationalId" validate:"required,tckn"`
	DateOfBirth             *string       `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	School                  string        `json:"school" validate:"omitempty,max=150"`
	Address                 string        `json:"address" validate:"omitempty,max=500"`
	Branch                  string        `json:"branch" validate:"omitempty,max=100"`
	Class                   string        `json:"class" validate:"omitempty,max=50"`
	Phone                   string        `json:"phone" validate:"omitempty,max=20"`
	Mother                  ParentRequest `json:"mother"`
	Father                  ParentRequest `json:"father"`
	ProfileImage            *string       `json:"profileImage"`
	ProfileImageContentType *string       `json:"profileImageContentType"`
}

// ProfileImageRequest replaces a student's profile image.
type ProfileImageRequest struct {
	Data        string `json:"data" validate:"required"`
	ContentType string `json:"contentType" validate:"required"`
}

// ProfileImageResponse returns a stored profile image as base64.
type ProfileImageResponse struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}
