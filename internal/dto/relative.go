package dto

// RelativeRequest creates or updates a relative. StudentNationalID is only read on create.
type RelativeRequest struct {
	StudentNationalID string `json:"studentNationalId" validate:"omitempty,tckn"`
	Name              string `json:"name" validate:"required,max=150"`
	NationalID        string `json:"nationalId" validate:"omitempty,tckn"`
	Phone             string `json:"phone" validate:"omitempty,max=20"`
	Occupation        string `json:"occupation" validate:"omitempty,max=100"`
	RelationType      string `json:"relationType" validate:"omitempty,max=50"`
}

// BulkRelativesRequest saves several relatives for one student.
type BulkRelativesRequest struct {
	StudentNationalID string            `json:"studentNationalId" validate:"required,tckn"`
	Relatives         []RelativeRequest `json:"relatives" validate:"required,min=1"`
}

// BulkFailure describes one rejected entry of a bulk request.
type BulkFailure struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

// BulkRelativesResult reports which relatives were stored and which failed.
type BulkRelativesResult struct {
	Saved  int           `json:"saved"`
	Failed []BulkFailure `json:"failed"`
}
