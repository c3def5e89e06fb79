package models

import "time"

// ParentKind distinguishes the two parent tables.
type ParentKind string

const (
	ParentMother ParentKind = "mother"
	ParentFather ParentKind = "father"
)

// Parent is a mother or father record shared by siblings through the national ID.
type Parent struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	NationalID string    `db:"national_id" json:"nationalId"`
	Phone      string    `db:"phone" json:"phone"`
	Email      string    `db:"email" json:"email"`
	Occupation string    `db:"occupation" json:"occupation"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

// ParentLookup is the outcome of a national ID lookup. Parent is nil when Found is false.
type ParentLookup struct {
	Parent *Parent
	Found  bool
}

// ParentFound wraps an existing parent.
func ParentFound(p *Parent) ParentLookup { return ParentLookup{Parent: p, Found: true} }

// ParentNotFound reports that no parent holds the national ID.
func ParentNotFound() ParentLookup { return ParentLookup{} }

// BackfillFrom copies contact fields from src only where p is still empty.
// It reports whether anything changed.
func (p *Parent) BackfillFrom(src Parent) bool {
	changed := false
	if p.Phone == "" && src.Phone != "" {
		p.Phone = src.Phone
		changed = true
	}
	if p.Email == "" && src.Email != "" {
		p.Email = src.Email
		changed = true
	}
	if p.Occupation == "" && src.Occupation != "" {
		p.Occupation = src.Occupation
		changed = true
	}
	return changed
}
