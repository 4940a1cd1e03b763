package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is one person record in the family data set.
// Maps to: family_members table
type Member struct {
	ID       uuid.UUID  `db:"id" json:"id"`
	OwnerID  uuid.UUID  `db:"owner_id" json:"owner_id"`
	ParentID *uuid.UUID `db:"parent_id" json:"parent_id"`

	// How this member relates to its parent node; only spouse changes layout
	Relation Relation `db:"relation" json:"relation"`

	// Ordering hint for the flat fetch, not used to compute depth
	GenerationID int `db:"generation_id" json:"generation_id"`

	// Display data
	Name       string `db:"name" json:"name"`
	Address    string `db:"address" json:"address"`
	Mobile     string `db:"mobile" json:"mobile"`
	DOB        string `db:"dob" json:"dob"`
	IsAlive    bool   `db:"is_alive" json:"is_alive"`
	Occupation string `db:"occupation" json:"occupation"`
	Education  string `db:"education" json:"education"`
	FacebookID string `db:"facebook_id" json:"facebook_id"`
	PhotoURL   string `db:"photo_url" json:"photo_url"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsRoot reports whether the member has no parent reference
func (m *Member) IsRoot() bool {
	return m.ParentID == nil
}

// HasParent reports whether the member is attached under id
func (m *Member) HasParent(id uuid.UUID) bool {
	return m.ParentID != nil && *m.ParentID == id
}

// MemberFields are the mutable attributes collected by the member form
type MemberFields struct {
	Name         string   `json:"name" validate:"required"`
	Address      string   `json:"address" validate:"required"`
	GenerationID int      `json:"generation_id" validate:"required,min=1"`
	Relation     Relation `json:"relation"`
	Mobile       string   `json:"mobile" validate:"omitempty,tel"`
	DOB          string   `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	IsAlive      bool     `json:"is_alive"`
	Occupation   string   `json:"occupation"`
	Education    string   `json:"education"`
	FacebookID   string   `json:"facebook_id"`
	PhotoURL     string   `json:"photo_url" validate:"omitempty,url"`
}

// DefaultMemberFields returns the values a fresh form starts with
func DefaultMemberFields() MemberFields {
	return MemberFields{
		GenerationID: 1,
		IsAlive:      true,
		Relation:     RelationOther,
	}
}

// Fields extracts the mutable attributes of m
func (m *Member) Fields() MemberFields {
	return MemberFields{
		Name:         m.Name,
		Address:      m.Address,
		GenerationID: m.GenerationID,
		Relation:     m.Relation,
		Mobile:       m.Mobile,
		DOB:          m.DOB,
		IsAlive:      m.IsAlive,
		Occupation:   m.Occupation,
		Education:    m.Education,
		FacebookID:   m.FacebookID,
		PhotoURL:     m.PhotoURL,
	}
}

// Apply replaces every mutable attribute of m with f. ParentID is untouched.
func (m *Member) Apply(f MemberFields) {
	m.Name = f.Name
	m.Address = f.Address
	m.GenerationID = f.GenerationID
	m.Relation = ParseRelation(string(f.Relation))
	m.Mobile = f.Mobile
	m.DOB = f.DOB
	m.IsAlive = f.IsAlive
	m.Occupation = f.Occupation
	m.Education = f.Education
	m.FacebookID = f.FacebookID
	m.PhotoURL = f.PhotoURL
}
