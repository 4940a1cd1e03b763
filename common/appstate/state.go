// Package appstate holds the per-user view state and the reducer that
// moves it between phases.
package appstate

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

// Phase of the view
type Phase string

const (
	PhaseSignedOut Phase = "signed_out"
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
)

// FormMode says what the member form is doing
type FormMode string

const (
	FormCreate FormMode = "create"
	FormEdit   FormMode = "edit"
)

// Form is the member form's visibility and contents
type Form struct {
	Open     bool                `json:"open"`
	Mode     FormMode            `json:"mode,omitempty"`
	AttachTo *uuid.UUID          `json:"attach_to,omitempty"`
	MemberID *uuid.UUID          `json:"member_id,omitempty"`
	Values   models.MemberFields `json:"values"`
}

// Error is the message currently shown to the user
type Error struct {
	Category models.ErrorCategory `json:"category"`
	Detail   string               `json:"detail,omitempty"`
}

// State is everything the UI renders for one user
type State struct {
	UserID   uuid.UUID       `json:"user_id"`
	Phase    Phase           `json:"phase"`
	Members  []models.Member `json:"members"`
	Tree     *tree.Node      `json:"tree"`
	Detached []models.Member `json:"detached"`
	Error    *Error          `json:"error"`
	Form     Form            `json:"form"`

	// Version increments on every successful fetch
	Version  int64     `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
}

// SignedOutState is the state before anyone signs in
func SignedOutState() State {
	return State{Phase: PhaseSignedOut}
}

// Loaded reports whether a fetch has ever succeeded for this state
func (s State) Loaded() bool {
	return !s.LoadedAt.IsZero()
}
