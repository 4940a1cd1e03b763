package appstate

import (
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/tree"
)

// Action is an event the reducer understands
type Action interface {
	action()
}

type (
	SignedIn struct {
		UserID uuid.UUID
	}

	SignedOut struct{}

	FetchStarted struct{}

	FetchSucceeded struct {
		Members  []models.Member
		Tree     *tree.Node
		Detached []models.Member
		At       time.Time
	}

	FetchFailed struct {
		Detail string
	}

	MutationSucceeded struct {
		Op string
	}

	MutationFailed struct {
		Category models.ErrorCategory
		Detail   string
	}

	OpenCreateForm struct {
		AttachTo *uuid.UUID
		Relation models.Relation
	}

	OpenEditForm struct {
		MemberID uuid.UUID
	}

	CloseForm struct{}

	DismissError struct{}
)

func (SignedIn) action()          {}
func (SignedOut) action()         {}
func (FetchStarted) action()      {}
func (FetchSucceeded) action()    {}
func (FetchFailed) action()       {}
func (MutationSucceeded) action() {}
func (MutationFailed) action()    {}
func (OpenCreateForm) action()    {}
func (OpenEditForm) action()      {}
func (CloseForm) action()         {}
func (DismissError) action()      {}
