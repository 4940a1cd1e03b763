package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
)

// MemberStore persists family members. Every call is scoped to one owner.
// Missing rows are reported as models.ErrNotFound.
type MemberStore interface {
	// ListByOwner returns members ordered by generation_id, then created_at
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Member, error)
	Get(ctx context.Context, owner, id uuid.UUID) (*models.Member, error)
	Insert(ctx context.Context, m *models.Member) error
	Update(ctx context.Context, m *models.Member) error
	Delete(ctx context.Context, owner, id uuid.UUID) error

	// DeleteTree removes every id in one transaction
	DeleteTree(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) error

	// Reparent moves the children of from under to, then deletes from, in one transaction
	Reparent(ctx context.Context, owner, from uuid.UUID, to *uuid.UUID) error
}

// UserStore persists accounts. Duplicate emails are reported as models.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// SessionStore keeps issued sessions until they expire
type SessionStore interface {
	Save(ctx context.Context, s *models.Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}
