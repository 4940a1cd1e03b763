package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/models"
)

// SessionRepository keeps sessions in a cache.Cache, so they live in Redis
// when the distributed cache is on and in process memory otherwise
type SessionRepository struct {
	cache cache.Cache
}

// NewSessionRepository creates a session repository over c
func NewSessionRepository(c cache.Cache) *SessionRepository {
	return &SessionRepository{cache: c}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Save stores s until ttl elapses
func (r *SessionRepository) Save(ctx context.Context, s *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.cache.Set(ctx, sessionKey(s.Token), data, ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get retrieves a session by token
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	data, ok, err := r.cache.Get(ctx, sessionKey(token))
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return nil, models.ErrNotFound
	}

	s := &models.Session{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return s, nil
}

// Delete revokes a session
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.cache.Delete(ctx, sessionKey(token)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
