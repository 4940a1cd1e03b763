package appstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/cache"
)

// Store keeps one State per user in a cache.Cache
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewStore creates a state store; ttl bounds how long an idle user's state lives
func NewStore(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

func stateKey(userID uuid.UUID) string {
	return "state:" + userID.String()
}

// Load returns the user's state, or a signed-out state if none is stored
func (s *Store) Load(ctx context.Context, userID uuid.UUID) (State, error) {
	data, ok, err := s.cache.Get(ctx, stateKey(userID))
	if err != nil {
		return State{}, fmt.Errorf("failed to read state: %w", err)
	}
	if !ok {
		return SignedOutState(), nil
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to decode state: %w", err)
	}
	return st, nil
}

// Save replaces the user's stored state
func (s *Store) Save(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := s.cache.Set(ctx, stateKey(st.UserID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// Delete drops the user's state
func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, stateKey(userID))
}

// Dispatch loads, reduces and saves. Callers serialise per user.
func (s *Store) Dispatch(ctx context.Context, userID uuid.UUID, actions ...Action) (State, error) {
	st, err := s.Load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	for _, a := range actions {
		st = Reduce(st, a)
	}
	if st.Phase == PhaseSignedOut {
		return st, s.Delete(ctx, userID)
	}
	return st, s.Save(ctx, st)
}
