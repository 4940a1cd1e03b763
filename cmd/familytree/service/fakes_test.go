package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanshavali/familytree/common/models"
)

// memMembers is an in-memory MemberStore
type memMembers struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]models.Member
	listErr error
}

func newMemMembers() *memMembers {
	return &memMembers{rows: make(map[uuid.UUID]models.Member)}
}

func (s *memMembers) failList(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

func (s *memMembers) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []models.Member
	for _, m := range s.rows {
		if m.OwnerID == owner {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GenerationID != out[j].GenerationID {
			return out[i].GenerationID < out[j].GenerationID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memMembers) Get(ctx context.Context, owner, id uuid.UUID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok || m.OwnerID != owner {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

func (s *memMembers) Insert(ctx context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.ID]; ok {
		return models.ErrDuplicate
	}
	s.rows[m.ID] = *m
	return nil
}

func (s *memMembers) Update(ctx context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.rows[m.ID]; !ok || old.OwnerID != m.OwnerID {
		return models.ErrNotFound
	}
	s.rows[m.ID] = *m
	return nil
}

func (s *memMembers) Delete(ctx context.Context, owner, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.rows[id]; !ok || m.OwnerID != owner {
		return models.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *memMembers) DeleteTree(ctx context.Context, owner uuid.UUID, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if m, ok := s.rows[id]; !ok || m.OwnerID != owner {
			return models.ErrNotFound
		}
	}
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *memMembers) Reparent(ctx context.Context, owner, from uuid.UUID, to *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.rows[from]; !ok || m.OwnerID != owner {
		return models.ErrNotFound
	}
	for id, m := range s.rows {
		if m.OwnerID == owner && m.HasParent(from) {
			m.ParentID = to
			s.rows[id] = m
		}
	}
	delete(s.rows, from)
	return nil
}

func (s *memMembers) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// memUsers is an in-memory UserStore
type memUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byEmail: make(map[string]models.User)}
}

func (s *memUsers) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return models.ErrDuplicate
	}
	s.byEmail[u.Email] = *u
	return nil
}

func (s *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byEmail[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

// memSessions is an in-memory SessionStore that ignores the ttl
type memSessions struct {
	mu   sync.Mutex
	rows map[string]models.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[string]models.Session)}
}

func (s *memSessions) Save(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[sess.Token] = *sess
	return nil
}

func (s *memSessions) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.rows[token]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &sess, nil
}

func (s *memSessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, token)
	return nil
}
