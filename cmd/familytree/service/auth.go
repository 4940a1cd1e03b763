package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vanshavali/familytree/common/config"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/models"
	"github.com/vanshavali/familytree/common/queue"
	"github.com/vanshavali/familytree/common/telemetry"
)

// SessionHook runs synchronously after a session is issued or revoked
type SessionHook func(ctx context.Context, typ models.EventType, userID uuid.UUID) error

// AuthService issues and validates sessions
type AuthService struct {
	users    UserStore
	sessions SessionStore
	queue    queue.Queue
	hooks    []SessionHook
	validate *Validator
	metrics  *telemetry.Metrics
	log      *logger.Logger

	ttl        time.Duration
	bcryptCost int
	minPass    int
	now        func() time.Time
}

// NewAuthService creates the auth service. q may be nil, in which case
// no session events are published.
func NewAuthService(
	users UserStore,
	sessions SessionStore,
	q queue.Queue,
	validate *Validator,
	cfg config.AuthConfig,
	metrics *telemetry.Metrics,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		queue:      q,
		validate:   validate,
		metrics:    metrics,
		log:        log,
		ttl:        cfg.SessionTTL,
		bcryptCost: cfg.BcryptCost,
		minPass:    cfg.MinPasswordLength,
		now:        time.Now,
	}
}

// OnSessionChange registers h to run on every sign-in and sign-out
func (s *AuthService) OnSessionChange(h SessionHook) {
	s.hooks = append(s.hooks, h)
}

// Credentials is the sign-up and sign-in payload
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account and signs it in
func (s *AuthService) SignUp(ctx context.Context, creds Credentials) (*models.Session, error) {
	const op = "signup"
	creds.Email = normalizeEmail(creds.Email)

	if err := s.validate.Struct(creds); err != nil {
		s.metrics.Session(op, err)
		return nil, fail(models.CategoryAuthFailure, op, err)
	}
	if len(creds.Password) < s.minPass {
		err := &ValidationError{Fields: map[string]string{"password": fmt.Sprintf("min=%d", s.minPass)}}
		s.metrics.Session(op, err)
		return nil, fail(models.CategoryAuthFailure, op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		s.metrics.Session(op, err)
		return nil, fail(models.CategoryAuthFailure, op, fmt.Errorf("failed to hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        creds.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.Session(op, err)
		if errors.Is(err, models.ErrDuplicate) {
			return nil, fail(models.CategoryAuthFailure, op, ErrEmailTaken)
		}
		return nil, fail(models.CategoryAuthFailure, op, err)
	}

	s.log.Info("user signed up", "user_id", user.ID)

	sess, err := s.issue(ctx, user)
	s.metrics.Session(op, err)
	if err != nil {
		return nil, fail(models.CategoryAuthFailure, op, err)
	}
	return sess, nil
}

// SignIn checks the password and issues a new session
func (s *AuthService) SignIn(ctx context.Context, creds Credentials) (*models.Session, error) {
	const op = "signin"
	creds.Email = normalizeEmail(creds.Email)

	sess, err := s.signIn(ctx, creds)
	s.metrics.Session(op, err)
	if err != nil {
		return nil, fail(models.CategoryAuthFailure, op, err)
	}
	return sess, nil
}

func (s *AuthService) signIn(ctx context.Context, creds Credentials) (*models.Session, error) {
	if err := s.validate.Struct(creds); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, creds.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// SignOut revokes the session behind token
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	const op = "signout"

	sess, err := s.Session(ctx, token)
	if err != nil {
		s.metrics.Session(op, err)
		return err
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		s.metrics.Session(op, err)
		return fail(models.CategoryAuthFailure, op, err)
	}
	s.metrics.Session(op, nil)

	s.log.Info("user signed out", "user_id", sess.UserID)
	s.notify(ctx, models.EventSignedOut, sess.UserID)
	return nil
}

// Session returns the live session for token
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	const op = "session"

	if token == "" {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}

	sess, err := s.sessions.Get(ctx, token)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}
	if err != nil {
		return nil, fail(models.CategoryUnauthenticated, op, err)
	}

	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, token)
		return nil, fail(models.CategoryUnauthenticated, op, ErrNoSession)
	}
	return sess, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.Session, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	sess := &models.Session{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.log.Info("session issued", "user_id", user.ID, "expires_at", sess.ExpiresAt)
	s.notify(ctx, models.EventSignedIn, user.ID)
	return sess, nil
}

// notify runs the session hooks, then publishes the change for websocket
// subscribers. Failures are logged only.
func (s *AuthService) notify(ctx context.Context, typ models.EventType, userID uuid.UUID) {
	for _, h := range s.hooks {
		if err := h(ctx, typ, userID); err != nil {
			s.log.Warn("session hook failed", "type", typ, "user_id", userID, "error", err)
		}
	}

	if s.queue == nil {
		return
	}

	evt := models.Event{Type: typ, UserID: userID, At: s.now().UTC()}
	data, err := json.Marshal(evt)
	if err != nil {
		s.log.Warn("failed to encode session event", "error", err)
		return
	}
	if err := s.queue.Publish(ctx, models.TopicSession, userID.String(), data); err != nil {
		s.log.Warn("failed to publish session event", "type", typ, "error", err)
	}
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
