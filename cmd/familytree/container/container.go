package container

import (
	"fmt"

	"github.com/vanshavali/familytree/cmd/familytree/events"
	"github.com/vanshavali/familytree/cmd/familytree/handlers"
	"github.com/vanshavali/familytree/cmd/familytree/repository"
	"github.com/vanshavali/familytree/cmd/familytree/service"
	"github.com/vanshavali/familytree/common/appstate"
	"github.com/vanshavali/familytree/common/bootstrap"
	"github.com/vanshavali/familytree/common/cache"
	"github.com/vanshavali/familytree/common/locale"
	"github.com/vanshavali/familytree/common/ratelimit"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	Members  service.MemberStore
	Users    service.UserStore
	Sessions service.SessionStore
	States   *appstate.Store

	// Services
	Translator *locale.Translator
	Validator  *service.Validator
	Filter     *service.Filter
	Limiter    ratelimit.Checker
	Auth       *service.AuthService
	Tree       *service.TreeController
	Hub        *events.Hub
	Respond    *handlers.Responder
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Repositories for whichever store bootstrap opened
	var (
		members service.MemberStore
		users   service.UserStore
	)
	switch {
	case components.SQLite != nil:
		members = repository.NewSQLiteMemberRepository(components.SQLite)
		users = repository.NewSQLiteUserRepository(components.SQLite)
	case components.DB != nil:
		members = repository.NewMemberRepository(components.DB)
		users = repository.NewUserRepository(components.DB)
	default:
		return nil, fmt.Errorf("no store configured")
	}
	if components.Cache == nil {
		return nil, fmt.Errorf("no cache configured")
	}

	// Sessions must be visible to every replica whenever Redis is up
	sessionCache := components.Cache
	if components.Redis != nil {
		sessionCache = cache.NewRedisCache(components.Redis, cfg.Queue.ChannelPrefix)
	}
	sessions := repository.NewSessionRepository(sessionCache)
	states := appstate.NewStore(components.Cache, cfg.Cache.DefaultTTL)

	// Limiter shared through Redis when available
	var limiter ratelimit.Checker
	if components.Redis != nil {
		limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
	} else {
		limiter = ratelimit.NewMemoryLimiter(log)
	}

	translator, err := locale.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	filter, err := service.NewFilter()
	if err != nil {
		return nil, err
	}

	policy, err := service.ParseDeletePolicy(cfg.Tree.DeletePolicy)
	if err != nil {
		return nil, err
	}

	// Services (bottom-up: dependencies first)
	validator := service.NewValidator()
	metrics := components.Metrics()

	auth := service.NewAuthService(users, sessions, components.Queue, validator, cfg.Auth, metrics, log)
	ctrl := service.NewTreeController(members, states, components.Queue, validator, filter, policy, metrics, log)
	hub := events.NewHub(metrics, log)
	auth.OnSessionChange(ctrl.SessionChanged)

	return &Container{
		Components: components,
		Members:    members,
		Users:      users,
		Sessions:   sessions,
		States:     states,
		Translator: translator,
		Validator:  validator,
		Filter:     filter,
		Limiter:    limiter,
		Auth:       auth,
		Tree:       ctrl,
		Hub:        hub,
		Respond:    handlers.NewResponder(translator, log),
	}, nil
}
