package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/cmd/familytree/container"
	"github.com/vanshavali/familytree/cmd/familytree/handlers"
	"github.com/vanshavali/familytree/cmd/familytree/middleware"
	commonmw "github.com/vanshavali/familytree/common/middleware"
)

// RegisterAll registers every familytree route
func RegisterAll(e *echo.Echo, c *container.Container) {
	RegisterHealthRoutes(e, c)
	RegisterAuthRoutes(e, c)
	RegisterMemberRoutes(e, c)
	RegisterTreeRoutes(e, c)
	RegisterStateRoutes(e, c)
	RegisterEventRoutes(e, c)
}

// RegisterHealthRoutes registers /health and, when telemetry is on, /metrics
func RegisterHealthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewHealthHandler(c.Components, c.Components.Config.Service.Name)

	e.GET("/health", h.Health) // GET /health
	if t := c.Components.Telemetry; t != nil {
		e.GET("/metrics", echo.WrapHandler(t.Handler())) // GET /metrics
	}
}

// RegisterAuthRoutes registers sign-up, sign-in and sign-out
func RegisterAuthRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewAuthHandler(c.Auth, c.Respond)
	rl := c.Components.Config.RateLimit

	auth := e.Group("/api/v1/auth")
	{
		attempts := []echo.MiddlewareFunc{}
		if rl.Enabled {
			attempts = append(attempts, commonmw.AuthRateLimitMiddleware(c.Limiter, rl.AuthPerWindow, rl.WindowSeconds))
		}

		auth.POST("/signup", h.SignUp, attempts...) // POST /api/v1/auth/signup
		auth.POST("/signin", h.SignIn, attempts...) // POST /api/v1/auth/signin
		auth.POST("/signout", h.SignOut)             // POST /api/v1/auth/signout
		auth.GET("/session", h.Session)              // GET /api/v1/auth/session
	}
}

// RegisterMemberRoutes registers member CRUD
func RegisterMemberRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewMemberHandler(c.Tree, c.Respond)

	members := e.Group("/api/v1/members")
	members.Use(middleware.ExtractSession(c.Auth)) // Bearer token → session
	{
		members.GET("", h.ListMembers)          // GET /api/v1/members?filter=is_alive
		members.POST("", h.CreateMember)        // POST /api/v1/members
		members.GET("/:id", h.GetMember)        // GET /api/v1/members/{id}
		members.PUT("/:id", h.UpdateMember)     // PUT /api/v1/members/{id}
		members.PATCH("/:id", h.PatchMember)    // PATCH /api/v1/members/{id} (merge patch)
		members.DELETE("/:id", h.DeleteMember)  // DELETE /api/v1/members/{id}
	}
}

// RegisterTreeRoutes registers the tree and its renderings
func RegisterTreeRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewTreeHandler(c.Tree, c.Respond)

	tree := e.Group("/api/v1/tree")
	tree.Use(middleware.ExtractSession(c.Auth))
	{
		tree.GET("", h.GetTree)              // GET /api/v1/tree
		tree.POST("/refresh", h.RefreshTree) // POST /api/v1/tree/refresh
		tree.GET("/layout", h.GetLayout)     // GET /api/v1/tree/layout
		tree.GET("/text", h.GetText)         // GET /api/v1/tree/text
	}
}

// RegisterStateRoutes registers the view state and form actions
func RegisterStateRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewStateHandler(c.Tree, c.Respond)

	state := e.Group("/api/v1/state")
	state.Use(middleware.ExtractSession(c.Auth))
	{
		state.GET("", h.GetState)                     // GET /api/v1/state
		state.POST("/form/create", h.OpenCreateForm)  // POST /api/v1/state/form/create
		state.POST("/form/edit", h.OpenEditForm)      // POST /api/v1/state/form/edit
		state.DELETE("/form", h.CloseForm)            // DELETE /api/v1/state/form
		state.DELETE("/error", h.DismissError)        // DELETE /api/v1/state/error
	}
}

// RegisterEventRoutes registers the WebSocket event stream
func RegisterEventRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewEventsHandler(c.Hub, c.Components.Config.Service.CORSOrigins)

	e.GET("/api/v1/events", h.Stream, middleware.ExtractSessionStrict(c.Auth, c.Respond.Error)) // GET /api/v1/events?token=...
}
