package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/vanshavali/familytree/cmd/familytree/container"
	"github.com/vanshavali/familytree/cmd/familytree/routes"
	"github.com/vanshavali/familytree/common/bootstrap"
	"github.com/vanshavali/familytree/common/locale"
	"github.com/vanshavali/familytree/common/logger"
	"github.com/vanshavali/familytree/common/server"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bootstrap common components (store, redis, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "familytree", bootstrap.WithMigrations())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap familytree: %v\n", err)
		os.Exit(1)
	}

	// Initialize service container (all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		components.Logger.Error("failed to initialize service container", "error", err)
		_ = components.Shutdown(context.Background())
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e, components)
	routes.RegisterAll(e, serviceContainer)

	err = run(ctx, e, serviceContainer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = components.Shutdown(shutdownCtx)

	if err != nil {
		components.Logger.Error("familytree stopped with error", "error", err)
		os.Exit(1)
	}
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, components *bootstrap.Components) {
	log := components.Logger

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := context.WithValue(c.Request().Context(), logger.RequestIDKey, v.RequestID)
			l := log.WithContext(ctx)
			if v.Error != nil {
				l.Warn("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			l.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: components.Config.Service.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, locale.HeaderAcceptLanguage},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
	}))
}

// run serves HTTP and the event subscriptions until ctx is cancelled or one of them fails
func run(ctx context.Context, e *echo.Echo, c *container.Container) error {
	cfg := c.Components.Config
	log := c.Components.Logger

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.Hub.Run(gctx)
		return nil
	})

	if q := c.Components.Queue; q != nil && cfg.Features.EnableEvents {
		if err := c.Hub.Start(gctx, q); err != nil {
			return err
		}
		log.Info("event subscriptions started")
	}

	srv := server.New("familytree", cfg.Service.Port, e, log)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	return g.Wait()
}
