package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkcut/linkcut/config"
	"github.com/linkcut/linkcut/internal/app/cache"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/linkcut/linkcut/internal/app/service"
	inthttp "github.com/linkcut/linkcut/internal/http/handler"
	"github.com/linkcut/linkcut/internal/http/middleware"
	"go.uber.org/zap"
)

// Dependencies bundles everything required by the HTTP server.
type Dependencies struct {
	Logger         *zap.Logger
	Cache          cache.Cache
	Shortener      service.ShortenerService
	Clicks         repository.ClickEventRepository
	ClickPublisher *service.ClickPublisher
	RateLimit      config.RateLimitConfig
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with default middleware and routes.
func New(deps Dependencies) *Server {
	app := fiber.New()

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.Logger(s.deps.Logger))
	s.app.Use(middleware.Recovery(s.deps.Logger))
	s.app.Use(middleware.CORS())

	if s.deps.Cache != nil {
		window := time.Duration(s.deps.RateLimit.WindowSeconds) * time.Second
		s.app.Use(middleware.RateLimit(s.deps.Cache, middleware.RateLimitConfig{
			MaxRequests: s.deps.RateLimit.MaxRequests,
			Window:      window,
		}, s.deps.Logger))
	}
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:    s.deps.Logger,
		Shortener: s.deps.Shortener,
		Clicks:    s.deps.Clicks,
	})
	apiHandler.Register(s.app)

	// Registered last so /:code does not shadow the API routes.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:         s.deps.Logger,
		Shortener:      s.deps.Shortener,
		ClickPublisher: s.deps.ClickPublisher,
	})
	redirectHandler.Register(s.app)
}
