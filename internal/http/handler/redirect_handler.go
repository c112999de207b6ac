package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/linkcut/linkcut/internal/app/service"
	"github.com/linkcut/linkcut/internal/http/util"
	"github.com/linkcut/linkcut/internal/infra/metrics"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by the redirect handler.
type RedirectDeps struct {
	Logger         *zap.Logger
	Shortener      service.ShortenerService
	ClickPublisher *service.ClickPublisher
}

// RedirectHandler serves the public resolution path.
type RedirectHandler struct {
	logger         *zap.Logger
	shortener      service.ShortenerService
	clickPublisher *service.ClickPublisher
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:         logger,
		shortener:      deps.Shortener,
		clickPublisher: deps.ClickPublisher,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "LinkCut",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:code and issues the redirect. Missing, soft-deleted
// and expired codes all answer 404 so the response leaks nothing about why a
// code does not resolve.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := h.shortener.ResolveShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "short link not found",
			})
		}
		h.logger.Error("failed to resolve short code",
			zap.String("code", code), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	h.recordClick(c, code)
	metrics.Redirects.Inc()

	h.logger.Debug("redirecting short link",
		zap.String("code", code), zap.String("target", target))
	return c.Redirect(target, fiber.StatusFound)
}

// recordClick publishes the click event without ever blocking the redirect.
// Request values are captured before the goroutine starts because fiber
// recycles its context once the handler returns.
func (h *RedirectHandler) recordClick(c *fiber.Ctx, code string) {
	if h.clickPublisher == nil {
		return
	}

	userAgent := c.Get(fiber.HeaderUserAgent)
	event := model.ClickEvent{
		ShortCode:  code,
		IP:         c.IP(),
		UserAgent:  userAgent,
		Referrer:   c.Get(fiber.HeaderReferer),
		DeviceType: util.ParseDeviceType(userAgent),
		Browser:    util.ParseBrowser(userAgent),
	}

	go func() {
		if err := h.clickPublisher.Publish(event); err != nil {
			h.logger.Error("failed to publish click event",
				zap.String("code", code), zap.Error(err))
		}
	}()
}
