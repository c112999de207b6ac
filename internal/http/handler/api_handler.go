package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/linkcut/linkcut/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger    *zap.Logger
	Shortener service.ShortenerService
	Clicks    repository.ClickEventRepository
}

// APIHandler implements the link management API.
type APIHandler struct {
	logger    *zap.Logger
	shortener service.ShortenerService
	clicks    repository.ClickEventRepository
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		shortener: deps.Shortener,
		clicks:    deps.Clicks,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Post("/shorten", h.Shorten)

		links := api.Group("/links")
		{
			links.Get("/", h.ListLinks)
			links.Get("/:code", h.GetLink)
			links.Patch("/:id", h.UpdateLink)
			links.Get("/:id/clicks", h.LinkClicks)
		}
	}
}

// ShortenRequest represents the request body for shortening a URL.
type ShortenRequest struct {
	URL         string     `json:"url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Title       *string    `json:"title,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// LinkResponse is the wire representation of a link.
type LinkResponse struct {
	ID          string     `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url,omitempty"`
	OriginalURL string     `json:"original_url"`
	Title       *string    `json:"title,omitempty"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClickCount  int64      `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

func linkResponse(link *model.Link) LinkResponse {
	return LinkResponse{
		ID:          link.ID,
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		Title:       link.Title,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
	}
}

// Shorten handles POST /api/shorten.
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	var req ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	result, err := h.shortener.CreateShortLink(requestContext(c), service.CreateLinkInput{
		URL:         req.URL,
		CustomAlias: req.CustomAlias,
		OwnerID:     ownerID(c),
		Title:       req.Title,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return h.shortenError(c, err)
	}

	resp := linkResponse(result.Link)
	resp.ShortURL = result.ShortURL
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// shortenError maps the creation error taxonomy onto HTTP statuses so a
// client can tell "pick another alias" from "URL rejected".
func (h *APIHandler) shortenError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidAlias):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrUnsafeURL):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrAliasTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrGenerationExhausted):
		h.logger.Error("short code generation exhausted", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to allocate a short code",
		})
	default:
		h.logger.Error("failed to shorten URL", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

// ListLinks handles GET /api/links for the requesting owner.
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	owner := ownerID(c)
	if owner == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	limit := 20
	if parsed := c.QueryInt("limit"); parsed > 0 && parsed <= 100 {
		limit = parsed
	}
	offset := 0
	if parsed := c.QueryInt("offset"); parsed > 0 {
		offset = parsed
	}

	links, total, err := h.shortener.ListLinks(requestContext(c), *owner, limit, offset)
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list links",
		})
	}

	response := make([]LinkResponse, len(links))
	for i := range links {
		response[i] = linkResponse(&links[i])
	}

	return c.JSON(fiber.Map{
		"links":  response,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetLink handles GET /api/links/:code.
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "code is required",
		})
	}

	link, err := h.shortener.GetLink(requestContext(c), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to get link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(linkResponse(link))
}

// UpdateLinkRequest represents the request body for updating a link.
type UpdateLinkRequest struct {
	Title     *string    `json:"title,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// UpdateLink handles PATCH /api/links/:id.
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	link, err := h.shortener.UpdateLink(requestContext(c), id, service.UpdateLinkInput{
		Title:     req.Title,
		IsActive:  req.IsActive,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "link not found",
			})
		}
		h.logger.Error("failed to update link", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.JSON(linkResponse(link))
}

// LinkClicks handles GET /api/links/:id/clicks with an optional day range.
func (h *APIHandler) LinkClicks(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "id is required",
		})
	}

	days := 30
	if parsed := c.QueryInt("days"); parsed > 0 && parsed <= 365 {
		days = parsed
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	ctx := requestContext(c)

	total, err := h.clicks.CountByLink(ctx, id)
	if err != nil {
		h.logger.Error("failed to count clicks", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	buckets, err := h.clicks.ClicksOverTime(ctx, id, start, end)
	if err != nil {
		h.logger.Error("failed to aggregate clicks", zap.Error(err), zap.String("id", id))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	daily := make([]fiber.Map, len(buckets))
	for i, b := range buckets {
		daily[i] = fiber.Map{
			"date":   b.Day.Format("2006-01-02"),
			"clicks": b.Clicks,
		}
	}

	return c.JSON(fiber.Map{
		"total": total,
		"daily": daily,
	})
}

// ownerID returns the authenticated user, when the (external) auth middleware
// has populated it. Anonymous shortening is allowed, so nil is fine.
func ownerID(c *fiber.Ctx) *string {
	if v, ok := c.Locals("user_id").(string); ok && v != "" {
		return &v
	}
	return nil
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
