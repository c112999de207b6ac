package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/linkcut/linkcut/internal/app/cache"
	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/linkcut/linkcut/internal/infra/metrics"
	"github.com/linkcut/linkcut/internal/shortener"
	"go.uber.org/zap"
)

// maxCodeAttempts bounds the random-generation retry loop. Five attempts is a
// correctness constant, not a tuning knob: at 7+ characters a single collision
// is already astronomically unlikely, so exhausting the loop means something
// is misconfigured (alphabet or length), not that we were unlucky.
const maxCodeAttempts = 5

var (
	// ErrInvalidURL means the destination failed syntactic validation.
	ErrInvalidURL = errors.New("invalid URL format, must be an absolute http(s) URL")
	// ErrUnsafeURL means the destination host is private or loopback.
	ErrUnsafeURL = errors.New("URL is not allowed (security restriction)")
	// ErrInvalidAlias means the custom alias fails format rules.
	ErrInvalidAlias = errors.New("invalid custom alias format")
	// ErrAliasTaken means the requested custom alias is already in use.
	ErrAliasTaken = errors.New("custom alias already taken")
	// ErrGenerationExhausted means no free code was found in the bounded
	// retry loop; treated as an operational alert condition.
	ErrGenerationExhausted = errors.New("failed to generate unique short code after multiple attempts")
)

// ShortenerService is the orchestration core: it ties the validator, the code
// generator, the link registry and the resolution cache together.
type ShortenerService interface {
	CreateShortLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error)
	ResolveShortCode(ctx context.Context, code string) (string, error)
	GetLink(ctx context.Context, code string) (*model.Link, error)
	UpdateLink(ctx context.Context, id string, input UpdateLinkInput) (*model.Link, error)
	ListLinks(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, int64, error)
	// WarmCodeFilter preloads the code-existence filter; run once at boot.
	WarmCodeFilter(ctx context.Context) error
}

// Deps bundles everything the shortener service needs.
type Deps struct {
	Logger    *zap.Logger
	Links     repository.LinkRepository
	Cache     cache.Cache
	Generator *shortener.Generator
	BaseURL   string
	CacheTTL  time.Duration
}

type shortenerService struct {
	logger   *zap.Logger
	links    repository.LinkRepository
	cache    cache.Cache
	gen      *shortener.Generator
	baseURL  string
	cacheTTL time.Duration

	// codeFilter is a negative cache in front of ExistsByShortCode: a
	// definitely-absent answer skips the registry round trip. It is an
	// optimization only; the unique index stays authoritative.
	mu         sync.Mutex
	codeFilter *bloom.BloomFilter
}

// NewShortenerService builds the service. A nil logger falls back to a no-op.
func NewShortenerService(deps Deps) ShortenerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &shortenerService{
		logger:     logger,
		links:      deps.Links,
		cache:      deps.Cache,
		gen:        deps.Generator,
		baseURL:    strings.TrimSuffix(deps.BaseURL, "/"),
		cacheTTL:   deps.CacheTTL,
		codeFilter: bloom.NewWithEstimates(1_000_000, 0.01),
	}
}

// CreateLinkInput captures a shorten request.
type CreateLinkInput struct {
	URL         string
	CustomAlias string
	OwnerID     *string
	Title       *string
	ExpiresAt   *time.Time
}

// CreateLinkResult is what a successful shorten returns.
type CreateLinkResult struct {
	ShortCode   string
	ShortURL    string
	OriginalURL string
	Link        *model.Link
}

// UpdateLinkInput captures owner-editable fields; nil means leave unchanged.
type UpdateLinkInput struct {
	Title     *string
	IsActive  *bool
	ExpiresAt *time.Time
}

func (s *shortenerService) CreateShortLink(ctx context.Context, input CreateLinkInput) (*CreateLinkResult, error) {
	if !shortener.IsValidURL(input.URL) {
		return nil, ErrInvalidURL
	}

	// Safety is checked against the normalized form, not the raw input, so
	// a scheme-less private host cannot sneak past the guard.
	normalized := shortener.NormalizeURL(input.URL)
	if !shortener.IsSafeURL(normalized) {
		return nil, ErrUnsafeURL
	}

	var code string
	if input.CustomAlias != "" {
		if !shortener.IsValidCustomAlias(input.CustomAlias) {
			return nil, ErrInvalidAlias
		}
		taken, err := s.codeExists(ctx, input.CustomAlias)
		if err != nil {
			return nil, fmt.Errorf("check alias: %w", err)
		}
		if taken {
			return nil, ErrAliasTaken
		}
		code = input.CustomAlias
	} else {
		generated, err := s.generateUniqueCode(ctx)
		if err != nil {
			return nil, err
		}
		code = generated
	}

	link := &model.Link{
		ID:          uuid.New().String(),
		ShortCode:   code,
		OriginalURL: normalized,
		OwnerID:     input.OwnerID,
		Title:       input.Title,
		IsActive:    true,
		ExpiresAt:   input.ExpiresAt,
	}

	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			// Lost a race between the existence check and the insert.
			// For aliases the answer is final; for generated codes the
			// caller may simply retry.
			if input.CustomAlias != "" {
				return nil, ErrAliasTaken
			}
			return nil, fmt.Errorf("persist link: %w", err)
		}
		return nil, fmt.Errorf("persist link: %w", err)
	}

	s.rememberCode(code)
	s.cache.Set(ctx, cache.Key(code), normalized, s.cacheTTL)
	metrics.LinksCreated.Inc()

	return &CreateLinkResult{
		ShortCode:   link.ShortCode,
		ShortURL:    s.baseURL + "/" + link.ShortCode,
		OriginalURL: link.OriginalURL,
		Link:        link,
	}, nil
}

func (s *shortenerService) ResolveShortCode(ctx context.Context, code string) (string, error) {
	if target, ok := s.cache.Get(ctx, cache.Key(code)); ok {
		metrics.CacheHits.Inc()
		return target, nil
	}
	metrics.CacheMisses.Inc()

	link, err := s.links.FindByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", repository.ErrLinkNotFound
		}
		return "", fmt.Errorf("load link: %w", err)
	}

	// Expired links are reported exactly like missing ones; the caller
	// learns nothing about why a code does not resolve.
	if link.ExpiresAt != nil && link.ExpiresAt.Before(time.Now()) {
		return "", repository.ErrLinkNotFound
	}

	s.cache.Set(ctx, cache.Key(code), link.OriginalURL, s.cacheTTL)
	return link.OriginalURL, nil
}

func (s *shortenerService) GetLink(ctx context.Context, code string) (*model.Link, error) {
	link, err := s.links.FindByShortCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}
	return link, nil
}

func (s *shortenerService) UpdateLink(ctx context.Context, id string, input UpdateLinkInput) (*model.Link, error) {
	link, err := s.links.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if input.Title != nil {
		link.Title = input.Title
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}

	if err := s.links.Update(ctx, link); err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	// Drop the cached mapping so a deactivated or re-expired link stops
	// resolving now instead of after the TTL.
	s.cache.Del(ctx, cache.Key(link.ShortCode))

	return link, nil
}

func (s *shortenerService) ListLinks(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, int64, error) {
	links, err := s.links.ListByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list links: %w", err)
	}
	total, err := s.links.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count links: %w", err)
	}
	return links, total, nil
}

// WarmCodeFilter pages every issued short code into the bloom filter. Called
// once at startup; a failure only costs the pre-check optimization.
func (s *shortenerService) WarmCodeFilter(ctx context.Context) error {
	const pageSize = 1000

	loaded := 0
	for offset := 0; ; offset += pageSize {
		codes, err := s.links.Codes(ctx, pageSize, offset)
		if err != nil {
			return fmt.Errorf("warm code filter: %w", err)
		}
		s.mu.Lock()
		for _, code := range codes {
			s.codeFilter.AddString(code)
		}
		s.mu.Unlock()
		loaded += len(codes)
		if len(codes) < pageSize {
			break
		}
	}

	s.logger.Info("code filter warmed", zap.Int("codes", loaded))
	return nil
}

func (s *shortenerService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.gen.Generate(0)

		taken, err := s.codeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check generated code: %w", err)
		}
		if !taken {
			return code, nil
		}

		metrics.CodeCollisions.Inc()
		s.logger.Warn("generated short code collided",
			zap.String("code", code), zap.Int("attempt", attempt+1))
	}

	s.logger.Error("exhausted short code generation attempts",
		zap.Int("attempts", maxCodeAttempts))
	return "", ErrGenerationExhausted
}

func (s *shortenerService) codeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	might := s.codeFilter.TestString(code)
	s.mu.Unlock()
	if !might {
		// Definitely never issued; skip the registry round trip.
		return false, nil
	}
	return s.links.ExistsByShortCode(ctx, code)
}

func (s *shortenerService) rememberCode(code string) {
	s.mu.Lock()
	s.codeFilter.AddString(code)
	s.mu.Unlock()
}
