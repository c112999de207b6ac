package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkcut/linkcut/internal/app/cache"
	"github.com/linkcut/linkcut/internal/app/model"
	"github.com/linkcut/linkcut/internal/app/repository"
	"github.com/linkcut/linkcut/internal/shortener"
)

const testAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

type mockLinkRepository struct {
	createFn    func(ctx context.Context, link *model.Link) error
	existsFn    func(ctx context.Context, code string) (bool, error)
	findCodeFn  func(ctx context.Context, code string) (*model.Link, error)
	findIDFn    func(ctx context.Context, id string) (*model.Link, error)
	incrementFn func(ctx context.Context, id string) error
	updateFn    func(ctx context.Context, link *model.Link) error
	listFn      func(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error)
	countFn     func(ctx context.Context, ownerID string) (int64, error)
	codesFn     func(ctx context.Context, limit, offset int) ([]string, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, code)
	}
	return false, nil
}

func (m *mockLinkRepository) FindByShortCode(ctx context.Context, code string) (*model.Link, error) {
	if m.findCodeFn != nil {
		return m.findCodeFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) FindByID(ctx context.Context, id string) (*model.Link, error) {
	if m.findIDFn != nil {
		return m.findIDFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) IncrementClickCount(ctx context.Context, id string) error {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return nil
}

func (m *mockLinkRepository) Update(ctx context.Context, link *model.Link) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, limit, offset)
	}
	return nil, nil
}

func (m *mockLinkRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx, ownerID)
	}
	return 0, nil
}

func (m *mockLinkRepository) Codes(ctx context.Context, limit, offset int) ([]string, error) {
	if m.codesFn != nil {
		return m.codesFn(ctx, limit, offset)
	}
	return nil, nil
}

// fakeCache is an in-memory Cache; when unavailable is set every operation
// behaves like a dead backend (miss on get, dropped writes).
type fakeCache struct {
	unavailable bool
	entries     map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool) {
	if f.unavailable {
		return "", false
	}
	val, ok := f.entries[key]
	return val, ok
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if f.unavailable {
		return
	}
	f.entries[key] = value
}

func (f *fakeCache) Del(ctx context.Context, key string) {
	delete(f.entries, key)
}

func (f *fakeCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if f.unavailable {
		return 0, errors.New("cache unavailable")
	}
	return 1, nil
}

func newTestService(repo repository.LinkRepository, c cache.Cache) ShortenerService {
	return NewShortenerService(Deps{
		Links:     repo,
		Cache:     c,
		Generator: shortener.NewGenerator(testAlphabet, 7),
		BaseURL:   "https://lnk.test",
		CacheTTL:  time.Hour,
	})
}

func TestCreateShortLink_GeneratesAndCaches(t *testing.T) {
	var persisted *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			persisted = link
			return nil
		},
	}
	c := newFakeCache()
	svc := newTestService(repo, c)

	result, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL: "https://example.com/a/b/",
	})
	if err != nil {
		t.Fatalf("CreateShortLink returned error: %v", err)
	}

	if result.OriginalURL != "https://example.com/a/b" {
		t.Errorf("expected trailing slash stripped, got %q", result.OriginalURL)
	}
	if len(result.ShortCode) != 7 {
		t.Errorf("expected 7-character code, got %q", result.ShortCode)
	}
	if result.ShortURL != "https://lnk.test/"+result.ShortCode {
		t.Errorf("unexpected short URL %q", result.ShortURL)
	}
	if persisted == nil || persisted.OriginalURL != "https://example.com/a/b" {
		t.Error("expected normalized URL to be persisted")
	}
	if persisted != nil && !persisted.IsActive {
		t.Error("new links must default to active")
	}
	if cached, ok := c.entries[cache.Key(result.ShortCode)]; !ok || cached != "https://example.com/a/b" {
		t.Error("expected mapping to be written through to the cache")
	}
}

func TestCreateShortLink_RejectsBadURLs(t *testing.T) {
	svc := newTestService(&mockLinkRepository{}, newFakeCache())

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL: "ftp://example.com",
	}); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("expected ErrInvalidURL for ftp scheme, got %v", err)
	}

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL: "http://192.168.1.1/admin",
	}); !errors.Is(err, ErrUnsafeURL) {
		t.Errorf("expected ErrUnsafeURL for private host, got %v", err)
	}
}

func TestCreateShortLink_CustomAlias(t *testing.T) {
	repo := &mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return code == "taken", nil
		},
		codesFn: func(ctx context.Context, limit, offset int) ([]string, error) {
			if offset == 0 {
				return []string{"taken"}, nil
			}
			return nil, nil
		},
	}
	svc := newTestService(repo, newFakeCache())
	if err := svc.WarmCodeFilter(context.Background()); err != nil {
		t.Fatalf("WarmCodeFilter returned error: %v", err)
	}

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL:         "https://example.com",
		CustomAlias: "my-link_1",
	}); !errors.Is(err, ErrInvalidAlias) {
		t.Errorf("expected ErrInvalidAlias, got %v", err)
	}

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL:         "https://example.com",
		CustomAlias: "taken",
	}); !errors.Is(err, ErrAliasTaken) {
		t.Errorf("expected ErrAliasTaken, got %v", err)
	}

	result, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL:         "https://example.com",
		CustomAlias: "my-link",
	})
	if err != nil {
		t.Fatalf("CreateShortLink with free alias returned error: %v", err)
	}
	if result.ShortCode != "my-link" {
		t.Errorf("expected alias to be used as code, got %q", result.ShortCode)
	}
}

func TestCreateShortLink_AliasRaceSurfacesAsTaken(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			return repository.ErrDuplicateCode
		},
	}
	svc := newTestService(repo, newFakeCache())

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL:         "https://example.com",
		CustomAlias: "my-link",
	}); !errors.Is(err, ErrAliasTaken) {
		t.Errorf("expected ErrAliasTaken when the insert loses the race, got %v", err)
	}
}

func TestCreateShortLink_GenerationExhausted(t *testing.T) {
	// A one-symbol alphabet makes every generated code identical, so
	// seeding that code forces all five attempts to collide.
	repo := &mockLinkRepository{
		existsFn: func(ctx context.Context, code string) (bool, error) {
			return true, nil
		},
		codesFn: func(ctx context.Context, limit, offset int) ([]string, error) {
			if offset == 0 {
				return []string{"aaaaaa"}, nil
			}
			return nil, nil
		},
	}
	svc := NewShortenerService(Deps{
		Links:     repo,
		Cache:     newFakeCache(),
		Generator: shortener.NewGenerator("a", 6),
		BaseURL:   "https://lnk.test",
		CacheTTL:  time.Hour,
	})
	if err := svc.WarmCodeFilter(context.Background()); err != nil {
		t.Fatalf("WarmCodeFilter returned error: %v", err)
	}

	if _, err := svc.CreateShortLink(context.Background(), CreateLinkInput{
		URL: "https://example.com",
	}); !errors.Is(err, ErrGenerationExhausted) {
		t.Errorf("expected ErrGenerationExhausted, got %v", err)
	}
}

func TestResolveShortCode_CacheHitSkipsRegistry(t *testing.T) {
	repo := &mockLinkRepository{
		findCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			t.Fatal("registry must not be touched on a cache hit")
			return nil, nil
		},
	}
	c := newFakeCache()
	c.entries[cache.Key("abc1234")] = "https://example.com"
	svc := newTestService(repo, c)

	target, err := svc.ResolveShortCode(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("ResolveShortCode returned error: %v", err)
	}
	if target != "https://example.com" {
		t.Errorf("expected cached target, got %q", target)
	}
}

func TestResolveShortCode_MissFallsThroughAndRepopulates(t *testing.T) {
	repo := &mockLinkRepository{
		findCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return &model.Link{
				ID:          "id-1",
				ShortCode:   code,
				OriginalURL: "https://example.com/a/b",
				IsActive:    true,
			}, nil
		},
	}
	c := newFakeCache()
	svc := newTestService(repo, c)

	target, err := svc.ResolveShortCode(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("ResolveShortCode returned error: %v", err)
	}
	if target != "https://example.com/a/b" {
		t.Errorf("unexpected target %q", target)
	}
	if cached := c.entries[cache.Key("abc1234")]; cached != "https://example.com/a/b" {
		t.Error("expected mapping to be repopulated into the cache")
	}
}

func TestResolveShortCode_SurvivesDeadCache(t *testing.T) {
	repo := &mockLinkRepository{
		findCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return &model.Link{
				ID:          "id-1",
				ShortCode:   code,
				OriginalURL: "https://example.com",
				IsActive:    true,
			}, nil
		},
	}
	c := newFakeCache()
	c.unavailable = true
	svc := newTestService(repo, c)

	target, err := svc.ResolveShortCode(context.Background(), "abc1234")
	if err != nil {
		t.Fatalf("resolution must not depend on the cache: %v", err)
	}
	if target != "https://example.com" {
		t.Errorf("unexpected target %q", target)
	}
}

func TestResolveShortCode_ExpiredIsNotFound(t *testing.T) {
	expired := time.Now().Add(-time.Minute)
	repo := &mockLinkRepository{
		findCodeFn: func(ctx context.Context, code string) (*model.Link, error) {
			return &model.Link{
				ID:          "id-1",
				ShortCode:   code,
				OriginalURL: "https://example.com",
				IsActive:    true,
				ExpiresAt:   &expired,
			}, nil
		},
	}
	svc := newTestService(repo, newFakeCache())

	if _, err := svc.ResolveShortCode(context.Background(), "abc1234"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound for expired link, got %v", err)
	}
}

func TestResolveShortCode_MissingIsNotFound(t *testing.T) {
	svc := newTestService(&mockLinkRepository{}, newFakeCache())

	if _, err := svc.ResolveShortCode(context.Background(), "nothere"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestUpdateLink_InvalidatesCache(t *testing.T) {
	active := false
	repo := &mockLinkRepository{
		findIDFn: func(ctx context.Context, id string) (*model.Link, error) {
			return &model.Link{ID: id, ShortCode: "abc1234", IsActive: true}, nil
		},
	}
	c := newFakeCache()
	c.entries[cache.Key("abc1234")] = "https://example.com"
	svc := newTestService(repo, c)

	link, err := svc.UpdateLink(context.Background(), "id-1", UpdateLinkInput{
		IsActive: &active,
	})
	if err != nil {
		t.Fatalf("UpdateLink returned error: %v", err)
	}
	if link.IsActive {
		t.Error("expected link to be deactivated")
	}
	if _, ok := c.entries[cache.Key("abc1234")]; ok {
		t.Error("expected cached mapping to be invalidated")
	}
}
