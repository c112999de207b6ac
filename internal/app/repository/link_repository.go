package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/linkcut/linkcut/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that no resolvable link matched the lookup.
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateCode signals that the short code is already taken. The
	// unique index raising this is the authoritative collision defense;
	// existence pre-checks are optimizations only.
	ErrDuplicateCode = errors.New("short code already exists")
)

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	ExistsByShortCode(ctx context.Context, code string) (bool, error)
	// FindByShortCode pre-filters on is_active; callers that need to
	// distinguish soft-deleted links must use FindByID.
	FindByShortCode(ctx context.Context, code string) (*model.Link, error)
	FindByID(ctx context.Context, id string) (*model.Link, error)
	IncrementClickCount(ctx context.Context, id string) error
	Update(ctx context.Context, link *model.Link) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
	// Codes pages through every short code ever issued, soft-deleted
	// included, for warming the existence filter at startup.
	Codes(ctx context.Context, limit, offset int) ([]string, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	return nil
}

func (r *linkRepository) ExistsByShortCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("short_code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *linkRepository) FindByShortCode(ctx context.Context, code string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).
		Where("short_code = ? AND is_active = ?", code, true).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) FindByID(ctx context.Context, id string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) IncrementClickCount(ctx context.Context, id string) error {
	// Single atomic row update; deliberately leaves updated_at alone so
	// redirect traffic does not masquerade as owner edits.
	return r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1)).Error
}

func (r *linkRepository) Update(ctx context.Context, link *model.Link) error {
	result := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("id = ?", link.ID).
		Updates(map[string]interface{}{
			"title":      link.Title,
			"is_active":  link.IsActive,
			"expires_at": link.ExpiresAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}

	return r.db.WithContext(ctx).Where("id = ?", link.ID).First(link).Error
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.Link
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *linkRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *linkRepository) Codes(ctx context.Context, limit, offset int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}

	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&model.Link{}).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Pluck("short_code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
