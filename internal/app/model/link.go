package model

import "time"

// Link describes the core short-link entity stored in Postgres. Short codes
// are unique forever, soft-deleted rows included, so codes are never recycled.
type Link struct {
	ID          string     `db:"id" gorm:"primaryKey;size:36"`
	ShortCode   string     `db:"short_code" gorm:"size:50;not null;uniqueIndex"`
	OriginalURL string     `db:"original_url" gorm:"type:text;not null"`
	OwnerID     *string    `db:"owner_id" gorm:"size:36;index"`
	Title       *string    `db:"title" gorm:"size:255"`
	IsActive    bool       `db:"is_active" gorm:"not null;default:true"`
	ExpiresAt   *time.Time `db:"expires_at" gorm:"index"`
	ClickCount  int64      `db:"click_count" gorm:"not null;default:0"`
	CreatedAt   time.Time  `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `db:"updated_at" gorm:"autoUpdateTime"`
}

// Resolvable reports whether the link may still be served: active and either
// never expiring or not yet expired.
func (l *Link) Resolvable(now time.Time) bool {
	if !l.IsActive {
		return false
	}
	if l.ExpiresAt != nil && !l.ExpiresAt.After(now) {
		return false
	}
	return true
}
