package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkcut/linkcut/internal/app/model"
)

// DailyClicks is one bucket of the clicks-over-time aggregate.
type DailyClicks struct {
	Day    time.Time
	Clicks int64
}

// ClickEventRepository defines the data access contract for the append-only
// click log.
type ClickEventRepository interface {
	Create(ctx context.Context, event *model.ClickEvent) error
	CountByLink(ctx context.Context, linkID string) (int64, error)
	ClicksOverTime(ctx context.Context, linkID string, start, end time.Time) ([]DailyClicks, error)
}

// clickEventRepository runs raw SQL on the pgx pool; click inserts sit on the
// redirect hot path and skip the ORM.
type clickEventRepository struct {
	pool *pgxpool.Pool
}

// NewClickEventRepository returns a pgx-backed ClickEventRepository.
func NewClickEventRepository(pool *pgxpool.Pool) ClickEventRepository {
	return &clickEventRepository{pool: pool}
}

func (r *clickEventRepository) Create(ctx context.Context, event *model.ClickEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO click_events
			(id, link_id, short_code, ip, user_agent, referrer, device_type, browser, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID,
		event.LinkID,
		event.ShortCode,
		event.IP,
		event.UserAgent,
		event.Referrer,
		event.DeviceType,
		event.Browser,
		event.ClickedAt,
	)
	return err
}

func (r *clickEventRepository) CountByLink(ctx context.Context, linkID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM click_events WHERE link_id = $1`, linkID,
	).Scan(&count)
	return count, err
}

func (r *clickEventRepository) ClicksOverTime(ctx context.Context, linkID string, start, end time.Time) ([]DailyClicks, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DATE(clicked_at) AS day, COUNT(*) AS clicks
		FROM click_events
		WHERE link_id = $1 AND clicked_at >= $2 AND clicked_at <= $3
		GROUP BY DATE(clicked_at)
		ORDER BY day ASC`,
		linkID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DailyClicks
	for rows.Next() {
		var bucket DailyClicks
		if err := rows.Scan(&bucket.Day, &bucket.Clicks); err != nil {
			return nil, err
		}
		result = append(result, bucket)
	}
	return result, rows.Err()
}
