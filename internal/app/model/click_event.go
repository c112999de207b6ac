package model

import "time"

// ClickEvent represents one recorded click on a short link, enriched with
// metadata parsed from the redirect request.
type ClickEvent struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	LinkID     string    `json:"link_id" gorm:"size:36;not null;index"`
	ShortCode  string    `json:"short_code" gorm:"size:50;not null"`
	IP         string    `json:"ip" gorm:"size:45"`
	UserAgent  string    `json:"user_agent" gorm:"type:text"`
	Referrer   string    `json:"referrer" gorm:"type:text"`
	DeviceType string    `json:"device_type" gorm:"size:16"`
	Browser    string    `json:"browser" gorm:"size:32"`
	ClickedAt  time.Time `json:"clicked_at" gorm:"index"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-recorder"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)
