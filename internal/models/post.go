package models

import (
	"time"
)

// PostBodySoftLimit is the LinkedIn post length ceiling in characters.
const PostBodySoftLimit = 3000

type Post struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Title             string     `gorm:"not null" json:"title"`
	Body              string     `gorm:"type:text;not null" json:"body"`
	Status            PostStatus `gorm:"type:varchar(20);not null;index;default:'draft'" json:"status"`
	Topic             string     `gorm:"size:64;index" json:"topic"`
	QualityScore      *int       `json:"quality_score"`
	RegenerationCount int        `gorm:"not null;default:0" json:"regeneration_count"`
	ArchivedReason    string     `gorm:"size:200" json:"archived_reason,omitempty"`
	ScheduledAt       *time.Time `gorm:"index" json:"scheduled_at"`
	PostedAt          *time.Time `gorm:"index" json:"posted_at"`
	ExternalID        string     `gorm:"size:128" json:"external_id,omitempty"`
	PublishingAt      *time.Time `json:"-"` // publish lease, set while the transport call is in flight
	Version           int        `gorm:"not null;default:1" json:"version"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// OverSoftLimit reports whether the body exceeds the LinkedIn ceiling.
func (p *Post) OverSoftLimit() bool {
	return len([]rune(p.Body)) > PostBodySoftLimit
}
