package models

import (
	"time"
)

type Comment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	PostURL        string        `gorm:"not null" json:"post_url"`
	PostSnippet    string        `gorm:"type:text" json:"post_snippet"`
	InfluencerRef  string        `gorm:"size:128;not null;index" json:"influencer_ref"` // influencer handle
	InfluencerName string        `gorm:"size:200" json:"influencer_name"`
	CommentText    string        `gorm:"type:text;not null" json:"comment_text"`
	Status         CommentStatus `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`
	ScheduledAt    *time.Time    `gorm:"index" json:"scheduled_at"`
	PostedAt       *time.Time    `gorm:"index" json:"posted_at"`
	ExternalID     string        `gorm:"size:128" json:"external_id,omitempty"`
	PublishingAt   *time.Time    `json:"-"`
	Version        int           `gorm:"not null;default:1" json:"version"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
