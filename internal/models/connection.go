package models

import (
	"time"
)

// ConnectionRequest is an outbound LinkedIn connection invitation.
type ConnectionRequest struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	ProfileURL   string           `gorm:"not null;uniqueIndex" json:"profile_url"`
	Name         string           `json:"name"`
	Note         string           `gorm:"type:text" json:"note"`
	Source       string           `gorm:"size:32" json:"source"`
	Status       ConnectionStatus `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`
	SentAt       *time.Time       `gorm:"index" json:"sent_at"`
	ExternalID   string           `gorm:"size:128" json:"external_id,omitempty"`
	PublishingAt *time.Time       `json:"-"`
	Version      int              `gorm:"not null;default:1" json:"version"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
