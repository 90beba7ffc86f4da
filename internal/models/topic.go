package models

import (
	"time"
)

// Topic is a content theme with a target share of posting volume.
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Tag       string    `gorm:"size:64;uniqueIndex;not null" json:"tag"`
	Weight    int       `gorm:"not null;default:0" json:"weight"` // percent, 0-100
	Active    bool      `gorm:"not null" json:"active"`
	Context   string    `gorm:"type:text" json:"context"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
