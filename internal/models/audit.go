package models

import (
	"time"
)

// TransitionLog is the append-only audit of applied status changes.
type TransitionLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EntityKind EntityKind `gorm:"type:varchar(20);not null;index:idx_transition_entity" json:"entity_kind"`
	EntityID   uint       `gorm:"not null;index:idx_transition_entity" json:"entity_id"`
	FromStatus string     `gorm:"size:20;not null" json:"from_status"`
	ToStatus   string     `gorm:"size:20;not null;index" json:"to_status"`
	Reason     string     `gorm:"size:200" json:"reason,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

// FlaggedItem records a compliance denial or quality archive for the health view.
type FlaggedItem struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EntityKind EntityKind `gorm:"type:varchar(20);not null" json:"entity_kind"`
	EntityID   uint       `gorm:"not null" json:"entity_id"`
	Rule       string     `gorm:"size:40;not null;index" json:"rule"`
	Reason     string     `gorm:"size:200;not null" json:"reason"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
