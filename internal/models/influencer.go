package models

import (
	"fmt"
	"strings"
	"time"
)

type Relationship string

const (
	RelationshipCold         Relationship = "Cold"
	RelationshipWarm         Relationship = "Warm"
	RelationshipConnected    Relationship = "Connected"
	RelationshipCollaborator Relationship = "Collaborator"
)

// ParseRelationship accepts any casing of the four relationship tiers.
func ParseRelationship(raw string) (Relationship, error) {
	for _, r := range []Relationship{RelationshipCold, RelationshipWarm, RelationshipConnected, RelationshipCollaborator} {
		if strings.EqualFold(strings.TrimSpace(raw), string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown relationship %q", raw)
}

type Influencer struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	Name              string       `gorm:"not null" json:"name"`
	Handle            string       `gorm:"size:128;uniqueIndex;not null" json:"handle"`
	LinkedInURL       string       `json:"linkedin_url"`
	Niche             string       `gorm:"size:64;index" json:"niche"`
	FollowerCount     int          `gorm:"default:0" json:"follower_count"`
	Relationship      Relationship `gorm:"type:varchar(20);not null;default:'Cold'" json:"relationship"`
	LastInteractionAt *time.Time   `json:"last_interaction_at"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// NormalizeHandle lowercases a handle and strips a leading '@'.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
