package models

import (
	"fmt"
	"strings"
	"time"
)

type FeedType string

const (
	FeedRSS  FeedType = "rss"
	FeedAtom FeedType = "atom"
	FeedBlog FeedType = "blog"
	FeedJSON FeedType = "json"
)

type FeedPriority string

const (
	FeedStandard     FeedPriority = "standard"
	FeedHighPriority FeedPriority = "priority"
)

func ParseFeedType(raw string) (FeedType, error) {
	switch t := FeedType(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return FeedRSS, nil
	case FeedRSS, FeedAtom, FeedBlog, FeedJSON:
		return t, nil
	}
	return "", fmt.Errorf("unknown feed type %q", raw)
}

func ParseFeedPriority(raw string) (FeedPriority, error) {
	switch p := FeedPriority(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return FeedStandard, nil
	case FeedStandard, FeedHighPriority:
		return p, nil
	}
	return "", fmt.Errorf("unknown feed priority %q", raw)
}

// Feed is a news source the drafting pipeline reads from. Only active feeds
// are fetched.
type Feed struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:128;not null" json:"name"`
	URL       string       `gorm:"size:512;uniqueIndex;not null" json:"url"`
	FeedType  FeedType     `gorm:"type:varchar(10);not null;default:'rss'" json:"feed_type"`
	Priority  FeedPriority `gorm:"type:varchar(10);not null;default:'standard';index" json:"priority"` // priority feeds are read first
	Category  string       `gorm:"size:64" json:"category"`                                            // AML, KYC, Fraud...
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
