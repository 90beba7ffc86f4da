package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"finsignal/internal/models"
)

// FeedService manages the news sources drafts are built from.
type FeedService struct {
	store FeedStore
}

func NewFeedService(store FeedStore) *FeedService {
	return &FeedService{store: store}
}

// FeedInput is a feed as submitted by the operator. Active defaults to true
// on create.
type FeedInput struct {
	Name     string `json:"name" binding:"required"`
	URL      string `json:"url" binding:"required"`
	FeedType string `json:"feed_type"`
	Priority string `json:"priority"`
	Category string `json:"category"`
	Active   *bool  `json:"active"`
}

func (in FeedInput) feed() (models.Feed, error) {
	f := models.Feed{
		Name:     strings.TrimSpace(in.Name),
		URL:      strings.TrimSpace(in.URL),
		Category: strings.TrimSpace(in.Category),
		Active:   in.Active == nil || *in.Active,
	}
	if f.Name == "" {
		return models.Feed{}, validationf("name is required")
	}
	u, err := url.Parse(f.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.Feed{}, validationf("url %q must be an absolute http(s) URL", in.URL)
	}
	if f.FeedType, err = models.ParseFeedType(in.FeedType); err != nil {
		return models.Feed{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if f.Priority, err = models.ParseFeedPriority(in.Priority); err != nil {
		return models.Feed{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return f, nil
}

func (s *FeedService) List(ctx context.Context, priority string, activeOnly bool) ([]models.Feed, error) {
	f := FeedFilter{ActiveOnly: activeOnly}
	if strings.TrimSpace(priority) != "" {
		p, err := models.ParseFeedPriority(priority)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Priority = p
	}
	out, err := s.store.ListFeeds(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return out, nil
}

func (s *FeedService) Create(ctx context.Context, in FeedInput) (models.Feed, error) {
	f, err := in.feed()
	if err != nil {
		return models.Feed{}, err
	}
	out, err := s.store.CreateFeed(ctx, f)
	if err != nil {
		return models.Feed{}, fmt.Errorf("create feed: %w", err)
	}
	return out, nil
}

// Update replaces every field of feed id.
func (s *FeedService) Update(ctx context.Context, id uint, in FeedInput) (models.Feed, error) {
	f, err := in.feed()
	if err != nil {
		return models.Feed{}, err
	}
	f.ID = id
	out, err := s.store.UpdateFeed(ctx, f)
	if err != nil {
		return models.Feed{}, fmt.Errorf("update feed %d: %w", id, err)
	}
	return out, nil
}

func (s *FeedService) SetActive(ctx context.Context, id uint, active bool) (models.Feed, error) {
	out, err := s.store.SetFeedActive(ctx, id, active)
	if err != nil {
		return models.Feed{}, fmt.Errorf("toggle feed %d: %w", id, err)
	}
	return out, nil
}

func (s *FeedService) Delete(ctx context.Context, id uint) error {
	if err := s.store.DeleteFeed(ctx, id); err != nil {
		return fmt.Errorf("delete feed %d: %w", id, err)
	}
	return nil
}
