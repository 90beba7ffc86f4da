package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finsignal/internal/models"
)

type InfluencerService struct {
	store InfluencerStore
	now   func() time.Time
}

func NewInfluencerService(store InfluencerStore, clock func() time.Time) *InfluencerService {
	if clock == nil {
		clock = time.Now
	}
	return &InfluencerService{store: store, now: clock}
}

// InfluencerInput is a new influencer as submitted by the operator.
type InfluencerInput struct {
	Name          string `json:"name" binding:"required"`
	Handle        string `json:"handle" binding:"required"`
	LinkedInURL   string `json:"linkedin_url"`
	Niche         string `json:"niche"`
	FollowerCount int    `json:"follower_count"`
	Relationship  string `json:"relationship"`
}

func (s *InfluencerService) List(ctx context.Context, search, niche, relationship string, limit int) ([]models.Influencer, error) {
	f := InfluencerFilter{Search: search, Niche: niche, Limit: limit}
	if relationship != "" {
		rel, err := models.ParseRelationship(relationship)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Relationship = rel
	}
	out, err := s.store.ListInfluencers(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list influencers: %w", err)
	}
	return out, nil
}

func (s *InfluencerService) Create(ctx context.Context, in InfluencerInput) (models.Influencer, error) {
	inf := models.Influencer{
		Name:          strings.TrimSpace(in.Name),
		Handle:        models.NormalizeHandle(in.Handle),
		LinkedInURL:   strings.TrimSpace(in.LinkedInURL),
		Niche:         strings.TrimSpace(in.Niche),
		FollowerCount: in.FollowerCount,
		Relationship:  models.RelationshipCold,
	}
	if inf.Name == "" || inf.Handle == "" {
		return models.Influencer{}, validationf("name and handle are required")
	}
	if inf.FollowerCount < 0 {
		return models.Influencer{}, validationf("follower_count cannot be negative")
	}
	if in.Relationship != "" {
		rel, err := models.ParseRelationship(in.Relationship)
		if err != nil {
			return models.Influencer{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		inf.Relationship = rel
	}
	out, err := s.store.CreateInfluencer(ctx, inf)
	if err != nil {
		return models.Influencer{}, fmt.Errorf("create influencer: %w", err)
	}
	return out, nil
}

func (s *InfluencerService) SetRelationship(ctx context.Context, id uint, relationship string) (models.Influencer, error) {
	rel, err := models.ParseRelationship(relationship)
	if err != nil {
		return models.Influencer{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	out, err := s.store.UpdateRelationship(ctx, id, rel)
	if err != nil {
		return models.Influencer{}, fmt.Errorf("update influencer %d: %w", id, err)
	}
	return out, nil
}

// LogInteraction stamps the influencer's last interaction with now.
func (s *InfluencerService) LogInteraction(ctx context.Context, id uint) (models.Influencer, error) {
	out, err := s.store.TouchInfluencer(ctx, id, s.now().UTC())
	if err != nil {
		return models.Influencer{}, fmt.Errorf("log interaction %d: %w", id, err)
	}
	return out, nil
}
