package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"

	"gorm.io/gorm"
)

const strategyRowID = 1

// Store is the Postgres implementation of services.Store. Every status
// write is a single conditional UPDATE keyed on status and version, so a
// write that lost a race matches no row and reports ErrStateConflict.
type Store struct {
	db *gorm.DB
}

var _ services.Store = (*Store)(nil)

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, services.ErrNotFound)
	}
	return fmt.Errorf("load %s %d: %w", what, id, err)
}

func (s *Store) GetPost(ctx context.Context, id uint) (models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return models.Post{}, notFound(err, "post", id)
	}
	return p, nil
}

func (s *Store) GetComment(ctx context.Context, id uint) (models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return models.Comment{}, notFound(err, "comment", id)
	}
	return c, nil
}

func (s *Store) GetConnection(ctx context.Context, id uint) (models.ConnectionRequest, error) {
	var r models.ConnectionRequest
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		return models.ConnectionRequest{}, notFound(err, "connection", id)
	}
	return r, nil
}

func modelFor(kind models.EntityKind) (any, error) {
	switch kind {
	case models.KindPost:
		return &models.Post{}, nil
	case models.KindComment:
		return &models.Comment{}, nil
	case models.KindConnection:
		return &models.ConnectionRequest{}, nil
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}

func (s *Store) ApplyTransition(ctx context.Context, t services.Transition) (int, error) {
	model, err := modelFor(t.Kind)
	if err != nil {
		return 0, err
	}

	set := map[string]any{
		"status":        t.To,
		"version":       gorm.Expr("version + 1"),
		"publishing_at": nil,
		"updated_at":    t.Now,
	}
	if t.ScheduledAt != nil && t.Kind != models.KindConnection {
		set["scheduled_at"] = *t.ScheduledAt
	}
	if t.ClearSchedule && t.Kind != models.KindConnection {
		set["scheduled_at"] = nil
	}
	if t.PublishedAt != nil {
		if t.Kind == models.KindConnection {
			set["sent_at"] = *t.PublishedAt
		} else {
			set["posted_at"] = *t.PublishedAt
		}
		set["external_id"] = t.ExternalID
	}
	if t.ArchivedReason != "" && t.Kind == models.KindPost {
		set["archived_reason"] = t.ArchivedReason
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(model).Where("id = ? AND status = ? AND version = ?", t.ID, t.From, t.Version)
		if t.LeaseAt != nil {
			q = q.Where("publishing_at = ?", *t.LeaseAt)
		} else {
			q = q.Where("(publishing_at IS NULL OR publishing_at < ?)", t.Now.Add(-t.LeaseTTL))
		}
		res := q.Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrStateConflict
		}

		entry := models.TransitionLog{
			EntityKind: t.Kind,
			EntityID:   t.ID,
			FromStatus: t.From,
			ToStatus:   t.To,
			Reason:     t.Reason,
			CreatedAt:  t.Now,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return 0, err
	}
	return t.Version + 1, nil
}

func (s *Store) Claim(ctx context.Context, c services.Claim) (int, error) {
	model, err := modelFor(c.Kind)
	if err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ? AND version = ?", c.ID, c.From, c.Version).
		Where("(publishing_at IS NULL OR publishing_at < ?)", c.At.Add(-c.Expiry)).
		Updates(map[string]any{
			"publishing_at": c.At,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("claim %s %d: %w", c.Kind, c.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, services.ErrStateConflict
	}
	return c.Version + 1, nil
}

func (s *Store) Release(ctx context.Context, kind models.EntityKind, id uint, version int) error {
	model, err := modelFor(kind)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(model).
		Where("id = ? AND version = ? AND publishing_at IS NOT NULL", id, version).
		Updates(map[string]any{
			"publishing_at": nil,
			"version":       version - 1,
		})
	if res.Error != nil {
		return fmt.Errorf("release %s %d: %w", kind, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrStateConflict
	}
	return nil
}

func (s *Store) SaveQuality(ctx context.Context, u services.QualityUpdate) (int, error) {
	set := map[string]any{
		"quality_score":      u.Score,
		"regeneration_count": u.RegenerationCount,
		"version":            gorm.Expr("version + 1"),
	}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Body != nil {
		set["body"] = *u.Body
	}
	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(set)
	if res.Error != nil {
		return 0, fmt.Errorf("save quality %d: %w", u.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, services.ErrStateConflict
	}
	return u.Version + 1, nil
}

func (s *Store) AppendFlag(ctx context.Context, f models.FlaggedItem) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		return fmt.Errorf("append flag: %w", err)
	}
	return nil
}

func (s *Store) RecentFlags(ctx context.Context, limit int) ([]models.FlaggedItem, error) {
	var out []models.FlaggedItem
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recent flags: %w", err)
	}
	return out, nil
}

// TransitionLogs returns the audit trail of one entity, oldest first.
func (s *Store) TransitionLogs(ctx context.Context, kind models.EntityKind, id uint) ([]models.TransitionLog, error) {
	var out []models.TransitionLog
	err := s.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, id).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("transition logs: %w", err)
	}
	return out, nil
}

// FlagsSince returns the flags recorded for one entity at or after since.
func (s *Store) FlagsSince(ctx context.Context, kind models.EntityKind, id uint, since time.Time) ([]models.FlaggedItem, error) {
	var out []models.FlaggedItem
	err := s.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ? AND created_at >= ?", kind, id, since).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("flags for %s %d: %w", kind, id, err)
	}
	return out, nil
}
