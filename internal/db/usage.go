package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"
	"finsignal/internal/utils"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// normalised influencer handle, matching models.NormalizeHandle
const handleExpr = "lower(ltrim(trim(influencer_ref), '@'))"

func (s *Store) runner() (*sql.DB, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql handle: %w", err)
	}
	return sqlDB, nil
}

func windows(now time.Time) (day, week time.Time) {
	return utils.StartOfDisplayDay(now).UTC(), now.Add(-7 * 24 * time.Hour).UTC()
}

// LoadUsage derives compliance counters from posted history.
func (s *Store) LoadUsage(ctx context.Context, q services.UsageQuery) (services.Usage, error) {
	sqlDB, err := s.runner()
	if err != nil {
		return services.Usage{}, err
	}
	day, week := windows(q.Now)
	var u services.Usage

	switch q.Kind {
	case models.KindComment:
		handle := models.NormalizeHandle(q.InfluencerRef)
		var last sql.NullTime
		err = psql.Select().
			Column(sq.Expr("COUNT(*) FILTER (WHERE posted_at >= ?)", day)).
			Column(sq.Expr("COUNT(*) FILTER (WHERE "+handleExpr+" = ? AND posted_at >= ?)", handle, week)).
			Column(sq.Expr("MAX(posted_at) FILTER (WHERE "+handleExpr+" = ?)", handle)).
			From("comments").
			Where(sq.Eq{"status": string(models.CommentPosted)}).
			Where(sq.NotEq{"posted_at": nil}).
			RunWith(sqlDB).
			QueryRowContext(ctx).
			Scan(&u.CommentsToday, &u.InfluencerCommentsThisWeek, &last)
		if err != nil {
			return services.Usage{}, fmt.Errorf("comment usage: %w", err)
		}
		if last.Valid {
			at := last.Time.UTC()
			u.LastInfluencerComment = &at
		}
	case models.KindPost:
		err = psql.Select().
			Column(sq.Expr("COUNT(*) FILTER (WHERE posted_at >= ?)", day)).
			Column(sq.Expr("COUNT(*) FILTER (WHERE posted_at >= ?)", week)).
			From("posts").
			Where(sq.Eq{"status": string(models.PostPosted)}).
			RunWith(sqlDB).
			QueryRowContext(ctx).
			Scan(&u.PostsToday, &u.PostsThisWeek)
		if err != nil {
			return services.Usage{}, fmt.Errorf("post usage: %w", err)
		}
	case models.KindConnection:
		err = psql.Select("COUNT(*)").
			From("connection_requests").
			Where(sq.GtOrEq{"sent_at": day}).
			RunWith(sqlDB).
			QueryRowContext(ctx).
			Scan(&u.ConnectionsSentToday)
		if err != nil {
			return services.Usage{}, fmt.Errorf("connection usage: %w", err)
		}
	default:
		return services.Usage{}, fmt.Errorf("unknown entity kind %q", q.Kind)
	}
	return u, nil
}

// HealthCounts aggregates the strategy health view.
func (s *Store) HealthCounts(ctx context.Context, now time.Time) (services.HealthCounts, error) {
	sqlDB, err := s.runner()
	if err != nil {
		return services.HealthCounts{}, err
	}
	day, week := windows(now)
	h := services.HealthCounts{TopicDistribution: map[string]int{}}

	err = psql.Select().
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = ? AND posted_at >= ?)", string(models.CommentPosted), day)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?)", string(models.CommentPending))).
		From("comments").
		RunWith(sqlDB).
		QueryRowContext(ctx).
		Scan(&h.CommentsToday, &h.PendingComments)
	if err != nil {
		return services.HealthCounts{}, fmt.Errorf("comment counts: %w", err)
	}

	err = psql.Select("COUNT(*)").
		From("posts").
		Where(sq.Eq{"status": []string{string(models.PostDraft), string(models.PostDraftSaved)}}).
		RunWith(sqlDB).
		QueryRowContext(ctx).
		Scan(&h.DraftCount)
	if err != nil {
		return services.HealthCounts{}, fmt.Errorf("draft count: %w", err)
	}

	err = psql.Select("COUNT(*)").
		From("flagged_items").
		Where(sq.Eq{"rule": services.RuleQualityArchive}).
		Where(sq.GtOrEq{"created_at": week}).
		RunWith(sqlDB).
		QueryRowContext(ctx).
		Scan(&h.ArchivedThisWeek)
	if err != nil {
		return services.HealthCounts{}, fmt.Errorf("archived count: %w", err)
	}

	err = psql.Select("COUNT(*)").
		From("influencers").
		Where(sq.Eq{"relationship": string(models.RelationshipWarm)}).
		RunWith(sqlDB).
		QueryRowContext(ctx).
		Scan(&h.WarmInfluencers)
	if err != nil {
		return services.HealthCounts{}, fmt.Errorf("warm influencers: %w", err)
	}

	rows, err := psql.Select("COALESCE(topic, '')", "COUNT(*)").
		From("posts").
		Where(sq.Eq{"status": string(models.PostPosted)}).
		Where(sq.GtOrEq{"posted_at": week}).
		GroupBy("topic").
		RunWith(sqlDB).
		QueryContext(ctx)
	if err != nil {
		return services.HealthCounts{}, fmt.Errorf("topic distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			topic string
			n     int
		)
		if err := rows.Scan(&topic, &n); err != nil {
			return services.HealthCounts{}, fmt.Errorf("scan topic distribution: %w", err)
		}
		h.TopicDistribution[topic] += n
		h.PostsThisWeek += n
	}
	if err := rows.Err(); err != nil {
		return services.HealthCounts{}, fmt.Errorf("topic distribution rows: %w", err)
	}
	return h, nil
}
