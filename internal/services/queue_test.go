package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finsignal/internal/db/memdb"
	"finsignal/internal/models"
	"finsignal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueEditPost(t *testing.T) {
	store := memdb.New()
	q := services.NewQueueService(store, time.Minute, func() time.Time { return testNow })
	ctx := context.Background()
	score := 4
	p := store.AddPost(models.Post{Title: "t", Body: "old", QualityScore: &score})

	out, err := q.EditPost(ctx, p.ID, p.Version, "", "<b>New</b> body")
	require.NoError(t, err)
	assert.Equal(t, "New body", out.Body)
	assert.Equal(t, "t", out.Title)
	assert.Nil(t, out.QualityScore)
	assert.Equal(t, p.Version+1, out.Version)

	_, err = q.EditPost(ctx, p.ID, p.Version, "", "again")
	assert.True(t, errors.Is(err, services.ErrStateConflict), "stale version")

	_, err = q.EditPost(ctx, p.ID, out.Version, "", "  ")
	assert.True(t, errors.Is(err, services.ErrValidation))

	posted := store.AddPost(models.Post{Title: "t", Body: "b", Status: models.PostPosted})
	_, err = q.EditPost(ctx, posted.ID, posted.Version, "", "changed")
	assert.True(t, errors.Is(err, services.ErrStateConflict))
}

func TestQueueDeletePost(t *testing.T) {
	store := memdb.New()
	q := services.NewQueueService(store, time.Minute, func() time.Time { return testNow })
	ctx := context.Background()
	p := store.AddPost(models.Post{Title: "t", Body: "b"})

	assert.True(t, errors.Is(q.DeletePost(ctx, p.ID, p.Version+1), services.ErrStateConflict), "stale version")
	require.NoError(t, q.DeletePost(ctx, p.ID, p.Version))
	_, err := store.GetPost(ctx, p.ID)
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.True(t, errors.Is(q.DeletePost(ctx, p.ID, p.Version), services.ErrNotFound))

	logs := store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "deleted", logs[0].ToStatus)

	posted := store.AddPost(models.Post{Title: "t", Body: "b", Status: models.PostPosted})
	assert.True(t, errors.Is(q.DeletePost(ctx, posted.ID, posted.Version), services.ErrStateConflict))

	lease := testNow.Add(-30 * time.Second)
	leased := store.AddPost(models.Post{Title: "t", Body: "b", PublishingAt: &lease})
	assert.True(t, errors.Is(q.DeletePost(ctx, leased.ID, leased.Version), services.ErrStateConflict), "lease still held")

	stale := testNow.Add(-2 * time.Minute)
	abandoned := store.AddPost(models.Post{Title: "t", Body: "b", PublishingAt: &stale})
	assert.NoError(t, q.DeletePost(ctx, abandoned.ID, abandoned.Version))
}

func TestQueueListPosts(t *testing.T) {
	store := memdb.New()
	q := services.NewQueueService(store, time.Minute, nil)
	ctx := context.Background()
	store.AddPost(models.Post{Title: "a", Body: "b"})
	store.AddPost(models.Post{Title: "b", Body: "b", Status: models.PostArchived})
	store.AddPost(models.Post{Title: "c", Body: "b", Status: models.PostDraftSaved})

	all, err := q.ListPosts(ctx, nil, false, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	withArchived, err := q.ListPosts(ctx, nil, true, "", 0)
	require.NoError(t, err)
	assert.Len(t, withArchived, 3)

	saved, err := q.ListPosts(ctx, []string{"saved"}, false, "", 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "c", saved[0].Title)

	_, err = q.ListPosts(ctx, []string{"bogus"}, false, "", 0)
	assert.True(t, errors.Is(err, services.ErrValidation))
}

func TestQueuePreview(t *testing.T) {
	store := memdb.New()
	q := services.NewQueueService(store, time.Minute, nil)
	p := store.AddPost(models.Post{Title: "t", Body: strings.Repeat("x", 3001)})

	preview, err := q.Preview(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, preview.OverLimit)
	assert.Equal(t, models.PostBodySoftLimit, preview.CharLimit)

	_, err = q.Preview(context.Background(), 404)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestQueueEditComment(t *testing.T) {
	store := memdb.New()
	q := services.NewQueueService(store, time.Minute, nil)
	c := store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "x", CommentText: "old"})

	out, err := q.EditComment(context.Background(), c.ID, c.Version, "Sharp point on typologies.")
	require.NoError(t, err)
	assert.Equal(t, "Sharp point on typologies.", out.CommentText)

	ignored := store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "x", CommentText: "t", Status: models.CommentIgnored})
	_, err = q.EditComment(context.Background(), ignored.ID, ignored.Version, "nope")
	assert.True(t, errors.Is(err, services.ErrStateConflict))
}

func TestInfluencers(t *testing.T) {
	store := memdb.New()
	s := services.NewInfluencerService(store, func() time.Time { return testNow })
	ctx := context.Background()

	inf, err := s.Create(ctx, services.InfluencerInput{Name: "Jane Doe", Handle: "@JaneDoe", Niche: "AML", FollowerCount: 12000})
	require.NoError(t, err)
	assert.Equal(t, "janedoe", inf.Handle)
	assert.Equal(t, models.RelationshipCold, inf.Relationship)

	_, err = s.Create(ctx, services.InfluencerInput{Name: "Dup", Handle: "janedoe"})
	assert.True(t, errors.Is(err, services.ErrStateConflict))

	_, err = s.Create(ctx, services.InfluencerInput{Name: "x", Handle: "y", Relationship: "bestie"})
	assert.True(t, errors.Is(err, services.ErrValidation))

	inf, err = s.SetRelationship(ctx, inf.ID, "warm")
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipWarm, inf.Relationship)

	inf, err = s.LogInteraction(ctx, inf.ID)
	require.NoError(t, err)
	require.NotNil(t, inf.LastInteractionAt)
	assert.True(t, testNow.Equal(*inf.LastInteractionAt))

	list, err := s.List(ctx, "jane", "aml", "Warm", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.SetRelationship(ctx, 999, "Cold")
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
