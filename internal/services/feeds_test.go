package services_test

import (
	"context"
	"errors"
	"testing"

	"finsignal/internal/db/memdb"
	"finsignal/internal/models"
	"finsignal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedLifecycle(t *testing.T) {
	s := services.NewFeedService(memdb.New())
	ctx := context.Background()
	off := false

	feed, err := s.Create(ctx, services.FeedInput{Name: "  FATF ", URL: " https://www.fatf-gafi.org/rss ", Category: "AML"})
	require.NoError(t, err)
	assert.Equal(t, "FATF", feed.Name)
	assert.Equal(t, "https://www.fatf-gafi.org/rss", feed.URL)
	assert.Equal(t, models.FeedRSS, feed.FeedType)
	assert.Equal(t, models.FeedStandard, feed.Priority)
	assert.True(t, feed.Active)

	blog, err := s.Create(ctx, services.FeedInput{Name: "Blog", URL: "http://example.com/blog", FeedType: "BLOG", Priority: "priority", Active: &off})
	require.NoError(t, err)
	assert.False(t, blog.Active)

	for _, bad := range []services.FeedInput{
		{Name: " ", URL: "https://a.example/rss"},
		{Name: "x", URL: "not a url"},
		{Name: "x", URL: "https:///rss"},
		{Name: "x", URL: "https://a.example/rss", FeedType: "podcast"},
		{Name: "x", URL: "https://a.example/rss", Priority: "urgent"},
	} {
		_, err := s.Create(ctx, bad)
		assert.True(t, errors.Is(err, services.ErrValidation), "%+v", bad)
	}

	_, err = s.Create(ctx, services.FeedInput{Name: "dup", URL: "https://www.fatf-gafi.org/rss"})
	assert.True(t, errors.Is(err, services.ErrStateConflict))

	_, err = s.Update(ctx, blog.ID, services.FeedInput{Name: "Blog", URL: "https://www.fatf-gafi.org/rss"})
	assert.True(t, errors.Is(err, services.ErrStateConflict), "url taken by another feed")

	blog, err = s.Update(ctx, blog.ID, services.FeedInput{Name: "Blog", URL: "http://example.com/blog", Priority: "priority"})
	require.NoError(t, err)
	assert.True(t, blog.Active)

	priority, err := s.List(ctx, "priority", false)
	require.NoError(t, err)
	require.Len(t, priority, 1)
	assert.Equal(t, blog.ID, priority[0].ID)

	_, err = s.List(ctx, "urgent", false)
	assert.True(t, errors.Is(err, services.ErrValidation))

	feed, err = s.SetActive(ctx, feed.ID, false)
	require.NoError(t, err)
	assert.False(t, feed.Active)

	active, err := s.List(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Blog", active[0].Name)

	require.NoError(t, s.Delete(ctx, feed.ID))
	assert.True(t, errors.Is(s.Delete(ctx, feed.ID), services.ErrNotFound))
	_, err = s.SetActive(ctx, feed.ID, true)
	assert.True(t, errors.Is(err, services.ErrNotFound))
}
