package services_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finsignal/internal/db/memdb"
	"finsignal/internal/logging"
	"finsignal/internal/models"
	"finsignal/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC) // Wednesday

type staticStrategy struct{ cfg models.StrategyConfig }

func (s staticStrategy) Current(context.Context) (models.StrategyConfig, error) { return s.cfg, nil }

type fakeScorer struct {
	mu     sync.Mutex
	scores []int
	calls  int
	err    error
}

func (f *fakeScorer) ScorePost(_ context.Context, _ string) (services.PostScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return services.PostScore{}, f.err
	}
	s := f.scores[min(f.calls, len(f.scores)-1)]
	f.calls++
	return services.PostScore{Overall: s, Suggestion: "add a number"}, nil
}

type fakeGenerator struct{ calls atomic.Int32 }

func (f *fakeGenerator) RegeneratePost(_ context.Context, _ uint) (services.Regenerated, error) {
	f.calls.Add(1)
	return services.Regenerated{Title: "Sharper take", Body: "<p>Regenerated body</p>"}, nil
}

type fakePublisher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (f *fakePublisher) send() (services.Published, error) {
	f.calls.Add(1)
	time.Sleep(f.delay)
	if f.err != nil {
		return services.Published{}, f.err
	}
	return services.Published{ExternalID: "urn:li:share:42"}, nil
}

func (f *fakePublisher) PublishPost(context.Context, models.Post) (services.Published, error) {
	return f.send()
}

func (f *fakePublisher) PublishComment(context.Context, models.Comment) (services.Published, error) {
	return f.send()
}

func (f *fakePublisher) SendConnection(context.Context, models.ConnectionRequest) (services.Published, error) {
	return f.send()
}

type harness struct {
	store     *memdb.Store
	scorer    *fakeScorer
	generator *fakeGenerator
	publisher *fakePublisher
	cfg       models.StrategyConfig
	now       time.Time
	lc        *services.Lifecycle
}

func newHarness(t *testing.T, scores ...int) *harness {
	t.Helper()
	if len(scores) == 0 {
		scores = []int{8}
	}
	h := &harness{
		store:     memdb.New(),
		scorer:    &fakeScorer{scores: scores},
		generator: &fakeGenerator{},
		publisher: &fakePublisher{},
		cfg:       models.DefaultStrategyConfig(),
		now:       testNow,
	}
	h.build()
	return h
}

func (h *harness) build() {
	h.lc = services.NewLifecycle(services.LifecycleDeps{
		Store:     h.store,
		Usage:     h.store,
		Strategy:  staticStrategy{h.cfg},
		Scorer:    h.scorer,
		Generator: h.generator,
		Publisher: h.publisher,
		Logger:    logging.Discard(),
		Lease:     time.Minute,
		Clock:     func() time.Time { return h.now },
	})
}

func (h *harness) draft() models.Post {
	return h.store.AddPost(models.Post{Title: "AML alert fatigue", Body: "Alert volumes are up 40%.", Topic: "AML"})
}

func TestPublishPostAccepted(t *testing.T) {
	h := newHarness(t, 8)
	p := h.draft()

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "posted", res.To)
	assert.False(t, res.Redirected)
	assert.Equal(t, services.QualityAccept, res.Quality.Outcome)
	assert.Equal(t, "urn:li:share:42", res.ExternalID)
	assert.EqualValues(t, 1, h.publisher.calls.Load())

	stored, err := h.store.GetPost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostPosted, stored.Status)
	require.NotNil(t, stored.PostedAt)
	require.NotNil(t, stored.QualityScore)
	assert.Equal(t, 8, *stored.QualityScore)
	assert.Nil(t, stored.PublishingAt)
	assert.Equal(t, res.Version, stored.Version)

	logs := h.store.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, "draft", logs[0].FromStatus)
	assert.Equal(t, "posted", logs[0].ToStatus)
}

func TestPublishPostRegeneratesOnce(t *testing.T) {
	h := newHarness(t, 5, 9)
	p := h.draft()

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "posted", res.To)
	assert.Equal(t, 2, res.Quality.Attempts)
	assert.EqualValues(t, 1, h.generator.calls.Load())

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Equal(t, "Regenerated body", stored.Body)
	assert.Equal(t, "Sharper take", stored.Title)
	assert.Equal(t, 1, stored.RegenerationCount)
}

func TestPublishPostArchivedAfterSecondLowScore(t *testing.T) {
	h := newHarness(t, 4, 5)
	p := h.draft()

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.NoError(t, err)
	assert.True(t, res.Redirected)
	assert.Equal(t, "archived", res.To)
	assert.Equal(t, "posted", res.Requested)
	assert.Equal(t, services.QualityArchive, res.Quality.Outcome)
	assert.EqualValues(t, 1, h.generator.calls.Load())
	assert.EqualValues(t, 0, h.publisher.calls.Load())

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Equal(t, models.PostArchived, stored.Status)
	assert.NotEmpty(t, stored.ArchivedReason)

	flags, _ := h.store.RecentFlags(context.Background(), 10)
	require.Len(t, flags, 1)
	assert.Equal(t, services.RuleQualityArchive, flags[0].Rule)
}

func TestPostCapDenialLeavesPostUntouched(t *testing.T) {
	h := newHarness(t, 3, 8)
	h.cfg.MaxPostsPerDay = 1
	h.build()
	published := testNow.Add(-time.Hour)
	h.store.AddPost(models.Post{Title: "Earlier", Body: "b", Status: models.PostPosted, PostedAt: &published})
	p := h.draft()

	_, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	var rl *services.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, services.RuleDailyPostCap, rl.Rule)

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Equal(t, p.Version, stored.Version)
	assert.Equal(t, p.Body, stored.Body)
	assert.Equal(t, p.Title, stored.Title)
	assert.Zero(t, stored.RegenerationCount)
	assert.Nil(t, stored.QualityScore)
	assert.EqualValues(t, 0, h.generator.calls.Load())
	assert.EqualValues(t, 0, h.publisher.calls.Load())

	// the original version still works once the cap allows it
	h.cfg.MaxPostsPerDay = 2
	h.scorer = &fakeScorer{scores: []int{3, 8}}
	h.build()
	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "posted", res.To)
	assert.EqualValues(t, 1, h.generator.calls.Load())
}

func TestAlreadyRegeneratedPostIsNotRegeneratedAgain(t *testing.T) {
	h := newHarness(t, 3)
	p := h.store.AddPost(models.Post{Title: "t", Body: "b", RegenerationCount: 1})

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "scheduled", Version: 1,
		ScheduledAt: "2025-03-12T20:00:00"})
	require.NoError(t, err)
	assert.Equal(t, "archived", res.To)
	assert.EqualValues(t, 0, h.generator.calls.Load())
}

func TestScheduledPostArchivedByGateOnPromotion(t *testing.T) {
	h := newHarness(t, 2)
	at := testNow.Add(-time.Minute)
	p := h.store.AddPost(models.Post{Title: "t", Body: "b", Status: models.PostScheduled, ScheduledAt: &at, RegenerationCount: 1})

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "scheduled", res.From)
	assert.Equal(t, "archived", res.To)

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Nil(t, stored.ScheduledAt)
}

func TestIllegalTransitionLeavesPostUnchanged(t *testing.T) {
	h := newHarness(t)
	posted := testNow.Add(-time.Hour)
	p := h.store.AddPost(models.Post{Title: "t", Body: "b", Status: models.PostPosted, PostedAt: &posted})

	_, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "scheduled", Version: p.Version,
		ScheduledAt: "2025-03-13T10:00:00"})
	assert.True(t, errors.Is(err, services.ErrStateConflict))

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Equal(t, p, stored)
	assert.Empty(t, h.store.Logs())
	assert.Zero(t, h.scorer.calls)
}

func TestStaleVersionConflicts(t *testing.T) {
	h := newHarness(t)
	p := h.draft()

	_, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "draft_saved", Version: p.Version + 1})
	assert.True(t, errors.Is(err, services.ErrStateConflict))

	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "saved", Version: p.Version})
	require.NoError(t, err)
	assert.Equal(t, "draft_saved", res.To)
}

func TestUnknownTargetAndMissingPost(t *testing.T) {
	h := newHarness(t)
	p := h.draft()

	_, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "published", Version: 1})
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: 999, Target: "posted", Version: 1})
	assert.True(t, errors.Is(err, services.ErrNotFound))
}

func TestTransportFailureKeepsDraft(t *testing.T) {
	h := newHarness(t, 9)
	h.publisher.err = errors.New("linkedin 503")
	p := h.draft()

	_, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: p.Version})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrTransport))

	stored, _ := h.store.GetPost(context.Background(), p.ID)
	assert.Equal(t, models.PostDraft, stored.Status)
	assert.Nil(t, stored.PublishingAt)
	assert.Nil(t, stored.PostedAt)

	h.publisher.err = nil
	res, err := h.lc.RequestPostTransition(context.Background(), services.TransitionRequest{ID: p.ID, Target: "posted", Version: stored.Version})
	require.NoError(t, err)
	assert.Equal(t, "posted", res.To)
}

func TestConcurrentApprovePublishesOnce(t *testing.T) {
	h := newHarness(t)
	h.publisher.delay = 20 * time.Millisecond
	c := h.store.AddComment(models.Comment{PostURL: "https://linkedin.com/p/1", InfluencerRef: "janedoe", CommentText: "Great data."})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = h.lc.RequestCommentTransition(context.Background(),
				services.TransitionRequest{ID: c.ID, Target: "posted", Version: c.Version})
		}()
	}
	close(start)
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, services.ErrStateConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.EqualValues(t, 1, h.publisher.calls.Load())

	stored, _ := h.store.GetComment(context.Background(), c.ID)
	assert.Equal(t, models.CommentPosted, stored.Status)
}

func addPostedComment(h *harness, handle string, at time.Time) {
	h.store.AddComment(models.Comment{
		PostURL: "https://linkedin.com/p/x", InfluencerRef: handle, CommentText: "x",
		Status: models.CommentPosted, PostedAt: &at,
	})
}

func TestCommentDailyCapDenied(t *testing.T) {
	h := newHarness(t)
	h.cfg.MaxCommentsPerDay = 5
	h.build()
	for i := 0; i < 5; i++ {
		addPostedComment(h, "other", testNow.Add(-time.Duration(i+1)*time.Minute))
	}
	c := h.store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "janedoe", CommentText: "t"})

	_, err := h.lc.RequestCommentTransition(context.Background(), services.TransitionRequest{ID: c.ID, Target: "posted", Version: c.Version})
	var rl *services.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, services.RuleDailyCommentCap, rl.Rule)
	assert.NotEmpty(t, rl.Reason)

	stored, _ := h.store.GetComment(context.Background(), c.ID)
	assert.Equal(t, c, stored)
	assert.EqualValues(t, 0, h.publisher.calls.Load())

	flags, _ := h.store.RecentFlags(context.Background(), 20)
	require.Len(t, flags, 1)
	assert.Equal(t, rl.Reason, flags[0].Reason)
}

func TestCommentCooldownThenAllowed(t *testing.T) {
	h := newHarness(t)
	addPostedComment(h, "@JaneDoe", testNow.Add(-10*time.Hour))
	c := h.store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "janedoe", CommentText: "t"})

	_, err := h.lc.RequestCommentTransition(context.Background(), services.TransitionRequest{ID: c.ID, Target: "posted", Version: c.Version})
	assert.True(t, errors.Is(err, services.ErrRateLimitExceeded))

	h.now = testNow.Add(39 * time.Hour) // 49h after the prior comment
	_, err = h.lc.RequestCommentTransition(context.Background(), services.TransitionRequest{ID: c.ID, Target: "posted", Version: c.Version})
	require.NoError(t, err)
}

func TestCommentScheduleAndCancel(t *testing.T) {
	h := newHarness(t)
	c := h.store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "janedoe", CommentText: "t"})
	ctx := context.Background()

	_, err := h.lc.RequestCommentTransition(ctx, services.TransitionRequest{ID: c.ID, Target: "scheduled", Version: 1})
	assert.True(t, errors.Is(err, services.ErrValidation))

	_, err = h.lc.RequestCommentTransition(ctx, services.TransitionRequest{ID: c.ID, Target: "scheduled", Version: 1, ScheduledAt: "2025-03-12T14:00:00"})
	assert.True(t, errors.Is(err, services.ErrValidation), "past time")

	res, err := h.lc.RequestCommentTransition(ctx, services.TransitionRequest{ID: c.ID, Target: "scheduled", Version: 1, ScheduledAt: "2025-03-12T18:00:00"})
	require.NoError(t, err)
	require.NotNil(t, res.ScheduledAt)

	res, err = h.lc.RequestCommentTransition(ctx, services.TransitionRequest{ID: c.ID, Target: "pending", Version: res.Version})
	require.NoError(t, err)

	stored, _ := h.store.GetComment(ctx, c.ID)
	assert.Equal(t, models.CommentPending, stored.Status)
	assert.Nil(t, stored.ScheduledAt)
	assert.Len(t, h.store.Logs(), 2)
}

func TestCommentLegacyTargetAccepted(t *testing.T) {
	h := newHarness(t)
	c := h.store.AddComment(models.Comment{PostURL: "u", InfluencerRef: "janedoe", CommentText: "t"})

	res, err := h.lc.RequestCommentTransition(context.Background(), services.TransitionRequest{ID: c.ID, Target: "approved", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, "posted", res.To)
}

func TestConnectionPacing(t *testing.T) {
	h := newHarness(t)
	h.cfg.ConnectionPacing = models.PacingSlow
	h.build()
	ctx := context.Background()

	var reqs []models.ConnectionRequest
	for i := 0; i < 3; i++ {
		reqs = append(reqs, h.store.AddConnection(models.ConnectionRequest{ProfileURL: "https://linkedin.com/in/" + string(rune('a'+i))}))
	}

	for _, r := range reqs[:2] {
		res, err := h.lc.RequestConnectionTransition(ctx, services.TransitionRequest{ID: r.ID, Target: "sent", Version: r.Version})
		require.NoError(t, err)
		assert.Equal(t, "sent", res.To)
	}

	_, err := h.lc.RequestConnectionTransition(ctx, services.TransitionRequest{ID: reqs[2].ID, Target: "sent", Version: 1})
	var rl *services.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, services.RuleConnectionPacing, rl.Rule)

	res, err := h.lc.RequestConnectionTransition(ctx, services.TransitionRequest{ID: reqs[2].ID, Target: "dismissed", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, "dismissed", res.To)
}

func TestTransitionTables(t *testing.T) {
	assert.Empty(t, services.PostTargets(models.PostPosted))
	assert.Empty(t, services.PostTargets(models.PostArchived))
	assert.Empty(t, services.CommentTargets(models.CommentIgnored))
	assert.ElementsMatch(t, []models.PostStatus{models.PostPosted, models.PostDraft}, services.PostTargets(models.PostScheduled))
	assert.ElementsMatch(t, []models.ConnectionStatus{models.ConnectionAccepted}, services.ConnectionTargets(models.ConnectionSent))
}
