// Package memdb is an in-memory services.Store used by tests and local
// experiments. It honours the same conditional-write contract as the
// Postgres store.
package memdb

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/services"
	"finsignal/internal/utils"
)

type Store struct {
	mu          sync.Mutex
	nextID      uint
	posts       map[uint]*models.Post
	comments    map[uint]*models.Comment
	connections map[uint]*models.ConnectionRequest
	influencers map[uint]*models.Influencer
	topics      map[uint]*models.Topic
	feeds       map[uint]*models.Feed
	strategy    *models.StrategyConfig
	logs        []models.TransitionLog
	flags       []models.FlaggedItem
}

var _ services.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		posts:       map[uint]*models.Post{},
		comments:    map[uint]*models.Comment{},
		connections: map[uint]*models.ConnectionRequest{},
		influencers: map[uint]*models.Influencer{},
		topics:      map[uint]*models.Topic{},
		feeds:       map[uint]*models.Feed{},
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AddPost inserts p as-is, assigning an ID and version 1 when unset.
func (s *Store) AddPost(p models.Post) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.Version == 0 {
		p.Version = 1
	}
	if p.Status == "" {
		p.Status = models.PostDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	s.posts[p.ID] = &p
	return p
}

func (s *Store) AddComment(c models.Comment) models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = models.CommentPending
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	s.comments[c.ID] = &c
	return c
}

func (s *Store) AddConnection(r models.ConnectionRequest) models.ConnectionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	if r.Version == 0 {
		r.Version = 1
	}
	if r.Status == "" {
		r.Status = models.ConnectionPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.connections[r.ID] = &r
	return r
}

// Logs returns the transition audit in insertion order.
func (s *Store) Logs() []models.TransitionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.logs)
}

func (s *Store) GetPost(_ context.Context, id uint) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, fmt.Errorf("post %d: %w", id, services.ErrNotFound)
	}
	return *p, nil
}

func (s *Store) GetComment(_ context.Context, id uint) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("comment %d: %w", id, services.ErrNotFound)
	}
	return *c, nil
}

func (s *Store) GetConnection(_ context.Context, id uint) (models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.connections[id]
	if !ok {
		return models.ConnectionRequest{}, fmt.Errorf("connection %d: %w", id, services.ErrNotFound)
	}
	return *r, nil
}

// row exposes the fields every governed entity shares.
type row struct {
	status    string
	version   *int
	lease     **time.Time
	setStatus func(string)
	touch     func(time.Time)
}

func (s *Store) row(kind models.EntityKind, id uint) (row, error) {
	switch kind {
	case models.KindPost:
		if p, ok := s.posts[id]; ok {
			return row{string(p.Status), &p.Version, &p.PublishingAt,
				func(v string) { p.Status = models.PostStatus(v) },
				func(t time.Time) { p.UpdatedAt = t }}, nil
		}
	case models.KindComment:
		if c, ok := s.comments[id]; ok {
			return row{string(c.Status), &c.Version, &c.PublishingAt,
				func(v string) { c.Status = models.CommentStatus(v) },
				func(t time.Time) { c.UpdatedAt = t }}, nil
		}
	case models.KindConnection:
		if r, ok := s.connections[id]; ok {
			return row{string(r.Status), &r.Version, &r.PublishingAt,
				func(v string) { r.Status = models.ConnectionStatus(v) },
				func(t time.Time) { r.UpdatedAt = t }}, nil
		}
	}
	return row{}, fmt.Errorf("%s %d: %w", kind, id, services.ErrNotFound)
}

func (s *Store) ApplyTransition(_ context.Context, t services.Transition) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.row(t.Kind, t.ID)
	if err != nil {
		return 0, err
	}
	if r.status != t.From || *r.version != t.Version {
		return 0, services.ErrStateConflict
	}
	if t.LeaseAt != nil {
		if *r.lease == nil || !(*r.lease).Equal(*t.LeaseAt) {
			return 0, services.ErrStateConflict
		}
	} else if *r.lease != nil && t.Now.Sub(**r.lease) < t.LeaseTTL {
		return 0, services.ErrStateConflict
	}

	r.setStatus(t.To)
	*r.version++
	*r.lease = nil
	r.touch(t.Now)

	switch t.Kind {
	case models.KindPost:
		p := s.posts[t.ID]
		if t.ScheduledAt != nil {
			at := *t.ScheduledAt
			p.ScheduledAt = &at
		}
		if t.ClearSchedule {
			p.ScheduledAt = nil
		}
		if t.PublishedAt != nil {
			at := *t.PublishedAt
			p.PostedAt = &at
			p.ExternalID = t.ExternalID
		}
		if t.ArchivedReason != "" {
			p.ArchivedReason = t.ArchivedReason
		}
	case models.KindComment:
		c := s.comments[t.ID]
		if t.ScheduledAt != nil {
			at := *t.ScheduledAt
			c.ScheduledAt = &at
		}
		if t.ClearSchedule {
			c.ScheduledAt = nil
		}
		if t.PublishedAt != nil {
			at := *t.PublishedAt
			c.PostedAt = &at
			c.ExternalID = t.ExternalID
		}
	case models.KindConnection:
		c := s.connections[t.ID]
		if t.PublishedAt != nil {
			at := *t.PublishedAt
			c.SentAt = &at
			c.ExternalID = t.ExternalID
		}
	}

	s.logs = append(s.logs, models.TransitionLog{
		ID:         uint(len(s.logs) + 1),
		EntityKind: t.Kind,
		EntityID:   t.ID,
		FromStatus: t.From,
		ToStatus:   t.To,
		Reason:     t.Reason,
		CreatedAt:  t.Now,
	})
	return *r.version, nil
}

func (s *Store) Claim(_ context.Context, c services.Claim) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.row(c.Kind, c.ID)
	if err != nil {
		return 0, err
	}
	if r.status != c.From || *r.version != c.Version {
		return 0, services.ErrStateConflict
	}
	if *r.lease != nil && c.At.Sub(**r.lease) < c.Expiry {
		return 0, services.ErrStateConflict
	}
	at := c.At
	*r.lease = &at
	*r.version++
	return *r.version, nil
}

func (s *Store) Release(_ context.Context, kind models.EntityKind, id uint, version int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.row(kind, id)
	if err != nil {
		return err
	}
	if *r.version != version || *r.lease == nil {
		return services.ErrStateConflict
	}
	*r.lease = nil
	*r.version = version - 1
	return nil
}

func (s *Store) SaveQuality(_ context.Context, u services.QualityUpdate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[u.ID]
	if !ok {
		return 0, fmt.Errorf("post %d: %w", u.ID, services.ErrNotFound)
	}
	if p.Version != u.Version {
		return 0, services.ErrStateConflict
	}
	score := u.Score
	p.QualityScore = &score
	p.RegenerationCount = u.RegenerationCount
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Body != nil {
		p.Body = *u.Body
	}
	p.Version++
	return p.Version, nil
}

func (s *Store) AppendFlag(_ context.Context, f models.FlaggedItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = uint(len(s.flags) + 1)
	s.flags = append(s.flags, f)
	return nil
}

func (s *Store) RecentFlags(_ context.Context, limit int) ([]models.FlaggedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FlaggedItem, 0, len(s.flags))
	for i := len(s.flags) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, s.flags[i])
	}
	return out, nil
}

func (s *Store) FlagsSince(_ context.Context, kind models.EntityKind, id uint, since time.Time) ([]models.FlaggedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FlaggedItem
	for _, f := range s.flags {
		if f.EntityKind == kind && f.EntityID == id && !f.CreatedAt.Before(since) {
			out = append(out, f)
		}
	}
	return out, nil
}

func onOrAfter(t *time.Time, start time.Time) bool {
	return t != nil && !t.Before(start)
}

func (s *Store) LoadUsage(_ context.Context, q services.UsageQuery) (services.Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayStart := utils.StartOfDisplayDay(q.Now)
	weekStart := q.Now.Add(-7 * 24 * time.Hour)
	handle := models.NormalizeHandle(q.InfluencerRef)

	var u services.Usage
	for _, c := range s.comments {
		if c.Status != models.CommentPosted || c.PostedAt == nil {
			continue
		}
		if onOrAfter(c.PostedAt, dayStart) {
			u.CommentsToday++
		}
		if handle == "" || models.NormalizeHandle(c.InfluencerRef) != handle {
			continue
		}
		if onOrAfter(c.PostedAt, weekStart) {
			u.InfluencerCommentsThisWeek++
		}
		if u.LastInfluencerComment == nil || c.PostedAt.After(*u.LastInfluencerComment) {
			at := *c.PostedAt
			u.LastInfluencerComment = &at
		}
	}
	for _, p := range s.posts {
		if p.Status != models.PostPosted {
			continue
		}
		if onOrAfter(p.PostedAt, dayStart) {
			u.PostsToday++
		}
		if onOrAfter(p.PostedAt, weekStart) {
			u.PostsThisWeek++
		}
	}
	for _, r := range s.connections {
		if onOrAfter(r.SentAt, dayStart) {
			u.ConnectionsSentToday++
		}
	}
	return u, nil
}

func (s *Store) ListPosts(_ context.Context, f services.PostFilter) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		switch {
		case len(f.Statuses) > 0 && !slices.Contains(f.Statuses, p.Status):
			continue
		case len(f.Statuses) == 0 && !f.IncludeArchived && p.Status == models.PostArchived:
			continue
		case f.Topic != "" && !strings.EqualFold(f.Topic, p.Topic):
			continue
		}
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b models.Post) int { return cmp.Compare(b.ID, a.ID) })
	return limit(out, f.Limit), nil
}

func (s *Store) ListComments(_ context.Context, f services.CommentFilter) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.comments {
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, c.Status) {
			continue
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b models.Comment) int { return cmp.Compare(b.ID, a.ID) })
	return limit(out, f.Limit), nil
}

func (s *Store) ListConnections(_ context.Context, status models.ConnectionStatus) ([]models.ConnectionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.ConnectionRequest{}
	for _, r := range s.connections {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	slices.SortFunc(out, func(a, b models.ConnectionRequest) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (s *Store) EditPost(_ context.Context, id uint, version int, title, body string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, fmt.Errorf("post %d: %w", id, services.ErrNotFound)
	}
	if p.Version != version ||
		(p.Status != models.PostDraft && p.Status != models.PostDraftSaved) {
		return models.Post{}, services.ErrStateConflict
	}
	p.Title = title
	p.Body = body
	p.QualityScore = nil
	p.Version++
	p.UpdatedAt = time.Now().UTC()
	return *p, nil
}

func (s *Store) EditComment(_ context.Context, id uint, version int, text string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, fmt.Errorf("comment %d: %w", id, services.ErrNotFound)
	}
	if c.Version != version ||
		(c.Status != models.CommentPending && c.Status != models.CommentSaved) {
		return models.Comment{}, services.ErrStateConflict
	}
	c.CommentText = text
	c.Version++
	c.UpdatedAt = time.Now().UTC()
	return *c, nil
}

func (s *Store) DeletePost(_ context.Context, id uint, version int, leaseCutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("post %d: %w", id, services.ErrNotFound)
	}
	if p.Version != version || p.Status == models.PostPosted ||
		(p.PublishingAt != nil && !p.PublishingAt.Before(leaseCutoff)) {
		return services.ErrStateConflict
	}
	delete(s.posts, id)
	s.logs = append(s.logs, models.TransitionLog{
		ID:         uint(len(s.logs) + 1),
		EntityKind: models.KindPost,
		EntityID:   id,
		FromStatus: string(p.Status),
		ToStatus:   "deleted",
		Reason:     "deleted by operator",
		CreatedAt:  time.Now().UTC(),
	})
	return nil
}

func (s *Store) DuePosts(_ context.Context, now time.Time) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.posts {
		if p.Status == models.PostScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b models.Post) int { return a.ScheduledAt.Compare(*b.ScheduledAt) })
	return out, nil
}

func (s *Store) DueComments(_ context.Context, now time.Time) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range s.comments {
		if c.Status == models.CommentScheduled && c.ScheduledAt != nil && !c.ScheduledAt.After(now) {
			out = append(out, *c)
		}
	}
	slices.SortFunc(out, func(a, b models.Comment) int { return a.ScheduledAt.Compare(*b.ScheduledAt) })
	return out, nil
}

func (s *Store) LoadStrategy(_ context.Context) (models.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.strategy == nil {
		return models.StrategyConfig{}, fmt.Errorf("strategy: %w", services.ErrNotFound)
	}
	return *s.strategy, nil
}

func (s *Store) SaveStrategy(_ context.Context, cfg models.StrategyConfig) (models.StrategyConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.ID = 1
	cfg.UpdatedAt = time.Now().UTC()
	s.strategy = &cfg
	return cfg, nil
}

func (s *Store) sortedTopics() []models.Topic {
	out := make([]models.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b models.Topic) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) ListTopics(_ context.Context) ([]models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedTopics(), nil
}

func (s *Store) ReplaceTopics(_ context.Context, topics []models.Topic) ([]models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTag := map[string]*models.Topic{}
	for _, t := range s.topics {
		byTag[strings.ToLower(t.Tag)] = t
	}
	next := map[uint]*models.Topic{}
	for _, t := range topics {
		if old, ok := byTag[strings.ToLower(t.Tag)]; ok {
			t.ID = old.ID
			t.CreatedAt = old.CreatedAt
		} else {
			t.ID = s.id()
			t.CreatedAt = time.Now().UTC()
		}
		t.UpdatedAt = time.Now().UTC()
		next[t.ID] = &t
	}
	s.topics = next
	return s.sortedTopics(), nil
}

func (s *Store) SetTopicWeights(_ context.Context, weights []utils.TopicWeight) ([]models.Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byTag := map[string]*models.Topic{}
	for _, t := range s.topics {
		byTag[strings.ToLower(t.Tag)] = t
	}
	for _, w := range weights {
		if _, ok := byTag[strings.ToLower(w.Tag)]; !ok {
			return nil, fmt.Errorf("topic %q: %w", w.Tag, services.ErrNotFound)
		}
	}
	for _, w := range weights {
		byTag[strings.ToLower(w.Tag)].Weight = w.Weight
	}
	return s.sortedTopics(), nil
}

func (s *Store) ListInfluencers(_ context.Context, f services.InfluencerFilter) ([]models.Influencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(f.Search))
	out := []models.Influencer{}
	for _, inf := range s.influencers {
		if q != "" && !strings.Contains(strings.ToLower(inf.Name), q) && !strings.Contains(inf.Handle, q) {
			continue
		}
		if f.Niche != "" && !strings.EqualFold(f.Niche, inf.Niche) {
			continue
		}
		if f.Relationship != "" && f.Relationship != inf.Relationship {
			continue
		}
		out = append(out, *inf)
	}
	slices.SortFunc(out, func(a, b models.Influencer) int { return cmp.Compare(b.FollowerCount, a.FollowerCount) })
	return limit(out, f.Limit), nil
}

func (s *Store) CreateInfluencer(_ context.Context, inf models.Influencer) (models.Influencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.influencers {
		if existing.Handle == inf.Handle {
			return models.Influencer{}, fmt.Errorf("influencer @%s already exists: %w", inf.Handle, services.ErrStateConflict)
		}
	}
	inf.ID = s.id()
	inf.CreatedAt = time.Now().UTC()
	inf.UpdatedAt = inf.CreatedAt
	s.influencers[inf.ID] = &inf
	return inf, nil
}

func (s *Store) UpdateRelationship(_ context.Context, id uint, rel models.Relationship) (models.Influencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inf, ok := s.influencers[id]
	if !ok {
		return models.Influencer{}, fmt.Errorf("influencer %d: %w", id, services.ErrNotFound)
	}
	inf.Relationship = rel
	inf.UpdatedAt = time.Now().UTC()
	return *inf, nil
}

func (s *Store) TouchInfluencer(_ context.Context, id uint, at time.Time) (models.Influencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inf, ok := s.influencers[id]
	if !ok {
		return models.Influencer{}, fmt.Errorf("influencer %d: %w", id, services.ErrNotFound)
	}
	inf.LastInteractionAt = &at
	inf.UpdatedAt = time.Now().UTC()
	return *inf, nil
}

func (s *Store) ListFeeds(_ context.Context, f services.FeedFilter) ([]models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Feed{}
	for _, feed := range s.feeds {
		if f.Priority != "" && feed.Priority != f.Priority {
			continue
		}
		if f.ActiveOnly && !feed.Active {
			continue
		}
		out = append(out, *feed)
	}
	slices.SortFunc(out, func(a, b models.Feed) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) feedURLTaken(url string, except uint) bool {
	for _, existing := range s.feeds {
		if existing.ID != except && existing.URL == url {
			return true
		}
	}
	return false
}

func (s *Store) CreateFeed(_ context.Context, feed models.Feed) (models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.feedURLTaken(feed.URL, 0) {
		return models.Feed{}, fmt.Errorf("feed %s already exists: %w", feed.URL, services.ErrStateConflict)
	}
	feed.ID = s.id()
	feed.CreatedAt = time.Now().UTC()
	feed.UpdatedAt = feed.CreatedAt
	s.feeds[feed.ID] = &feed
	return feed, nil
}

func (s *Store) UpdateFeed(_ context.Context, feed models.Feed) (models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.feeds[feed.ID]
	if !ok {
		return models.Feed{}, fmt.Errorf("feed %d: %w", feed.ID, services.ErrNotFound)
	}
	if s.feedURLTaken(feed.URL, feed.ID) {
		return models.Feed{}, fmt.Errorf("feed %s already exists: %w", feed.URL, services.ErrStateConflict)
	}
	feed.CreatedAt = existing.CreatedAt
	feed.UpdatedAt = time.Now().UTC()
	*existing = feed
	return feed, nil
}

func (s *Store) SetFeedActive(_ context.Context, id uint, active bool) (models.Feed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[id]
	if !ok {
		return models.Feed{}, fmt.Errorf("feed %d: %w", id, services.ErrNotFound)
	}
	feed.Active = active
	feed.UpdatedAt = time.Now().UTC()
	return *feed, nil
}

func (s *Store) DeleteFeed(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeds[id]; !ok {
		return fmt.Errorf("feed %d: %w", id, services.ErrNotFound)
	}
	delete(s.feeds, id)
	return nil
}

func (s *Store) HealthCounts(_ context.Context, now time.Time) (services.HealthCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dayStart := utils.StartOfDisplayDay(now)
	weekStart := now.Add(-7 * 24 * time.Hour)
	h := services.HealthCounts{TopicDistribution: map[string]int{}}

	for _, c := range s.comments {
		if c.Status == models.CommentPosted && onOrAfter(c.PostedAt, dayStart) {
			h.CommentsToday++
		}
		if c.Status == models.CommentPending {
			h.PendingComments++
		}
	}
	for _, p := range s.posts {
		switch p.Status {
		case models.PostPosted:
			if onOrAfter(p.PostedAt, weekStart) {
				h.PostsThisWeek++
				h.TopicDistribution[p.Topic]++
			}
		case models.PostDraft, models.PostDraftSaved:
			h.DraftCount++
		}
	}
	for _, f := range s.flags {
		if f.Rule == services.RuleQualityArchive && !f.CreatedAt.Before(weekStart) {
			h.ArchivedThisWeek++
		}
	}
	for _, inf := range s.influencers {
		if inf.Relationship == models.RelationshipWarm {
			h.WarmInfluencers++
		}
	}
	return h, nil
}

func limit[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}
