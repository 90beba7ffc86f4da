package services

import (
	"context"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

// Transition is a conditional status write. It applies only while the row
// still has status From and version Version. When LeaseAt is set the caller
// holds the publish lease and the row's lease must match it; otherwise any
// lease on the row must be older than LeaseTTL. The audit log entry is
// written in the same unit of work.
type Transition struct {
	Kind     models.EntityKind
	ID       uint
	From     string
	To       string
	Version  int
	Reason   string
	Now      time.Time
	LeaseAt  *time.Time
	LeaseTTL time.Duration

	ScheduledAt    *time.Time
	ClearSchedule  bool
	PublishedAt    *time.Time
	ExternalID     string
	ArchivedReason string
}

// Claim takes the publish lease on a row that has status From and version
// Version and is not leased, or whose lease is older than Expiry.
type Claim struct {
	Kind    models.EntityKind
	ID      uint
	From    string
	Version int
	At      time.Time
	Expiry  time.Duration
}

// QualityUpdate records a gate evaluation on a post, optionally with a
// regenerated body.
type QualityUpdate struct {
	ID                uint
	Version           int
	Score             int
	RegenerationCount int
	Title             *string
	Body              *string
}

// UsageQuery selects the counters ComplianceGuard needs for one action.
type UsageQuery struct {
	Kind          models.EntityKind
	InfluencerRef string
	Now           time.Time
}

// Usage is the history snapshot ComplianceGuard evaluates against.
// Today means the current display-zone day; week means the trailing 7 days.
type Usage struct {
	CommentsToday              int
	InfluencerCommentsThisWeek int
	LastInfluencerComment      *time.Time
	PostsToday                 int
	PostsThisWeek              int
	ConnectionsSentToday       int
}

type PostFilter struct {
	Statuses        []models.PostStatus
	IncludeArchived bool
	Topic           string
	Limit           int
}

type CommentFilter struct {
	Statuses []models.CommentStatus
	Limit    int
}

type InfluencerFilter struct {
	Search       string
	Niche        string
	Relationship models.Relationship
	Limit        int
}

// HealthCounts are the aggregates behind the strategy health view.
type HealthCounts struct {
	CommentsToday     int
	PostsThisWeek     int
	ArchivedThisWeek  int
	DraftCount        int
	PendingComments   int
	WarmInfluencers   int
	TopicDistribution map[string]int
}

// LifecycleStore persists entity transitions with optimistic checks. Every
// conditional write that matches no row returns ErrStateConflict.
type LifecycleStore interface {
	GetPost(ctx context.Context, id uint) (models.Post, error)
	GetComment(ctx context.Context, id uint) (models.Comment, error)
	GetConnection(ctx context.Context, id uint) (models.ConnectionRequest, error)
	ApplyTransition(ctx context.Context, t Transition) (int, error)
	Claim(ctx context.Context, c Claim) (int, error)
	Release(ctx context.Context, kind models.EntityKind, id uint, version int) error
	SaveQuality(ctx context.Context, u QualityUpdate) (int, error)
	AppendFlag(ctx context.Context, f models.FlaggedItem) error
}

// UsageLoader derives compliance counters from entity history.
type UsageLoader interface {
	LoadUsage(ctx context.Context, q UsageQuery) (Usage, error)
}

type QueueStore interface {
	ListPosts(ctx context.Context, f PostFilter) ([]models.Post, error)
	ListComments(ctx context.Context, f CommentFilter) ([]models.Comment, error)
	ListConnections(ctx context.Context, status models.ConnectionStatus) ([]models.ConnectionRequest, error)
	EditPost(ctx context.Context, id uint, version int, title, body string) (models.Post, error)
	EditComment(ctx context.Context, id uint, version int, text string) (models.Comment, error)
	DeletePost(ctx context.Context, id uint, version int, leaseCutoff time.Time) error
	DuePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	DueComments(ctx context.Context, now time.Time) ([]models.Comment, error)
	FlagsSince(ctx context.Context, kind models.EntityKind, id uint, since time.Time) ([]models.FlaggedItem, error)
}

type StrategyStore interface {
	LoadStrategy(ctx context.Context) (models.StrategyConfig, error)
	SaveStrategy(ctx context.Context, cfg models.StrategyConfig) (models.StrategyConfig, error)
	ListTopics(ctx context.Context) ([]models.Topic, error)
	ReplaceTopics(ctx context.Context, topics []models.Topic) ([]models.Topic, error)
	SetTopicWeights(ctx context.Context, weights []utils.TopicWeight) ([]models.Topic, error)
}

type InfluencerStore interface {
	ListInfluencers(ctx context.Context, f InfluencerFilter) ([]models.Influencer, error)
	CreateInfluencer(ctx context.Context, inf models.Influencer) (models.Influencer, error)
	UpdateRelationship(ctx context.Context, id uint, rel models.Relationship) (models.Influencer, error)
	TouchInfluencer(ctx context.Context, id uint, at time.Time) (models.Influencer, error)
}

type FeedFilter struct {
	Priority   models.FeedPriority
	ActiveOnly bool
}

// FeedStore keeps the news source list. URLs are unique; a duplicate
// returns ErrStateConflict.
type FeedStore interface {
	ListFeeds(ctx context.Context, f FeedFilter) ([]models.Feed, error)
	CreateFeed(ctx context.Context, feed models.Feed) (models.Feed, error)
	UpdateFeed(ctx context.Context, feed models.Feed) (models.Feed, error)
	SetFeedActive(ctx context.Context, id uint, active bool) (models.Feed, error)
	DeleteFeed(ctx context.Context, id uint) error
}

type HealthStore interface {
	HealthCounts(ctx context.Context, now time.Time) (HealthCounts, error)
	RecentFlags(ctx context.Context, limit int) ([]models.FlaggedItem, error)
}

// Store is everything the service layer needs from persistence.
type Store interface {
	LifecycleStore
	UsageLoader
	QueueStore
	StrategyStore
	InfluencerStore
	FeedStore
	HealthStore
}

// PostScore is the external scorer's verdict on a post body.
type PostScore struct {
	Overall     int    `json:"overall"`
	Hook        int    `json:"hook"`
	Data        int    `json:"data"`
	Readability int    `json:"readability"`
	CTA         int    `json:"cta"`
	Suggestion  string `json:"suggestion"`
}

// Regenerated is a re-drafted post returned by the generator.
type Regenerated struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Published is a confirmed publish. ExternalID is the LinkedIn URN when known.
type Published struct {
	ExternalID string `json:"external_id"`
}

// Scorer rates a post body 1..10.
type Scorer interface {
	ScorePost(ctx context.Context, text string) (PostScore, error)
}

// Generator re-drafts a post once.
type Generator interface {
	RegeneratePost(ctx context.Context, id uint) (Regenerated, error)
}

// Publisher sends content to LinkedIn. A nil error means confirmed success.
type Publisher interface {
	PublishPost(ctx context.Context, p models.Post) (Published, error)
	PublishComment(ctx context.Context, c models.Comment) (Published, error)
	SendConnection(ctx context.Context, r models.ConnectionRequest) (Published, error)
}
