package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

var postTransitions = map[models.PostStatus][]models.PostStatus{
	models.PostDraft:      {models.PostScheduled, models.PostPosted, models.PostDraftSaved, models.PostArchived},
	models.PostDraftSaved: {models.PostDraft},
	models.PostScheduled:  {models.PostPosted, models.PostDraft},
}

var commentTransitions = map[models.CommentStatus][]models.CommentStatus{
	models.CommentPending:   {models.CommentPosted, models.CommentScheduled, models.CommentSaved, models.CommentIgnored},
	models.CommentScheduled: {models.CommentPosted, models.CommentPending},
	models.CommentSaved:     {models.CommentPending},
}

var connectionTransitions = map[models.ConnectionStatus][]models.ConnectionStatus{
	models.ConnectionPending: {models.ConnectionSent, models.ConnectionDismissed},
	models.ConnectionSent:    {models.ConnectionAccepted},
}

// PostTargets returns the allowed next statuses for a post currently in from.
func PostTargets(from models.PostStatus) []models.PostStatus {
	return slices.Clone(postTransitions[from])
}

// CommentTargets returns the allowed next statuses for a comment currently in from.
func CommentTargets(from models.CommentStatus) []models.CommentStatus {
	return slices.Clone(commentTransitions[from])
}

// ConnectionTargets returns the allowed next statuses for a connection
// request currently in from.
func ConnectionTargets(from models.ConnectionStatus) []models.ConnectionStatus {
	return slices.Clone(connectionTransitions[from])
}

// StrategyProvider returns the current governance policy.
type StrategyProvider interface {
	Current(ctx context.Context) (models.StrategyConfig, error)
}

// TransitionRequest asks for one status change. Version is the version the
// caller last read; ScheduledAt is required when targeting scheduled.
type TransitionRequest struct {
	ID          uint   `json:"-"`
	Target      string `json:"target" binding:"required"`
	Version     int    `json:"version" binding:"required"`
	ScheduledAt string `json:"scheduled_at"`
	Reason      string `json:"reason"`
}

// QualityReport describes how the gate handled a publish-path request.
type QualityReport struct {
	Outcome    QualityOutcome `json:"outcome"`
	Score      int            `json:"score"`
	Attempts   int            `json:"attempts"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// TransitionResult is the applied change. To differs from Requested only
// when the quality gate redirected a post to archived.
type TransitionResult struct {
	Kind        models.EntityKind `json:"kind"`
	ID          uint              `json:"id"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Requested   string            `json:"requested"`
	Version     int               `json:"version"`
	Redirected  bool              `json:"redirected"`
	Quality     *QualityReport    `json:"quality,omitempty"`
	ExternalID  string            `json:"external_id,omitempty"`
	ScheduledAt *time.Time        `json:"scheduled_at,omitempty"`
}

type LifecycleDeps struct {
	Store     LifecycleStore
	Usage     UsageLoader
	Strategy  StrategyProvider
	Scorer    Scorer
	Generator Generator
	Publisher Publisher
	Logger    *slog.Logger
	Lease     time.Duration
	Clock     func() time.Time
}

// Lifecycle applies status transitions for posts, comments and connection
// requests. Interactive requests and the promoter share it so the quality
// gate and compliance guard run regardless of trigger.
type Lifecycle struct {
	store     LifecycleStore
	usage     UsageLoader
	strategy  StrategyProvider
	scorer    Scorer
	generator Generator
	publisher Publisher
	log       *slog.Logger
	lease     time.Duration
	now       func() time.Time
}

func NewLifecycle(d LifecycleDeps) *Lifecycle {
	l := &Lifecycle{
		store:     d.Store,
		usage:     d.Usage,
		strategy:  d.Strategy,
		scorer:    d.Scorer,
		generator: d.Generator,
		publisher: d.Publisher,
		log:       d.Logger,
		lease:     d.Lease,
		now:       d.Clock,
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	l.log = l.log.With("component", "lifecycle")
	if l.lease <= 0 {
		l.lease = 2 * time.Minute
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// RequestPostTransition moves a post to req.Target. Publishing and
// scheduling run the quality gate first; a post that fails it twice is
// archived instead and the result reports Redirected.
func (l *Lifecycle) RequestPostTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	target, err := models.ParsePostStatus(req.Target)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Version < 1 {
		return TransitionResult{}, validationf("version is required")
	}
	post, err := l.store.GetPost(ctx, req.ID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load post %d: %w", req.ID, err)
	}
	from := post.Status
	now := l.now().UTC()

	if !slices.Contains(postTransitions[from], target) {
		return TransitionResult{}, conflictf("post %d cannot move from %s to %s", post.ID, from, target)
	}
	if err := l.checkFresh(models.KindPost, post.ID, post.Version, req.Version, post.PublishingAt, now); err != nil {
		return TransitionResult{}, err
	}

	res := TransitionResult{Kind: models.KindPost, ID: post.ID, From: string(from), Requested: string(target)}
	t := Transition{Kind: models.KindPost, ID: post.ID, From: string(from), To: string(target), Version: post.Version, Reason: req.Reason, Now: now, LeaseTTL: l.lease}

	switch target {
	case models.PostScheduled:
		at, err := l.parseSchedule(req.ScheduledAt, now)
		if err != nil {
			return TransitionResult{}, err
		}
		t.ScheduledAt = &at
		res.ScheduledAt = &at
	case models.PostDraft:
		t.ClearSchedule = from == models.PostScheduled
	}

	if target != models.PostScheduled && target != models.PostPosted {
		return l.apply(ctx, t, res)
	}

	cfg, err := l.strategy.Current(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load strategy: %w", err)
	}
	var allow func(context.Context) error
	if target == models.PostPosted {
		allow = func(ctx context.Context) error {
			usage, err := l.usage.LoadUsage(ctx, UsageQuery{Kind: models.KindPost, Now: now})
			if err != nil {
				return fmt.Errorf("load post usage: %w", err)
			}
			decision := EvaluateCompliance(ComplianceCheck{Action: ActionPost, Usage: usage, Config: cfg, Now: now})
			if !decision.Allowed {
				return l.deny(ctx, models.KindPost, post.ID, decision)
			}
			return nil
		}
	}
	report, err := l.runQualityGate(ctx, &post, cfg, allow)
	if err != nil {
		return TransitionResult{}, err
	}
	res.Quality = report
	t.Version = post.Version

	if report.Outcome == QualityArchive {
		return l.archiveForQuality(ctx, post, report, cfg, res)
	}
	if target == models.PostScheduled {
		return l.apply(ctx, t, res)
	}
	return l.publish(ctx, t, res, func(ctx context.Context) (Published, error) {
		return l.publisher.PublishPost(ctx, post)
	})
}

// runQualityGate scores the post, regenerating it at most once. Nothing is
// stored until the first score is known: a post that is not archived
// outright must pass allow before the generator is called or the score is
// saved, so a denied request leaves the row untouched. post is updated in
// place with the stored content and version.
func (l *Lifecycle) runQualityGate(ctx context.Context, post *models.Post, cfg models.StrategyConfig, allow func(context.Context) error) (*QualityReport, error) {
	attempt := min(post.RegenerationCount+1, MaxQualityAttempts)
	score, err := l.score(ctx, post.Body)
	if err != nil {
		return nil, err
	}
	outcome, err := EvaluateQuality(score.Overall, cfg, attempt)
	if err != nil {
		return nil, err
	}
	if outcome != QualityArchive && allow != nil {
		if err := allow(ctx); err != nil {
			return nil, err
		}
	}

	update := QualityUpdate{ID: post.ID, Version: post.Version, RegenerationCount: post.RegenerationCount}
	if outcome == QualityRegenerate {
		l.log.Info("regenerating low quality post", "id", post.ID, "score", score.Overall, "min", cfg.MinPostQualityScore)
		regen, err := l.generator.RegeneratePost(ctx, post.ID)
		if err != nil {
			return nil, asTransport("regenerate post", err)
		}
		body := utils.SanitizeText(regen.Body)
		if body == "" {
			return nil, &TransportError{Op: "regenerate post", Err: errors.New("generator returned an empty body")}
		}
		update.Body = &body
		if title := utils.SanitizeText(regen.Title); title != "" {
			update.Title = &title
		}
		update.RegenerationCount = attempt

		attempt++
		if score, err = l.score(ctx, body); err != nil {
			return nil, err
		}
		if outcome, err = EvaluateQuality(score.Overall, cfg, attempt); err != nil {
			return nil, err
		}
	}

	update.Score = score.Overall
	version, err := l.store.SaveQuality(ctx, update)
	if err != nil {
		return nil, fmt.Errorf("save quality for post %d: %w", post.ID, err)
	}
	post.Version = version
	post.RegenerationCount = update.RegenerationCount
	if update.Body != nil {
		post.Body = *update.Body
	}
	if update.Title != nil {
		post.Title = *update.Title
	}
	s := score.Overall
	post.QualityScore = &s

	return &QualityReport{Outcome: outcome, Score: score.Overall, Attempts: attempt, Suggestion: score.Suggestion}, nil
}

func (l *Lifecycle) score(ctx context.Context, body string) (PostScore, error) {
	score, err := l.scorer.ScorePost(ctx, body)
	if err != nil {
		return PostScore{}, asTransport("score post", err)
	}
	if score.Overall < 1 || score.Overall > 10 {
		return PostScore{}, &TransportError{Op: "score post", Err: fmt.Errorf("score %d out of range", score.Overall)}
	}
	return score, nil
}

func (l *Lifecycle) archiveForQuality(ctx context.Context, post models.Post, report *QualityReport, cfg models.StrategyConfig, res TransitionResult) (TransitionResult, error) {
	reason := qualityArchiveReason(report.Score, cfg)
	t := Transition{
		Kind:           models.KindPost,
		ID:             post.ID,
		From:           string(post.Status),
		To:             string(models.PostArchived),
		Version:        post.Version,
		Reason:         reason,
		Now:            l.now().UTC(),
		LeaseTTL:       l.lease,
		ClearSchedule:  post.Status == models.PostScheduled,
		ArchivedReason: reason,
	}
	res.Redirected = true
	res, err := l.apply(ctx, t, res)
	if err != nil {
		return res, err
	}
	l.flag(ctx, models.KindPost, post.ID, RuleQualityArchive, reason)
	return res, nil
}

// RequestCommentTransition moves a comment to req.Target. Posting and
// scheduling are checked against the compliance rules first.
func (l *Lifecycle) RequestCommentTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	target, err := models.ParseCommentStatus(req.Target)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Version < 1 {
		return TransitionResult{}, validationf("version is required")
	}
	c, err := l.store.GetComment(ctx, req.ID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load comment %d: %w", req.ID, err)
	}
	from := c.Status
	now := l.now().UTC()

	if !slices.Contains(commentTransitions[from], target) {
		return TransitionResult{}, conflictf("comment %d cannot move from %s to %s", c.ID, from, target)
	}
	if err := l.checkFresh(models.KindComment, c.ID, c.Version, req.Version, c.PublishingAt, now); err != nil {
		return TransitionResult{}, err
	}

	res := TransitionResult{Kind: models.KindComment, ID: c.ID, From: string(from), Requested: string(target)}
	t := Transition{Kind: models.KindComment, ID: c.ID, From: string(from), To: string(target), Version: c.Version, Reason: req.Reason, Now: now, LeaseTTL: l.lease}

	switch target {
	case models.CommentScheduled:
		at, err := l.parseSchedule(req.ScheduledAt, now)
		if err != nil {
			return TransitionResult{}, err
		}
		t.ScheduledAt = &at
		res.ScheduledAt = &at
	case models.CommentPending:
		t.ClearSchedule = from == models.CommentScheduled
	}

	if target != models.CommentPosted && target != models.CommentScheduled {
		return l.apply(ctx, t, res)
	}

	cfg, err := l.strategy.Current(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load strategy: %w", err)
	}
	usage, err := l.usage.LoadUsage(ctx, UsageQuery{Kind: models.KindComment, InfluencerRef: c.InfluencerRef, Now: now})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load comment usage: %w", err)
	}
	decision := EvaluateCompliance(ComplianceCheck{
		Action:        ActionComment,
		InfluencerRef: c.InfluencerRef,
		Usage:         usage,
		Config:        cfg,
		Now:           now,
	})
	if !decision.Allowed {
		return TransitionResult{}, l.deny(ctx, models.KindComment, c.ID, decision)
	}

	if target == models.CommentScheduled {
		return l.apply(ctx, t, res)
	}
	return l.publish(ctx, t, res, func(ctx context.Context) (Published, error) {
		return l.publisher.PublishComment(ctx, c)
	})
}

// RequestConnectionTransition moves a connection request to req.Target.
// Sending is paced by the connection rules.
func (l *Lifecycle) RequestConnectionTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	target, err := models.ParseConnectionStatus(req.Target)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Version < 1 {
		return TransitionResult{}, validationf("version is required")
	}
	cr, err := l.store.GetConnection(ctx, req.ID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load connection %d: %w", req.ID, err)
	}
	from := cr.Status
	now := l.now().UTC()

	if !slices.Contains(connectionTransitions[from], target) {
		return TransitionResult{}, conflictf("connection %d cannot move from %s to %s", cr.ID, from, target)
	}
	if err := l.checkFresh(models.KindConnection, cr.ID, cr.Version, req.Version, cr.PublishingAt, now); err != nil {
		return TransitionResult{}, err
	}

	res := TransitionResult{Kind: models.KindConnection, ID: cr.ID, From: string(from), Requested: string(target)}
	t := Transition{Kind: models.KindConnection, ID: cr.ID, From: string(from), To: string(target), Version: cr.Version, Reason: req.Reason, Now: now, LeaseTTL: l.lease}

	if target != models.ConnectionSent {
		return l.apply(ctx, t, res)
	}

	cfg, err := l.strategy.Current(ctx)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load strategy: %w", err)
	}
	usage, err := l.usage.LoadUsage(ctx, UsageQuery{Kind: models.KindConnection, Now: now})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("load connection usage: %w", err)
	}
	decision := EvaluateCompliance(ComplianceCheck{Action: ActionConnection, Usage: usage, Config: cfg, Now: now})
	if !decision.Allowed {
		return TransitionResult{}, l.deny(ctx, models.KindConnection, cr.ID, decision)
	}
	return l.publish(ctx, t, res, func(ctx context.Context) (Published, error) {
		return l.publisher.SendConnection(ctx, cr)
	})
}

func (l *Lifecycle) checkFresh(kind models.EntityKind, id uint, stored, requested int, lease *time.Time, now time.Time) error {
	if stored != requested {
		return conflictf("%s %d was modified (version %d, requested %d)", kind, id, stored, requested)
	}
	if lease != nil && now.Sub(*lease) < l.lease {
		return conflictf("%s %d is being published", kind, id)
	}
	return nil
}

func (l *Lifecycle) parseSchedule(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, validationf("scheduled_at is required")
	}
	at, err := utils.ParseScheduledTime(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !at.After(now) {
		return time.Time{}, validationf("scheduled_at %s is not in the future", at.Format(utils.ISOLayout))
	}
	return at, nil
}

func (l *Lifecycle) apply(ctx context.Context, t Transition, res TransitionResult) (TransitionResult, error) {
	version, err := l.store.ApplyTransition(ctx, t)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("%s %d %s -> %s: %w", t.Kind, t.ID, t.From, t.To, err)
	}
	res.To = t.To
	res.Version = version
	l.log.Info("transition applied", "entity", t.Kind, "id", t.ID, "from", t.From, "to", t.To, "redirected", res.Redirected)
	return res, nil
}

// publish claims the lease, calls the transport and records success. On
// transport failure the lease is released and the status is left as it was.
func (l *Lifecycle) publish(ctx context.Context, t Transition, res TransitionResult, send func(context.Context) (Published, error)) (TransitionResult, error) {
	leaseAt := t.Now.Truncate(time.Microsecond)
	claimed, err := l.store.Claim(ctx, Claim{Kind: t.Kind, ID: t.ID, From: t.From, Version: t.Version, At: leaseAt, Expiry: l.lease})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("claim %s %d: %w", t.Kind, t.ID, err)
	}

	pub, err := send(ctx)
	if err != nil {
		l.log.Error("publish failed", "entity", t.Kind, "id", t.ID, "err", err)
		if rerr := l.store.Release(ctx, t.Kind, t.ID, claimed); rerr != nil {
			l.log.Error("release publish lease", "entity", t.Kind, "id", t.ID, "err", rerr)
		}
		return TransitionResult{}, asTransport("publish "+string(t.Kind), err)
	}

	publishedAt := l.now().UTC()
	t.Version = claimed
	t.LeaseAt = &leaseAt
	t.PublishedAt = &publishedAt
	t.ExternalID = pub.ExternalID
	res.ExternalID = pub.ExternalID

	res, err = l.apply(ctx, t, res)
	if err != nil {
		l.log.Error("published but status not recorded", "entity", t.Kind, "id", t.ID, "external_id", pub.ExternalID, "err", err)
		return TransitionResult{}, err
	}
	return res, nil
}

func (l *Lifecycle) deny(ctx context.Context, kind models.EntityKind, id uint, d Decision) error {
	l.log.Warn("transition denied", "entity", kind, "id", id, "rule", d.Rule, "reason", d.Reason)
	l.flag(ctx, kind, id, d.Rule, d.Reason)
	return d.Err()
}

func (l *Lifecycle) flag(ctx context.Context, kind models.EntityKind, id uint, rule, reason string) {
	err := l.store.AppendFlag(ctx, models.FlaggedItem{
		EntityKind: kind,
		EntityID:   id,
		Rule:       rule,
		Reason:     reason,
		CreatedAt:  l.now().UTC(),
	})
	if err != nil {
		l.log.Warn("append flagged item", "entity", kind, "id", id, "err", err)
	}
}

func asTransport(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
