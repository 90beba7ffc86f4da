package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finsignal/internal/models"
	"finsignal/internal/utils"
)

// dueItem is a scheduled entity waiting to be promoted to posted.
type dueItem struct {
	kind    models.EntityKind
	id      uint
	version int
}

// Promoter moves scheduled posts and comments whose time has come to
// posted. It runs every promotion through Lifecycle, so the quality gate
// and compliance guard apply exactly as for interactive requests.
type Promoter struct {
	lifecycle *Lifecycle
	store     QueueStore
	interval  time.Duration
	log       *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending map[dueItem]bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// PromotionStats summarises one promotion pass. Deferred items were denied
// by a limit earlier in the same display day and are retried the next day.
// Unscheduled items target a denylisted account and were moved back to the
// queue.
type PromotionStats struct {
	Due         int `json:"due"`
	Promoted    int `json:"promoted"`
	Redirected  int `json:"redirected"`
	Deferred    int `json:"deferred"`
	Unscheduled int `json:"unscheduled"`
	Failed      int `json:"failed"`
}

func NewPromoter(lc *Lifecycle, store QueueStore, interval time.Duration, logger *slog.Logger, clock func() time.Time) *Promoter {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = time.Now
	}
	return &Promoter{
		lifecycle: lc,
		store:     store,
		interval:  interval,
		log:       logger.With("component", "promoter"),
		now:       clock,
		pending:   map[dueItem]bool{},
	}
}

// Start runs a pass immediately and then every interval until Stop is
// called or ctx is cancelled.
func (p *Promoter) Start(ctx context.Context) {
	p.mu.Lock()
	if p.done != nil {
		p.mu.Unlock()
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.worker(ctx, done)
}

// Stop cancels the worker and waits for the current pass to finish.
func (p *Promoter) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Promoter) worker(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce promotes everything due now. A failure on one item is logged and
// does not stop the rest of the batch.
func (p *Promoter) RunOnce(ctx context.Context) PromotionStats {
	now := p.now().UTC()
	var batch []dueItem

	posts, err := p.store.DuePosts(ctx, now)
	if err != nil {
		p.log.Error("load due posts", "err", err)
	}
	for _, post := range posts {
		batch = append(batch, dueItem{models.KindPost, post.ID, post.Version})
	}
	comments, err := p.store.DueComments(ctx, now)
	if err != nil {
		p.log.Error("load due comments", "err", err)
	}
	for _, c := range comments {
		batch = append(batch, dueItem{models.KindComment, c.ID, c.Version})
	}

	var stats PromotionStats
	dayStart := utils.StartOfDisplayDay(now)
	for _, item := range batch {
		if ctx.Err() != nil {
			break
		}
		if !p.claim(item) {
			continue
		}
		stats.Due++
		p.process(ctx, item, dayStart, &stats)
		p.release(item)
	}
	if stats.Due > 0 {
		p.log.Info("promotion pass", "due", stats.Due, "promoted", stats.Promoted, "redirected", stats.Redirected,
			"deferred", stats.Deferred, "unscheduled", stats.Unscheduled, "failed", stats.Failed)
	}
	return stats
}

func (p *Promoter) process(ctx context.Context, item dueItem, dayStart time.Time, stats *PromotionStats) {
	denied, err := p.deniedToday(ctx, item, dayStart)
	if err != nil {
		stats.Failed++
		p.log.Warn("load flags", "entity", item.kind, "id", item.id, "err", err)
		return
	}
	if denied {
		stats.Deferred++
		return
	}

	res, err := p.promote(ctx, item)
	var rl *RateLimitError
	switch {
	case errors.As(err, &rl) && rl.Rule == RuleDenylist:
		if err := p.unschedule(ctx, item, rl.Reason); err != nil {
			stats.Failed++
			p.log.Warn("unschedule denylisted item", "entity", item.kind, "id", item.id, "err", err)
			return
		}
		stats.Unscheduled++
	case err != nil:
		stats.Failed++
		p.log.Warn("promotion failed", "entity", item.kind, "id", item.id, "err", err)
	case res.Redirected:
		stats.Redirected++
	default:
		stats.Promoted++
	}
}

// deniedToday reports whether a limit already denied item in the current
// display day. Such items wait for the next display day, when the daily
// caps reset; an operator can still publish them by hand.
func (p *Promoter) deniedToday(ctx context.Context, item dueItem, dayStart time.Time) (bool, error) {
	flags, err := p.store.FlagsSince(ctx, item.kind, item.id, dayStart)
	if err != nil {
		return false, err
	}
	for _, f := range flags {
		if f.Rule != RuleQualityArchive {
			return true, nil
		}
	}
	return false, nil
}

// unschedule moves an item that can never be published back to the queue.
func (p *Promoter) unschedule(ctx context.Context, item dueItem, reason string) error {
	req := TransitionRequest{ID: item.id, Version: item.version, Reason: reason}
	var err error
	if item.kind == models.KindPost {
		req.Target = string(models.PostDraft)
		_, err = p.lifecycle.RequestPostTransition(ctx, req)
	} else {
		req.Target = string(models.CommentPending)
		_, err = p.lifecycle.RequestCommentTransition(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("unschedule %s %d: %w", item.kind, item.id, err)
	}
	p.log.Info("denylisted item moved back to queue", "entity", item.kind, "id", item.id)
	return nil
}

func (p *Promoter) promote(ctx context.Context, item dueItem) (TransitionResult, error) {
	req := TransitionRequest{ID: item.id, Version: item.version, Reason: "scheduled time reached"}
	if item.kind == models.KindPost {
		req.Target = string(models.PostPosted)
		return p.lifecycle.RequestPostTransition(ctx, req)
	}
	req.Target = string(models.CommentPosted)
	return p.lifecycle.RequestCommentTransition(ctx, req)
}

// claim dedupes an item against a pass already working on it.
func (p *Promoter) claim(item dueItem) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := dueItem{kind: item.kind, id: item.id}
	if p.pending[key] {
		return false
	}
	p.pending[key] = true
	return true
}

func (p *Promoter) release(item dueItem) {
	p.mu.Lock()
	delete(p.pending, dueItem{kind: item.kind, id: item.id})
	p.mu.Unlock()
}
