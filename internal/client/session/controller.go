// Package session drives the dashboard for whoever is signed in. A single
// event loop owns the live feed and folds viewer changes, feed snapshots,
// clock ticks and open requests into one readable State.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/invite"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/models"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
)

const ensureTimeout = 10 * time.Second

// Feed is one live subscription to a book.
type Feed interface {
	Snapshots() <-chan []models.Entry
	Err() error
	Cancel()
}

type Backend interface {
	EnsureIdentity(ctx context.Context) (*models.Identity, error)
	Subscribe(ctx context.Context, recipientID string) (Feed, error)
}

// Cache is the per-viewer record of opened entries. *revealcache.Cache
// implements it.
type Cache interface {
	Load(ctx context.Context, viewerID string) error
	IsRevealed(ctx context.Context, viewerID, entryID string) bool
	Reveal(ctx context.Context, viewerID, entryID string) error
}

type Config struct {
	Backend Backend
	Cache   Cache
	Clock   *reveal.Clock
	Tokens  *invite.Generator
	Tick    time.Duration
	Logger  logging.Logger
}

type openRequest struct {
	ctx     context.Context
	entryID string
	reply   chan error
}

type Controller struct {
	backend Backend
	cache   Cache
	clock   *reveal.Clock
	tokens  *invite.Generator
	tick    time.Duration
	now     func() time.Time
	log     logging.Logger

	initial *models.Viewer
	changes <-chan *models.Viewer
	opens   chan openRequest

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	updates  chan struct{}

	mu    sync.RWMutex
	state State

	// owned by the loop
	viewer *models.Viewer
	feed   Feed
}

// NewController takes the viewer known at start and a channel of later
// changes; a nil viewer means signed out.
func NewController(cfg Config, initial *models.Viewer, changes <-chan *models.Viewer) *Controller {
	tick := cfg.Tick
	if tick <= 0 {
		tick = time.Second
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = invite.NewGenerator(nil)
	}
	return &Controller{
		backend: cfg.Backend,
		cache:   cfg.Cache,
		clock:   cfg.Clock,
		tokens:  tokens,
		tick:    tick,
		now:     time.Now,
		log:     cfg.Logger.With("module", "session"),
		initial: initial,
		changes: changes,
		opens:   make(chan openRequest),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		updates: make(chan struct{}, 1),
	}
}

// State returns a copy of the current view.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// Updates receives a signal after every state change. Signals coalesce.
func (c *Controller) Updates() <-chan struct{} {
	return c.updates
}

// Close ends Run. It is safe to call more than once.
func (c *Controller) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Run is the event loop. It returns when ctx ends or Close is called, after
// cancelling the live feed.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.teardown()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	c.evaluateClock()
	c.setViewer(ctx, c.initial)

	changes := c.changes
	for {
		var snapshots <-chan []models.Entry
		if c.feed != nil {
			snapshots = c.feed.Snapshots()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-c.stop:
			return nil
		case v, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			c.setViewer(ctx, v)
		case entries, ok := <-snapshots:
			if !ok {
				c.feedEnded(ctx)
				continue
			}
			c.applySnapshot(ctx, entries)
		case req := <-c.opens:
			req.reply <- c.open(req.ctx, req.entryID)
		case <-ticker.C:
			c.evaluateClock()
		}
	}
}

// Open reveals one entry of the viewer's book. It fails with
// common.ErrRevealLocked before the deadline and common.ErrNotFound for ids
// not in the current snapshot. common.ErrCacheWriteFailed means the entry is
// open now but may be hidden again after a restart.
func (c *Controller) Open(ctx context.Context, entryID string) error {
	req := openRequest{ctx: ctx, entryID: entryID, reply: make(chan error, 1)}
	select {
	case c.opens <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return errors.New("session closed")
	}
	return <-req.reply
}

// SetIdentity replaces the identity record shown for the current viewer,
// after a profile update for instance.
func (c *Controller) SetIdentity(identity *models.Identity) {
	if identity == nil {
		return
	}
	c.mu.Lock()
	if c.state.Viewer != nil && c.state.Viewer.ID == identity.ID {
		cp := *identity
		c.state.Identity = &cp
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	fn(&c.state)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) evaluateClock() {
	phase, countdown := c.clock.Evaluate(c.now())
	c.mu.RLock()
	was := c.state.Phase
	c.mu.RUnlock()
	if was != phase {
		c.log.Info(context.Background(), "reveal phase changed", "phase", phase.String())
	}
	c.update(func(s *State) {
		s.Phase = phase
		s.Countdown = countdown
	})
}

func (c *Controller) teardown() {
	if c.feed != nil {
		c.feed.Cancel()
		c.feed = nil
	}
}

func (c *Controller) setViewer(ctx context.Context, v *models.Viewer) {
	if !v.Active() {
		if c.viewer != nil {
			c.log.Info(ctx, "viewer signed out", "viewer_id", c.viewer.ID)
		}
		c.teardown()
		c.viewer = nil
		var shown *models.Viewer
		if v != nil {
			cp := *v
			shown = &cp
		}
		c.update(func(s *State) {
			*s = State{Viewer: shown, Phase: s.Phase, Countdown: s.Countdown}
		})
		return
	}

	cp := *v
	if c.viewer != nil && c.viewer.ID == v.ID && c.settled() {
		c.viewer = &cp
		c.update(func(s *State) {
			vv := cp
			s.Viewer = &vv
		})
		return
	}

	c.teardown()
	c.viewer = &cp
	c.update(func(s *State) {
		vv := cp
		*s = State{Viewer: &vv, Loading: true, Phase: s.Phase, Countdown: s.Countdown}
	})

	identity := c.ensure(ctx, &cp)
	c.update(func(s *State) { s.Identity = identity })

	if err := c.cache.Load(ctx, cp.ID); err != nil {
		c.log.Warn(ctx, "reveal decisions not loaded", "viewer_id", cp.ID, "error", err)
	}

	feed, err := c.backend.Subscribe(ctx, cp.ID)
	if err != nil {
		c.log.Warn(ctx, "subscription failed", "viewer_id", cp.ID, "error", err)
		c.update(func(s *State) {
			s.Loading = false
			s.FeedErr = err
			s.Entries = []EntryView{}
		})
		return
	}
	c.feed = feed
	c.log.Info(ctx, "subscribed", "viewer_id", cp.ID)
}

// settled reports whether the current viewer has a live feed and a persisted
// identity. A repeated viewer change redoes the setup otherwise.
func (c *Controller) settled() bool {
	if c.feed == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Identity != nil && c.state.Identity.Persisted
}

// ensure falls back to a transient record when the store is unreachable.
func (c *Controller) ensure(ctx context.Context, v *models.Viewer) *models.Identity {
	ctx, cancel := context.WithTimeout(ctx, ensureTimeout)
	defer cancel()

	identity, err := c.backend.EnsureIdentity(ctx)
	if err == nil && identity != nil {
		return identity
	}
	c.log.Warn(ctx, "identity not ensured, using a transient record", "viewer_id", v.ID, "error", err)
	return &models.Identity{
		ID:          v.ID,
		Email:       v.Email,
		DisplayName: v.Name(),
		InviteToken: c.tokens.Token(),
		CreatedAt:   c.now(),
		UpdatedAt:   c.now(),
		Persisted:   false,
	}
}

func (c *Controller) applySnapshot(ctx context.Context, entries []models.Entry) {
	if c.viewer == nil {
		return
	}
	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	models.SortNewestFirst(sorted)

	views := make([]EntryView, 0, len(sorted))
	for _, e := range sorted {
		status := Hidden
		if c.cache.IsRevealed(ctx, c.viewer.ID, e.ID) {
			status = Revealed
		}
		views = append(views, EntryView{Entry: e, Status: status})
	}
	stats := models.Summarize(sorted)

	c.update(func(s *State) {
		s.Entries = views
		s.Stats = stats
		s.Loading = false
		s.FeedErr = nil
	})
}

// feedEnded handles the feed closing on its own. Errors are terminal: the
// view degrades to an empty book until the viewer is set again.
func (c *Controller) feedEnded(ctx context.Context) {
	err := c.feed.Err()
	c.feed = nil
	if err == nil {
		return
	}
	c.log.Warn(ctx, "subscription ended", "error", err)
	c.update(func(s *State) {
		s.Entries = []EntryView{}
		s.Stats = models.Stats{}
		s.Loading = false
		s.FeedErr = err
	})
}

func (c *Controller) open(ctx context.Context, entryID string) error {
	if c.viewer == nil {
		return common.ErrUnauthorized
	}

	c.mu.RLock()
	idx := c.state.indexOf(entryID)
	c.mu.RUnlock()
	if idx < 0 {
		return common.ErrNotFound
	}

	err := c.cache.Reveal(ctx, c.viewer.ID, entryID)
	if err != nil && !errors.Is(err, common.ErrCacheWriteFailed) {
		return err
	}

	c.update(func(s *State) {
		if i := s.indexOf(entryID); i >= 0 {
			s.Entries[i].Status = Revealed
		}
	})
	return err
}
