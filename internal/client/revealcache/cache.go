// Package revealcache remembers which entries each viewer has opened. A
// decision starts false, may become true once the reveal deadline has
// passed, and never goes back.
package revealcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/reveal"
)

// Storage is the durable side of the cache. revealed.SQLiteRepository and
// revealed.MemoryRepository implement it.
type Storage interface {
	ReadNamespace(ctx context.Context, key string) (map[string]struct{}, error)
	WriteNamespace(ctx context.Context, key string, ids map[string]struct{}) error
}

// Namespace is the storage key for viewerID's decisions.
func Namespace(viewerID string) string {
	return common.RevealedNamespacePrefix + viewerID
}

// Cache holds decisions in memory per viewer. Reads never wait for a
// storage write; writes to storage are serialized so a later set never loses
// to an earlier one.
type Cache struct {
	storage Storage
	clock   *reveal.Clock
	now     func() time.Time
	log     logging.Logger

	mu      sync.RWMutex
	decided map[string]map[string]struct{}
	// synced marks namespaces whose stored set has been merged in.
	synced map[string]bool
	// dirty marks namespaces holding decisions storage has not accepted.
	dirty map[string]bool

	writeMu sync.Mutex
}

func New(storage Storage, clock *reveal.Clock, log logging.Logger) *Cache {
	return &Cache{
		storage: storage,
		clock:   clock,
		now:     time.Now,
		log:     log.With("module", "revealcache"),
		decided: make(map[string]map[string]struct{}),
		synced:  make(map[string]bool),
		dirty:   make(map[string]bool),
	}
}

// Load reads viewerID's namespace from storage and merges it with anything
// already decided in this process. Loading twice is harmless.
func (c *Cache) Load(ctx context.Context, viewerID string) error {
	stored, err := c.storage.ReadNamespace(ctx, Namespace(viewerID))
	if err != nil {
		return fmt.Errorf("load reveal decisions: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.namespace(viewerID)
	for id := range stored {
		set[id] = struct{}{}
	}
	c.synced[viewerID] = true
	return nil
}

// namespace must be called with mu held for writing.
func (c *Cache) namespace(viewerID string) map[string]struct{} {
	set, ok := c.decided[viewerID]
	if !ok {
		set = make(map[string]struct{})
		c.decided[viewerID] = set
	}
	return set
}

func (c *Cache) lookup(viewerID, entryID string) (revealed, synced bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, revealed = c.decided[viewerID][entryID]
	return revealed, c.synced[viewerID]
}

// IsRevealed loads viewerID's namespace on first use. A storage failure reads
// as whatever this process has decided and is retried on the next call.
func (c *Cache) IsRevealed(ctx context.Context, viewerID, entryID string) bool {
	revealed, synced := c.lookup(viewerID, entryID)
	if revealed || synced {
		return revealed
	}

	if err := c.Load(ctx, viewerID); err != nil {
		c.log.Warn(ctx, "reveal decisions unavailable", "viewer_id", viewerID, "error", err)
		return false
	}
	revealed, _ = c.lookup(viewerID, entryID)
	return revealed
}

// Reveal marks entryID opened for viewerID. Before the deadline it returns
// common.ErrRevealLocked and changes nothing. When storage cannot be read or
// written the decision still holds for this process and
// common.ErrCacheWriteFailed is returned.
func (c *Cache) Reveal(ctx context.Context, viewerID, entryID string) error {
	if c.clock.Phase(c.now()) != reveal.Open {
		return common.ErrRevealLocked
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	revealed, synced := c.lookup(viewerID, entryID)
	if !synced {
		if err := c.Load(ctx, viewerID); err != nil {
			// Writing now would replace the stored set with a partial one.
			c.mu.Lock()
			c.namespace(viewerID)[entryID] = struct{}{}
			c.dirty[viewerID] = true
			c.mu.Unlock()
			c.log.Error(ctx, "reveal decision not persisted", "viewer_id", viewerID, "entry_id", entryID, "error", err)
			return fmt.Errorf("%w: %v", common.ErrCacheWriteFailed, err)
		}
		revealed, _ = c.lookup(viewerID, entryID)
	}

	c.mu.Lock()
	if revealed && !c.dirty[viewerID] {
		c.mu.Unlock()
		return nil
	}
	set := c.namespace(viewerID)
	set[entryID] = struct{}{}
	snapshot := make(map[string]struct{}, len(set))
	for id := range set {
		snapshot[id] = struct{}{}
	}
	c.mu.Unlock()

	err := c.storage.WriteNamespace(ctx, Namespace(viewerID), snapshot)

	c.mu.Lock()
	c.dirty[viewerID] = err != nil
	c.mu.Unlock()

	if err != nil {
		c.log.Error(ctx, "reveal decision not persisted", "viewer_id", viewerID, "entry_id", entryID, "error", err)
		return fmt.Errorf("%w: %v", common.ErrCacheWriteFailed, err)
	}
	return nil
}
