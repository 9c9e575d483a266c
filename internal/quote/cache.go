package quote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/model"
)

const _keyPrefix = "quote:"

type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	Quotes(ctx context.Context, symbols []string) ([]model.Quote, error)
}

type Entry struct {
	Quote     model.Quote
	FetchedAt time.Time
}

// Cache fronts the quote provider with a TTL-bounded map. Expiry is lazy:
// an entry is checked only when its key is read, and a provider failure
// leaves the previous entry in place. Dirty contents are persisted by the
// Run flush loop rather than on every write.
type Cache struct {
	provider QuoteProvider
	snapshot *Snapshot
	logger   logger.Logger

	ttl           time.Duration
	flushInterval time.Duration
	now           func() time.Time

	mu      sync.Mutex
	entries map[string]Entry
	dirty   bool
}

func NewCache(provider QuoteProvider, snapshot *Snapshot, ttl, flushInterval time.Duration, logger logger.Logger) *Cache {
	c := &Cache{
		provider:      provider,
		snapshot:      snapshot,
		logger:        logger,
		ttl:           ttl,
		flushInterval: flushInterval,
		now:           time.Now,
		entries:       map[string]Entry{},
	}

	entries, err := snapshot.Load()
	if err != nil {
		// Cold start: a missing or corrupt snapshot is never fatal.
		c.logger.Warnf("%s: can't load quote cache snapshot, starting cold", err)
		return c
	}
	c.entries = entries
	c.logger.Infof("quote cache loaded: %d entries", len(entries))

	return c
}

// Get returns the cached quote for symbol while it is younger than the
// TTL, otherwise fetches a fresh one and replaces the entry wholesale.
func (c *Cache) Get(ctx context.Context, symbol string) (model.Quote, error) {
	sym := normalize(symbol)
	key := _keyPrefix + sym

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.FetchedAt) < c.ttl {
		c.mu.Unlock()
		return e.Quote, nil
	}
	c.mu.Unlock()

	q, err := c.provider.Quote(ctx, sym)
	if err != nil {
		return model.Quote{}, err
	}

	c.mu.Lock()
	c.entries[key] = Entry{Quote: q, FetchedAt: c.now()}
	c.dirty = true
	c.mu.Unlock()

	return q, nil
}

// GetMany always goes to the provider, skipping the cache on both read
// and write. Batch reads are display-only and tolerate no staleness.
func (c *Cache) GetMany(ctx context.Context, symbols []string) ([]model.Quote, error) {
	syms := make([]string, len(symbols))
	for i, s := range symbols {
		syms[i] = normalize(s)
	}
	return c.provider.Quotes(ctx, syms)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Flush persists the whole cache if anything changed since the last save.
func (c *Cache) Flush() error {
	c.mu.Lock()
	if !c.dirty {
		c.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]Entry, len(c.entries))
	for k, v := range c.entries {
		snapshot[k] = v
	}
	c.dirty = false
	c.mu.Unlock()

	if err := c.snapshot.Save(snapshot); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Cache) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if err := c.Flush(); err != nil {
				c.logger.Errorf("%s: error flushing quote cache on shutdown", err)
			}
			return
		case <-time.After(c.flushInterval):
			if err := c.Flush(); err != nil {
				c.logger.Errorf("%s: error flushing quote cache", err)
			}
		}
	}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
