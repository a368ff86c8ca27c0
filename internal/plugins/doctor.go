package plugins

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultCacheTTL = 30 * time.Second

// CachedDoctor caches probe results for a TTL so status polls do not take
// the session lock every time.
type CachedDoctor struct {
	prober Prober
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching doctor. A ttl of zero uses the default.
func NewCachedDoctor(prober Prober, ttl time.Duration, logger *slog.Logger) *CachedDoctor {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedDoctor{
		prober: prober,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && d.now().Sub(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh probes regardless of cache freshness. A failed probe returns the
// stale cache when there is one.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	names, err := d.prober.Namespaces(ctx)
	if err != nil {
		d.logger.Warn("plugin probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	caps := &Capabilities{
		Namespaces: make(map[string]bool, len(names)),
		ProbedAt:   d.now(),
	}
	for _, ns := range names {
		caps.Namespaces[ns] = true
	}
	if missing := caps.Missing(); len(missing) > 0 {
		d.logger.Debug("core lacks plugins", "missing", missing)
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cache. Call it after the script is reloaded.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
