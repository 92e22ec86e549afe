package pairmodel

import (
	"context"
	"encoding/hex"
	"hash/fnv"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yanqian/newsdigest/pkg/metrics"
)

// SharedCache is a cross-process probability cache such as ValkeyCache.
type SharedCache interface {
	Get(ctx context.Context, key string) (float64, bool, error)
	Set(ctx context.Context, key string, value float64) error
}

// Cached memoizes a scorer, first in process and then in an optional shared cache.
// Shared cache failures are logged and never fail a lookup.
type Cached struct {
	next   Scorer
	task   Task
	local  *lru.Cache[string, float64]
	shared SharedCache
	logger *slog.Logger
}

// NewCached wraps next. size <= 0 disables the in-process layer; shared may be nil.
func NewCached(next Scorer, task Task, size int, shared SharedCache, logger *slog.Logger) (*Cached, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cached{
		next:   next,
		task:   task,
		shared: shared,
		logger: logger.With("component", "pairmodel.cached", "task", string(task)),
	}
	if size > 0 {
		local, err := lru.New[string, float64](size)
		if err != nil {
			return nil, err
		}
		c.local = local
	}
	return c, nil
}

// Probability implements Scorer.
func (c *Cached) Probability(ctx context.Context, first, second string) (float64, error) {
	key := c.key(first, second)
	if c.local != nil {
		p, ok := c.local.Get(key)
		metrics.RecordCacheLookup("local", ok)
		if ok {
			return p, nil
		}
	}
	if c.shared != nil {
		p, ok, err := c.shared.Get(ctx, key)
		if err != nil {
			c.logger.Warn("shared cache lookup failed", "error", err)
		} else {
			metrics.RecordCacheLookup("shared", ok)
			if ok {
				c.remember(key, p)
				return p, nil
			}
		}
	}

	p, err := c.next.Probability(ctx, first, second)
	if err != nil {
		return 0, err
	}
	c.remember(key, p)
	if c.shared != nil {
		if err := c.shared.Set(ctx, key, p); err != nil {
			c.logger.Warn("shared cache store failed", "error", err)
		}
	}
	return p, nil
}

func (c *Cached) remember(key string, p float64) {
	if c.local != nil {
		c.local.Add(key, p)
	}
}

// key is order sensitive: succession(a, b) differs from succession(b, a).
func (c *Cached) key(first, second string) string {
	h := fnv.New128a()
	_, _ = h.Write([]byte(first))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(second))
	return string(c.task) + ":" + hex.EncodeToString(h.Sum(nil))
}
