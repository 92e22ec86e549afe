package pairmodel

import (
	"context"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyCache shares pair probabilities between processes using a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyCache constructs the cache. ttl <= 0 keeps entries forever.
func NewValkeyCache(client valkey.Client, prefix string, ttl time.Duration) *ValkeyCache {
	if prefix == "" {
		prefix = "pairmodel"
	}
	return &ValkeyCache{client: client, prefix: prefix, ttl: ttl}
}

// Get implements SharedCache.
func (c *ValkeyCache) Get(ctx context.Context, key string) (float64, bool, error) {
	cmd := c.client.B().Get().Key(c.entryKey(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	p, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return 0, false, err
	}
	return p, true, nil
}

// Set implements SharedCache.
func (c *ValkeyCache) Set(ctx context.Context, key string, value float64) error {
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(strconv.FormatFloat(value, 'g', -1, 64))
	var cmd valkey.Completed
	if c.ttl > 0 {
		ttl := c.ttl
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) entryKey(key string) string {
	return c.prefix + ":" + key
}

var _ SharedCache = (*ValkeyCache)(nil)
