package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bibliofonds/recindex/pkg/metrics"
	"github.com/bibliofonds/recindex/pkg/redis"
)

const lookupTimeout = 2 * time.Second

// Redis resolves codes against hashes stored in Redis under
// "<prefix>:<table>" keys, with a bounded in-process LRU in front so hot
// codes do not hit the network on every record. Misses pass the code
// through and are cached as such.
type Redis struct {
	client  *redis.Client
	prefix  string
	cache   *lru.Cache[string, string]
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRedis builds a Redis-backed table set. cacheSize bounds the LRU; m may
// be nil when metrics are disabled.
func NewRedis(client *redis.Client, prefix string, cacheSize int, m *metrics.Metrics) (*Redis, error) {
	if cacheSize < 1 {
		cacheSize = 1024
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}
	return &Redis{
		client:  client,
		prefix:  prefix,
		cache:   cache,
		metrics: m,
		logger:  slog.Default().With("component", "lookup"),
	}, nil
}

// Lookup returns the label stored under field code of hash
// "<prefix>:<table>", or code unchanged when the entry is absent or Redis
// is unreachable.
func (r *Redis) Lookup(table, code string) string {
	cacheKey := table + "\x00" + code
	if label, ok := r.cache.Get(cacheKey); ok {
		if r.metrics != nil {
			r.metrics.LookupHitsTotal.Inc()
		}
		return label
	}
	if r.metrics != nil {
		r.metrics.LookupMissesTotal.Inc()
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	label, err := r.client.HGet(ctx, r.prefix+":"+table, code)
	if err != nil {
		// Miss or transient failure: pass the code through. No retry
		// here, the caller owns retry policy.
		if !redis.IsNilError(err) {
			r.logger.Warn("lookup failed, passing code through",
				"table", table,
				"error", err,
			)
		}
		label = code
	}
	r.cache.Add(cacheKey, label)
	return label
}
