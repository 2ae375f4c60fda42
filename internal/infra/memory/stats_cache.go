package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/metrics"
)

const (
	keyVideoStats       = "videos"
	keyUserStats        = "users"
	keyQuestionInsights = "questions"
)

// StatsCache caches dashboard projections in process with TTL to avoid
// recomputing them from the store on every request.
type StatsCache struct {
	source app.StatsRepository
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu         sync.Mutex
	rnd        *rand.Rand
	generation uint64
	entries    map[string]cachedStats
}

type cachedStats struct {
	value     any
	expiresAt time.Time
}

func NewStatsCache(source app.StatsRepository, ttl time.Duration) *StatsCache {
	return &StatsCache{
		source:  source,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cachedStats),
	}
}

func (c *StatsCache) VideoStats(ctx context.Context) ([]domain.VideoStat, error) {
	return cached(ctx, c, keyVideoStats, c.source.VideoStats)
}

func (c *StatsCache) UserStats(ctx context.Context) ([]domain.UserStat, error) {
	return cached(ctx, c, keyUserStats, c.source.UserStats)
}

func (c *StatsCache) QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error) {
	return cached(ctx, c, keyQuestionInsights, c.source.QuestionInsights)
}

// Invalidate drops every cached projection. Loads already in flight will not
// repopulate the cache.
func (c *StatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]cachedStats)
	c.mu.Unlock()
	for _, key := range []string{keyVideoStats, keyUserStats, keyQuestionInsights} {
		c.sf.Forget(key)
	}
	return nil
}

func cached[T any](ctx context.Context, c *StatsCache, key string, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		metrics.RecordCacheLookup("memory", true)
		return v.(T), nil
	}
	metrics.RecordCacheLookup("memory", false)

	// Joined callers share this load, so it must outlive the first caller.
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if gen == c.generation {
			c.entries[key] = cachedStats{value: v, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *StatsCache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.value, true
}

// ttlWithJitter must be called with mu held.
func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
