package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
	"video-quiz-service/internal/metrics"
)

// Projections are stored as JSON strings under the current generation:
//
//	stats:gen              -> generation counter, bumped by Invalidate
//	stats:{gen}:videos     -> []domain.VideoStat
//	stats:{gen}:users      -> []domain.UserStat
//	stats:{gen}:questions  -> []domain.QuestionInsight
//
// A load that started before an invalidation writes under the old generation,
// which no reader looks at again; the key expires with its TTL.
const (
	keyGeneration = "stats:gen"

	nameVideoStats       = "videos"
	nameUserStats        = "users"
	nameQuestionInsights = "questions"
)

func dataKey(gen int64, name string) string {
	return "stats:" + strconv.FormatInt(gen, 10) + ":" + name
}

// StatsCache caches dashboard projections in Redis so every instance shares
// them, and falls back to the source on a miss.
type StatsCache struct {
	client *redis.Client
	source app.StatsRepository
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewStatsCache(client *redis.Client, source app.StatsRepository, ttl time.Duration) *StatsCache {
	return &StatsCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *StatsCache) VideoStats(ctx context.Context) ([]domain.VideoStat, error) {
	return cached(ctx, c, nameVideoStats, c.source.VideoStats)
}

func (c *StatsCache) UserStats(ctx context.Context) ([]domain.UserStat, error) {
	return cached(ctx, c, nameUserStats, c.source.UserStats)
}

func (c *StatsCache) QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error) {
	return cached(ctx, c, nameQuestionInsights, c.source.QuestionInsights)
}

// Invalidate moves every instance to a new generation and drops the old keys.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, keyGeneration).Result()
	if err != nil {
		return err
	}
	prev := gen - 1
	return c.client.Del(ctx,
		dataKey(prev, nameVideoStats),
		dataKey(prev, nameUserStats),
		dataKey(prev, nameQuestionInsights),
	).Err()
}

func (c *StatsCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, keyGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func cached[T any](ctx context.Context, c *StatsCache, name string, load func(context.Context) (T, error)) (T, error) {
	gen, genErr := c.generation(ctx)
	if genErr != nil {
		logging.Ctx(ctx).Warn().Err(genErr).Msg("stats cache generation read failed")
	}
	key := dataKey(gen, name)
	if genErr == nil {
		if v, ok := lookup[T](ctx, c.client, key); ok {
			metrics.RecordCacheLookup("redis", true)
			return v, nil
		}
	}
	metrics.RecordCacheLookup("redis", false)

	// Joined callers share this load, so it must outlive the first caller.
	loadCtx := context.WithoutCancel(ctx)
	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if genErr == nil {
			// Re-check in case another instance filled it.
			if v, ok := lookup[T](loadCtx, c.client, key); ok {
				return v, nil
			}
		}

		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			return v, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if ttl := c.ttlWithJitter(); ttl > 0 {
			if err := c.client.Set(loadCtx, key, data, ttl).Err(); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("stats cache write failed")
			}
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// lookup treats any Redis failure as a miss so the source stays authoritative.
func lookup[T any](ctx context.Context, client *redis.Client, key string) (T, bool) {
	var v T
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("stats cache read failed")
		}
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

func (c *StatsCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
