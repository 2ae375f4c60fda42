package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/config"
	badgerstore "video-quiz-service/internal/infra/badger"
	"video-quiz-service/internal/infra/memory"
	pgstore "video-quiz-service/internal/infra/postgres"
	rediscache "video-quiz-service/internal/infra/redis"
	"video-quiz-service/internal/logging"
)

// backend is the storage selected by configuration.
type backend struct {
	users   app.UserRepository
	videos  app.VideoRepository
	stats   app.StatsRepository
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// document stores implement every repository interface.
type documentStore interface {
	app.UserRepository
	app.VideoRepository
	app.StatsRepository
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	log := logging.Component("storage")
	b := &backend{}

	var store documentStore
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		store = pgstore.NewStore(pool)
	case config.DriverMemory:
		s, err := badgerstore.OpenInMemory()
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		store = s
	case config.DriverBadger:
		s, err := badgerstore.Open(cfg.Storage.BadgerPath)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = s.Close() })
		store = s
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("storage ready")

	b.users, b.videos = store, store
	statsTTL := config.TTLDuration(cfg.Stats.TTL, 30*time.Second)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, stats cache will fall back to the store")
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.stats = rediscache.NewStatsCache(client, store, statsTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", statsTTL).Msg("redis stats cache enabled")
	} else {
		b.stats = memory.NewStatsCache(store, statsTTL)
	}
	return b, nil
}
