package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
	"video-quiz-service/internal/metrics"
)

// StatsService serves the dashboard projections and pushes fresh snapshots to
// live subscribers whenever content changes.
type StatsService struct {
	stats StatsRepository
	now   func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Dashboard]struct{}
}

func NewStatsService(stats StatsRepository) *StatsService {
	return &StatsService{
		stats:       stats,
		now:         time.Now,
		subscribers: make(map[chan domain.Dashboard]struct{}),
	}
}

func (s *StatsService) VideoStats(ctx context.Context) ([]domain.VideoStat, error) {
	return s.stats.VideoStats(ctx)
}

func (s *StatsService) UserStats(ctx context.Context) ([]domain.UserStat, error) {
	return s.stats.UserStats(ctx)
}

func (s *StatsService) QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error) {
	return s.stats.QuestionInsights(ctx)
}

// Dashboard computes all three projections.
func (s *StatsService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	videos, err := s.stats.VideoStats(ctx)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("video stats: %w", err)
	}
	users, err := s.stats.UserStats(ctx)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("user stats: %w", err)
	}
	questions, err := s.stats.QuestionInsights(ctx)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("question insights: %w", err)
	}
	return domain.Dashboard{
		VideoStats:       videos,
		UserStats:        users,
		QuestionInsights: questions,
		GeneratedAt:      s.now(),
	}, nil
}

// ContentChanged drops cached projections and, if anyone is listening, publishes a
// fresh dashboard.
func (s *StatsService) ContentChanged(ctx context.Context) {
	if inv, ok := s.stats.(StatsInvalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("stats cache invalidation failed")
		}
	}
	if s.subscriberCount() == 0 {
		return
	}
	dashboard, err := s.Dashboard(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("compute dashboard for live feed")
		return
	}
	s.broadcast(dashboard)
}

// Subscribe returns a channel of dashboard snapshots, seeded with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *StatsService) Subscribe(ctx context.Context) (<-chan domain.Dashboard, func(), error) {
	initial, err := s.Dashboard(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Dashboard, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	metrics.LiveSubscribers.Inc()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
			metrics.LiveSubscribers.Dec()
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *StatsService) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *StatsService) broadcast(d domain.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- d:
		default:
			// Slow subscriber: replace its oldest snapshot instead of blocking.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- d:
			default:
			}
		}
	}
}
