package badger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"video-quiz-service/internal/domain"
)

func (s *Store) CreateVideo(ctx context.Context, video domain.Video) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, videoPrefix+video.ID, video)
	})
}

func (s *Store) ListVideos(_ context.Context) ([]domain.Video, error) {
	var videos []domain.Video
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		videos, err = scan[domain.Video](txn, videoPrefix)
		return err
	})
	sortVideos(videos)
	return videos, err
}

// AppendAnswers reads, mutates and writes the video in one transaction; a
// concurrent writer makes the commit conflict and the whole cycle is retried.
func (s *Store) AppendAnswers(ctx context.Context, videoID, userID string, answers []string, at time.Time) (domain.Video, error) {
	var video domain.Video
	err := s.update(ctx, func(txn *badger.Txn) error {
		video = domain.Video{}
		err := getJSON(txn, videoPrefix+videoID, &video)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return domain.ErrVideoNotFound
		}
		if err != nil {
			return err
		}
		if err := video.AppendAnswers(userID, answers, at); err != nil {
			return err
		}
		return setJSON(txn, videoPrefix+video.ID, video)
	})
	if err != nil {
		return domain.Video{}, err
	}
	return video, nil
}

func (s *Store) VideoStats(ctx context.Context) ([]domain.VideoStat, error) {
	videos, err := s.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeVideoStats(videos), nil
}

func (s *Store) UserStats(ctx context.Context) ([]domain.UserStat, error) {
	var users []domain.User
	var videos []domain.Video
	// One read snapshot for both collections.
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		if users, err = scan[domain.User](txn, userPrefix); err != nil {
			return err
		}
		videos, err = scan[domain.Video](txn, videoPrefix)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	sortVideos(videos)
	return domain.ComputeUserStats(users, videos), nil
}

// Keys share a millisecond-resolution prefix, so ties fall back to key order.
func sortVideos(videos []domain.Video) {
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].CreatedAt.Before(videos[j].CreatedAt) })
}

func (s *Store) QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error) {
	videos, err := s.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeQuestionInsights(videos), nil
}
