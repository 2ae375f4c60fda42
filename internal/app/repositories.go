package app

import (
	"context"
	"time"

	"video-quiz-service/internal/domain"
)

// UserRepository persists user records, including the single live refresh token.
type UserRepository interface {
	// CreateUser returns domain.ErrDuplicateUser when the email or phone is taken.
	CreateUser(ctx context.Context, user domain.User) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	EmailOrPhoneTaken(ctx context.Context, email, phone string) (bool, error)
	// SetRefreshToken overwrites the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	SetRole(ctx context.Context, email string, role domain.Role) error
}

// VideoRepository persists video documents.
type VideoRepository interface {
	CreateVideo(ctx context.Context, video domain.Video) error
	// ListVideos returns every video in creation order.
	ListVideos(ctx context.Context) ([]domain.Video, error)
	// AppendAnswers atomically applies domain.Video.AppendAnswers to the stored document.
	AppendAnswers(ctx context.Context, videoID, userID string, answers []string, at time.Time) (domain.Video, error)
}

// StatsRepository computes the dashboard projections (from the store or a cache).
type StatsRepository interface {
	VideoStats(ctx context.Context) ([]domain.VideoStat, error)
	UserStats(ctx context.Context) ([]domain.UserStat, error)
	QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error)
}

// StatsInvalidator is implemented by caching stats repositories.
type StatsInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ContentObserver is notified after videos or answers change.
type ContentObserver interface {
	ContentChanged(ctx context.Context)
}
