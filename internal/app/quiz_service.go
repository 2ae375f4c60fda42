package app

import (
	"context"
	"fmt"
	"time"

	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
	"video-quiz-service/internal/metrics"
	"video-quiz-service/internal/validation"
)

// CreateVideoInput is the admin upload payload.
type CreateVideoInput struct {
	VideoURL  string   `json:"videoUrl" validate:"required"`
	Questions []string `json:"questions" validate:"required,len=3,dive,required"`
}

// SubmitAnswersInput carries one answer per question, in question order.
// Answer text is checked against the stored video, after the lookup.
type SubmitAnswersInput struct {
	VideoID string   `json:"videoId" validate:"required"`
	Answers []string `json:"answers" validate:"required"`
}

// QuizService contains the video and answer use cases.
type QuizService struct {
	videos   VideoRepository
	observer ContentObserver
	now      func() time.Time
}

// NewQuizService wires the service; observer may be nil.
func NewQuizService(videos VideoRepository, observer ContentObserver) *QuizService {
	return &QuizService{videos: videos, observer: observer, now: time.Now}
}

// CreateVideo stores a video with exactly three questions. Only admins may call it.
func (s *QuizService) CreateVideo(ctx context.Context, actor domain.User, in CreateVideoInput) (domain.Video, error) {
	if !actor.IsAdmin() {
		return domain.Video{}, domain.ErrForbidden
	}
	if err := validation.Struct(in); err != nil {
		return domain.Video{}, err
	}

	questionIDs := make([]string, len(in.Questions))
	for i := range questionIDs {
		questionIDs[i] = newID()
	}
	video, err := domain.NewVideo(newID(), in.VideoURL, in.Questions, questionIDs, s.now())
	if err != nil {
		return domain.Video{}, err
	}
	if err := s.videos.CreateVideo(ctx, video); err != nil {
		return domain.Video{}, fmt.Errorf("create video: %w", err)
	}

	metrics.VideosCreatedTotal.Inc()
	logging.Ctx(ctx).Info().Str("video_id", video.ID).Str("admin_id", actor.ID).Msg("video created")
	s.changed(ctx)
	return video, nil
}

// ListVideos returns every video, or domain.ErrNoVideos when there are none.
func (s *QuizService) ListVideos(ctx context.Context) ([]domain.Video, error) {
	videos, err := s.videos.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	if len(videos) == 0 {
		return nil, domain.ErrNoVideos
	}
	return videos, nil
}

// SubmitAnswers appends answers[i] to question i of the video. Repeat submissions
// accumulate.
func (s *QuizService) SubmitAnswers(ctx context.Context, userID string, in SubmitAnswersInput) (domain.Video, error) {
	if err := validation.Struct(in); err != nil {
		return domain.Video{}, err
	}

	video, err := s.videos.AppendAnswers(ctx, in.VideoID, userID, in.Answers, s.now())
	if err != nil {
		return domain.Video{}, err
	}

	metrics.AnswerSubmissionsTotal.Inc()
	logging.Ctx(ctx).Info().Str("video_id", video.ID).Str("user_id", userID).Msg("answers submitted")
	s.changed(ctx)
	return video, nil
}

func (s *QuizService) changed(ctx context.Context) {
	if s.observer != nil {
		s.observer.ContentChanged(ctx)
	}
}
