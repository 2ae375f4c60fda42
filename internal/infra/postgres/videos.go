package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v4"

	"video-quiz-service/internal/domain"
)

func (s *Store) CreateVideo(ctx context.Context, video domain.Video) error {
	data, err := json.Marshal(video)
	if err != nil {
		return fmt.Errorf("marshal video: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO videos (id, video_url, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		video.ID, video.VideoURL, string(data), video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *Store) ListVideos(ctx context.Context) ([]domain.Video, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM videos ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []domain.Video
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		var video domain.Video
		if err := json.Unmarshal(raw, &video); err != nil {
			return nil, fmt.Errorf("unmarshal video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// AppendAnswers locks the video row for the read-modify-write so concurrent
// submissions serialize instead of overwriting each other.
func (s *Store) AppendAnswers(ctx context.Context, videoID, userID string, answers []string, at time.Time) (domain.Video, error) {
	var video domain.Video
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, `SELECT data FROM videos WHERE id = $1 FOR UPDATE`, videoID).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrVideoNotFound
		}
		if err != nil {
			return fmt.Errorf("load video: %w", err)
		}
		if err := json.Unmarshal(raw, &video); err != nil {
			return fmt.Errorf("unmarshal video: %w", err)
		}
		if err := video.AppendAnswers(userID, answers, at); err != nil {
			return err
		}
		data, err := json.Marshal(video)
		if err != nil {
			return fmt.Errorf("marshal video: %w", err)
		}
		_, err = tx.Exec(ctx, `UPDATE videos SET data = $2, updated_at = $3 WHERE id = $1`, videoID, string(data), at)
		if err != nil {
			return fmt.Errorf("update video: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Video{}, err
	}
	return video, nil
}
