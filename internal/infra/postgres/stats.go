package postgres

import (
	"context"
	"fmt"

	"video-quiz-service/internal/domain"
)

const videoStatsSQL = `
SELECT v.id,
       v.video_url,
       jsonb_array_length(v.data->'questions'),
       COALESCE((SELECT SUM(jsonb_array_length(q->'answers'))
                 FROM jsonb_array_elements(v.data->'questions') AS q), 0)
FROM videos v
ORDER BY v.created_at, v.id`

const userStatsSQL = `
SELECT u.id,
       u.name,
       COUNT(DISTINCT a.video_id),
       COUNT(a.video_id)
FROM users u
LEFT JOIN (
    SELECT v.id AS video_id, ans->>'userId' AS user_id
    FROM videos v
    CROSS JOIN LATERAL jsonb_array_elements(v.data->'questions') AS q
    CROSS JOIN LATERAL jsonb_array_elements(q->'answers') AS ans
) a ON a.user_id = u.id
GROUP BY u.id, u.name, u.created_at
ORDER BY u.created_at, u.id`

const questionInsightsSQL = `
SELECT t.q->>'_id',
       v.id,
       t.q->>'questionText',
       jsonb_array_length(t.q->'answers'),
       (SELECT COUNT(DISTINCT ans->>'userId') FROM jsonb_array_elements(t.q->'answers') AS ans)
FROM videos v
CROSS JOIN LATERAL jsonb_array_elements(v.data->'questions') WITH ORDINALITY AS t(q, pos)
ORDER BY v.created_at, v.id, t.pos`

func (s *Store) VideoStats(ctx context.Context) ([]domain.VideoStat, error) {
	rows, err := s.pool.Query(ctx, videoStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("video stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.VideoStat{}
	for rows.Next() {
		var (
			st               domain.VideoStat
			questions, total int64
		)
		if err := rows.Scan(&st.VideoID, &st.VideoURL, &questions, &total); err != nil {
			return nil, fmt.Errorf("scan video stat: %w", err)
		}
		st.TotalQuestions, st.TotalAnswers = int(questions), int(total)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) UserStats(ctx context.Context) ([]domain.UserStat, error) {
	rows, err := s.pool.Query(ctx, userStatsSQL)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.UserStat{}
	for rows.Next() {
		var (
			st            domain.UserStat
			videos, total int64
		)
		if err := rows.Scan(&st.UserID, &st.Name, &videos, &total); err != nil {
			return nil, fmt.Errorf("scan user stat: %w", err)
		}
		st.VideosAnswered, st.TotalAnswers = int(videos), int(total)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *Store) QuestionInsights(ctx context.Context) ([]domain.QuestionInsight, error) {
	rows, err := s.pool.Query(ctx, questionInsightsSQL)
	if err != nil {
		return nil, fmt.Errorf("question insights: %w", err)
	}
	defer rows.Close()

	insights := []domain.QuestionInsight{}
	for rows.Next() {
		var (
			in           domain.QuestionInsight
			total, users int64
		)
		if err := rows.Scan(&in.QuestionID, &in.VideoID, &in.QuestionText, &total, &users); err != nil {
			return nil, fmt.Errorf("scan question insight: %w", err)
		}
		in.TotalAnswers, in.UniqueUsers = int(total), int(users)
		insights = append(insights, in)
	}
	return insights, rows.Err()
}
