package domain

import "time"

// VideoStat counts questions and answers for one video.
type VideoStat struct {
	VideoID        string `json:"videoId"`
	VideoURL       string `json:"videoUrl"`
	TotalQuestions int    `json:"totalQuestions"`
	TotalAnswers   int    `json:"totalAnswers"`
}

// UserStat summarizes one user's participation.
type UserStat struct {
	UserID         string `json:"_id"`
	Name           string `json:"name"`
	VideosAnswered int    `json:"videosAnswered"`
	TotalAnswers   int    `json:"totalAnswers"`
}

// QuestionInsight counts answers for one question.
type QuestionInsight struct {
	QuestionID   string `json:"_id"`
	VideoID      string `json:"videoId"`
	QuestionText string `json:"questionText"`
	TotalAnswers int    `json:"totalAnswers"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

// Dashboard bundles every projection for the live feed.
type Dashboard struct {
	VideoStats       []VideoStat       `json:"videoStats"`
	UserStats        []UserStat        `json:"userStats"`
	QuestionInsights []QuestionInsight `json:"questionInsights"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}

// ComputeVideoStats projects videos in the order given. Videos without answers report zero.
func ComputeVideoStats(videos []Video) []VideoStat {
	stats := make([]VideoStat, 0, len(videos))
	for _, v := range videos {
		total := 0
		for _, q := range v.Questions {
			total += len(q.Answers)
		}
		stats = append(stats, VideoStat{
			VideoID:        v.ID,
			VideoURL:       v.VideoURL,
			TotalQuestions: len(v.Questions),
			TotalAnswers:   total,
		})
	}
	return stats
}

// ComputeUserStats projects users in the order given, including users who never answered.
func ComputeUserStats(users []User, videos []Video) []UserStat {
	answers := make(map[string]int)
	seen := make(map[string]map[string]struct{})
	for _, v := range videos {
		for _, q := range v.Questions {
			for _, a := range q.Answers {
				answers[a.UserID]++
				if seen[a.UserID] == nil {
					seen[a.UserID] = make(map[string]struct{})
				}
				seen[a.UserID][v.ID] = struct{}{}
			}
		}
	}

	stats := make([]UserStat, 0, len(users))
	for _, u := range users {
		stats = append(stats, UserStat{
			UserID:         u.ID,
			Name:           u.Name,
			VideosAnswered: len(seen[u.ID]),
			TotalAnswers:   answers[u.ID],
		})
	}
	return stats
}

// ComputeQuestionInsights projects every question, video by video, in position order.
func ComputeQuestionInsights(videos []Video) []QuestionInsight {
	insights := make([]QuestionInsight, 0, len(videos)*QuestionsPerVideo)
	for _, v := range videos {
		for _, q := range v.Questions {
			users := make(map[string]struct{}, len(q.Answers))
			for _, a := range q.Answers {
				users[a.UserID] = struct{}{}
			}
			insights = append(insights, QuestionInsight{
				QuestionID:   q.ID,
				VideoID:      v.ID,
				QuestionText: q.QuestionText,
				TotalAnswers: len(q.Answers),
				UniqueUsers:  len(users),
			})
		}
	}
	return insights
}
