package http

import (
	"net/http"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
)

type StatsHandler struct {
	service *app.StatsService
}

func NewStatsHandler(service *app.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

type videoStatsResponse struct {
	VideoStats []domain.VideoStat `json:"videoStats"`
}

type userStatsResponse struct {
	Users []domain.UserStat `json:"users"`
}

type questionInsightsResponse struct {
	QuestionInsights []domain.QuestionInsight `json:"questionInsights"`
}

func (h *StatsHandler) VideoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.VideoStats(r.Context())
	if err != nil {
		writeStatsError(w, r, err, "Error fetching video statistics")
		return
	}
	writeJSON(w, http.StatusOK, videoStatsResponse{VideoStats: nonNil(stats)})
}

func (h *StatsHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.UserStats(r.Context())
	if err != nil {
		writeStatsError(w, r, err, "Error fetching user statistics")
		return
	}
	writeJSON(w, http.StatusOK, userStatsResponse{Users: nonNil(stats)})
}

func (h *StatsHandler) QuestionInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.service.QuestionInsights(r.Context())
	if err != nil {
		writeStatsError(w, r, err, "Error fetching question insights")
		return
	}
	writeJSON(w, http.StatusOK, questionInsightsResponse{QuestionInsights: nonNil(insights)})
}

func writeStatsError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logging.Ctx(r.Context()).Error().Err(err).Msg(message)
	writeMessage(w, http.StatusInternalServerError, message)
}

// nonNil makes empty projections encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
