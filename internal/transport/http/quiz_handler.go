package http

import (
	"net/http"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
)

type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

type createVideoResponse struct {
	Message string       `json:"message"`
	Video   domain.Video `json:"video"`
}

type listVideosResponse struct {
	Message string         `json:"message"`
	Count   int            `json:"count"`
	Videos  []domain.Video `json:"videos"`
}

func (h *QuizHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	// Role is checked before the body is read.
	if !user.IsAdmin() {
		writeError(r.Context(), w, domain.ErrForbidden)
		return
	}
	var in app.CreateVideoInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	video, err := h.service.CreateVideo(r.Context(), user, in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createVideoResponse{Message: "Video and questions added successfully!", Video: video})
}

func (h *QuizHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListVideos(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, listVideosResponse{
		Message: "Videos fetched successfully.",
		Count:   len(videos),
		Videos:  videos,
	})
}

func (h *QuizHandler) SubmitAnswers(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	var in app.SubmitAnswersInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if _, err := h.service.SubmitAnswers(r.Context(), user.ID, in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Answers submitted successfully.")
}
