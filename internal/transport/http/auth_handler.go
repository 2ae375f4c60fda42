package http

import (
	"net/http"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/logging"
)

type AuthHandler struct {
	service *app.AuthService
	cookies cookieWriter
}

func NewAuthHandler(service *app.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, cookies: cookieWriter{secure: secureCookies}}
}

type signupResponse struct {
	User    domain.Profile `json:"user"`
	Message string         `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in app.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	profile, pair, err := h.service.Register(r.Context(), in)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.cookies.setPair(w, pair)
	writeJSON(w, http.StatusCreated, signupResponse{User: profile, Message: "User created successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeJSON(r, &in); err != nil {
		writeError(r.Context(), w, err)
		return
	}
	profile, pair, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.cookies.setPair(w, pair)
	writeJSON(w, http.StatusOK, profile)
}

// Logout always clears both cookies, even when the server-side revocation fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.service.Logout(r.Context(), cookieValue(r, refreshCookie))
	h.cookies.clear(w)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("logout")
		writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := cookieValue(r, refreshCookie)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, "No refresh token provided")
		return
	}
	access, err := h.service.RotateAccessToken(r.Context(), token)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	h.cookies.setAccess(w, access)
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

func (h *AuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeError(r.Context(), w, domain.ErrInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}
