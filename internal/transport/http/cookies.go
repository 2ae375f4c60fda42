package http

import (
	"net/http"

	"video-quiz-service/internal/auth"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type cookieWriter struct {
	secure bool
}

func (c cookieWriter) setAccess(w http.ResponseWriter, token string) {
	c.set(w, accessCookie, token, int(auth.AccessTTL.Seconds()))
}

func (c cookieWriter) setPair(w http.ResponseWriter, pair auth.TokenPair) {
	c.setAccess(w, pair.AccessToken)
	c.set(w, refreshCookie, pair.RefreshToken, int(auth.RefreshTTL.Seconds()))
}

func (c cookieWriter) clear(w http.ResponseWriter) {
	c.set(w, accessCookie, "", -1)
	c.set(w, refreshCookie, "", -1)
}

func (c cookieWriter) set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
