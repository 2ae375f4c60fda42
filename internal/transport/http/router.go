package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"video-quiz-service/internal/app"
)

// RouterConfig carries the transport-level settings.
type RouterConfig struct {
	Production     bool
	AllowedOrigins []string
	// AuthRateLimit is requests per minute per IP on /api/auth; 0 disables it.
	AuthRateLimit int
	// StaticDir is served with an index.html fallback in production when set.
	StaticDir string
}

// Services groups the use cases the router exposes.
type Services struct {
	Auth  *app.AuthService
	Quiz  *app.QuizService
	Stats *app.StatsService
}

func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	authHandler := NewAuthHandler(svc.Auth, cfg.Production)
	quizHandler := NewQuizHandler(svc.Quiz)
	statsHandler := NewStatsHandler(svc.Stats)
	wsHandler := NewWSHandler(svc.Stats, cfg.AllowedOrigins)
	authenticated := requireUser(svc.Auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.AuthRateLimit > 0 {
				r.Use(httprate.Limit(cfg.AuthRateLimit, time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						writeMessage(w, http.StatusTooManyRequests, "Too many requests, please try again later")
					}),
				))
			}
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/refresh-token", authHandler.RefreshToken)
			r.With(authenticated).Get("/check", authHandler.Check)
		})

		r.Route("/questions", func(r chi.Router) {
			r.Use(authenticated)
			r.Post("/add-video", quizHandler.AddVideo)
			r.Get("/video", quizHandler.ListVideos)
			r.Post("/answer", quizHandler.SubmitAnswers)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticated)
			r.Get("/videoStats", statsHandler.VideoStats)
			r.Get("/userStats", statsHandler.UserStats)
			r.Get("/questionInsights", statsHandler.QuestionInsights)
			r.With(requireAdmin).Get("/live", wsHandler.ServeWS)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusNotFound, "Not found.")
		})
	})

	if cfg.Production && cfg.StaticDir != "" {
		r.NotFound(spaHandler(cfg.StaticDir))
	}
	return r
}

// spaHandler serves files from dir and falls back to index.html for client routes.
func spaHandler(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			writeMessage(w, http.StatusNotFound, "Not found.")
			return
		}
		clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
		if info, err := os.Stat(filepath.Join(dir, clean)); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		if _, err := os.Stat(index); err != nil {
			writeMessage(w, http.StatusNotFound, "Not found.")
			return
		}
		http.ServeFile(w, r, index)
	}
}
