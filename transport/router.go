package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter returns a configured chi Router with the full middleware chain
// and every route SPEC_FULL.md's external-interface section names.
// Adapted from the teacher's router/router.go: same CORS → security headers
// → request ID → recoverer → request logger → body size ordering up front,
// then an authenticated sub-router with its own auth → rate-limit →
// timeout chain, but the LLM-gateway route table is replaced entirely.
func NewRouter(a *App) http.Handler {
	r := chi.NewRouter()

	r.Use(CORSMiddleware([]string{"*"}))
	r.Use(SecurityHeadersMiddleware)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(a.Logger))
	r.Use(mwMaxBodySize(a.Cfg.MaxBodyBytes))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	authMW := NewAuthMiddleware(a.Logger, a.Cfg.UserIDHeader)
	rateLimiter := NewRateLimiter(a.Logger, a.Cfg.RateLimitEnabled, a.Cfg.RateLimitRPM, a.Cfg.RateLimitBurst)
	timeoutMW := NewTimeoutMiddleware(a.Logger, a.Cfg.DefaultTimeout)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMW.Handler)
		r.Use(rateLimiter.Handler)
		r.Use(timeoutMW.Handler)

		r.Route("/discussions", func(r chi.Router) {
			r.Post("/", a.CreateDiscussion)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetDiscussion)
				r.Patch("/", a.UpdateDiscussion)
				r.Delete("/", a.DeleteDiscussion)
				r.Post("/users", a.AddChatUsers)
				r.Delete("/users", a.RemoveChatUsers)
				r.Post("/posts", a.CreatePost)
				r.Post("/tasks", a.CreateTaskOnDiscussion)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetPost)
				r.Patch("/", a.UpdatePost)
				r.Delete("/", a.DeletePost)
				r.Post("/read", a.MarkPostRead)
				r.Post("/like", a.Like)
				r.Post("/replies", a.CreateReply)
				r.Get("/replies", a.ListReplies)
				r.Post("/tasks", a.CreateTaskOnPost)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/received", a.ListReceived)
			r.Get("/given", a.ListGiven)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetTask)
				r.Post("/accept", a.AcceptTask)
				r.Post("/reject", a.RejectTask)
				r.Post("/deliver", a.DeliverTask)
				r.Post("/donor", a.Donate)
			})
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/history", a.WalletHistory)
			r.Get("/balance", a.WalletBalance)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/unread", a.ListNotifications)
			r.Post("/read", a.MarkNotificationsRead)
			r.Get("/sse", a.NotificationStream)
		})

		r.Route("/media", func(r chi.Router) {
			r.Post("/", a.UploadMedia)
		})
	})

	return r
}

// requestLogger mirrors the teacher's mwRequestLogger in router/router.go:
// wrap-response-writer status capture plus a structured completion log line.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rw, r)
			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("req_id", chimw.GetReqID(r.Context())).
				Int("status", rw.Status()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}
