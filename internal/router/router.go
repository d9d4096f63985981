package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"parentyn-backend/internal/handlers"
	"parentyn-backend/internal/middleware"
	"parentyn-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	sessionHandler *handlers.SessionHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	moduleHandler *handlers.ModuleHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	joinRateLimitPerMin int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Limiters: auth brute force and join-code guessing
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	joinLimiter := middleware.NewRateLimiter(joinRateLimitPerMin, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/me", authHandler.Me)
			})
		})

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			// Student surface: the join code is the only credential.
			r.Group(func(r chi.Router) {
				r.Use(joinLimiter.Middleware)
				r.Get("/{code}/valid", sessionHandler.Valid)
				r.Post("/{code}/join", sessionHandler.Join)
			})
			r.Get("/{code}", sessionHandler.Get)

			// Teacher control surface
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/", sessionHandler.Create)
				r.Get("/active", sessionHandler.Active)
				r.Put("/{code}/state", sessionHandler.UpdateState)
				r.Post("/{code}/end", sessionHandler.End)
			})
		})

		// ──── Analytics Routes ────
		r.Route("/analytics", func(r chi.Router) {
			r.Post("/results", analyticsHandler.Record)
			r.Get("/weak-topics", analyticsHandler.WeakTopics)
		})

		// ──── Module Routes ────
		r.Route("/modules", func(r chi.Router) {
			r.Get("/{id}", moduleHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/", moduleHandler.Create)
				r.Get("/", moduleHandler.List)
				r.Post("/generate", moduleHandler.Generate)
				r.Post("/extend-note", moduleHandler.ExtendNote)
				r.Put("/{id}/publish", moduleHandler.Publish)
				r.Delete("/{id}", moduleHandler.Delete)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
