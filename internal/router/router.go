package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"focusroom-backend/internal/handlers"
	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/realtime"
)

func New(
	jwtAuth *middleware.JWTAuth,
	redisClient *redis.Client,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	roomHandler *handlers.RoomHandler,
	chatHandler *handlers.ChatHandler,
	leaderboardHandler *handlers.LeaderboardHandler,
	billingHandler *handlers.BillingHandler,
	adminHandler *handlers.AdminHandler,
	hub *realtime.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler)

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(redisClient, 10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Room Routes ────
		r.Route("/rooms", func(r chi.Router) {
			// WebSocket authenticates itself via token query param.
			r.Get("/{id}/ws", hub.HandleRoomSocket)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/", roomHandler.List)
				r.Post("/", roomHandler.Create)
				r.Get("/{id}", roomHandler.Get)
				r.Get("/{id}/messages", chatHandler.Backlog)
				r.Post("/{id}/messages", chatHandler.Send)
			})
		})

		// ──── Profile & Streak Routes ────
		r.Route("/me", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", profileHandler.GetMe)
			r.Put("/", profileHandler.UpdateMe)
			r.Get("/streak", profileHandler.Streak)
			r.Get("/sessions", profileHandler.Sessions)
		})

		// ──── Leaderboard ────
		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/leaderboard", leaderboardHandler.Get)
		})

		// ──── Billing Routes ────
		r.Route("/billing", func(r chi.Router) {
			r.Get("/plans", billingHandler.Plans) // Public

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/upgrade", billingHandler.Upgrade)
			})
		})

		// ──── Admin Routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Use(jwtAuth.RequireAdmin)
			r.Get("/stats", adminHandler.Stats)
			r.Get("/users", adminHandler.ListUsers)
			r.Put("/users/{id}/active", adminHandler.SetUserActive)
			r.Get("/rooms", adminHandler.ListRooms)
			r.Put("/rooms/{id}/active", adminHandler.SetRoomActive)
			r.Get("/messages", adminHandler.ListMessages)
			r.Delete("/messages/{id}", adminHandler.DeleteMessage)
		})
	})

	return r
}
