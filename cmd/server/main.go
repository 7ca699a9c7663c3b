package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focusroom-backend/internal/config"
	"focusroom-backend/internal/database"
	"focusroom-backend/internal/handlers"
	"focusroom-backend/internal/jobs"
	"focusroom-backend/internal/middleware"
	"focusroom-backend/internal/realtime"
	"focusroom-backend/internal/repository"
	"focusroom-backend/internal/router"
	"focusroom-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting FocusRoom Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	profileRepo := repository.NewProfileRepo(pool)
	roomRepo := repository.NewRoomRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, profileRepo, redisClients.Store, jwtAuth)
	billingService := services.NewBillingService(profileRepo)

	// ──── Step 5: Start Realtime Hub ────
	presence := realtime.NewPresence(redisClients.Store, time.Duration(cfg.PresenceTTLSeconds)*time.Second)
	hub := realtime.NewHub(redisClients.PubSub, presence, roomRepo, chatRepo, sessionRepo, profileRepo, cfg.JWTSecret)
	log.Println("✓ Realtime hub started")

	// ──── Step 6: Start Session Janitor ────
	janitor := jobs.NewJanitor(sessionRepo, time.Duration(cfg.JanitorIntervalMinutes)*time.Minute)
	janitor.Start()
	log.Println("✓ Session janitor started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(userRepo, profileRepo, sessionRepo)
	roomHandler := handlers.NewRoomHandler(roomRepo, profileRepo, presence)
	chatHandler := handlers.NewChatHandler(chatRepo, hub)
	leaderboardHandler := handlers.NewLeaderboardHandler(profileRepo)
	billingHandler := handlers.NewBillingHandler(billingService)
	adminHandler := handlers.NewAdminHandler(userRepo, profileRepo, roomRepo, chatRepo)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		redisClients.Store,
		authHandler,
		profileHandler,
		roomHandler,
		chatHandler,
		leaderboardHandler,
		billingHandler,
		adminHandler,
		hub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		janitor.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ FocusRoom Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/rooms/{id}/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
