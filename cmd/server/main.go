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

	"parentyn-backend/internal/config"
	"parentyn-backend/internal/database"
	"parentyn-backend/internal/handlers"
	"parentyn-backend/internal/middleware"
	"parentyn-backend/internal/notify"
	"parentyn-backend/internal/repository"
	"parentyn-backend/internal/router"
	"parentyn-backend/internal/services"
	"parentyn-backend/internal/sessionsync"
	"parentyn-backend/internal/store"
	"parentyn-backend/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Parentyn Backend...")

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

	// ──── Session Sync Core ────
	sessionStore := store.NewRedisStore(redisClients.Store)
	notifier := notify.NewRedisNotifier(redisClients.PubSub)
	notifier.Start()
	defer notifier.Stop()

	sessionRepo := repository.NewSessionRepo(sessionStore, notifier)
	analyticsRepo := repository.NewAnalyticsRepo(sessionStore, notifier)
	listener := sessionsync.NewListener(sessionRepo, notifier)
	log.Println("✓ Session sync core initialized")

	// ──── Repositories ────
	teacherRepo := repository.NewTeacherRepo(pool)
	moduleRepo := repository.NewModuleRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	generator, err := services.NewGeneratorService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer generator.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(teacherRepo, jwtAuth)

	// ──── Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, moduleRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsRepo)
	moduleHandler := handlers.NewModuleHandler(moduleRepo, generator)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(listener)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		analyticsHandler,
		moduleHandler,
		wsHub,
		cfg.FrontendURL,
		cfg.JoinRateLimitPerMin,
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
		notifier.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Parentyn Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
