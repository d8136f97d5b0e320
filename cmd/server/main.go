package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalweekly/newsletter/internal/api"
	"github.com/signalweekly/newsletter/internal/auth"
	"github.com/signalweekly/newsletter/internal/config"
	"github.com/signalweekly/newsletter/internal/mailer"
	"github.com/signalweekly/newsletter/internal/repository/postgres"
	"github.com/signalweekly/newsletter/internal/service/newsletter"
	"github.com/signalweekly/newsletter/internal/wizard"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscriber store. Without a database URL the server still comes up:
	// reads return zero rows and writes fail with a store error, so the
	// marketing site keeps rendering while ops sorts the DSN out.
	var repo newsletter.Repository
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(3)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			log.Printf("Warning: database ping failed: %v", err)
		} else {
			log.Println("Database connected")
		}
		pingCancel()

		repo = postgres.NewSubscriberRepo(db)
		defer db.Close()
	} else {
		log.Println("Warning: DATABASE_URL not set, running without a subscriber store")
	}

	svc := newsletter.NewService(repo)

	// Welcome email over SES, fire-and-forget from the subscribe path.
	if cfg.Mailer.Enabled && cfg.Mailer.AccessKey != "" {
		m, err := mailer.New(ctx, cfg.Mailer)
		if err != nil {
			log.Printf("Warning: mailer init failed: %v", err)
		} else {
			svc.SetMailer(m)
			log.Printf("Welcome mailer enabled (from %s)", cfg.Mailer.FromEmail)
		}
	} else {
		log.Println("Welcome mailer disabled")
	}

	// Wizard sessions live in Redis so sessions survive a deploy; without
	// Redis they fall back to process memory.
	var sessions wizard.SessionStore = wizard.NewMemoryStore()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		var client *redis.Client
		if err != nil {
			client = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			client = redis.NewClient(opts)
		}
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v, using in-memory sessions", cfg.Redis.URL, err)
			client.Close()
		} else {
			sessions = wizard.NewRedisStore(client)
			log.Printf("Redis connected: %s", cfg.Redis.URL)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured (REDIS_URL not set), using in-memory wizard sessions")
	}

	wiz := wizard.NewController(svc, sessions)

	var authManager *auth.Manager
	if cfg.Auth.Enabled && cfg.Auth.GoogleClientID != "" {
		baseURL := cfg.Server.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
		}
		authManager = auth.NewManager(&cfg.Auth, baseURL)
		authManager.CleanupExpiredSessions()
		log.Printf("Google OAuth enabled (callback: %s/auth/callback, %d admin emails)",
			baseURL, len(cfg.Auth.AdminEmails))
	} else {
		log.Println("Authentication disabled, admin routes are open")
	}

	handlers := api.NewHandlers(svc, wiz)
	router := api.SetupRoutes(handlers, authManager, cfg.CORS.AllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Signal Weekly API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
