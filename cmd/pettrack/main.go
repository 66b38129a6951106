package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mweber/pettrack/internal/database"
	"github.com/mweber/pettrack/internal/files"
	"github.com/mweber/pettrack/internal/logging"
	"github.com/mweber/pettrack/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("PETTRACK_LOG_LEVEL"))

	port := os.Getenv("PETTRACK_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("PETTRACK_DB_PATH")
	if dbPath == "" {
		dbPath = "pettrack.db"
	}

	baseURL := os.Getenv("PETTRACK_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		BaseURL:      baseURL,
		ResendAPIKey: os.Getenv("PETTRACK_RESEND_API_KEY"),
		FromEmail:    os.Getenv("PETTRACK_FROM_EMAIL"),
		S3: files.S3Config{
			Endpoint:  os.Getenv("PETTRACK_S3_ENDPOINT"),
			Bucket:    os.Getenv("PETTRACK_S3_BUCKET"),
			Region:    os.Getenv("PETTRACK_S3_REGION"),
			AccessKey: os.Getenv("PETTRACK_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("PETTRACK_S3_SECRET_KEY"),
		},
		VAPIDPublicKey:  os.Getenv("PETTRACK_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("PETTRACK_VAPID_PRIVATE_KEY"),
	}

	srv := server.New(db, cfg, logger)

	// Periodic cleanup of expired sessions, expired invites, and stale
	// rate-limit buckets.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				if n, err := srv.InviteStore().DeleteExpired(); err != nil {
					logger.Warn("invite cleanup", "error", err)
				} else if n > 0 {
					logger.Info("invite cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("pettrack running", "addr", "http://localhost:"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
