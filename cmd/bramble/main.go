package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rsheldon/bramble/internal/backup"
	"github.com/rsheldon/bramble/internal/database"
	"github.com/rsheldon/bramble/internal/logging"
	"github.com/rsheldon/bramble/internal/server"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	logger := logging.Setup(os.Getenv("BRAMBLE_LOG_LEVEL"), os.Getenv("BRAMBLE_LOG_FORMAT"))

	port := os.Getenv("BRAMBLE_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("BRAMBLE_DB_PATH")
	if dbPath == "" {
		dbPath = "bramble.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		Port:             port,
		RegistrationCode: os.Getenv("BRAMBLE_REGISTRATION_CODE"),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("BRAMBLE_S3_ENDPOINT"),
				Bucket:    os.Getenv("BRAMBLE_S3_BUCKET"),
				Region:    os.Getenv("BRAMBLE_S3_REGION"),
				AccessKey: os.Getenv("BRAMBLE_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("BRAMBLE_S3_SECRET_KEY"),
			},
			DBPath:        dbPath,
			Passphrase:    os.Getenv("BRAMBLE_BACKUP_PASSPHRASE"),
			ScheduleHour:  envInt("BRAMBLE_BACKUP_HOUR", 3),
			RetentionDays: envInt("BRAMBLE_BACKUP_RETENTION_DAYS", 30),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if srv.BackupManager().Enabled() {
		srv.BackupManager().Start(ctx)
		defer srv.BackupManager().Stop()
	}

	// Periodic sweeps for expired sessions and stale rate-limit buckets.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("session cleanup", "deleted", n)
				}
				srv.RateLimiter().Cleanup()
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
		logger.Info("bramble listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
