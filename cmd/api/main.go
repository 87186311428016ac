package main

import (
	"context"
	"log"

	"github.com/thornlink/thorn/backend/config"
	"github.com/thornlink/thorn/backend/internal/api"
	"github.com/thornlink/thorn/backend/internal/database"
	"github.com/thornlink/thorn/backend/internal/logging"
	"github.com/thornlink/thorn/backend/internal/repository"
	"github.com/thornlink/thorn/backend/internal/server"
	"github.com/thornlink/thorn/backend/internal/service"
)

func main() {
	ctx := context.Background()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logging.New(cfg.Environment == config.Production)

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	health := map[string]api.HealthCheck{"database": db.HealthCheck}

	// Drafts and rate limits live in Redis; without it drafts stay in memory
	// and limits are off.
	var drafts service.DraftStore
	redisClient, err := database.NewRedisClient(ctx, cfg, logger)
	if err != nil {
		if cfg.Environment == config.Production {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		logger.Warn(ctx, "redis unavailable, keeping editor drafts in memory", "error", err)
		drafts = service.NewMemoryDraftStore(cfg.DraftTTL)
	} else {
		defer redisClient.Close()
		drafts = service.NewRedisDraftStore(redisClient, cfg.DraftTTL)
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var media api.MediaUploader
	if cfg.MediaEnabled() {
		s3Config, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 client: %v", err)
		}
		media = service.NewMediaService(s3Config, logger)
	} else {
		logger.Warn(ctx, "no media bucket configured, uploads are disabled")
	}

	profiles := repository.NewProfileRepository(db.DB)
	srv := server.New(cfg, server.Deps{
		Profiles:   profiles,
		Editor:     service.NewEditorService(profiles, drafts, logger),
		Media:      media,
		Identities: service.NewIdentityService(cfg.JWTSecret),
		Redis:      redisClient,
		Health:     health,
		Log:        logger,
	})

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info(ctx, "server stopped")
}
