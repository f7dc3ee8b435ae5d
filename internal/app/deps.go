package app

import (
	"context"
	"time"

	"github.com/tubegrab/backend/internal/auth"
	"github.com/tubegrab/backend/internal/config"
	"github.com/tubegrab/backend/internal/db"
	"github.com/tubegrab/backend/internal/downloads"
	"github.com/tubegrab/backend/internal/extract"
	"github.com/tubegrab/backend/internal/handlers"
	"github.com/tubegrab/backend/internal/middleware"
	"github.com/tubegrab/backend/internal/repositories"
	"github.com/tubegrab/backend/internal/storage"
	"github.com/tubegrab/backend/internal/videos"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	ytDlp := videos.NewYTDLPProvider(cfg.YTDLPPath, cfg.YTDLPTimeout)
	metadataProvider := videos.NewCachingProvider(ytDlp, cfg.MetadataCacheTTL)
	sessionStore := repositories.NewPostgresSessionStore(pool)
	history := repositories.NewPostgresHistoryRepository(pool)

	extractor := extract.NewYTDLPExtractor(cfg.YTDLPPath, cfg.ExtractTimeout)
	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, err
		}
		extractor.Store = store
	}

	downloadService := downloads.NewService(extractor, history)
	downloadService.AnonymousOwner = cfg.AnonymousOwner

	return handlers.Dependencies{
		Users:       repositories.NewPostgresUserRepository(pool),
		Sessions:    auth.NewManager(15*time.Minute, 24*time.Hour, sessionStore),
		Metadata:    metadataProvider,
		Downloads:   downloadService,
		History:     history,
		AuthLimiter: middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
	}, nil
}
