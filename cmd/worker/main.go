package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maukemana/photocore/internal/albumcache"
	"github.com/maukemana/photocore/internal/bootstrap"
	"github.com/maukemana/photocore/internal/config"
	"github.com/maukemana/photocore/internal/logger"
	"github.com/maukemana/photocore/internal/processing"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/repositories"
)

func main() {
	env := getEnv("NODE_ENV", "development")
	logger.Init("photocore-worker-pool", env, logger.ParseLevelFromEnv())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.ConnectDatabase(ctx, config.Database().DBStore())
	if err != nil {
		log.Printf("connect to database: %v", err)
		os.Exit(2)
	}
	defer db.Close()

	store, err := config.Storage().NewAdapter()
	if err != nil {
		log.Fatalf("initialize storage adapter: %v", err)
	}

	photos := repositories.NewPhotoRepository(db)
	albums := repositories.NewAlbumRepository(db)

	cache := albumcache.New(config.AlbumCacheTTL(), func(ctx context.Context, albumID string) (albumcache.Settings, error) {
		album, err := albums.FindByID(ctx, albumID)
		if err != nil {
			return albumcache.Settings{}, err
		}
		return albumcache.Settings{
			WatermarkEnabled: album.WatermarkEnabled,
			WatermarkType:    string(album.WatermarkType),
			WatermarkConfig:  album.WatermarkConfig,
			ColorGrading:     album.ColorGrading,
			DeletedAt:        album.DeletedAt,
		}, nil
	})

	queueCfg := config.Queue()
	pipeline := processing.New(photos, albums, store, cache, processing.Config{
		MaxAttempts:    queueCfg.MaxAttempts,
		ThumbMaxEdge:   400,
		PreviewMaxEdge: 1600,
	})

	q := queue.New(queueCfg.RedisAddr)
	defer q.Close()

	go runRecoverySweeps(ctx, pipeline, q, queueCfg)

	log.Printf("worker pool starting, concurrency=%d", queueCfg.PhotoConcurrency)
	err = q.Worker(ctx, queueCfg.RedisAddr, processing.QueueName, processing.TaskType,
		queueCfg.PhotoConcurrency, queueCfg.MaxAttempts, pipeline.Handler())
	if err != nil {
		log.Fatalf("worker loop exited: %v", err)
	}

	log.Println("worker pool shut down")
}

// runRecoverySweeps periodically requeues photos stuck in processing
// past RecoveryHorizon — the crash-recovery sweep of spec §4.5,
// since a worker that dies mid-job leaves its claim behind forever
// otherwise.
func runRecoverySweeps(ctx context.Context, pipeline *processing.Pipeline, q *queue.Queue, cfg config.QueueConfig) {
	ticker := time.NewTicker(cfg.RecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := pipeline.Recover(ctx, cfg.RecoveryHorizon, q)
			if err != nil {
				log.Printf("recovery sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("recovery sweep requeued %d stuck photo(s)", n)
			}
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
