package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maukemana/photocore/internal/bootstrap"
	"github.com/maukemana/photocore/internal/config"
	"github.com/maukemana/photocore/internal/ftpserver"
	"github.com/maukemana/photocore/internal/logger"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/repositories"
)

func main() {
	env := getEnv("NODE_ENV", "development")
	logger.Init("photocore-ftpserver", env, logger.ParseLevelFromEnv())

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

	albums := repositories.NewAlbumRepository(db)
	photos := repositories.NewPhotoRepository(db)

	q := queue.New(config.Queue().RedisAddr)
	defer q.Close()

	ingest := ftpserver.NewIngest(store, photos, q)
	driver := ftpserver.NewDriver(config.FTP(), albums, ingest)
	srv := ftpserver.NewServer(driver)

	go func() {
		<-ctx.Done()
		log.Println("shutting down FTP server...")
		if err := srv.Stop(); err != nil {
			log.Printf("error stopping FTP server: %v", err)
		}
	}()

	log.Printf("FTP ingest server starting on port %d", config.FTP().Port)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("FTP server exited: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
