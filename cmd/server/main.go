package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maukemana/photocore/internal/bootstrap"
	"github.com/maukemana/photocore/internal/config"
	"github.com/maukemana/photocore/internal/logger"
	"github.com/maukemana/photocore/internal/observability"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/router"
)

func main() {
	env := getEnv("NODE_ENV", "development")
	port := getEnv("PORT", "3001")

	logger.Init("photocore-worker", env, logger.ParseLevelFromEnv())

	shutdownOTel, err := observability.InitOTel(context.Background(), "photocore-worker")
	if err != nil {
		log.Printf("warning: failed to initialize OpenTelemetry: %v", err)
	} else {
		defer func() {
			if err := shutdownOTel(context.Background()); err != nil {
				log.Printf("error shutting down OpenTelemetry: %v", err)
			}
		}()
	}

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := bootstrap.ConnectDatabase(context.Background(), config.Database().DBStore())
	if err != nil {
		log.Printf("connect to database: %v", err)
		os.Exit(2)
	}
	defer db.Close()

	store, err := config.Storage().NewAdapter()
	if err != nil {
		log.Fatalf("initialize storage adapter: %v", err)
	}

	q := queue.New(config.Queue().RedisAddr)
	defer q.Close()

	r := router.Setup(db, store, q)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("worker control surface starting on port %s (env=%s)", port, env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
