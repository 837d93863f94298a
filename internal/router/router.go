package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/maukemana/photocore/internal/config"
	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/handlers"
	"github.com/maukemana/photocore/internal/middleware"
	"github.com/maukemana/photocore/internal/queue"
	"github.com/maukemana/photocore/internal/storage"
)

// Setup builds the §6.3 control-surface engine: POST /process,
// POST /presign/get, POST /cleanup-file, all behind APIKeyAuth.
func Setup(db dbstore.Adapter, store storage.Adapter, q *queue.Queue) *gin.Engine {
	workerHandler := handlers.NewWorkerHandler(q, store)

	r := setupBaseRouter()

	r.GET("/health", healthCheck(db, store))

	v1 := r.Group("/")
	v1.Use(middleware.APIKeyAuth(config.WorkerAPIKey()))
	{
		v1.POST("/process", workerHandler.Process)
		v1.POST("/presign/get", workerHandler.PresignGet)
		v1.POST("/cleanup-file", workerHandler.CleanupFile)
	}

	return r
}

func setupBaseRouter() *gin.Engine {
	r := gin.New()

	r.Use(otelgin.Middleware("photocore-worker"))
	r.Use(middleware.Observability())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit())

	// Behind a load balancer with no configured trusted proxies, so
	// X-Forwarded-For/X-Real-IP are not trusted by default.
	r.SetTrustedProxies(nil)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = config.GetAllowedOrigins()
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-API-Key", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST"}
	r.Use(cors.New(corsConfig))

	return r
}

// healthChecker is an optional capability: dbstore.Postgres implements it,
// dbstore.RestAPI does not need to since every call already round-trips
// over HTTP.
type healthChecker interface {
	Health(ctx context.Context) error
}

func healthCheck(db dbstore.Adapter, store storage.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hc, ok := db.(healthChecker); ok {
			if err := hc.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "photocore-worker",
			"timestamp": time.Now().Unix(),
		})
	}
}
