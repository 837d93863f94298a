package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maukemana/photocore/internal/dbstore"
	"github.com/maukemana/photocore/internal/storage"
)

// Load env vars from .env file directly
func init() {
	if err := godotenv.Load(); err != nil {
		// It's okay if .env doesn't exist (e.g. in production),
		// but we should log it just in case.
		// However, mostly we want to rely on environment variables being set.
		// If we are in local dev, this helps.
		log.Println("No .env file found or error loading it, using system environment variables")
	}
}

// GetAllowedOrigins returns a slice of allowed origins from the environment variable.
// It defaults to localhost:3000 if not set.
func GetAllowedOrigins() []string {
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr == "" {
		return []string{"http://localhost:3000"}
	}

	// Split by comma and trim spaces
	parts := strings.Split(originsStr, ",")
	var origins []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// DatabaseConfig selects and configures C2's backend, per §6.5.
type DatabaseConfig struct {
	Type     string // "postgres" or "restapi"
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSL      string
	RestURL  string
	RestKey  string
}

// Database reads DATABASE_* env vars.
func Database() DatabaseConfig {
	return DatabaseConfig{
		Type:     getEnv("DATABASE_TYPE", "postgres"),
		Host:     getEnv("DATABASE_HOST", "localhost"),
		Port:     getEnv("DATABASE_PORT", "5432"),
		Name:     getEnv("DATABASE_NAME", "photocore"),
		User:     getEnv("DATABASE_USER", "postgres"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		SSL:      getEnv("DATABASE_SSL", "disable"),
		RestURL:  os.Getenv("DATABASE_REST_URL"),
		RestKey:  os.Getenv("DATABASE_REST_KEY"),
	}
}

// StorageConfig selects and configures C1's backend, per §6.5.
type StorageConfig struct {
	Type         string
	EndpointHost string
	EndpointPort string
	UseSSL       bool
	PublicURL    string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	LocalRoot    string
}

// Storage reads STORAGE_* env vars.
func Storage() StorageConfig {
	return StorageConfig{
		Type:         getEnv("STORAGE_TYPE", "s3"),
		EndpointHost: os.Getenv("STORAGE_ENDPOINT_HOST"),
		EndpointPort: getEnv("STORAGE_ENDPOINT_PORT", "443"),
		UseSSL:       getEnvBool("STORAGE_ENDPOINT_USE_SSL", true),
		PublicURL:    os.Getenv("STORAGE_PUBLIC_URL"),
		AccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
		SecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
		Bucket:       getEnv("STORAGE_BUCKET", "photocore"),
		Region:       getEnv("STORAGE_REGION", "auto"),
		LocalRoot:    getEnv("STORAGE_LOCAL_ROOT", "./data/storage"),
	}
}

// QueueConfig configures C3 and the C5 worker pool, per §6.5.
type QueueConfig struct {
	RedisAddr        string
	PhotoConcurrency int
	MaxAttempts      int
	BackoffBaseMS    int
	RecoveryHorizon  time.Duration
	RecoveryInterval time.Duration
}

// Queue reads the job-queue related env vars.
func Queue() QueueConfig {
	return QueueConfig{
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		PhotoConcurrency: getEnvInt("PHOTO_CONCURRENCY", 4),
		MaxAttempts:      getEnvInt("JOB_MAX_ATTEMPTS", 5),
		BackoffBaseMS:    getEnvInt("JOB_BACKOFF_BASE_MS", 1000),
		RecoveryHorizon:  getEnvMillis("PROCESSING_RECOVERY_HORIZON_MS", 15*time.Minute),
		RecoveryInterval: getEnvMillis("PROCESSING_RECOVERY_INTERVAL_MS", 5*time.Minute),
	}
}

// AlbumCacheTTL reads C4's TTL, default 60s.
func AlbumCacheTTL() time.Duration {
	return getEnvMillis("ALBUM_CACHE_TTL_MS", 60*time.Second)
}

// FTPConfig configures C6, per §6.5.
type FTPConfig struct {
	Port      int
	PasvURL   string
	PasvStart int
	PasvEnd   int
	RootDir   string
}

// FTP reads FTP_* env vars.
func FTP() FTPConfig {
	return FTPConfig{
		Port:      getEnvInt("FTP_PORT", 2121),
		PasvURL:   getEnv("FTP_PASV_URL", "127.0.0.1"),
		PasvStart: getEnvInt("FTP_PASV_START", 21000),
		PasvEnd:   getEnvInt("FTP_PASV_END", 21100),
		RootDir:   getEnv("FTP_ROOT_DIR", "./data/ftp"),
	}
}

// WorkerAPIKey is the shared secret securing §6.3's HTTP surface.
func WorkerAPIKey() string {
	return os.Getenv("WORKER_API_KEY")
}

// CDNConfig configures C7, per §6.5.
type CDNConfig struct {
	ZoneID   string
	APIToken string
}

// CDN reads CDN_* env vars.
func CDN() CDNConfig {
	return CDNConfig{
		ZoneID:   os.Getenv("CDN_ZONE_ID"),
		APIToken: os.Getenv("CDN_API_TOKEN"),
	}
}

// NewAdapter builds the configured storage.Adapter: "fs" for the local
// filesystem backend used in development/tests, anything else (default
// "s3") for the S3-compatible backend used in production.
func (s StorageConfig) NewAdapter() (storage.Adapter, error) {
	if s.Type == "fs" {
		return storage.NewFSAdapter(s.LocalRoot)
	}

	scheme := "https"
	if !s.UseSSL {
		scheme = "http"
	}
	endpoint := fmt.Sprintf("%s://%s:%s", scheme, s.EndpointHost, s.EndpointPort)
	return storage.NewS3Adapter(storage.S3Config{
		Bucket:           s.Bucket,
		Region:           s.Region,
		AccessKeyID:      s.AccessKey,
		SecretAccessKey:  s.SecretKey,
		InternalEndpoint: endpoint,
		PublicEndpoint:   s.PublicURL,
	})
}

// DBStore builds an internal/dbstore.Config from DatabaseConfig, so every
// cmd entrypoint constructs its adapter the same way instead of repeating
// the backend switch.
func (d DatabaseConfig) DBStore() dbstore.Config {
	switch d.Type {
	case "restapi":
		return dbstore.Config{
			Backend: dbstore.BackendRestAPI,
			RestAPI: dbstore.RestAPIConfig{
				BaseURL: d.RestURL,
				APIKey:  d.RestKey,
			},
		}
	default:
		dsn := fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
			d.Host, d.Port, d.Name, d.User, d.Password, d.SSL)
		return dbstore.Config{
			Backend: dbstore.BackendPostgres,
			Postgres: dbstore.PostgresConfig{
				DSN:             dsn,
				MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 20),
				MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
				ConnMaxLifetime: getEnvMillis("DATABASE_CONN_MAX_LIFETIME_MS", 30*time.Minute),
			},
		}
	}
}
