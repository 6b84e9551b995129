// path: config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Developrimbor/GreenWorld-sub000/database"
	"github.com/Developrimbor/GreenWorld-sub000/storage"
)

// Config is the resolved runtime configuration of the API.
type Config struct {
	HTTPAddr    string
	CORSOrigins string
	LogLevel    slog.Level

	Store             string // mongo | memory
	Mongo             database.Config
	MongoTransactions bool
	DBTimeout         time.Duration

	BlobBackend string // minio | local
	Minio       storage.MinioConfig
	UploadDir   string

	RedisURL       string
	JWTSecret      string
	JWTIssuer      string
	GeocoderAPIKey string

	LocationTimeout  time.Duration
	UploadTimeout    time.Duration
	UploadAttempts   int
	MaxImageBytes    int
	ReconcileOnStart bool
}

// configFile mirrors the optional YAML file named by CONFIG_FILE.
type configFile struct {
	Server struct {
		Addr        string `yaml:"addr"`
		CORSOrigins string `yaml:"cors_origins"`
		LogLevel    string `yaml:"log_level"`
	} `yaml:"server"`
	Mongo struct {
		Mode         string `yaml:"mode"`
		URI          string `yaml:"uri"`
		DB           string `yaml:"db"`
		Transactions bool   `yaml:"transactions"`
	} `yaml:"mongo"`
	Storage struct {
		Backend   string `yaml:"backend"`
		UploadDir string `yaml:"upload_dir"`
		Minio     struct {
			Host          string `yaml:"host"`
			Bucket        string `yaml:"bucket"`
			UseSSL        bool   `yaml:"use_ssl"`
			PublicBaseURL string `yaml:"public_base_url"`
		} `yaml:"minio"`
	} `yaml:"storage"`
	Dependencies struct {
		RedisURL string `yaml:"redis_url"`
	} `yaml:"dependencies"`
	Limits struct {
		LocationTimeoutSeconds int `yaml:"location_timeout_seconds"`
		UploadTimeoutSeconds   int `yaml:"upload_timeout_seconds"`
		UploadAttempts         int `yaml:"upload_attempts"`
		MaxImageBytes          int `yaml:"max_image_bytes"`
	} `yaml:"limits"`
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A .env file in the working directory is loaded into the environment first.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:    ":3005",
		CORSOrigins: "*",
		LogLevel:    slog.LevelInfo,
		Store:       "mongo",
		Mongo: database.Config{
			Mode:     "auto",
			URILocal: "mongodb://127.0.0.1:27017",
			DBName:   "recycleapp",
		},
		DBTimeout:       8 * time.Second,
		BlobBackend:     "minio",
		Minio:           storage.MinioConfig{Endpoint: "localhost:9000", Bucket: "images"},
		UploadDir:       "uploads",
		JWTIssuer:       "recycleapp",
		LocationTimeout: 10 * time.Second,
		UploadTimeout:   30 * time.Second,
		UploadAttempts:  2,
		MaxImageBytes:   10 << 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		cfg.applyFile(f)
	}

	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.CORSOrigins = envOrDefault("CORS_ORIGINS", cfg.CORSOrigins)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = parseLevel(raw, cfg.LogLevel)
	}

	cfg.Store = strings.ToLower(envOrDefault("STORE", cfg.Store))
	cfg.Mongo.Mode = strings.ToLower(envOrDefault("MONGO_MODE", cfg.Mongo.Mode))
	cfg.Mongo.URI = envOrDefault("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.URILocal = envOrDefault("MONGO_URI_LOCAL", cfg.Mongo.URILocal)
	cfg.Mongo.URIRemote = envOrDefault("MONGO_URI_REMOTE", cfg.Mongo.URIRemote)
	cfg.Mongo.DBName = envOrDefault("MONGO_DB", cfg.Mongo.DBName)
	cfg.Mongo.Debug = envBool("MONGO_DEBUG", cfg.Mongo.Debug)
	cfg.MongoTransactions = envBool("MONGO_TRANSACTIONS", cfg.MongoTransactions)
	cfg.DBTimeout = envSeconds("DB_TIMEOUT_SECONDS", cfg.DBTimeout)

	cfg.BlobBackend = strings.ToLower(envOrDefault("BLOB_BACKEND", cfg.BlobBackend))
	cfg.Minio.Endpoint = envOrDefault("MINIO_HOST", cfg.Minio.Endpoint)
	cfg.Minio.AccessKey = envOrDefault("MINIO_ACCESS_KEY", cfg.Minio.AccessKey)
	cfg.Minio.SecretKey = envOrDefault("MINIO_SECRET_KEY", cfg.Minio.SecretKey)
	cfg.Minio.Bucket = envOrDefault("MINIO_BUCKET", cfg.Minio.Bucket)
	cfg.Minio.UseSSL = envBool("MINIO_USE_SSL", cfg.Minio.UseSSL)
	cfg.Minio.PublicBaseURL = envOrDefault("MINIO_PUBLIC_BASE_URL", cfg.Minio.PublicBaseURL)
	cfg.UploadDir = envOrDefault("UPLOAD_DIR", cfg.UploadDir)

	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.GeocoderAPIKey = envOrDefault("GEOCODER_API_KEY", cfg.GeocoderAPIKey)

	cfg.LocationTimeout = envSeconds("LOCATION_TIMEOUT_SECONDS", cfg.LocationTimeout)
	cfg.UploadTimeout = envSeconds("UPLOAD_TIMEOUT_SECONDS", cfg.UploadTimeout)
	cfg.UploadAttempts = envInt("UPLOAD_ATTEMPTS", cfg.UploadAttempts)
	cfg.MaxImageBytes = envInt("MAX_IMAGE_BYTES", cfg.MaxImageBytes)
	cfg.ReconcileOnStart = envBool("RECONCILE_ON_START", cfg.ReconcileOnStart)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(f configFile) {
	if f.Server.Addr != "" {
		c.HTTPAddr = f.Server.Addr
	}
	if f.Server.CORSOrigins != "" {
		c.CORSOrigins = f.Server.CORSOrigins
	}
	if f.Server.LogLevel != "" {
		c.LogLevel = parseLevel(f.Server.LogLevel, c.LogLevel)
	}
	if f.Mongo.Mode != "" {
		c.Mongo.Mode = f.Mongo.Mode
	}
	if f.Mongo.URI != "" {
		c.Mongo.URI = f.Mongo.URI
	}
	if f.Mongo.DB != "" {
		c.Mongo.DBName = f.Mongo.DB
	}
	if f.Mongo.Transactions {
		c.MongoTransactions = true
	}
	if f.Storage.Backend != "" {
		c.BlobBackend = f.Storage.Backend
	}
	if f.Storage.UploadDir != "" {
		c.UploadDir = f.Storage.UploadDir
	}
	if f.Storage.Minio.Host != "" {
		c.Minio.Endpoint = f.Storage.Minio.Host
	}
	if f.Storage.Minio.Bucket != "" {
		c.Minio.Bucket = f.Storage.Minio.Bucket
	}
	if f.Storage.Minio.UseSSL {
		c.Minio.UseSSL = true
	}
	if f.Storage.Minio.PublicBaseURL != "" {
		c.Minio.PublicBaseURL = f.Storage.Minio.PublicBaseURL
	}
	if f.Dependencies.RedisURL != "" {
		c.RedisURL = f.Dependencies.RedisURL
	}
	if n := f.Limits.LocationTimeoutSeconds; n > 0 {
		c.LocationTimeout = time.Duration(n) * time.Second
	}
	if n := f.Limits.UploadTimeoutSeconds; n > 0 {
		c.UploadTimeout = time.Duration(n) * time.Second
	}
	if n := f.Limits.UploadAttempts; n > 0 {
		c.UploadAttempts = n
	}
	if n := f.Limits.MaxImageBytes; n > 0 {
		c.MaxImageBytes = n
	}
}

func (c Config) validate() error {
	switch c.Store {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unsupported STORE %q (want mongo or memory)", c.Store)
	}
	switch c.BlobBackend {
	case "minio", "local":
	default:
		return fmt.Errorf("unsupported BLOB_BACKEND %q (want minio or local)", c.BlobBackend)
	}
	if c.UploadAttempts < 1 {
		return fmt.Errorf("UPLOAD_ATTEMPTS must be at least 1")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	return nil
}

func parseLevel(raw string, fallback slog.Level) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return fallback
	}
	return lvl
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	n := envInt(name, -1)
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func envBool(name string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
