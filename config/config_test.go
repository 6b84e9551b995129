package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE", "")
	t.Setenv("BLOB_BACKEND", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("MONGO_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":3005" || cfg.Store != "mongo" || cfg.BlobBackend != "minio" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Mongo.DBName != "recycleapp" || cfg.Minio.Bucket != "images" {
		t.Fatalf("unexpected names db=%q bucket=%q", cfg.Mongo.DBName, cfg.Minio.Bucket)
	}
	if cfg.LocationTimeout != 10*time.Second || cfg.UploadTimeout != 30*time.Second || cfg.UploadAttempts != 2 {
		t.Fatalf("unexpected timeouts %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	yml := `
server:
  addr: ":8080"
  log_level: debug
mongo:
  db: fromfile
  transactions: true
storage:
  backend: local
  upload_dir: /data/uploads
limits:
  upload_attempts: 4
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("STORE", "memory")
	t.Setenv("BLOB_BACKEND", "")
	t.Setenv("MONGO_DB", "")
	t.Setenv("UPLOAD_ATTEMPTS", "")
	t.Setenv("LOCATION_TIMEOUT_SECONDS", "3")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("env should override file, got %q", cfg.HTTPAddr)
	}
	if cfg.Mongo.DBName != "fromfile" || !cfg.MongoTransactions {
		t.Fatalf("file values not applied: %+v", cfg.Mongo)
	}
	if cfg.BlobBackend != "local" || cfg.UploadDir != "/data/uploads" || cfg.UploadAttempts != 4 {
		t.Fatalf("storage values not applied: %+v", cfg)
	}
	if cfg.Store != "memory" || cfg.LocationTimeout != 3*time.Second {
		t.Fatalf("env values not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", cfg.LogLevel)
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE", "postgres")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported store to fail")
	}
	t.Setenv("STORE", "memory")
	t.Setenv("BLOB_BACKEND", "ftp")
	if _, err := Load(); err == nil {
		t.Fatal("expected unsupported blob backend to fail")
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("X_FLAG", "on")
	if !envBool("X_FLAG", false) {
		t.Fatal("expected on to be true")
	}
	t.Setenv("X_FLAG", "off")
	if envBool("X_FLAG", true) {
		t.Fatal("expected off to be false")
	}
	t.Setenv("X_FLAG", "maybe")
	if !envBool("X_FLAG", true) {
		t.Fatal("expected fallback for unknown value")
	}
}
