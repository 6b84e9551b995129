// path: database/database.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	ColReports        = "reports"
	ColCleanedReports = "cleanedReports"
	ColUsers          = "users"
)

// Config selects the MongoDB deployment. Mode is auto, local or remote.
type Config struct {
	Mode      string
	URI       string
	URILocal  string
	URIRemote string
	DBName    string
	Debug     bool
}

// Connect dials MongoDB, pings it and ensures indexes.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	uri, mode, reason := cfg.resolve(logger)
	if cfg.Debug {
		logger.Debug("mongo: env snapshot", "snapshot", cfg.snapshot())
	}

	start := time.Now()
	logger.Info("mongo: connecting", "mode", mode, "uri", redactURI(uri), "db", cfg.DBName, "reason", reason)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	c, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err = c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := c.Database(cfg.DBName)
	if err := createIndexes(ctx, db); err != nil {
		logger.Warn("mongo: index creation warnings", "error", err)
	}

	logger.Info("mongo: connected", "elapsed", time.Since(start).Round(time.Millisecond).String())
	return c, db, nil
}

// --- internal ---

// resolve returns the URI to dial, the effective mode and a human-readable reason.
func (cfg Config) resolve(logger *slog.Logger) (uri, mode, reason string) {
	explicit := strings.TrimSpace(cfg.URI)
	local := chooseFirstNonEmpty(cfg.URILocal, "mongodb://localhost:27017")
	remote := strings.TrimSpace(cfg.URIRemote)

	switch strings.ToLower(cfg.Mode) {
	case "local":
		return chooseFirstNonEmpty(explicit, local), "local", reasonLocal(explicit)
	case "remote":
		if remote != "" {
			return remote, "remote", "MONGO_MODE=remote, using MONGO_URI_REMOTE"
		}
		logger.Warn("mongo: MONGO_MODE=remote but MONGO_URI_REMOTE empty; falling back to local")
		return chooseFirstNonEmpty(explicit, local), "local", "remote missing, fallback to explicit/local"
	default: // auto: remote > explicit > local
		if remote != "" {
			return remote, "remote", "auto: MONGO_URI_REMOTE present"
		}
		if explicit != "" {
			return explicit, "auto", "auto: MONGO_URI present"
		}
		return local, "local", "auto: fallback to local"
	}
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	if db == nil {
		return errors.New("db is nil")
	}
	ctxIdx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		ColReports: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "location.lat", Value: 1}, {Key: "location.lng", Value: 1}}},
		},
		ColCleanedReports: {
			{Keys: bson.D{{Key: "cleaned_by", Value: 1}, {Key: "cleaned_at", Value: -1}}},
			{Keys: bson.D{{Key: "credited", Value: 1}, {Key: "_id", Value: 1}}},
		},
		ColUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "points", Value: -1}}},
		},
	}

	var errs []string
	for col, idx := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctxIdx, idx); err != nil {
			errs = append(errs, col+": "+err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// --- utils ---

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}

func chooseFirstNonEmpty(v1, v2 string) string {
	if strings.TrimSpace(v1) != "" {
		return v1
	}
	return v2
}

func reasonLocal(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return "MONGO_MODE=local with explicit MONGO_URI"
	}
	return "MONGO_MODE=local using MONGO_URI_LOCAL/default"
}

func (cfg Config) snapshot() string {
	fields := []string{
		"MONGO_MODE=" + cfg.Mode,
		"MONGO_DB=" + cfg.DBName,
		"MONGO_URI=" + redactURI(cfg.URI),
		"MONGO_URI_LOCAL=" + redactURI(cfg.URILocal),
		"MONGO_URI_REMOTE=" + redactURI(cfg.URIRemote),
	}
	return strings.Join(fields, " ")
}
