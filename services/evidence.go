// path: services/evidence.go
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/metrics"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// Image is a photo taken on the device, not yet persisted.
type Image struct {
	Data        []byte
	ContentType string
}

func (i *Image) present() bool { return i != nil && len(i.Data) > 0 }

type UploaderConfig struct {
	// Timeout bounds each single upload attempt.
	Timeout  time.Duration
	Attempts int
}

// Uploader persists evidence images to blob storage.
type Uploader struct {
	cfg    UploaderConfig
	blobs  ports.BlobStore
	logger *slog.Logger
	nowFn  func() time.Time
}

func NewUploader(cfg UploaderConfig, blobs ports.BlobStore, logger *slog.Logger) *Uploader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{cfg: cfg, blobs: blobs, logger: logger, nowFn: time.Now}
}

// Upload writes img to path and returns its durable URL.
func (u *Uploader) Upload(ctx context.Context, img Image, path string) (string, error) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= u.cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		lastErr = u.putOnce(ctx, img, path)
		if lastErr == nil {
			break
		}
		u.logger.WarnContext(ctx, "evidence upload attempt failed",
			"path", path, "attempt", attempt, "error", lastErr)
	}
	if lastErr != nil {
		metrics.ObserveUpload(time.Since(start), "error")
		return "", &Error{Kind: KindUpload, Message: "photo upload failed, try again", Err: lastErr}
	}

	url, err := u.blobs.URL(ctx, path)
	if err != nil {
		metrics.ObserveUpload(time.Since(start), "error")
		u.discard(ctx, path)
		return "", &Error{Kind: KindUpload, Message: "photo upload failed, try again", Err: fmt.Errorf("resolve url: %w", err)}
	}
	metrics.ObserveUpload(time.Since(start), "ok")
	return url, nil
}

func (u *Uploader) putOnce(ctx context.Context, img Image, path string) error {
	actx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
	defer cancel()
	return u.blobs.Put(actx, path, img.Data, img.ContentType)
}

// UploadedEvidence is the result of UploadEvidence; paths lets a failed
// confirmation discard what it wrote.
type UploadedEvidence struct {
	Evidence
	paths []string
}

// EvidencePath is the blob path of a cleanup photo; kind is "before" or "after".
// The random suffix keeps two uploads in the same millisecond apart.
func EvidencePath(reportID, kind string, at time.Time) string {
	return fmt.Sprintf("cleanedTrash/%s/%s_%d_%s", reportID, kind, at.UnixMilli(), randString(8))
}

func randString(n int) string {
	if n <= 0 {
		n = 6
	}
	b := make([]byte, (n+1)/2)
	_, _ = rand.Read(b)
	s := hex.EncodeToString(b)
	if len(s) > n {
		return s[:n]
	}
	return s
}

// UploadEvidence uploads the supplied before/after photos independently. If
// any supplied photo fails, the ones already written are deleted and an
// upload error is returned.
func (u *Uploader) UploadEvidence(ctx context.Context, reportID string, before, after *Image) (UploadedEvidence, error) {
	var out UploadedEvidence
	if !before.present() && !after.present() {
		return out, ErrNoEvidence
	}
	ts := u.nowFn()

	if before.present() {
		path := EvidencePath(reportID, "before", ts)
		url, err := u.Upload(ctx, *before, path)
		if err != nil {
			return UploadedEvidence{}, err
		}
		out.BeforeURL = url
		out.paths = append(out.paths, path)
	}
	if after.present() {
		path := EvidencePath(reportID, "after", ts)
		url, err := u.Upload(ctx, *after, path)
		if err != nil {
			u.Discard(ctx, out)
			return UploadedEvidence{}, err
		}
		out.AfterURL = url
		out.paths = append(out.paths, path)
	}
	return out, nil
}

// Discard best-effort deletes uploaded evidence that will not be attached to a report.
func (u *Uploader) Discard(ctx context.Context, ev UploadedEvidence) {
	u.discard(ctx, ev.paths...)
}

func (u *Uploader) discard(ctx context.Context, paths ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, p := range paths {
		dctx, cancel := context.WithTimeout(ctx, u.cfg.Timeout)
		err := u.blobs.Delete(dctx, p)
		cancel()
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			u.logger.WarnContext(ctx, "discard evidence failed", "path", p, "error", err)
		}
	}
}
