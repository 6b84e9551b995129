// path: services/cleanup.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/metrics"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

type CleanupConfig struct {
	RadiusM         float64
	LocationTimeout time.Duration
	// InFlightTTL bounds how long a confirmation holds the per-report guard.
	InFlightTTL time.Duration
}

type CleanupDependencies struct {
	Config     CleanupConfig
	Identity   ports.IdentityProvider
	Reports    ports.ReportRepository
	Cleaned    ports.CleanedReportRepository
	Users      ports.UserRepository
	Uploader   *Uploader
	Reconciler *Reconciler
	// Guard is optional.
	Guard  ports.InFlightGuard
	Logger *slog.Logger
}

// CleanupService runs the cleanup confirmation workflow.
type CleanupService struct {
	cfg        CleanupConfig
	identity   ports.IdentityProvider
	reports    ports.ReportRepository
	cleaned    ports.CleanedReportRepository
	users      ports.UserRepository
	uploader   *Uploader
	reconciler *Reconciler
	guard      ports.InFlightGuard
	logger     *slog.Logger
	nowFn      func() time.Time
}

func NewCleanupService(deps CleanupDependencies) *CleanupService {
	cfg := deps.Config
	if cfg.RadiusM <= 0 {
		cfg.RadiusM = geo.CleanupRadiusM
	}
	if cfg.LocationTimeout <= 0 {
		cfg.LocationTimeout = 10 * time.Second
	}
	if cfg.InFlightTTL <= 0 {
		cfg.InFlightTTL = 2 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupService{
		cfg:        cfg,
		identity:   deps.Identity,
		reports:    deps.Reports,
		cleaned:    deps.Cleaned,
		users:      deps.Users,
		uploader:   deps.Uploader,
		reconciler: deps.Reconciler,
		guard:      deps.Guard,
		logger:     logger,
		nowFn:      time.Now,
	}
}

type CleanupRequest struct {
	ReportID string
	Before   *Image
	After    *Image
	Note     string
	// Location is the acting device's location source.
	Location ports.LocationProvider
}

type CleanupResult struct {
	Report        models.WasteReport
	PointsAwarded int
}

// Confirm verifies that the current user is near the report, uploads the
// evidence and finalizes the cleanup. Nothing is written to the document
// store unless every earlier stage succeeded.
func (s *CleanupService) Confirm(ctx context.Context, req CleanupRequest) (res CleanupResult, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.ObserveCleanup(outcome)
		if KindOf(err) == KindUnknown && err != nil {
			s.logger.ErrorContext(ctx, "cleanup confirmation failed", "report_id", req.ReportID, "error", err)
		}
	}()

	if !req.Before.present() && !req.After.present() {
		return CleanupResult{}, ErrNoEvidence
	}
	user, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return CleanupResult{}, ErrNotSignedIn
	}
	if err := requireAccount(ctx, s.users, user.ID); err != nil {
		return CleanupResult{}, err
	}

	report, err := s.reports.Get(ctx, req.ReportID)
	if errors.Is(err, ports.ErrNotFound) {
		return CleanupResult{}, ErrReportNotFound
	}
	if err != nil {
		return CleanupResult{}, unknown("could not load the report", err)
	}
	if report.Status != models.StatusReported {
		return CleanupResult{}, ErrAlreadyCleaned
	}

	at, err := locate(ctx, req.Location, s.cfg.LocationTimeout, ports.AccuracyHigh)
	if err != nil {
		return CleanupResult{}, err
	}
	check := geo.Fence{Center: report.Location, RadiusM: s.cfg.RadiusM}.Check(at)
	if !check.Inside {
		return CleanupResult{}, geofenceError(
			fmt.Sprintf("you are %d m away; move within %.0f m of the spot", check.RoundedDistance(), s.cfg.RadiusM), check)
	}

	release, err := s.acquire(ctx, report.ID)
	if err != nil {
		return CleanupResult{}, err
	}
	defer release()

	ev, err := s.uploader.UploadEvidence(ctx, report.ID, req.Before, req.After)
	if err != nil {
		return CleanupResult{}, err
	}

	// Last point at which backing out leaves no trace.
	if cerr := ctx.Err(); cerr != nil {
		s.uploader.Discard(ctx, ev)
		return CleanupResult{}, &Error{Kind: KindUnknown, Message: "confirmation cancelled", Err: cerr}
	}

	update, err := ConfirmCleanup(report, user.ID, ev.Evidence, req.Note, at, s.nowFn())
	if err != nil {
		s.uploader.Discard(ctx, ev)
		return CleanupResult{}, err
	}

	updated, err := s.reconciler.Apply(context.WithoutCancel(ctx), report, update)
	if err != nil {
		if k := KindOf(err); k == KindWriteConflict || k == KindPrecondition {
			s.uploader.Discard(ctx, ev)
		}
		return CleanupResult{}, err
	}

	s.logger.InfoContext(ctx, "cleanup confirmed",
		"report_id", report.ID, "cleaner_id", user.ID, "distance_m", check.RoundedDistance())
	return CleanupResult{Report: updated, PointsAwarded: models.PointsPerCleanup}, nil
}

func (s *CleanupService) acquire(ctx context.Context, reportID string) (func(), error) {
	if s.guard == nil {
		return func() {}, nil
	}
	key := "cleanup:inflight:" + reportID
	token, ok, err := s.guard.Acquire(ctx, key, s.cfg.InFlightTTL)
	if err != nil {
		// The conditional write still protects the report.
		s.logger.WarnContext(ctx, "in-flight guard unavailable", "report_id", reportID, "error", err)
		return func() {}, nil
	}
	if !ok {
		return nil, &Error{Kind: KindWriteConflict, Message: "someone is already confirming this cleanup"}
	}
	return func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WarnContext(ctx, "release in-flight guard failed", "report_id", reportID, "error", err)
		}
	}, nil
}

// ListCleaned returns the cleanup records of a cleaner, newest first.
func (s *CleanupService) ListCleaned(ctx context.Context, cleanerID string, limit int) ([]models.CleanedReport, error) {
	items, err := s.cleaned.ListByCleaner(ctx, cleanerID, clampLimit(limit))
	if err != nil {
		return nil, unknown("could not load cleanups", err)
	}
	return items, nil
}
