// path: services/reconcile.go
package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Developrimbor/GreenWorld-sub000/metrics"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// Reconciler finalizes a cleanup across the reports, cleanedReports and users
// collections.
//
// Without a Transactor the writes are sequential and best effort: a crash
// after the report update leaves a cleaned report with no audit record, and a
// failed credit leaves an audit record with Credited unset. Repair replays
// both. Credit is at least once: if the points land but the Credited flag
// cannot be written, Repair credits that cleanup again. With a Transactor all
// writes commit together.
type Reconciler struct {
	reports ports.ReportRepository
	cleaned ports.CleanedReportRepository
	users   ports.UserRepository
	tx      ports.Transactor
	logger  *slog.Logger
}

func NewReconciler(reports ports.ReportRepository, cleaned ports.CleanedReportRepository, users ports.UserRepository, tx ports.Transactor, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{reports: reports, cleaned: cleaned, users: users, tx: tx, logger: logger}
}

// Apply transitions before to cleaned with u, records the CleanedReport and
// credits the cleaner. The status check is re-done by the store at write time.
func (w *Reconciler) Apply(ctx context.Context, before models.WasteReport, u models.CleanupUpdate) (models.WasteReport, error) {
	if w.tx == nil {
		return w.apply(ctx, before, u)
	}
	var updated models.WasteReport
	err := w.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = w.apply(txCtx, before, u)
		return err
	})
	return updated, err
}

func (w *Reconciler) apply(ctx context.Context, before models.WasteReport, u models.CleanupUpdate) (models.WasteReport, error) {
	log := w.logger.With("report_id", before.ID, "cleaner_id", u.CleanedBy)

	updated, err := w.reports.MarkCleaned(ctx, before.ID, u)
	switch {
	case errors.Is(err, ports.ErrConditionFailed):
		return models.WasteReport{}, ErrCleanedElsewhere
	case errors.Is(err, ports.ErrNotFound):
		return models.WasteReport{}, ErrReportNotFound
	case err != nil:
		log.ErrorContext(ctx, "mark report cleaned failed", "error", err)
		return models.WasteReport{}, unknown("could not save the cleanup", err)
	}

	credit, err := w.record(ctx, models.NewCleanedReport(before, u))
	if err != nil {
		metrics.ObserveReconcilePartial("cleaned_report")
		log.ErrorContext(ctx, "reconciliation incomplete: report cleaned without audit record", "error", err)
		return updated, unknown("cleanup saved but could not be recorded", err)
	}
	if !credit {
		log.WarnContext(ctx, "cleaned report already recorded, points not credited again")
		return updated, nil
	}

	if err := w.creditCleaner(ctx, u.CleanedBy); err != nil {
		metrics.ObserveReconcilePartial("user_stats")
		log.ErrorContext(ctx, "reconciliation incomplete: points not credited", "error", err)
		return updated, unknown("cleanup saved but points could not be credited", err)
	}
	if err := w.cleaned.MarkCredited(ctx, before.ID); err != nil {
		metrics.ObserveReconcilePartial("credited_flag")
		log.ErrorContext(ctx, "points credited but credited flag not saved", "error", err)
		if w.tx != nil {
			return updated, unknown("cleanup could not be saved", err)
		}
	}
	return updated, nil
}

// record creates the audit row. It reports false when the row already
// existed; whoever creates the row credits the points.
func (w *Reconciler) record(ctx context.Context, c models.CleanedReport) (bool, error) {
	err := w.cleaned.Create(ctx, c)
	if errors.Is(err, ports.ErrAlreadyExists) {
		return false, nil
	}
	return err == nil, err
}

func (w *Reconciler) creditCleaner(ctx context.Context, cleanerID string) error {
	return w.users.IncrementStats(ctx, cleanerID, models.StatsDelta{
		Cleaned: 1,
		Points:  models.PointsPerCleanup,
	})
}

// Repair finds cleaned reports that have no CleanedReport and replays the
// audit record and the points credit for them, then credits every
// CleanedReport whose points were never added. It returns how many cleanups
// were repaired.
func (w *Reconciler) Repair(ctx context.Context, pageSize int) (int, error) {
	if pageSize <= 0 {
		pageSize = 100
	}
	repaired, err := w.repairMissing(ctx, pageSize)
	if err != nil {
		return repaired, err
	}
	credited, err := w.repairUncredited(ctx, pageSize)
	return repaired + credited, err
}

func (w *Reconciler) repairMissing(ctx context.Context, pageSize int) (int, error) {
	repaired := 0
	cursor := ""
	for {
		page, err := w.reports.List(ctx, models.ReportFilter{
			Status: models.StatusCleaned,
			Cursor: cursor,
			Limit:  pageSize,
		})
		if err != nil {
			return repaired, err
		}
		for _, r := range page {
			ok, err := w.repairOne(ctx, r)
			if err != nil {
				return repaired, err
			}
			if ok {
				repaired++
			}
		}
		if len(page) < pageSize {
			return repaired, nil
		}
		cursor = page[len(page)-1].ID
	}
}

func (w *Reconciler) repairOne(ctx context.Context, r models.WasteReport) (bool, error) {
	_, err := w.cleaned.Get(ctx, r.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return false, err
	}
	if r.CleanedBy == "" || r.CleanedAt == nil {
		w.logger.WarnContext(ctx, "cleaned report missing cleanup fields, skipping", "report_id", r.ID)
		return false, nil
	}

	u := models.CleanupUpdate{
		CleanedBy:           r.CleanedBy,
		CleanedAt:           *r.CleanedAt,
		CleaningInfo:        r.CleaningInfo,
		BeforeCleaningImage: r.BeforeCleaningImage,
		AfterCleaningImage:  r.AfterCleaningImage,
	}
	if r.UserLocation != nil {
		u.UserLocation = *r.UserLocation
	}
	credit, err := w.record(ctx, models.NewCleanedReport(r, u))
	if err != nil || !credit {
		return false, err
	}
	if err := w.creditCleaner(ctx, r.CleanedBy); err != nil {
		return false, err
	}
	if err := w.cleaned.MarkCredited(ctx, r.ID); err != nil {
		return false, err
	}
	w.logger.InfoContext(ctx, "repaired cleanup reconciliation", "report_id", r.ID, "cleaner_id", r.CleanedBy)
	return true, nil
}

// repairUncredited drains CleanedReports with Credited unset. Each credited
// row leaves the result set, so the first page is re-read until it is empty.
func (w *Reconciler) repairUncredited(ctx context.Context, pageSize int) (int, error) {
	repaired := 0
	for {
		page, err := w.cleaned.ListUncredited(ctx, pageSize)
		if err != nil {
			return repaired, err
		}
		if len(page) == 0 {
			return repaired, nil
		}
		for _, c := range page {
			if err := w.creditCleaner(ctx, c.CleanedBy); err != nil {
				return repaired, err
			}
			if err := w.cleaned.MarkCredited(ctx, c.OriginalReportID); err != nil {
				return repaired, err
			}
			w.logger.InfoContext(ctx, "credited outstanding cleanup", "report_id", c.OriginalReportID, "cleaner_id", c.CleanedBy)
			repaired++
		}
	}
}
