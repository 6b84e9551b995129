// path: services/lifecycle.go
package services

import (
	"strings"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/models"
)

// Evidence holds the durable URLs of the uploaded cleanup photos.
type Evidence struct {
	BeforeURL string
	AfterURL  string
}

func (e Evidence) Empty() bool { return e.BeforeURL == "" && e.AfterURL == "" }

// ConfirmCleanup computes the reported → cleaned transition for r. It performs
// no I/O; the caller must already have admitted cleanerAt through the cleanup
// geofence.
func ConfirmCleanup(r models.WasteReport, cleanerID string, ev Evidence, note string, cleanerAt geo.Point, now time.Time) (models.CleanupUpdate, error) {
	if r.Status != models.StatusReported {
		return models.CleanupUpdate{}, ErrAlreadyCleaned
	}
	if strings.TrimSpace(cleanerID) == "" {
		return models.CleanupUpdate{}, ErrNotSignedIn
	}
	if ev.Empty() {
		return models.CleanupUpdate{}, ErrNoEvidence
	}
	return models.CleanupUpdate{
		CleanedBy:           cleanerID,
		CleanedAt:           now.UTC(),
		CleaningInfo:        strings.TrimSpace(note),
		UserLocation:        cleanerAt,
		BeforeCleaningImage: ev.BeforeURL,
		AfterCleaningImage:  ev.AfterURL,
	}, nil
}
