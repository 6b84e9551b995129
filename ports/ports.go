// path: ports/ports.go
package ports

import (
	"context"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/models"
)

// ReportRepository persists WasteReports ("reports" collection).
type ReportRepository interface {
	Get(ctx context.Context, id string) (models.WasteReport, error)
	// Create stores r and returns the id assigned by the store.
	Create(ctx context.Context, r models.WasteReport) (string, error)
	// MarkCleaned applies u only while the stored status is still reported.
	// It returns ErrConditionFailed when the report was already cleaned and
	// ErrNotFound when it does not exist.
	MarkCleaned(ctx context.Context, id string, u models.CleanupUpdate) (models.WasteReport, error)
	List(ctx context.Context, f models.ReportFilter) ([]models.WasteReport, error)
}

// CleanedReportRepository persists CleanedReports ("cleanedReports" collection),
// keyed by the original report id.
type CleanedReportRepository interface {
	Get(ctx context.Context, originalReportID string) (models.CleanedReport, error)
	// Create returns ErrAlreadyExists when a record for the same original report exists.
	Create(ctx context.Context, c models.CleanedReport) error
	ListByCleaner(ctx context.Context, cleanerID string, limit int) ([]models.CleanedReport, error)
	// MarkCredited sets Credited on the record; ErrNotFound when it does not exist.
	MarkCredited(ctx context.Context, originalReportID string) error
	// ListUncredited returns records whose points have not been credited yet,
	// oldest id first.
	ListUncredited(ctx context.Context, limit int) ([]models.CleanedReport, error)
}

// UserRepository persists UserAccounts ("users" collection).
type UserRepository interface {
	Get(ctx context.Context, id string) (models.UserAccount, error)
	// Create returns ErrAlreadyExists when the id or username is taken.
	Create(ctx context.Context, u models.UserAccount) error
	// IncrementStats adds d with store-side atomic increments.
	IncrementStats(ctx context.Context, id string, d models.StatsDelta) error
	TopByPoints(ctx context.Context, limit int) ([]models.UserAccount, error)
}

// Transactor runs fn so that all repository calls made with the ctx it
// receives commit or abort together.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BlobStore holds evidence images.
type BlobStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	URL(ctx context.Context, path string) (string, error)
	Delete(ctx context.Context, path string) error
}

type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// IdentityProvider resolves the user behind the current request.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (Identity, bool)
}

type Place struct {
	City    string
	Region  string
	Country string
	Label   string
}

// Geocoder maps coordinates to a place name. It returns ErrUnavailable when
// no lookup is possible.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, p geo.Point) (Place, error)
}

type Accuracy int

const (
	AccuracyBalanced Accuracy = iota
	AccuracyHigh
)

// LocationProvider exposes the device position of the acting user.
type LocationProvider interface {
	RequestPermission(ctx context.Context) (granted bool, err error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (geo.Point, error)
}

// InFlightGuard rejects a second concurrent operation on the same key.
type InFlightGuard interface {
	// Acquire holds key for ttl. ok is false when another holder has it; token
	// identifies this hold for Release.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release drops the hold only while token still owns key.
	Release(ctx context.Context, key, token string) error
}
