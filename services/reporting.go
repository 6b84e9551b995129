// path: services/reporting.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/metrics"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

const maxReportImages = 5

type ReportConfig struct {
	SelectionRadiusM float64
	LocationTimeout  time.Duration
	GeocodeTimeout   time.Duration
}

type ReportDependencies struct {
	Config   ReportConfig
	Identity ports.IdentityProvider
	Reports  ports.ReportRepository
	Users    ports.UserRepository
	Uploader *Uploader
	// Geocoder is optional; without it reports get a coordinate label.
	Geocoder ports.Geocoder
	Logger   *slog.Logger
}

// ReportService handles waste report submission and lookup.
type ReportService struct {
	cfg      ReportConfig
	identity ports.IdentityProvider
	reports  ports.ReportRepository
	users    ports.UserRepository
	uploader *Uploader
	geocoder ports.Geocoder
	logger   *slog.Logger
	nowFn    func() time.Time
}

func NewReportService(deps ReportDependencies) *ReportService {
	cfg := deps.Config
	if cfg.SelectionRadiusM <= 0 {
		cfg.SelectionRadiusM = geo.ReportSelectionRadiusM
	}
	if cfg.LocationTimeout <= 0 {
		cfg.LocationTimeout = 10 * time.Second
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = 5 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		cfg:      cfg,
		identity: deps.Identity,
		reports:  deps.Reports,
		users:    deps.Users,
		uploader: deps.Uploader,
		geocoder: deps.Geocoder,
		logger:   logger,
		nowFn:    time.Now,
	}
}

type ReportRequest struct {
	// Point is the spot the user picked on the map.
	Point          geo.Point
	Types          []models.WasteType
	Quantity       models.Quantity
	Images         []Image
	AdditionalInfo string
	Location       ports.LocationProvider
}

func (r ReportRequest) validate() error {
	if !r.Point.Valid() || r.Point.IsZero() {
		return precondition("pick a spot on the map")
	}
	if len(r.Types) == 0 {
		return precondition("choose at least one waste type")
	}
	for _, t := range r.Types {
		if !t.Valid() {
			return precondition(fmt.Sprintf("unknown waste type %q", t))
		}
	}
	if !r.Quantity.Valid() {
		return precondition("choose how much waste is there")
	}
	n := 0
	for i := range r.Images {
		if r.Images[i].present() {
			n++
		}
	}
	if n == 0 {
		return precondition("add at least one photo")
	}
	if n > maxReportImages {
		return precondition(fmt.Sprintf("at most %d photos per report", maxReportImages))
	}
	return nil
}

// Submit creates a waste report pinned within the selection radius of the
// reporter's device and credits the reporter.
func (s *ReportService) Submit(ctx context.Context, req ReportRequest) (id string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindOf(err))
		}
		metrics.ObserveReport(outcome)
	}()

	user, ok := s.identity.CurrentUser(ctx)
	if !ok {
		return "", ErrNotSignedIn
	}
	if err := req.validate(); err != nil {
		return "", err
	}
	if err := requireAccount(ctx, s.users, user.ID); err != nil {
		return "", err
	}

	device, err := locate(ctx, req.Location, s.cfg.LocationTimeout, ports.AccuracyHigh)
	if err != nil {
		return "", err
	}
	check := geo.Fence{Center: device, RadiusM: s.cfg.SelectionRadiusM}.Check(req.Point)
	if !check.Inside {
		return "", geofenceError("pick a point inside the highlighted zone", check)
	}

	now := s.nowFn().UTC()
	urls, uploaded, err := s.uploadImages(ctx, user.ID, req.Images, now)
	if err != nil {
		return "", err
	}

	report := models.WasteReport{
		Location:       req.Point,
		Types:          req.Types,
		Quantity:       req.Quantity,
		ImageURLs:      urls,
		AdditionalInfo: strings.TrimSpace(req.AdditionalInfo),
		AuthorID:       user.ID,
		Status:         models.StatusReported,
		CreatedAt:      now,
	}
	s.applyPlace(ctx, &report)

	id, err = s.reports.Create(ctx, report)
	if err != nil {
		s.uploader.Discard(ctx, uploaded)
		return "", unknown("could not save the report", err)
	}

	if err := s.users.IncrementStats(ctx, user.ID, models.StatsDelta{Reported: 1}); err != nil {
		// The report stands; only the counter is behind.
		s.logger.ErrorContext(ctx, "report created but reporter count not incremented",
			"report_id", id, "author_id", user.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "waste report submitted", "report_id", id, "author_id", user.ID)
	return id, nil
}

func (s *ReportService) uploadImages(ctx context.Context, authorID string, images []Image, now time.Time) ([]string, UploadedEvidence, error) {
	var (
		urls []string
		done UploadedEvidence
	)
	for i := range images {
		if !images[i].present() {
			continue
		}
		path := fmt.Sprintf("reportedTrash/%s/%d_%d_%s", authorID, now.UnixMilli(), i, randString(8))
		url, err := s.uploader.Upload(ctx, images[i], path)
		if err != nil {
			s.uploader.Discard(ctx, done)
			return nil, UploadedEvidence{}, err
		}
		urls = append(urls, url)
		done.paths = append(done.paths, path)
	}
	return urls, done, nil
}

func (s *ReportService) applyPlace(ctx context.Context, r *models.WasteReport) {
	r.AreaLabel = CoordinateLabel(r.Location)
	if s.geocoder == nil {
		return
	}
	gctx, cancel := context.WithTimeout(ctx, s.cfg.GeocodeTimeout)
	defer cancel()
	place, err := s.geocoder.ReverseGeocode(gctx, r.Location)
	if err != nil {
		s.logger.DebugContext(ctx, "reverse geocode unavailable", "point", r.Location.String(), "error", err)
		return
	}
	r.City, r.Region, r.Country = place.City, place.Region, place.Country
	if place.Label != "" {
		r.AreaLabel = place.Label
	}
}

// Locate resolves a human-readable place for p, falling back to a coordinate label.
func (s *ReportService) Locate(ctx context.Context, p geo.Point) (ports.Place, error) {
	if !p.Valid() || p.IsZero() {
		return ports.Place{}, precondition("invalid coordinates")
	}
	r := models.WasteReport{Location: p}
	s.applyPlace(ctx, &r)
	return ports.Place{City: r.City, Region: r.Region, Country: r.Country, Label: r.AreaLabel}, nil
}

// CoordinateLabel is the fallback area label when geocoding is unavailable.
func CoordinateLabel(p geo.Point) string {
	return fmt.Sprintf("Near %.3f, %.3f", p.Lat, p.Lng)
}

func (s *ReportService) Get(ctx context.Context, id string) (models.WasteReport, error) {
	r, err := s.reports.Get(ctx, id)
	if errors.Is(err, ports.ErrNotFound) {
		return models.WasteReport{}, ErrReportNotFound
	}
	if err != nil {
		return models.WasteReport{}, unknown("could not load the report", err)
	}
	return r, nil
}

// List returns one page of reports newest first plus the cursor of the next page.
func (s *ReportService) List(ctx context.Context, f models.ReportFilter) ([]models.WasteReport, string, error) {
	limit := clampLimit(f.Limit)
	f.Limit = limit + 1
	items, err := s.reports.List(ctx, f)
	if err != nil {
		return nil, "", unknown("could not list reports", err)
	}
	next := ""
	if len(items) > limit {
		items = items[:limit]
		next = items[limit-1].ID
	}
	return items, next, nil
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return 20
	case n > 100:
		return 100
	default:
		return n
	}
}
