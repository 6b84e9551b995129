package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/database"
	"github.com/Developrimbor/GreenWorld-sub000/geo"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
	"github.com/Developrimbor/GreenWorld-sub000/storage"
)

var (
	spot     = geo.Point{Lat: 40.7558, Lng: 30.3954}
	nearSpot = geo.Point{Lat: 40.7559, Lng: 30.3955} // ~14 m
	farSpot  = geo.Point{Lat: 40.7600, Lng: 30.4000} // ~607 m
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeIdentity struct{ id ports.Identity }

func (f fakeIdentity) CurrentUser(context.Context) (ports.Identity, bool) {
	return f.id, f.id.ID != ""
}

// fakeLocation is a device location source with call counters.
type fakeLocation struct {
	denied   bool
	permErr  error
	pos      geo.Point
	posErr   error
	posCalls atomic.Int32
}

func at(p geo.Point) *fakeLocation { return &fakeLocation{pos: p} }

func (f *fakeLocation) RequestPermission(context.Context) (bool, error) {
	if f.permErr != nil {
		return false, f.permErr
	}
	return !f.denied, nil
}

func (f *fakeLocation) CurrentPosition(context.Context, ports.Accuracy) (geo.Point, error) {
	f.posCalls.Add(1)
	return f.pos, f.posErr
}

// countingReports counts every call and can hold Get callers at a barrier.
type countingReports struct {
	ports.ReportRepository
	calls    atomic.Int32
	afterGet func()
}

func (c *countingReports) Get(ctx context.Context, id string) (models.WasteReport, error) {
	c.calls.Add(1)
	r, err := c.ReportRepository.Get(ctx, id)
	if c.afterGet != nil {
		c.afterGet()
	}
	return r, err
}

func (c *countingReports) Create(ctx context.Context, r models.WasteReport) (string, error) {
	c.calls.Add(1)
	return c.ReportRepository.Create(ctx, r)
}

func (c *countingReports) MarkCleaned(ctx context.Context, id string, u models.CleanupUpdate) (models.WasteReport, error) {
	c.calls.Add(1)
	return c.ReportRepository.MarkCleaned(ctx, id, u)
}

func (c *countingReports) List(ctx context.Context, f models.ReportFilter) ([]models.WasteReport, error) {
	c.calls.Add(1)
	return c.ReportRepository.List(ctx, f)
}

type countingUsers struct {
	ports.UserRepository
	calls atomic.Int32
	// failStats makes that many IncrementStats calls fail before reaching the store.
	failStats atomic.Int32
}

func (c *countingUsers) Get(ctx context.Context, id string) (models.UserAccount, error) {
	c.calls.Add(1)
	return c.UserRepository.Get(ctx, id)
}

func (c *countingUsers) IncrementStats(ctx context.Context, id string, d models.StatsDelta) error {
	c.calls.Add(1)
	if n := c.failStats.Load(); n > 0 && c.failStats.CompareAndSwap(n, n-1) {
		return fmt.Errorf("increment stats: %w", ports.ErrUnavailable)
	}
	return c.UserRepository.IncrementStats(ctx, id, d)
}

type fakeTx struct{ calls atomic.Int32 }

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls.Add(1)
	return fn(ctx)
}

// harness wires the cleanup and report services over the in-memory store.
type harness struct {
	store    *database.MemoryStore
	reports  *countingReports
	users    *countingUsers
	blobs    *storage.MemoryStore
	uploader *Uploader
	cleanup  *CleanupService
	report   *ReportService
	accounts *AccountService
}

func newHarness(t *testing.T, userID string, opts ...func(*CleanupDependencies)) *harness {
	t.Helper()

	store := database.NewMemoryStore()
	h := &harness{
		store:   store,
		reports: &countingReports{ReportRepository: store.Reports()},
		users:   &countingUsers{UserRepository: store.Users()},
		blobs:   storage.NewMemoryStore(""),
	}
	logger := quietLogger()
	identity := fakeIdentity{id: ports.Identity{ID: userID, DisplayName: "Cleaner " + userID}}

	h.uploader = NewUploader(UploaderConfig{Timeout: time.Second, Attempts: 2}, h.blobs, logger)
	var tick atomic.Int64
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.uploader.nowFn = func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Millisecond) }

	deps := CleanupDependencies{
		Identity:   identity,
		Reports:    h.reports,
		Cleaned:    store.CleanedReports(),
		Users:      h.users,
		Uploader:   h.uploader,
		Reconciler: NewReconciler(h.reports, store.CleanedReports(), h.users, nil, logger),
		Logger:     logger,
	}
	for _, o := range opts {
		o(&deps)
	}
	h.cleanup = NewCleanupService(deps)
	h.cleanup.nowFn = func() time.Time { return base }

	h.report = NewReportService(ReportDependencies{
		Identity: identity,
		Reports:  h.reports,
		Users:    h.users,
		Uploader: h.uploader,
		Logger:   logger,
	})
	h.report.nowFn = func() time.Time { return base }
	h.accounts = NewAccountService(identity, h.users, logger)
	return h
}

func (h *harness) addUser(t *testing.T, id string) {
	t.Helper()
	err := h.store.Users().Create(context.Background(), models.UserAccount{ID: id, Name: id, Username: "user_" + id})
	if err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func (h *harness) addReport(t *testing.T, p geo.Point) string {
	t.Helper()
	id, err := h.store.Reports().Create(context.Background(), models.WasteReport{
		Location:  p,
		Types:     []models.WasteType{models.WastePlastic},
		Quantity:  models.QuantityBag,
		AuthorID:  "author",
		Status:    models.StatusReported,
		CreatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return id
}

func (h *harness) resetCounters() {
	h.reports.calls.Store(0)
	h.users.calls.Store(0)
}

func photo() *Image { return &Image{Data: []byte("jpeg-bytes"), ContentType: "image/jpeg"} }

// barrier releases all n waiters once the n-th arrives.
func barrier(n int) func() {
	var (
		mu      sync.Mutex
		arrived int
		gate    = make(chan struct{})
	)
	return func() {
		mu.Lock()
		arrived++
		if arrived == n {
			close(gate)
		}
		mu.Unlock()
		<-gate
	}
}

func identityOf(id string) ports.Identity { return ports.Identity{ID: id, DisplayName: id} }

// cleanupAs returns a cleanup service over the harness stores acting as userID.
func (h *harness) cleanupAs(userID string) *CleanupService {
	svc := NewCleanupService(CleanupDependencies{
		Identity:   fakeIdentity{id: identityOf(userID)},
		Reports:    h.reports,
		Cleaned:    h.store.CleanedReports(),
		Users:      h.users,
		Uploader:   h.uploader,
		Reconciler: NewReconciler(h.reports, h.store.CleanedReports(), h.users, nil, quietLogger()),
		Logger:     quietLogger(),
	})
	svc.nowFn = h.cleanup.nowFn
	return svc
}
