package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/cache"
	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

func TestConfirmHappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)
	ctx := context.Background()

	res, err := h.cleanup.Confirm(ctx, CleanupRequest{
		ReportID: id,
		Before:   photo(),
		Note:     "  two bags collected  ",
		Location: at(nearSpot),
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.PointsAwarded != models.PointsPerCleanup {
		t.Fatalf("expected %d points, got %d", models.PointsPerCleanup, res.PointsAwarded)
	}

	got, _ := h.store.Reports().Get(ctx, id)
	if got.Status != models.StatusCleaned || !got.Cleaned || got.CleanedBy != "cleaner" {
		t.Fatalf("report not transitioned: %+v", got)
	}
	if got.CleaningInfo != "two bags collected" {
		t.Fatalf("note not trimmed: %q", got.CleaningInfo)
	}
	if !strings.Contains(got.BeforeCleaningImage, "cleanedTrash/"+id+"/before_") || got.AfterCleaningImage != "" {
		t.Fatalf("unexpected evidence urls before=%q after=%q", got.BeforeCleaningImage, got.AfterCleaningImage)
	}
	if got.UserLocation == nil || *got.UserLocation != nearSpot {
		t.Fatalf("cleaner location not stored: %+v", got.UserLocation)
	}

	rec, err := h.store.CleanedReports().Get(ctx, id)
	if err != nil {
		t.Fatalf("cleaned report missing: %v", err)
	}
	if rec.OriginalReportID != id || rec.Status != models.StatusCleaned || rec.AuthorID != "author" {
		t.Fatalf("unexpected cleaned report %+v", rec)
	}

	acct, _ := h.store.Users().Get(ctx, "cleaner")
	if acct.Points != 20 || acct.Cleaned != 1 {
		t.Fatalf("expected 20 points and 1 cleanup, got %+v", acct)
	}
}

func TestConfirmTooFar(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)

	_, err := h.cleanup.Confirm(context.Background(), CleanupRequest{
		ReportID: id,
		After:    photo(),
		Location: at(farSpot),
	})
	var werr *Error
	if !errors.As(err, &werr) || werr.Kind != KindGeofence {
		t.Fatalf("expected geofence error, got %v", err)
	}
	if werr.DistanceMeters < 602 || werr.DistanceMeters > 612 {
		t.Fatalf("expected ~607 m, got %d", werr.DistanceMeters)
	}
	if !strings.Contains(werr.Message, "m away") {
		t.Fatalf("message should state the distance: %q", werr.Message)
	}

	got, _ := h.store.Reports().Get(context.Background(), id)
	if got.Status != models.StatusReported {
		t.Fatalf("status changed to %s", got.Status)
	}
	if h.blobs.PutCalls() != 0 {
		t.Fatalf("expected no uploads, got %d", h.blobs.PutCalls())
	}
}

func TestConfirmWithoutEvidenceTouchesNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)
	h.resetCounters()
	loc := at(nearSpot)

	_, err := h.cleanup.Confirm(context.Background(), CleanupRequest{ReportID: id, Location: loc})
	if !errors.Is(err, ErrNoEvidence) || KindOf(err) != KindPrecondition {
		t.Fatalf("expected no-evidence precondition, got %v", err)
	}
	if n := h.reports.calls.Load() + h.users.calls.Load(); n != 0 {
		t.Fatalf("expected zero store calls, got %d", n)
	}
	if h.blobs.PutCalls() != 0 || loc.posCalls.Load() != 0 {
		t.Fatal("expected no uploads and no location reads")
	}
}

func TestConfirmTwiceCreditsOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)
	ctx := context.Background()
	req := CleanupRequest{ReportID: id, Before: photo(), After: photo(), Location: at(nearSpot)}

	if _, err := h.cleanup.Confirm(ctx, req); err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	_, err := h.cleanup.Confirm(ctx, req)
	if !errors.Is(err, ErrAlreadyCleaned) {
		t.Fatalf("expected already cleaned, got %v", err)
	}
	acct, _ := h.store.Users().Get(ctx, "cleaner")
	if acct.Points != 20 || acct.Cleaned != 1 {
		t.Fatalf("second confirm changed counters: %+v", acct)
	}
	if n := h.store.CleanedReports().Count(); n != 1 {
		t.Fatalf("expected one cleaned report, got %d", n)
	}
}

func TestConcurrentConfirmOneWins(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "c1")
	h.addUser(t, "c1")
	h.addUser(t, "c2")
	id := h.addReport(t, spot)
	// Both confirmations read the report before either writes.
	h.reports.afterGet = barrier(2)

	cleaners := []string{"c1", "c2"}
	var (
		wg   sync.WaitGroup
		errs = make([]error, len(cleaners))
	)
	for i, who := range cleaners {
		wg.Add(1)
		go func(i int, svc *CleanupService) {
			defer wg.Done()
			_, errs[i] = svc.Confirm(context.Background(), CleanupRequest{
				ReportID: id, Before: photo(), Location: at(nearSpot),
			})
		}(i, h.cleanupAs(who))
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case KindOf(err) == KindWriteConflict:
			conflicts++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("expected one win and one conflict, got %d/%d", wins, conflicts)
	}

	var total int64
	credited := 0
	for _, who := range cleaners {
		acct, _ := h.store.Users().Get(context.Background(), who)
		total += acct.Points
		if acct.Points > 0 {
			credited++
		}
	}
	if total != models.PointsPerCleanup || credited != 1 {
		t.Fatalf("expected 20 points credited to one cleaner, got total=%d credited=%d", total, credited)
	}
	if n := h.store.CleanedReports().Count(); n != 1 {
		t.Fatalf("expected one cleaned report, got %d", n)
	}
	if n := len(h.blobs.Paths()); n != 1 {
		t.Fatalf("loser's upload should be discarded, %d objects left", n)
	}
}

func TestPointsAccumulatePerCleanup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	ctx := context.Background()

	const n = 5
	for i := 0; i < n; i++ {
		id := h.addReport(t, spot)
		if _, err := h.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, After: photo(), Location: at(nearSpot)}); err != nil {
			t.Fatalf("confirm %d: %v", i, err)
		}
	}
	acct, _ := h.store.Users().Get(ctx, "cleaner")
	if acct.Points != n*models.PointsPerCleanup || acct.Cleaned != n {
		t.Fatalf("expected %d points over %d cleanups, got %+v", n*models.PointsPerCleanup, n, acct)
	}
	if got := h.store.CleanedReports().Count(); got != n {
		t.Fatalf("expected %d cleaned reports, got %d", n, got)
	}
	list, err := h.cleanup.ListCleaned(ctx, "cleaner", 0)
	if err != nil || len(list) != n {
		t.Fatalf("list cleaned: %d items, %v", len(list), err)
	}
}

func TestConfirmLocationFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		loc  ports.LocationProvider
		want Kind
	}{
		{name: "denied", loc: &fakeLocation{denied: true, pos: nearSpot}, want: KindPermission},
		{name: "no provider", loc: nil, want: KindPermission},
		{name: "permission prompt failed", loc: &fakeLocation{permErr: errors.New("prompt dismissed")}, want: KindLocationUnavailable},
		{name: "fix failed", loc: &fakeLocation{posErr: context.DeadlineExceeded}, want: KindLocationUnavailable},
		{name: "zero fix", loc: &fakeLocation{}, want: KindLocationUnavailable},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t, "cleaner")
			h.addUser(t, "cleaner")
			id := h.addReport(t, spot)
			_, err := h.cleanup.Confirm(context.Background(), CleanupRequest{ReportID: id, Before: photo(), Location: tc.loc})
			if KindOf(err) != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, err)
			}
			if fl, ok := tc.loc.(*fakeLocation); ok && fl.denied && fl.posCalls.Load() != 0 {
				t.Fatal("position must not be read after a denied permission")
			}
			if h.blobs.PutCalls() != 0 {
				t.Fatal("expected no uploads")
			}
		})
	}
}

func TestConfirmUploadFailureDiscardsPartialEvidence(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)
	h.blobs.FailPaths = []string{"cleanedTrash/" + id + "/after"}

	_, err := h.cleanup.Confirm(context.Background(), CleanupRequest{
		ReportID: id, Before: photo(), After: photo(), Location: at(nearSpot),
	})
	var werr *Error
	if !errors.As(err, &werr) || werr.Kind != KindUpload || !werr.Retryable() {
		t.Fatalf("expected retryable upload error, got %v", err)
	}
	if n := len(h.blobs.Paths()); n != 0 {
		t.Fatalf("before photo should be discarded, %d objects left", n)
	}
	got, _ := h.store.Reports().Get(context.Background(), id)
	if got.Status != models.StatusReported || h.store.CleanedReports().Count() != 0 {
		t.Fatal("no document writes expected after upload failure")
	}
	// one put for before plus two attempts for after
	if h.blobs.PutCalls() != 3 {
		t.Fatalf("expected 3 put attempts, got %d", h.blobs.PutCalls())
	}
}

func TestConfirmPreconditions(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	id := h.addReport(t, spot)
	ctx := context.Background()

	_, err := h.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, Before: photo(), Location: at(nearSpot)})
	if KindOf(err) != KindPrecondition || !strings.Contains(err.Error(), "profile") {
		t.Fatalf("expected missing-account precondition, got %v", err)
	}

	h.addUser(t, "cleaner")
	_, err = h.cleanup.Confirm(ctx, CleanupRequest{ReportID: "nope", Before: photo(), Location: at(nearSpot)})
	if !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected report not found, got %v", err)
	}

	anon := newHarness(t, "")
	_, err = anon.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, Before: photo(), Location: at(nearSpot)})
	if KindOf(err) != KindUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestConfirmCancelledBeforeWriteLeavesNoTrace(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "cleaner")
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)

	ctx, cancel := context.WithCancel(context.Background())
	// Cancel as soon as the evidence is uploaded.
	h.uploader.blobs = cancelAfterPut{BlobStore: h.blobs, cancel: cancel}

	_, err := h.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, Before: photo(), Location: at(nearSpot)})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	got, _ := h.store.Reports().Get(context.Background(), id)
	if got.Status != models.StatusReported {
		t.Fatal("report must stay reported after cancellation")
	}
	if n := len(h.blobs.Paths()); n != 0 {
		t.Fatalf("uploaded evidence should be discarded, %d objects left", n)
	}
}

type cancelAfterPut struct {
	ports.BlobStore
	cancel context.CancelFunc
}

func (c cancelAfterPut) Put(ctx context.Context, path string, data []byte, ct string) error {
	err := c.BlobStore.Put(ctx, path, data, ct)
	c.cancel()
	return err
}

func TestConfirmInFlightGuard(t *testing.T) {
	t.Parallel()

	guard := cache.NewMemoryGuard()
	h := newHarness(t, "cleaner", func(d *CleanupDependencies) { d.Guard = guard })
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)
	ctx := context.Background()

	token, ok, _ := guard.Acquire(ctx, "cleanup:inflight:"+id, time.Minute)
	if !ok {
		t.Fatal("setup: acquire guard")
	}
	_, err := h.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, Before: photo(), Location: at(nearSpot)})
	if KindOf(err) != KindWriteConflict {
		t.Fatalf("expected write conflict while another confirmation is in flight, got %v", err)
	}
	if h.blobs.PutCalls() != 0 {
		t.Fatal("expected no uploads while guarded")
	}

	_ = guard.Release(ctx, "cleanup:inflight:"+id, token)
	if _, err := h.cleanup.Confirm(ctx, CleanupRequest{ReportID: id, Before: photo(), Location: at(nearSpot)}); err != nil {
		t.Fatalf("confirm after release: %v", err)
	}
	if _, ok, _ := guard.Acquire(ctx, "cleanup:inflight:"+id, time.Minute); !ok {
		t.Fatal("guard should be released after confirmation")
	}
}

func TestConfirmUsesTransactor(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	h := newHarness(t, "cleaner", func(d *CleanupDependencies) {
		d.Reconciler = NewReconciler(d.Reports, d.Cleaned, d.Users, tx, quietLogger())
	})
	h.addUser(t, "cleaner")
	id := h.addReport(t, spot)

	if _, err := h.cleanup.Confirm(context.Background(), CleanupRequest{ReportID: id, After: photo(), Location: at(nearSpot)}); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if tx.calls.Load() != 1 {
		t.Fatalf("expected one transaction, got %d", tx.calls.Load())
	}
}
