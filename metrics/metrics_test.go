package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/items/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusTeapot) })

	counter := httpRequestsTotal.WithLabelValues("GET", "/items/:id", "418")
	before := testutil.ToFloat64(counter)
	for i := 0; i < 3; i++ {
		if _, err := app.Test(httptest.NewRequest("GET", "/items/42", nil)); err != nil {
			t.Fatalf("request: %v", err)
		}
	}
	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Fatalf("expected 3 requests counted, got %v", got)
	}
}

func TestWorkflowCounters(t *testing.T) {
	before := testutil.ToFloat64(cleanupConfirmationsTotal.WithLabelValues("geofence"))
	ObserveCleanup("geofence")
	if got := testutil.ToFloat64(cleanupConfirmationsTotal.WithLabelValues("geofence")) - before; got != 1 {
		t.Fatalf("expected cleanup counter +1, got %v", got)
	}

	before = testutil.ToFloat64(reconcilePartialTotal.WithLabelValues("user_stats"))
	ObserveReconcilePartial("user_stats")
	if got := testutil.ToFloat64(reconcilePartialTotal.WithLabelValues("user_stats")) - before; got != 1 {
		t.Fatalf("expected partial counter +1, got %v", got)
	}

	ObserveUpload(120*time.Millisecond, "ok")
	if n := testutil.CollectAndCount(evidenceUploadDuration); n == 0 {
		t.Fatal("expected upload histogram series")
	}
}
