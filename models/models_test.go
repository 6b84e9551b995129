package models

import (
	"testing"
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "eco_warrior", "A1_b2_C3", "abcdefghijklmnopqrst"}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Fatalf("expected %q valid, got %v", u, err)
		}
	}
	invalid := []string{"", "ab", "bad name", "dash-name", "abcdefghijklmnopqrstu", "émile"}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Fatalf("expected %q invalid", u)
		}
	}
}

func TestParseWasteTypes(t *testing.T) {
	t.Parallel()

	got, err := ParseWasteTypes([]string{"Plastic, glass", "plastic"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != WastePlastic || got[1] != WasteGlass {
		t.Fatalf("unexpected types %v", got)
	}
	if _, err := ParseWasteTypes([]string{"uranium"}); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestParseQuantity(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Quantity{"bag": QuantityBag, "4": QuantityPile, " Handful ": QuantityHandful} {
		got, err := ParseQuantity(in)
		if err != nil || got != want {
			t.Fatalf("ParseQuantity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseQuantity("0"); err == nil {
		t.Fatalf("expected error for ordinal 0")
	}
}

func TestNewCleanedReportMergesUpdate(t *testing.T) {
	t.Parallel()

	before := WasteReport{
		ID:        "r1",
		Location:  geo.Point{Lat: 40.7558, Lng: 30.3954},
		Types:     []WasteType{WastePlastic},
		Quantity:  QuantityBag,
		AuthorID:  "author",
		Status:    StatusReported,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	u := CleanupUpdate{CleanedBy: "cleaner", CleanedAt: now, BeforeCleaningImage: "http://img/before"}

	got := NewCleanedReport(before, u)
	if got.OriginalReportID != "r1" || got.ID != "r1" {
		t.Fatalf("expected ids to match original, got %q/%q", got.ID, got.OriginalReportID)
	}
	if got.PointsAwarded != PointsPerCleanup {
		t.Fatalf("expected %d points, got %d", PointsPerCleanup, got.PointsAwarded)
	}
	if got.Status != StatusCleaned || !got.Cleaned || got.CleanedBy != "cleaner" || !got.CleanedAt.Equal(now) {
		t.Fatalf("cleanup fields not applied: %+v", got.WasteReport)
	}
	if before.Status != StatusReported || before.CleanedAt != nil {
		t.Fatalf("original report mutated")
	}
}
