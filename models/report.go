// path: models/report.go
package models

import (
	"time"

	"github.com/Developrimbor/GreenWorld-sub000/geo"
)

type ReportStatus string

const (
	StatusReported ReportStatus = "reported"
	StatusCleaned  ReportStatus = "cleaned"
)

// PointsPerCleanup is credited to the cleaner for every confirmed cleanup.
const PointsPerCleanup = 20

type WasteReport struct {
	ID             string       `bson:"_id,omitempty" json:"id"`
	Location       geo.Point    `bson:"location" json:"location"`
	Types          []WasteType  `bson:"type" json:"type"`
	Quantity       Quantity     `bson:"quantity" json:"quantity"`
	ImageURLs      []string     `bson:"image_urls,omitempty" json:"image_urls,omitempty"`
	AdditionalInfo string       `bson:"additional_info,omitempty" json:"additional_info,omitempty"`
	AuthorID       string       `bson:"author_id" json:"author_id"`
	Status         ReportStatus `bson:"status" json:"status"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`

	// Reverse-geocoded place (optional)
	AreaLabel string `bson:"area_label,omitempty" json:"area_label,omitempty"`
	City      string `bson:"city,omitempty" json:"city,omitempty"`
	Region    string `bson:"region,omitempty" json:"region,omitempty"`
	Country   string `bson:"country,omitempty" json:"country,omitempty"`

	// Set only once Status == cleaned
	Cleaned             bool       `bson:"cleaned,omitempty" json:"cleaned,omitempty"`
	CleanedBy           string     `bson:"cleaned_by,omitempty" json:"cleaned_by,omitempty"`
	CleanedAt           *time.Time `bson:"cleaned_at,omitempty" json:"cleaned_at,omitempty"`
	BeforeCleaningImage string     `bson:"before_cleaning_image,omitempty" json:"before_cleaning_image,omitempty"`
	AfterCleaningImage  string     `bson:"after_cleaning_image,omitempty" json:"after_cleaning_image,omitempty"`
	CleaningInfo        string     `bson:"cleaning_info,omitempty" json:"cleaning_info,omitempty"`
	UserLocation        *geo.Point `bson:"user_location,omitempty" json:"user_location,omitempty"`
}

// CleanupUpdate is the field set that moves a report from reported to cleaned.
type CleanupUpdate struct {
	CleanedBy           string
	CleanedAt           time.Time
	CleaningInfo        string
	UserLocation        geo.Point
	BeforeCleaningImage string
	AfterCleaningImage  string
}

// Apply returns a copy of r with the update applied.
func (u CleanupUpdate) Apply(r WasteReport) WasteReport {
	at := u.CleanedAt
	loc := u.UserLocation
	r.Status = StatusCleaned
	r.Cleaned = true
	r.CleanedBy = u.CleanedBy
	r.CleanedAt = &at
	r.CleaningInfo = u.CleaningInfo
	r.UserLocation = &loc
	r.BeforeCleaningImage = u.BeforeCleaningImage
	r.AfterCleaningImage = u.AfterCleaningImage
	r.ImageURLs = append([]string(nil), r.ImageURLs...)
	r.Types = append([]WasteType(nil), r.Types...)
	return r
}

// CleanedReport is the audit record of a completed cleanup. Its ID equals
// OriginalReportID. Credited flips to true once PointsAwarded has been added
// to the cleaner's account; it is the only field written after insert.
type CleanedReport struct {
	WasteReport      `bson:",inline"`
	OriginalReportID string `bson:"original_report_id" json:"original_report_id"`
	PointsAwarded    int    `bson:"points_awarded" json:"points_awarded"`
	Credited         bool   `bson:"credited" json:"credited"`
}

// NewCleanedReport merges the pre-transition report with the cleanup update.
func NewCleanedReport(before WasteReport, u CleanupUpdate) CleanedReport {
	return CleanedReport{
		WasteReport:      u.Apply(before),
		OriginalReportID: before.ID,
		PointsAwarded:    PointsPerCleanup,
	}
}

type ReportFilter struct {
	Status    ReportStatus
	AuthorID  string
	CleanedBy string
	Type      WasteType
	BBox      *BBox
	Cursor    string // exclusive upper bound on ID; results are newest first
	Limit     int
}

type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

func (b BBox) Contains(p geo.Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}
