// path: database/memory.go
package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// MemoryStore is a process-local store with the same semantics as MongoStore.
// It backs STORE=memory and the tests.
type MemoryStore struct {
	mu      sync.Mutex
	reports map[string]models.WasteReport
	cleaned map[string]models.CleanedReport
	users   map[string]models.UserAccount
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: map[string]models.WasteReport{},
		cleaned: map[string]models.CleanedReport{},
		users:   map[string]models.UserAccount{},
	}
}

func (m *MemoryStore) Reports() *MemoryReports               { return &MemoryReports{m} }
func (m *MemoryStore) CleanedReports() *MemoryCleanedReports { return &MemoryCleanedReports{m} }
func (m *MemoryStore) Users() *MemoryUsers                   { return &MemoryUsers{m} }

func copyReport(r models.WasteReport) models.WasteReport {
	r.Types = append([]models.WasteType(nil), r.Types...)
	r.ImageURLs = append([]string(nil), r.ImageURLs...)
	if r.CleanedAt != nil {
		t := *r.CleanedAt
		r.CleanedAt = &t
	}
	if r.UserLocation != nil {
		p := *r.UserLocation
		r.UserLocation = &p
	}
	return r
}

type MemoryReports struct{ m *MemoryStore }

func (r *MemoryReports) Get(_ context.Context, id string) (models.WasteReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	doc, ok := r.m.reports[id]
	if !ok {
		return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrNotFound)
	}
	return copyReport(doc), nil
}

func (r *MemoryReports) Create(_ context.Context, doc models.WasteReport) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if _, ok := r.m.reports[doc.ID]; ok {
		return "", fmt.Errorf("report %s: %w", doc.ID, ports.ErrAlreadyExists)
	}
	r.m.reports[doc.ID] = copyReport(doc)
	return doc.ID, nil
}

func (r *MemoryReports) MarkCleaned(_ context.Context, id string, u models.CleanupUpdate) (models.WasteReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	doc, ok := r.m.reports[id]
	if !ok {
		return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrNotFound)
	}
	if doc.Status != models.StatusReported {
		return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrConditionFailed)
	}
	doc = u.Apply(doc)
	r.m.reports[id] = doc
	return copyReport(doc), nil
}

func (r *MemoryReports) List(_ context.Context, f models.ReportFilter) ([]models.WasteReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.WasteReport
	for _, doc := range r.m.reports {
		if matches(doc, f) {
			out = append(out, copyReport(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(doc models.WasteReport, f models.ReportFilter) bool {
	if f.Status != "" && doc.Status != f.Status {
		return false
	}
	if f.AuthorID != "" && doc.AuthorID != f.AuthorID {
		return false
	}
	if f.CleanedBy != "" && doc.CleanedBy != f.CleanedBy {
		return false
	}
	if f.Type != "" {
		found := false
		for _, t := range doc.Types {
			found = found || t == f.Type
		}
		if !found {
			return false
		}
	}
	if f.BBox != nil && !f.BBox.Contains(doc.Location) {
		return false
	}
	if f.Cursor != "" && doc.ID >= f.Cursor {
		return false
	}
	return true
}

type MemoryCleanedReports struct{ m *MemoryStore }

func (r *MemoryCleanedReports) Get(_ context.Context, originalReportID string) (models.CleanedReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	doc, ok := r.m.cleaned[originalReportID]
	if !ok {
		return models.CleanedReport{}, fmt.Errorf("cleaned report %s: %w", originalReportID, ports.ErrNotFound)
	}
	doc.WasteReport = copyReport(doc.WasteReport)
	return doc, nil
}

func (r *MemoryCleanedReports) Create(_ context.Context, c models.CleanedReport) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.cleaned[c.OriginalReportID]; ok {
		return fmt.Errorf("cleaned report %s: %w", c.OriginalReportID, ports.ErrAlreadyExists)
	}
	c.ID = c.OriginalReportID
	c.WasteReport = copyReport(c.WasteReport)
	r.m.cleaned[c.OriginalReportID] = c
	return nil
}

func (r *MemoryCleanedReports) ListByCleaner(_ context.Context, cleanerID string, limit int) ([]models.CleanedReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.CleanedReport
	for _, doc := range r.m.cleaned {
		if doc.CleanedBy == cleanerID {
			doc.WasteReport = copyReport(doc.WasteReport)
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CleanedAt == nil || out[j].CleanedAt == nil {
			return out[i].ID > out[j].ID
		}
		return out[i].CleanedAt.After(*out[j].CleanedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryCleanedReports) MarkCredited(_ context.Context, originalReportID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	doc, ok := r.m.cleaned[originalReportID]
	if !ok {
		return fmt.Errorf("cleaned report %s: %w", originalReportID, ports.ErrNotFound)
	}
	doc.Credited = true
	r.m.cleaned[originalReportID] = doc
	return nil
}

func (r *MemoryCleanedReports) ListUncredited(_ context.Context, limit int) ([]models.CleanedReport, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []models.CleanedReport
	for _, doc := range r.m.cleaned {
		if !doc.Credited {
			doc.WasteReport = copyReport(doc.WasteReport)
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of cleaned reports stored.
func (r *MemoryCleanedReports) Count() int {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return len(r.m.cleaned)
}

type MemoryUsers struct{ m *MemoryStore }

func (r *MemoryUsers) Get(_ context.Context, id string) (models.UserAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return models.UserAccount{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return u, nil
}

func (r *MemoryUsers) Create(_ context.Context, u models.UserAccount) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; ok {
		return fmt.Errorf("user %s: %w", u.ID, ports.ErrAlreadyExists)
	}
	for _, existing := range r.m.users {
		if existing.Username == u.Username {
			return fmt.Errorf("username %s: %w", u.Username, ports.ErrAlreadyExists)
		}
	}
	r.m.users[u.ID] = u
	return nil
}

func (r *MemoryUsers) IncrementStats(_ context.Context, id string, d models.StatsDelta) error {
	if !d.Valid() {
		return fmt.Errorf("negative stats delta for user %s", id)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	u.Points += d.Points
	u.Reported += d.Reported
	u.Cleaned += d.Cleaned
	u.Posts += d.Posts
	r.m.users[id] = u
	return nil
}

func (r *MemoryUsers) TopByPoints(_ context.Context, limit int) ([]models.UserAccount, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.UserAccount, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ ports.ReportRepository        = (*MemoryReports)(nil)
	_ ports.CleanedReportRepository = (*MemoryCleanedReports)(nil)
	_ ports.UserRepository          = (*MemoryUsers)(nil)
	_ ports.ReportRepository        = (*MongoReports)(nil)
	_ ports.CleanedReportRepository = (*MongoCleanedReports)(nil)
	_ ports.UserRepository          = (*MongoUsers)(nil)
	_ ports.Transactor              = (*MongoStore)(nil)
)
