// path: database/mongo.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Developrimbor/GreenWorld-sub000/models"
	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// MongoStore implements the repositories in ports on top of one database.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

func NewMongoStore(client *mongo.Client, db *mongo.Database, timeout time.Duration) *MongoStore {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &MongoStore{client: client, db: db, timeout: timeout}
}

func (s *MongoStore) Reports() *MongoReports { return &MongoReports{s: s, col: s.db.Collection(ColReports)} }

func (s *MongoStore) CleanedReports() *MongoCleanedReports {
	return &MongoCleanedReports{s: s, col: s.db.Collection(ColCleanedReports)}
}

func (s *MongoStore) Users() *MongoUsers { return &MongoUsers{s: s, col: s.db.Collection(ColUsers)} }

// WithinTransaction runs fn inside a multi-document transaction. The
// deployment must be a replica set or sharded cluster.
func (s *MongoStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// --- reports ---

type MongoReports struct {
	s   *MongoStore
	col *mongo.Collection
}

func (r *MongoReports) Get(ctx context.Context, id string) (models.WasteReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var doc models.WasteReport
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return models.WasteReport{}, fmt.Errorf("find report: %w", err)
	}
	return doc, nil
}

func (r *MongoReports) Create(ctx context.Context, doc models.WasteReport) (string, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if doc.ID == "" {
		doc.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("report %s: %w", doc.ID, ports.ErrAlreadyExists)
		}
		return "", fmt.Errorf("insert report: %w", err)
	}
	return doc.ID, nil
}

// MarkCleaned uses a single FindOneAndUpdate filtered on status so that the
// check and the write are atomic for the document.
func (r *MongoReports) MarkCleaned(ctx context.Context, id string, u models.CleanupUpdate) (models.WasteReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	set := bson.M{
		"status":        models.StatusCleaned,
		"cleaned":       true,
		"cleaned_by":    u.CleanedBy,
		"cleaned_at":    u.CleanedAt,
		"cleaning_info": u.CleaningInfo,
		"user_location": u.UserLocation,
	}
	if u.BeforeCleaningImage != "" {
		set["before_cleaning_image"] = u.BeforeCleaningImage
	}
	if u.AfterCleaningImage != "" {
		set["after_cleaning_image"] = u.AfterCleaningImage
	}

	var doc models.WasteReport
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.StatusReported},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.WasteReport{}, fmt.Errorf("mark report cleaned: %w", err)
	}

	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return models.WasteReport{}, fmt.Errorf("count report: %w", err)
	}
	if n == 0 {
		return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrNotFound)
	}
	return models.WasteReport{}, fmt.Errorf("report %s: %w", id, ports.ErrConditionFailed)
}

func (r *MongoReports) List(ctx context.Context, f models.ReportFilter) ([]models.WasteReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	if f.Limit > 0 {
		findOpts.SetLimit(int64(f.Limit))
	}
	cur, err := r.col.Find(ctx, reportFilter(f), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.WasteReport, 0, f.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return items, nil
}

func reportFilter(f models.ReportFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AuthorID != "" {
		filter["author_id"] = f.AuthorID
	}
	if f.CleanedBy != "" {
		filter["cleaned_by"] = f.CleanedBy
	}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.BBox != nil {
		filter["location.lat"] = bson.M{"$gte": f.BBox.MinLat, "$lte": f.BBox.MaxLat}
		filter["location.lng"] = bson.M{"$gte": f.BBox.MinLng, "$lte": f.BBox.MaxLng}
	}
	if f.Cursor != "" {
		filter["_id"] = bson.M{"$lt": f.Cursor}
	}
	return filter
}

// --- cleaned reports ---

type MongoCleanedReports struct {
	s   *MongoStore
	col *mongo.Collection
}

func (r *MongoCleanedReports) Get(ctx context.Context, originalReportID string) (models.CleanedReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var doc models.CleanedReport
	err := r.col.FindOne(ctx, bson.M{"_id": originalReportID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CleanedReport{}, fmt.Errorf("cleaned report %s: %w", originalReportID, ports.ErrNotFound)
	}
	if err != nil {
		return models.CleanedReport{}, fmt.Errorf("find cleaned report: %w", err)
	}
	return doc, nil
}

// Create inserts c with _id = OriginalReportID; the primary key is the dedup key.
func (r *MongoCleanedReports) Create(ctx context.Context, c models.CleanedReport) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	c.ID = c.OriginalReportID
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("cleaned report %s: %w", c.OriginalReportID, ports.ErrAlreadyExists)
		}
		return fmt.Errorf("insert cleaned report: %w", err)
	}
	return nil
}

func (r *MongoCleanedReports) ListByCleaner(ctx context.Context, cleanerID string, limit int) ([]models.CleanedReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "cleaned_at", Value: -1}}).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"cleaned_by": cleanerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find cleaned reports: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.CleanedReport, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode cleaned reports: %w", err)
	}
	return items, nil
}

func (r *MongoCleanedReports) MarkCredited(ctx context.Context, originalReportID string) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": originalReportID}, bson.M{"$set": bson.M{"credited": true}})
	if err != nil {
		return fmt.Errorf("mark cleaned report credited: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("cleaned report %s: %w", originalReportID, ports.ErrNotFound)
	}
	return nil
}

// ListUncredited matches credited == false only; rows written before the
// field existed carry no value and are left alone.
func (r *MongoCleanedReports) ListUncredited(ctx context.Context, limit int) ([]models.CleanedReport, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"credited": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("find uncredited cleaned reports: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.CleanedReport, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode cleaned reports: %w", err)
	}
	return items, nil
}

// --- users ---

type MongoUsers struct {
	s   *MongoStore
	col *mongo.Collection
}

func (r *MongoUsers) Get(ctx context.Context, id string) (models.UserAccount, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	var doc models.UserAccount
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.UserAccount{}, fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	if err != nil {
		return models.UserAccount{}, fmt.Errorf("find user: %w", err)
	}
	return doc, nil
}

func (r *MongoUsers) Create(ctx context.Context, u models.UserAccount) error {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.ID, ports.ErrAlreadyExists)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// IncrementStats applies d with $inc, so concurrent updates never lose counts.
func (r *MongoUsers) IncrementStats(ctx context.Context, id string, d models.StatsDelta) error {
	if !d.Valid() {
		return fmt.Errorf("negative stats delta for user %s", id)
	}
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	inc := bson.M{}
	for field, v := range map[string]int64{"points": d.Points, "reported": d.Reported, "cleaned": d.Cleaned, "posts": d.Posts} {
		if v != 0 {
			inc[field] = v
		}
	}
	if len(inc) == 0 {
		return nil
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("increment user stats: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

func (r *MongoUsers) TopByPoints(ctx context.Context, limit int) ([]models.UserAccount, error) {
	ctx, cancel := r.s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "points", Value: -1}, {Key: "_id", Value: 1}}).SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find top users: %w", err)
	}
	defer cur.Close(ctx)

	items := make([]models.UserAccount, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return items, nil
}
