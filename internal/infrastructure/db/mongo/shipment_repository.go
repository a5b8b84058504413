package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const collectionShipments = "shipments"

type ShipmentRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments), now: time.Now}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := r.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.EditHistory == nil {
		s.EditHistory = []domain.EditRecord{}
	}
	if s.TrackingHistory == nil {
		s.TrackingHistory = []domain.TrackingScan{}
	}

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateShipment
		}
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindByOrderID returns the most recent shipment of the order.
func (r *ShipmentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"order_id": orderID}, options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ShipmentRepository) FindByAWB(ctx context.Context, awb string) (*domain.Shipment, error) {
	if awb == "" {
		return nil, domain.ErrShipmentNotFound
	}
	return r.findOne(ctx, bson.M{"awb": awb})
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns one page of shipments, newest first, and the total match count.
func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find shipments: %w", err)
	}

	items := []*domain.Shipment{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode shipments: %w", err)
	}
	return items, total, nil
}

func listFilter(f ports.ListShipmentsFilter) bson.M {
	filter := bson.M{}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Mode != "" {
		filter["shipping_mode"] = f.Mode
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = bson.A{
			bson.M{"order_id": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"awb": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	created := bson.M{}
	if !f.DateFrom.IsZero() {
		created["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		created["$lte"] = f.DateTo.UTC()
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// ListSyncable returns booked shipments outside the excluded statuses, oldest
// sync first so a sweep cut short still makes progress.
func (r *ShipmentRepository) ListSyncable(ctx context.Context, excluded []domain.ShipmentStatus) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"awb":    bson.M{"$exists": true, "$ne": ""},
		"status": bson.M{"$nin": excluded},
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "last_sync_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find syncable shipments: %w", err)
	}

	out := []*domain.Shipment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode syncable shipments: %w", err)
	}
	return out, nil
}

// Update replaces the stored document and stamps updated_at.
func (r *ShipmentRepository) Update(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s.UpdatedAt = r.now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateShipment
		}
		return fmt.Errorf("update shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

func (r *ShipmentRepository) UpdateFields(ctx context.Context, s *domain.Shipment, fields ...ports.ShipmentField) error {
	if len(fields) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	s.UpdatedAt = r.now().UTC()
	update, err := partialUpdate(s, fields)
	if err != nil {
		return fmt.Errorf("update shipment fields: %w", err)
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": s.ID}, update)
	if err != nil {
		return fmt.Errorf("update shipment fields: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// partialUpdate encodes s the way it is stored and picks the named keys.
// Keys the encoding omits (empty omitempty fields) are unset.
func partialUpdate(s *domain.Shipment, fields []ports.ShipmentField) (bson.M, error) {
	raw, err := bson.Marshal(s)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": doc["updated_at"]}
	unset := bson.M{}
	for _, f := range fields {
		if v, ok := doc[string(f)]; ok {
			set[string(f)] = v
		} else {
			unset[string(f)] = ""
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// MarkBookingFailed rolls an approval back in a single document update so
// retry_count is never lost to a concurrent writer.
func (r *ShipmentRepository) MarkBookingFailed(ctx context.Context, id, reason string, at time.Time) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":        domain.StatusPendingReview,
			"failed_reason": reason,
			"approved_at":   nil,
			"updated_at":    at.UTC(),
		},
		"$unset": bson.M{"approved_by": ""},
		"$inc":   bson.M{"retry_count": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var s domain.Shipment
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, fmt.Errorf("mark booking failed: %w", err)
	}
	return &s, nil
}

type statusBucket struct {
	Status    domain.ShipmentStatus `bson:"_id"`
	Count     int64                 `bson:"count"`
	Estimated float64               `bson:"estimated"`
	Actual    float64               `bson:"actual"`
}

// Stats aggregates counts and costs per status.
func (r *ShipmentRepository) Stats(ctx context.Context) (*ports.ShipmentStats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$status",
			"count":     bson.M{"$sum": 1},
			"estimated": bson.M{"$sum": "$estimated_cost"},
			"actual":    bson.M{"$sum": bson.M{"$ifNull": bson.A{"$actual_cost", 0}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate shipment stats: %w", err)
	}

	var buckets []statusBucket
	if err := cur.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode shipment stats: %w", err)
	}

	st := &ports.ShipmentStats{ByStatus: make(map[domain.ShipmentStatus]int64, len(buckets))}
	for _, b := range buckets {
		st.Total += b.Count
		st.ByStatus[b.Status] = b.Count
		st.TotalEstimatedCost += b.Estimated
		st.TotalActualCost += b.Actual
	}
	return st, nil
}

// EnsureIndexes creates necessary indexes on the shipments collection.
// order_id is not unique: an order may be shipped again after a cancellation.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "awb", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

var _ ports.ShipmentRepository = (*ShipmentRepository)(nil)
