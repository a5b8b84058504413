package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

const collectionPickups = "daily_pickups"

type PickupRepository struct {
	col *mongo.Collection
}

func NewPickupRepository(db *mongo.Database) *PickupRepository {
	return &PickupRepository{col: db.Collection(collectionPickups)}
}

// Reserve upserts the active pickup for (location, date) and adds count to it.
// The partial unique index turns a racing second insert into a duplicate key
// error, which is retried once as a plain increment.
func (r *PickupRepository) Reserve(ctx context.Context, location, date, pickupTime string, count int, now time.Time) (*domain.DailyPickup, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id := uuid.NewString()
	filter := bson.M{
		"pickup_location": location,
		"pickup_date":     date,
		"status":          domain.PickupActive,
	}
	update := bson.M{
		"$inc": bson.M{"expected_package_count": count},
		"$set": bson.M{"updated_at": now.UTC()},
		"$setOnInsert": bson.M{
			"_id":         id,
			"pickup_time": pickupTime,
			"created_at":  now.UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var p domain.DailyPickup
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	if mongo.IsDuplicateKeyError(err) {
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&p)
	}
	if err != nil {
		return nil, false, fmt.Errorf("reserve pickup: %w", err)
	}
	return &p, p.ID == id, nil
}

func (r *PickupRepository) SetCourierPickupID(ctx context.Context, id, courierPickupID string) error {
	return r.set(ctx, id, bson.M{"courier_pickup_id": courierPickupID})
}

// MarkFailed takes the record out of the active slot so the next request for
// the same day starts over.
func (r *PickupRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.set(ctx, id, bson.M{"status": domain.PickupFailed, "failed_reason": reason})
}

func (r *PickupRepository) set(ctx context.Context, id string, fields bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	fields["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update pickup: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPickupNotFound
	}
	return nil
}

func (r *PickupRepository) FindActive(ctx context.Context, location, date string) (*domain.DailyPickup, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.DailyPickup
	err := r.col.FindOne(ctx, bson.M{
		"pickup_location": location,
		"pickup_date":     date,
		"status":          domain.PickupActive,
	}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPickupNotFound
		}
		return nil, fmt.Errorf("find pickup: %w", err)
	}
	return &p, nil
}

func (r *PickupRepository) List(ctx context.Context, from, to string) ([]*domain.DailyPickup, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"pickup_date": bson.M{"$gte": from, "$lte": to}}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "pickup_date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list pickups: %w", err)
	}

	out := []*domain.DailyPickup{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode pickups: %w", err)
	}
	return out, nil
}

// EnsureIndexes enforces one active pickup per location and day.
func (r *PickupRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "pickup_location", Value: 1}, {Key: "pickup_date", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": domain.PickupActive}),
	})
	return err
}

var _ ports.PickupRepository = (*PickupRepository)(nil)
