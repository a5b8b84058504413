package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

type PickupRepository struct {
	db *gorm.DB
}

func NewPickupRepository(db *gorm.DB) *PickupRepository {
	return &PickupRepository{db: db}
}

// Reserve locks the active row for (location, date) and increments it, or
// inserts a new one. Two first requests racing on the insert hit the partial
// unique index; the loser retries once and finds the winner's row.
func (r *PickupRepository) Reserve(ctx context.Context, location, date, pickupTime string, count int, now time.Time) (*domain.DailyPickup, bool, error) {
	p, created, err := r.reserve(ctx, location, date, pickupTime, count, now)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		p, created, err = r.reserve(ctx, location, date, pickupTime, count, now)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve pickup: %w", err)
	}
	return p, created, nil
}

func (r *PickupRepository) reserve(ctx context.Context, location, date, pickupTime string, count int, now time.Time) (*domain.DailyPickup, bool, error) {
	var (
		m       pickupModel
		created bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pickup_location = ? AND pickup_date = ? AND status = ?", location, date, string(domain.PickupActive)).
			First(&m).Error
		switch {
		case err == nil:
			m.ExpectedPackageCount += count
			m.UpdatedAt = now.UTC()
			return tx.Model(&m).Updates(map[string]interface{}{
				"expected_package_count": m.ExpectedPackageCount,
				"updated_at":             m.UpdatedAt,
			}).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			m = pickupModel{
				ID:                   uuid.NewString(),
				PickupLocation:       location,
				PickupDate:           date,
				PickupTime:           pickupTime,
				ExpectedPackageCount: count,
				Status:               string(domain.PickupActive),
				CreatedAt:            now.UTC(),
				UpdatedAt:            now.UTC(),
			}
			created = true
			return tx.Create(&m).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	return m.toEntity(), created, nil
}

func (r *PickupRepository) SetCourierPickupID(ctx context.Context, id, courierPickupID string) error {
	return r.update(ctx, id, map[string]interface{}{"courier_pickup_id": courierPickupID})
}

func (r *PickupRepository) MarkFailed(ctx context.Context, id, reason string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        string(domain.PickupFailed),
		"failed_reason": reason,
	})
}

func (r *PickupRepository) update(ctx context.Context, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&pickupModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update pickup: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPickupNotFound
	}
	return nil
}

func (r *PickupRepository) FindActive(ctx context.Context, location, date string) (*domain.DailyPickup, error) {
	var m pickupModel
	err := r.db.WithContext(ctx).
		Where("pickup_location = ? AND pickup_date = ? AND status = ?", location, date, string(domain.PickupActive)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPickupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pickup: %w", err)
	}
	return m.toEntity(), nil
}

func (r *PickupRepository) List(ctx context.Context, from, to string) ([]*domain.DailyPickup, error) {
	var rows []pickupModel
	err := r.db.WithContext(ctx).
		Where("pickup_date BETWEEN ? AND ?", from, to).
		Order("pickup_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pickups: %w", err)
	}
	out := make([]*domain.DailyPickup, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

var _ ports.PickupRepository = (*PickupRepository)(nil)
