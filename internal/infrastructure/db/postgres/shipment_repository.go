package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/giftkart/shipping-admin/internal/core/domain"
	"github.com/giftkart/shipping-admin/internal/core/ports"
)

type ShipmentRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db, now: time.Now}
}

func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	now := r.now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(toShipmentModel(s)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateShipment
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindByOrderID returns the most recent shipment of the order.
func (r *ShipmentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Shipment, error) {
	return r.first(r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC"))
}

func (r *ShipmentRepository) FindByAWB(ctx context.Context, awb string) (*domain.Shipment, error) {
	if awb == "" {
		return nil, domain.ErrShipmentNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("awb = ?", awb))
}

func (r *ShipmentRepository) first(q *gorm.DB) (*domain.Shipment, error) {
	var m shipmentModel
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrShipmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return m.toEntity(), nil
}

func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	q := r.db.WithContext(ctx).Model(&shipmentModel{})
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.Mode != "" {
		q = q.Where("shipping_mode = ?", string(f.Mode))
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		q = q.Where("order_id ILIKE ? OR awb ILIKE ?", pattern, pattern)
	}
	if !f.DateFrom.IsZero() {
		q = q.Where("created_at >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		q = q.Where("created_at <= ?", f.DateTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count shipments: %w", err)
	}

	var rows []shipmentModel
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shipments: %w", err)
	}

	out := make([]*domain.Shipment, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, total, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *ShipmentRepository) ListSyncable(ctx context.Context, excluded []domain.ShipmentStatus) ([]*domain.Shipment, error) {
	statuses := make([]string, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	q := r.db.WithContext(ctx).Where("awb <> ''")
	if len(statuses) > 0 {
		q = q.Where("status NOT IN ?", statuses)
	}

	var rows []shipmentModel
	if err := q.Order("last_sync_at ASC NULLS FIRST").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list syncable shipments: %w", err)
	}
	out := make([]*domain.Shipment, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

// Update writes every column, zero values included.
func (r *ShipmentRepository) Update(ctx context.Context, s *domain.Shipment) error {
	s.UpdatedAt = r.now().UTC()
	m := toShipmentModel(s)

	result := r.db.WithContext(ctx).
		Model(&shipmentModel{}).
		Where("id = ?", s.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicateShipment
		}
		return fmt.Errorf("failed to update shipment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// UpdateFields writes the selected columns only, zero values included.
func (r *ShipmentRepository) UpdateFields(ctx context.Context, s *domain.Shipment, fields ...ports.ShipmentField) error {
	if len(fields) == 0 {
		return nil
	}
	s.UpdatedAt = r.now().UTC()

	result := r.db.WithContext(ctx).
		Model(&shipmentModel{}).
		Where("id = ?", s.ID).
		Select(shipmentColumns(fields)).
		Updates(toShipmentModel(s))
	if result.Error != nil {
		return fmt.Errorf("failed to update shipment fields: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// columnFor maps document keys whose column name differs.
var columnFor = map[ports.ShipmentField]string{
	ports.FieldDimensions: "dimensions",
}

func shipmentColumns(fields []ports.ShipmentField) []string {
	cols := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		if c, ok := columnFor[f]; ok {
			cols = append(cols, c)
			continue
		}
		cols = append(cols, string(f))
	}
	return append(cols, "updated_at")
}

// MarkBookingFailed rolls an approval back with a single UPDATE so the
// retry_count increment happens in the database.
func (r *ShipmentRepository) MarkBookingFailed(ctx context.Context, id, reason string, at time.Time) (*domain.Shipment, error) {
	var m shipmentModel
	result := r.db.WithContext(ctx).
		Model(&m).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        string(domain.StatusPendingReview),
			"failed_reason": reason,
			"approved_at":   nil,
			"approved_by":   "",
			"retry_count":   gorm.Expr("retry_count + 1"),
			"updated_at":    at.UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark booking failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, domain.ErrShipmentNotFound
	}
	return m.toEntity(), nil
}

type statusRow struct {
	Status    string
	Count     int64
	Estimated float64
	Actual    float64
}

func (r *ShipmentRepository) Stats(ctx context.Context) (*ports.ShipmentStats, error) {
	var rows []statusRow
	err := r.db.WithContext(ctx).
		Model(&shipmentModel{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(estimated_cost), 0) AS estimated, COALESCE(SUM(actual_cost), 0) AS actual").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shipments: %w", err)
	}

	st := &ports.ShipmentStats{ByStatus: make(map[domain.ShipmentStatus]int64, len(rows))}
	for _, row := range rows {
		st.Total += row.Count
		st.ByStatus[domain.ShipmentStatus(row.Status)] = row.Count
		st.TotalEstimatedCost += row.Estimated
		st.TotalActualCost += row.Actual
	}
	return st, nil
}

var _ ports.ShipmentRepository = (*ShipmentRepository)(nil)
