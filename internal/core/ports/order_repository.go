package ports

import (
	"context"
	"time"

	"github.com/giftkart/shipping-admin/internal/core/domain"
)

// OrderRepository reads storefront orders and writes their status.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus sets status; deliveredAt is written only when non-nil.
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, deliveredAt *time.Time) error
}
