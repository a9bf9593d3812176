package order

import (
	"context"
	"time"

	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines the persistence operations for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Order, error)
	// FindBySessionIDForUpdate loads the order and locks its row until the
	// surrounding transaction ends
	FindBySessionIDForUpdate(ctx context.Context, sessionID string) (*Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// FindStalePending returns pending orders created before the cutoff,
	// skipping those whose sweep was deferred past asOf
	FindStalePending(ctx context.Context, before, asOf time.Time, limit int) ([]Order, error)
	// DeferSweep keeps a pending order out of FindStalePending until the
	// given time
	DeferSweep(ctx context.Context, id uuid.UUID, until time.Time) error
	Save(ctx context.Context, o *Order) error
}
