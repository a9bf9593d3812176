package persistence

import (
	"context"
	"time"

	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

// FindBySessionID finds the order created for a checkout session
func (r *GormOrderRepository) FindBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound
	}
	var o order.Order
	if err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

// FindBySessionIDForUpdate finds the order and takes a row lock on PostgreSQL.
// sqlite has no row locks; its single writer connection serialises the transaction.
func (r *GormOrderRepository) FindBySessionIDForUpdate(ctx context.Context, sessionID string) (*order.Order, error) {
	if sessionID == "" {
		return nil, shared.ErrNotFound
	}
	query := r.db.WithContext(ctx)
	if isPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var o order.Order
	if err := query.Where("stripe_session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, translateError(err)
	}
	return &o, nil
}

// FindByUser lists a user's orders
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if status, ok := filter.Filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	orderBy := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir, "DESC")

	if err := query.Order(orderBy + " " + orderDir).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByUser counts a user's orders
func (r *GormOrderRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&order.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// FindStalePending returns the oldest pending orders created before the
// cutoff. Orders deferred until after asOf are skipped.
func (r *GormOrderRepository) FindStalePending(ctx context.Context, before, asOf time.Time, limit int) ([]order.Order, error) {
	var orders []order.Order
	query := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", order.StatusPending, before).
		Where("sweep_after IS NULL OR sweep_after <= ?", asOf).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// DeferSweep sets sweep_after on a pending order. Paid or cancelled orders
// are left untouched.
func (r *GormOrderRepository) DeferSweep(ctx context.Context, id uuid.UUID, until time.Time) error {
	result := r.db.WithContext(ctx).Model(&order.Order{}).
		Where("id = ? AND status = ?", id, order.StatusPending).
		Update("sweep_after", until)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save creates or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	if err := r.db.WithContext(ctx).Save(o).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Ensure GormOrderRepository implements OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
