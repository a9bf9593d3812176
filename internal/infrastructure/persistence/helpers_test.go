package persistence

import (
	"testing"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/identity"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price))
	require.NoError(t, err)
	require.NoError(t, p.SetStock(stock))
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, username string) *identity.User {
	t.Helper()
	u := &identity.User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             username + "@example.com",
		PasswordHash:      "x",
		Role:              identity.RoleCustomer,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newOrder(t *testing.T, userID uuid.UUID, sessionID string, lines ...order.CartItem) *order.Order {
	t.Helper()
	if len(lines) == 0 {
		lines = []order.CartItem{{ProductID: uuid.New(), Name: "Gioco", Quantity: 1, Price: decimal.NewFromInt(10)}}
	}
	o, err := order.NewOrder(userID, userID.String()+"@example.com", lines, order.ShippingDetails{City: "Teramo"}, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, o.AttachSession(sessionID))
	return o
}
