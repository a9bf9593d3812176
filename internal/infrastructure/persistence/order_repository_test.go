package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aquapet/backend/internal/domain/order"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "mario")
	variantID := uuid.New()
	o := newOrder(t, user.ID, "cs_test_1", order.CartItem{
		ProductID: uuid.New(),
		VariantID: &variantID,
		Name:      "Crocchette",
		Variant:   "2kg",
		Quantity:  2,
		Price:     decimal.RequireFromString("19.00"),
	})
	require.NoError(t, repo.Save(ctx, o))

	found, err := repo.FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, found.ID)
	assert.Equal(t, order.StatusPending, found.Status)
	assert.Equal(t, "38.00", found.TotalPaid.StringFixed(2))
	assert.Equal(t, "Teramo", found.ShippingDetails.City)
	require.Len(t, found.CartSnapshot, 1)
	assert.Equal(t, variantID, *found.CartSnapshot[0].VariantID)
	assert.Equal(t, "Crocchette (2kg)", found.CartSnapshot[0].DisplayName())

	require.NoError(t, found.MarkPaid("pi_1"))
	require.NoError(t, repo.Save(ctx, found))

	reloaded, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, reloaded.Status)
	assert.Equal(t, "pi_1", reloaded.PaymentIntentID)
	assert.NotNil(t, reloaded.PaidAt)

	_, err = repo.FindBySessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = repo.FindBySessionIDForUpdate(ctx, "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormOrderRepository_DuplicateSession(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "mario")
	require.NoError(t, repo.Save(ctx, newOrder(t, user.ID, "cs_dup")))

	err := repo.Save(ctx, newOrder(t, user.ID, "cs_dup"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormOrderRepository_FindByUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	mario := seedUser(t, db, "mario")
	luigi := seedUser(t, db, "luigi")

	base := time.Now().Add(-time.Hour)
	for i, session := range []string{"cs_a", "cs_b", "cs_c"} {
		o := newOrder(t, mario.ID, session)
		o.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if session == "cs_b" {
			require.NoError(t, o.MarkPaid(""))
		}
		require.NoError(t, repo.Save(ctx, o))
	}
	require.NoError(t, repo.Save(ctx, newOrder(t, luigi.ID, "cs_other")))

	orders, err := repo.FindByUser(ctx, mario.ID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "cs_c", orders[0].StripeSessionID)
	assert.Equal(t, "cs_a", orders[2].StripeSessionID)

	paid, err := repo.FindByUser(ctx, mario.ID, shared.Filter{Filters: map[string]any{"status": "paid"}})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "cs_b", paid[0].StripeSessionID)

	count, err := repo.CountByUser(ctx, mario.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestGormOrderRepository_FindStalePending(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "mario")
	now := time.Now()

	old := newOrder(t, user.ID, "cs_old")
	old.CreatedAt = now.Add(-48 * time.Hour)
	older := newOrder(t, user.ID, "cs_older")
	older.CreatedAt = now.Add(-72 * time.Hour)
	oldPaid := newOrder(t, user.ID, "cs_old_paid")
	oldPaid.CreatedAt = now.Add(-72 * time.Hour)
	require.NoError(t, oldPaid.MarkPaid(""))
	fresh := newOrder(t, user.ID, "cs_fresh")

	for _, o := range []*order.Order{old, older, oldPaid, fresh} {
		require.NoError(t, repo.Save(ctx, o))
	}

	stale, err := repo.FindStalePending(ctx, now.Add(-24*time.Hour), now, 10)
	require.NoError(t, err)
	require.Len(t, stale, 2)
	assert.Equal(t, "cs_older", stale[0].StripeSessionID)
	assert.Equal(t, "cs_old", stale[1].StripeSessionID)

	limited, err := repo.FindStalePending(ctx, now.Add(-24*time.Hour), now, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormOrderRepository_DeferSweep(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	user := seedUser(t, db, "mario")
	now := time.Now()
	cutoff := now.Add(-24 * time.Hour)

	stuck := newOrder(t, user.ID, "cs_stuck")
	stuck.CreatedAt = now.Add(-96 * time.Hour)
	abandoned := newOrder(t, user.ID, "cs_abandoned")
	abandoned.CreatedAt = now.Add(-48 * time.Hour)
	require.NoError(t, repo.Save(ctx, stuck))
	require.NoError(t, repo.Save(ctx, abandoned))

	// a batch of one keeps returning the oldest row until it is deferred
	first, err := repo.FindStalePending(ctx, cutoff, now, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "cs_stuck", first[0].StripeSessionID)

	require.NoError(t, repo.DeferSweep(ctx, stuck.ID, now.Add(time.Hour)))

	next, err := repo.FindStalePending(ctx, cutoff, now, 1)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "cs_abandoned", next[0].StripeSessionID)

	later, err := repo.FindStalePending(ctx, cutoff, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, later, 2, "deferral ends once the time has passed")

	t.Run("settled orders are not deferred", func(t *testing.T) {
		paid := newOrder(t, user.ID, "cs_paid_defer")
		require.NoError(t, paid.MarkPaid("pi_1"))
		require.NoError(t, repo.Save(ctx, paid))

		assert.ErrorIs(t, repo.DeferSweep(ctx, paid.ID, now), shared.ErrNotFound)
	})
}

func TestGormOrderRepository_FindBySessionIDForUpdate_Postgres(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormOrderRepository(db.DB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE stripe_session_id = \$1 ORDER BY "orders"."id" LIMIT \$2 FOR UPDATE`).
		WithArgs("cs_lock", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "stripe_session_id"}).AddRow(id, "pending", "cs_lock"))

	o, err := repo.FindBySessionIDForUpdate(context.Background(), "cs_lock")

	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
