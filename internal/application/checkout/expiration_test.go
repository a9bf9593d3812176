package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aquapet/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExpirationService_ExpireStaleOrders(t *testing.T) {
	orders := new(MockOrderRepository)
	products := new(MockProductRepository)
	gateway := new(MockPaymentGateway)
	events := &recordingPublisher{}
	svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, products, nil), gateway, events, 24*time.Hour, 50, nil)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	food := uuid.New()
	abandoned := newPendingOrder(t, uuid.New(), "cs_abandoned")
	completed := newPendingOrder(t, uuid.New(), "cs_completed")
	paidMeanwhile := newPendingOrder(t, uuid.New(), "cs_paid")
	brokenSave := newPendingOrder(t, uuid.New(), "cs_broken")

	orders.On("FindStalePending", mock.Anything, now.Add(-24*time.Hour), now, 50).
		Return([]order.Order{*abandoned, *completed, *paidMeanwhile, *brokenSave}, nil)

	gateway.On("ExpireSession", mock.Anything, "cs_abandoned").Return(nil)
	gateway.On("ExpireSession", mock.Anything, "cs_completed").Return(errors.New("session is complete"))
	gateway.On("ExpireSession", mock.Anything, "cs_paid").Return(nil)
	gateway.On("ExpireSession", mock.Anything, "cs_broken").Return(nil)
	gateway.On("GetSession", mock.Anything, "cs_completed").Return(&SessionState{
		ID: "cs_completed", Status: SessionStatusComplete, PaymentStatus: PaymentStatusPaid, PaymentIntentID: "pi_lost",
	}, nil)

	lockedAbandoned := newPendingOrder(t, abandoned.UserID, "cs_abandoned")
	lockedCompleted := newPendingOrder(t, completed.UserID, "cs_completed",
		order.CartItem{ProductID: food, Name: "Crocchette", Quantity: 2, Price: decimal.NewFromInt(19)})
	lockedPaid := newPendingOrder(t, paidMeanwhile.UserID, "cs_paid")
	require.NoError(t, lockedPaid.MarkPaid("pi_9"))
	lockedBroken := newPendingOrder(t, brokenSave.UserID, "cs_broken")

	orders.On("FindBySessionIDForUpdate", mock.Anything, "cs_abandoned").Return(lockedAbandoned, nil)
	orders.On("FindBySessionIDForUpdate", mock.Anything, "cs_completed").Return(lockedCompleted, nil)
	orders.On("FindBySessionIDForUpdate", mock.Anything, "cs_paid").Return(lockedPaid, nil)
	orders.On("FindBySessionIDForUpdate", mock.Anything, "cs_broken").Return(lockedBroken, nil)
	orders.On("Save", mock.Anything, lockedAbandoned).Return(nil)
	orders.On("Save", mock.Anything, lockedCompleted).Return(nil)
	orders.On("Save", mock.Anything, lockedBroken).Return(errors.New("deadlock"))
	products.On("DecrementStock", mock.Anything, food, 2).Return(3, nil)

	stats, err := svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalStale)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, 1, stats.Settled)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Deferred)
	assert.Equal(t, now, stats.ProcessedAt)

	assert.Equal(t, order.StatusCancelled, lockedAbandoned.Status)
	assert.Equal(t, CancelReasonExpired, lockedAbandoned.CancelReason)
	assert.Equal(t, order.StatusPaid, lockedCompleted.Status)
	assert.Equal(t, "pi_lost", lockedCompleted.PaymentIntentID)
	assert.Equal(t, order.StatusPaid, lockedPaid.Status)
	products.AssertCalled(t, "DecrementStock", mock.Anything, food, 2)
	orders.AssertNotCalled(t, "DeferSweep", mock.Anything, mock.Anything, mock.Anything)
	assert.ElementsMatch(t, []string{order.EventTypeOrderCancelled, order.EventTypeOrderPaid}, events.types())
}

func TestExpirationService_UnsettledSessionIsDeferred(t *testing.T) {
	tests := []struct {
		name  string
		state *SessionState
		err   error
	}{
		{
			name:  "awaiting async payment",
			state: &SessionState{ID: "cs_stuck", Status: SessionStatusComplete, PaymentStatus: PaymentStatusUnpaid},
		},
		{
			name: "provider unreachable",
			err:  ErrPaymentProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderRepository)
			gateway := new(MockPaymentGateway)
			svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, nil, nil), gateway, nil, 24*time.Hour, 1, nil,
				WithRetryDelay(2*time.Hour))

			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			svc.now = func() time.Time { return now }

			stuck := newPendingOrder(t, uuid.New(), "cs_stuck")
			orders.On("FindStalePending", mock.Anything, now.Add(-24*time.Hour), now, 1).Return([]order.Order{*stuck}, nil)
			orders.On("DeferSweep", mock.Anything, stuck.ID, now.Add(2*time.Hour)).Return(nil)
			gateway.On("ExpireSession", mock.Anything, "cs_stuck").Return(errors.New("session is complete"))
			if tt.err != nil {
				gateway.On("GetSession", mock.Anything, "cs_stuck").Return(nil, tt.err)
			} else {
				gateway.On("GetSession", mock.Anything, "cs_stuck").Return(tt.state, nil)
			}

			stats, err := svc.ExpireStaleOrders(context.Background())
			require.NoError(t, err)

			assert.Equal(t, 1, stats.Deferred)
			assert.Zero(t, stats.Expired)
			assert.Zero(t, stats.Failed)
			orders.AssertCalled(t, "DeferSweep", mock.Anything, stuck.ID, now.Add(2*time.Hour))
			orders.AssertNotCalled(t, "FindBySessionIDForUpdate", mock.Anything, mock.Anything)
		})
	}
}

func TestExpirationService_RefusedButExpiredSessionIsCancelled(t *testing.T) {
	orders := new(MockOrderRepository)
	gateway := new(MockPaymentGateway)
	svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, nil, nil), gateway, nil, time.Hour, 10, nil)

	o := newPendingOrder(t, uuid.New(), "cs_gone")
	locked := newPendingOrder(t, o.UserID, "cs_gone")
	orders.On("FindStalePending", mock.Anything, mock.Anything, mock.Anything, 10).Return([]order.Order{*o}, nil)
	gateway.On("ExpireSession", mock.Anything, "cs_gone").Return(ErrPaymentProvider)
	gateway.On("GetSession", mock.Anything, "cs_gone").Return(&SessionState{ID: "cs_gone", Status: SessionStatusExpired}, nil)
	orders.On("FindBySessionIDForUpdate", mock.Anything, "cs_gone").Return(locked, nil)
	orders.On("Save", mock.Anything, locked).Return(nil)

	stats, err := svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, order.StatusCancelled, locked.Status)
}

func TestExpirationService_NothingStale(t *testing.T) {
	orders := new(MockOrderRepository)
	svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, nil, nil), nil, nil, time.Hour, 10, nil)
	orders.On("FindStalePending", mock.Anything, mock.Anything, mock.Anything, 10).Return([]order.Order{}, nil)

	stats, err := svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalStale)
}

func TestExpirationService_WithoutGateway(t *testing.T) {
	orders := new(MockOrderRepository)
	svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, nil, nil), nil, nil, time.Hour, 10, nil)

	unsent := newPendingOrder(t, uuid.New(), "")
	orders.On("FindStalePending", mock.Anything, mock.Anything, mock.Anything, 10).Return([]order.Order{*unsent}, nil)
	orders.On("FindByID", mock.Anything, unsent.ID).Return(unsent, nil)
	orders.On("Save", mock.Anything, unsent).Return(nil)

	stats, err := svc.ExpireStaleOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Expired)
}

func TestExpirationService_RepositoryError(t *testing.T) {
	orders := new(MockOrderRepository)
	svc := NewExpirationService(orders, NewNoOpTransactionScope(orders, nil, nil), nil, nil, time.Hour, 10, nil)
	orders.On("FindStalePending", mock.Anything, mock.Anything, mock.Anything, 10).Return([]order.Order(nil), errors.New("db down"))

	_, err := svc.ExpireStaleOrders(context.Background())
	assert.Error(t, err)
}
