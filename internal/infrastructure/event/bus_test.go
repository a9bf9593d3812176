package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aquapet/backend/internal/domain/catalog"
	"github.com/aquapet/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type sampleEvent struct {
	shared.BaseDomainEvent
}

func newSampleEvent(eventType string) *sampleEvent {
	return &sampleEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Sample", uuid.New())}
}

type recordingHandler struct {
	types []string
	err   error
	boom  bool

	mu   sync.Mutex
	seen []string
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.mu.Lock()
	h.seen = append(h.seen, evt.EventType())
	h.mu.Unlock()
	if h.boom {
		panic("handler exploded")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}

func TestInMemoryEventBus_Routing(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	paid := &recordingHandler{types: []string{"OrderPaid"}}
	all := &recordingHandler{}
	explicit := &recordingHandler{types: []string{"ignored"}}

	bus.Subscribe(paid)
	bus.Subscribe(all)
	bus.Subscribe(explicit, "StockDepleted")

	require.NoError(t, bus.Publish(context.Background(),
		newSampleEvent("OrderPaid"),
		newSampleEvent("StockDepleted"),
		newSampleEvent("OrderCancelled"),
	))

	assert.Equal(t, []string{"OrderPaid"}, paid.received())
	assert.Equal(t, []string{"OrderPaid", "StockDepleted", "OrderCancelled"}, all.received())
	assert.Equal(t, []string{"StockDepleted"}, explicit.received())
}

func TestInMemoryEventBus_FailingHandlersDoNotBlockOthers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{types: []string{"OrderPaid"}, err: errors.New("metrics down")}
	panicking := &recordingHandler{types: []string{"OrderPaid"}, boom: true}
	healthy := &recordingHandler{types: []string{"OrderPaid"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newSampleEvent("OrderPaid"))

	require.NoError(t, err)
	assert.Len(t, healthy.received(), 1)
	assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"OrderPaid", "OrderCancelled"}}
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newSampleEvent("OrderPaid"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newSampleEvent("OrderCancelled"))

	assert.Equal(t, []string{"OrderPaid"}, h.received())
	assert.Zero(t, bus.registry.count())
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))
	require.NoError(t, bus.Publish(ctx, newSampleEvent("OrderPaid")))
	assert.Empty(t, h.received())
	assert.Equal(t, int64(1), bus.dropped.Load())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(ctx, newSampleEvent("OrderPaid")))
	assert.Len(t, h.received(), 1)
}

func TestLoggingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewLoggingHandler(zap.New(core))

	require.NoError(t, h.Handle(context.Background(), newSampleEvent("OrderCreated")))
	require.NoError(t, h.Handle(context.Background(), catalog.NewStockDepletedEvent(uuid.New(), nil, "Crocchette")))

	assert.Equal(t, 1, logs.FilterMessage("Domain event").Len())
	depleted := logs.FilterMessage("Stock depleted").All()
	require.Len(t, depleted, 1)
	assert.Equal(t, "Crocchette", depleted[0].ContextMap()["item"])
}
