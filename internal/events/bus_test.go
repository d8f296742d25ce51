package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var received []*Event
	unsubscribe := bus.Subscribe(PricesUpdated, func(e *Event) {
		received = append(received, e)
	})
	bus.Subscribe(PriceRatioResolved, func(e *Event) {
		t.Fatalf("unexpected event %s", e.Type)
	})

	bus.Publish("ticker", &PricesUpdatedData{Prices: map[string]float64{"sui": 3.35}, UsingFallback: true})

	require.Len(t, received, 1)
	assert.Equal(t, PricesUpdated, received[0].Type)
	assert.Equal(t, "ticker", received[0].Module)
	assert.False(t, received[0].Timestamp.IsZero())

	data, ok := received[0].Data.(*PricesUpdatedData)
	require.True(t, ok)
	assert.True(t, data.UsingFallback)

	unsubscribe()
	unsubscribe()
	bus.Publish("ticker", &PricesUpdatedData{})

	assert.Len(t, received, 1)
	assert.Equal(t, 0, bus.SubscriberCount(PricesUpdated))
	assert.Equal(t, 1, bus.SubscriberCount(PriceRatioResolved))
}

func TestBus_UnsubscribeKeepsOthers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var a, b int
	unsubA := bus.Subscribe(PricesUpdated, func(*Event) { a++ })
	bus.Subscribe(PricesUpdated, func(*Event) { b++ })

	unsubA()
	bus.Publish("ticker", &PricesUpdatedData{})

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
}

func TestEventData_Types(t *testing.T) {
	assert.Equal(t, PricesUpdated, (&PricesUpdatedData{}).EventType())
	assert.Equal(t, PriceRatioResolved, (&PriceRatioResolvedData{}).EventType())
}
