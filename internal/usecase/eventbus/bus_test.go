package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"installer-shell/internal/domain"
)

func newTestBus() *Bus {
	return New(slog.Default())
}

func newEvent(t domain.EventType) domain.Event {
	return domain.Event{Type: t, Timestamp: time.Now()}
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe(domain.EventInstallationFinished, func(_ context.Context, e domain.Event) {
		if e.Type == domain.EventInstallationFinished {
			got.Add(1)
		}
	})
	bus.Subscribe(domain.EventUninstallationFinished, func(_ context.Context, _ domain.Event) {
		t.Error("unexpected delivery")
	})

	bus.Publish(context.Background(), newEvent(domain.EventInstallationFinished))
	bus.Close()
	assert.Equal(t, int32(1), got.Load())
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.SubscribeAll(func(_ context.Context, _ domain.Event) { got.Add(1) })

	bus.Publish(context.Background(), newEvent(domain.EventInstallationStarted))
	bus.Publish(context.Background(), newEvent(domain.EventPageEntered))
	bus.Close()
	assert.Equal(t, int32(2), got.Load())
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus()

	var typed, all atomic.Int32
	unsubTyped := bus.Subscribe(domain.EventPageLeft, func(_ context.Context, _ domain.Event) { typed.Add(1) })
	unsubAll := bus.SubscribeAll(func(_ context.Context, _ domain.Event) { all.Add(1) })

	bus.Publish(context.Background(), newEvent(domain.EventPageLeft))
	bus.Wait()
	unsubTyped()
	unsubAll()
	unsubAll() // second call is harmless
	bus.Publish(context.Background(), newEvent(domain.EventPageLeft))
	bus.Close()

	assert.Equal(t, int32(1), typed.Load())
	assert.Equal(t, int32(1), all.Load())
}

func TestEmitMarshalsPayload(t *testing.T) {
	bus := newTestBus()

	got := make(chan domain.Event, 1)
	bus.Subscribe(domain.EventInstallationFinished, func(_ context.Context, e domain.Event) { got <- e })

	err := bus.Emit(context.Background(), domain.EventInstallationFinished, "run-1",
		domain.FinishedPayload{Status: domain.StatusFailure, Error: "disk full"})
	require.NoError(t, err)
	bus.Close()

	e := <-got
	assert.Equal(t, "run-1", e.RunID)
	assert.False(t, e.Timestamp.IsZero())
	var p domain.FinishedPayload
	require.NoError(t, json.Unmarshal(e.Payload, &p))
	assert.Equal(t, domain.StatusFailure, p.Status)
	assert.Equal(t, "disk full", p.Error)
}

func TestEmitRejectsUnmarshalable(t *testing.T) {
	bus := newTestBus()
	defer bus.Close()
	err := bus.Emit(context.Background(), domain.EventPageEntered, "", make(chan int))
	assert.Error(t, err)
}

func TestPanickingHandlerRecovered(t *testing.T) {
	bus := newTestBus()

	var got atomic.Int32
	bus.Subscribe(domain.EventUpdateStarted, func(_ context.Context, _ domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventUpdateStarted, func(_ context.Context, _ domain.Event) { got.Add(1) })

	bus.Publish(context.Background(), newEvent(domain.EventUpdateStarted))
	bus.Close()
	assert.Equal(t, int32(1), got.Load())
}

func TestPublishAfterClose(t *testing.T) {
	bus := newTestBus()
	var got atomic.Int32
	bus.SubscribeAll(func(_ context.Context, _ domain.Event) { got.Add(1) })

	bus.Close()
	bus.Close()
	bus.Publish(context.Background(), newEvent(domain.EventWizardClose))
	assert.Equal(t, int32(0), got.Load())
}
