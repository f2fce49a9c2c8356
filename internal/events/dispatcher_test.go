package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var got []Event
	d.Subscribe(EventTicketTriaged, func(ctx context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketTriaged, TicketID: "t1"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(got) != 1 || got[0].TicketID != "t1" {
		t.Fatalf("delivered = %+v, want one event for t1", got)
	}
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	called := false
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventTriageFailed})
	if called {
		t.Fatal("handler fired for an unsubscribed event type")
	}
}

func TestDispatcherLogsHandlerErrorAndContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	second := false
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		return errors.New("first handler broke")
	})
	d.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		second = true
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	if !second {
		t.Fatal("second handler must still run")
	}
	entries := logs.FilterMessage("event handler failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d failures, want 1", len(entries))
	}
}
