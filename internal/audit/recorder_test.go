package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderPersistsEvents(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, discardLogger(), 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec.Run(ctx)
	}()

	for i := 0; i < 3; i++ {
		if err := rec.Emit(context.Background(), Event{
			Action:     ActionCardLinked,
			Subject:    "NFC-001",
			Actor:      "admin",
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}

	deadline := time.After(2 * time.Second)
	for len(store.Events()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for events, have %d", len(store.Events()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	events := store.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Action != ActionCardLinked || events[0].Subject != "NFC-001" {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestRecorderFlushesOnShutdown(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, discardLogger(), 8)

	// Enqueue before the worker starts, then run it against an already
	// cancelled context; the shutdown drain must still persist everything.
	for i := 0; i < 3; i++ {
		if err := rec.Emit(context.Background(), Event{Action: ActionCardUnlinked}); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if got := len(store.Events()); got != 3 {
		t.Fatalf("expected 3 flushed events, got %d", got)
	}
}

func TestRecorderDropsWhenFull(t *testing.T) {
	store := NewInMemoryStore()
	rec := NewRecorder(store, discardLogger(), 1)

	if err := rec.Emit(context.Background(), Event{Action: ActionCardLinked}); err != nil {
		t.Fatalf("first emit should fit: %v", err)
	}
	if err := rec.Emit(context.Background(), Event{Action: ActionCardLinked}); err == nil {
		t.Fatal("second emit should report the drop")
	}
}

func TestMultiEmitter(t *testing.T) {
	a := NewInMemoryStore()
	b := NewInMemoryStore()
	multi := Multi{syncStoreEmitter{a}, syncStoreEmitter{b}}

	if err := multi.Emit(context.Background(), Event{Action: ActionBatchCreated}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected fanout to both stores, got %d and %d", len(a.Events()), len(b.Events()))
	}
}

type syncStoreEmitter struct {
	store Store
}

func (e syncStoreEmitter) Emit(ctx context.Context, event Event) error {
	return e.store.Append(ctx, event)
}
