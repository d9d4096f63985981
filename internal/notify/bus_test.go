package notify

import (
	"context"
	"testing"
)

func TestBusPublishFansOut(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	first, second := 0, 0
	bus.Subscribe(TopicSessions, func() { first++ })
	bus.Subscribe(TopicSessions, func() { second++ })

	bus.Publish(ctx, TopicSessions)
	bus.Publish(ctx, TopicSessions)

	if first != 2 || second != 2 {
		t.Errorf("Expected both subscribers to see 2 publishes, got %d and %d", first, second)
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus := NewBus()

	sessionSeen := 0
	bus.Subscribe(TopicSessions, func() { sessionSeen++ })

	bus.Publish(context.Background(), TopicAnalytics)

	if sessionSeen != 0 {
		t.Errorf("Analytics publish leaked to session subscriber %d time(s)", sessionSeen)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	calls := 0
	unsubscribe := bus.Subscribe(TopicSessions, func() { calls++ })

	bus.Publish(ctx, TopicSessions)
	unsubscribe()
	bus.Publish(ctx, TopicSessions)

	if calls != 1 {
		t.Errorf("Expected no callbacks after unsubscribe, got %d total", calls)
	}

	// Double-unsubscribe is a no-op, and must not detach a later
	// subscriber that happens to exist.
	relay := 0
	bus.Subscribe(TopicSessions, func() { relay++ })
	unsubscribe()
	bus.Publish(ctx, TopicSessions)

	if relay != 1 {
		t.Errorf("Double unsubscribe disturbed other subscribers: %d", relay)
	}
}

func TestBusSubscriberCanUnsubscribeItself(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()

	calls := 0
	var unsubscribe func()
	unsubscribe = bus.Subscribe(TopicSessions, func() {
		calls++
		unsubscribe()
	})

	bus.Publish(ctx, TopicSessions)
	bus.Publish(ctx, TopicSessions)

	if calls != 1 {
		t.Errorf("Self-unsubscribing callback ran %d times", calls)
	}
}
