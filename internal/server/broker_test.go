package server

import "testing"

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	a, c := b.Subscribe(), b.Subscribe()

	b.Publish(SSEEvent{Type: EventGateOpen})
	for _, ch := range []chan SSEEvent{a, c} {
		if got := <-ch; got.Type != EventGateOpen {
			t.Errorf("expected gate_open, got %q", got.Type)
		}
	}

	b.Unsubscribe(a)
	if n := b.Subscribers(); n != 1 {
		t.Errorf("expected 1 subscriber, got %d", n)
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()

	for i := 0; i < cap(ch)+5; i++ {
		b.Publish(SSEEvent{Type: EventReminder})
	}
	if len(ch) != cap(ch) {
		t.Errorf("expected a full buffer of %d, got %d", cap(ch), len(ch))
	}
}
