package server

import (
	"encoding/json"
	"sync"
)

// SSE event types.
const (
	EventSessionStarted  = "session_started"
	EventPassageAdvanced = "passage_advanced"
	EventGateOpen        = "gate_open"
	EventSessionEnded    = "session_ended"
	EventReminder        = "reminder"
)

// SSEEvent is one message on the session event stream.
type SSEEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Broker is an in-process pub/sub for SSE events. Every subscriber sees
// every event; slow subscribers drop events instead of blocking publishers.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan SSEEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan SSEEvent]struct{})}
}

func (b *Broker) Subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan SSEEvent) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) Publish(event SSEEvent) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func encodeEvent(e SSEEvent) []byte {
	data, _ := json.Marshal(e)
	return data
}
