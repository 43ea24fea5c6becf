package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/dailyfocus/focus/internal/events"
	"github.com/dailyfocus/focus/internal/focus"
)

type published struct {
	exchange, key string
	msg           amqp091.Publishing
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
	got  chan struct{}
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange, key, msg})
	if f.got != nil {
		f.got <- struct{}{}
	}
	return nil
}

var result = focus.SessionResult{
	SessionID: "sess-1",
	StoryID:   "s1-001",
	Outcome:   focus.OutcomeFailed,
	Reason:    focus.ReasonBackgrounded,
	EndedAt:   time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
}

func TestPublish(t *testing.T) {
	ch := &fakeChannel{}
	p := events.NewPublisher(ch, "focus.events", slog.New(slog.DiscardHandler))

	if err := p.Publish(context.Background(), result); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.sent))
	}
	m := ch.sent[0]
	if m.exchange != "focus.events" || m.key != "session.failed" {
		t.Errorf("unexpected routing %s/%s", m.exchange, m.key)
	}
	if m.msg.MessageId != "sess-1" || m.msg.DeliveryMode != amqp091.Persistent {
		t.Errorf("unexpected publishing %+v", m.msg)
	}

	var ev events.SessionEvent
	if err := json.Unmarshal(m.msg.Body, &ev); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if ev.Type != "session.failed" || ev.Result.Reason != focus.ReasonBackgrounded {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestPublishError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := events.NewPublisher(ch, "focus.events", slog.New(slog.DiscardHandler))
	if err := p.Publish(context.Background(), result); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunDrainsQueue(t *testing.T) {
	ch := &fakeChannel{got: make(chan struct{}, 1)}
	p := events.NewPublisher(ch, "focus.events", slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.Enqueue(result)
	select {
	case <-ch.got:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for publish")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("run: %v", err)
	}
}
