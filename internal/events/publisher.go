// Package events publishes session results to an AMQP topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/dailyfocus/focus/internal/focus"
)

const (
	DefaultExchange = "focus.events"
	publishTimeout  = 5 * time.Second
	queueSize       = 64
)

// Channel is the part of *amqp091.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// SessionEvent is the message body.
type SessionEvent struct {
	Type   string              `json:"type"`
	Result focus.SessionResult `json:"result"`
}

// RoutingKey is "session.completed" or "session.failed".
func RoutingKey(res focus.SessionResult) string {
	return "session." + string(res.Outcome)
}

// Publisher queues results from the engine goroutine and publishes them from
// Run, so a slow broker never stalls a session.
type Publisher struct {
	ch       Channel
	exchange string
	logger   *slog.Logger
	queue    chan focus.SessionResult
	close    func() error
}

func NewPublisher(ch Channel, exchange string, logger *slog.Logger) *Publisher {
	return &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
		queue:    make(chan focus.SessionResult, queueSize),
		close:    func() error { return nil },
	}
}

// Dial connects to url and declares exchange as a durable topic exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	p := NewPublisher(ch, exchange, logger)
	p.close = func() error {
		ch.Close()
		return conn.Close()
	}
	return p, nil
}

// Enqueue is a session listener. A full queue drops the result.
func (p *Publisher) Enqueue(res focus.SessionResult) {
	select {
	case p.queue <- res:
	default:
		p.logger.Warn("event queue full, dropping session result", "session_id", res.SessionID)
	}
}

// Run publishes queued results until ctx is done, then closes the
// connection.
func (p *Publisher) Run(ctx context.Context) error {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-p.queue:
			if err := p.Publish(ctx, res); err != nil {
				p.logger.Error("publishing session result", "session_id", res.SessionID, "error", err)
			}
		}
	}
}

// Publish sends one result synchronously.
func (p *Publisher) Publish(ctx context.Context, res focus.SessionResult) error {
	key := RoutingKey(res)
	body, err := json.Marshal(SessionEvent{Type: key, Result: res})
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    res.SessionID,
		Timestamp:    res.EndedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}
	p.logger.Debug("published session event", "routing_key", key, "session_id", res.SessionID)
	return nil
}
