package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"remitledger/internal/log"
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second

	// bindingKey subscribes the worker queue to every ledger event.
	bindingKey = routingPrefix + ".#"
)

// ErrCircuitOpen is returned by PublishLedgerEvent while the broker is
// considered down.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes ledger events to a topic exchange and consumes them from
// one durable queue bound to every ledger routing key.
type Client struct {
	url      string
	exchange string
	queue    string
	breaker  *gobreaker.CircuitBreaker

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewClient dials the broker and declares the exchange, queue and binding.
func NewClient(url, exchange, queue string) (*Client, error) {
	c := newClient(url, exchange, queue)
	if _, err := c.reconnect(); err != nil {
		return nil, err
	}
	return c, nil
}

func newClient(url, exchange, queue string) *Client {
	return &Client{
		url:      url,
		exchange: exchange,
		queue:    queue,
		breaker:  newBreaker("amqp-publish:"+exchange, maxFailures, openTimeout),
	}
}

func (c *Client) reconnect() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		return c.channel, nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn, c.channel = nil, nil
	}

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.declare(ch); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare topology: %w", err)
	}

	c.conn, c.channel = conn, ch
	return ch, nil
}

func (c *Client) declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(c.exchange, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange %q: %w", c.exchange, err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue %q: %w", c.queue, err)
	}
	if err := ch.QueueBind(c.queue, bindingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind %q to %q: %w", c.queue, c.exchange, err)
	}
	return nil
}

// PublishLedgerEvent sends msg as a persistent JSON message routed by its
// entity and kind.
func (c *Client) PublishLedgerEvent(ctx context.Context, msg *LedgerEventMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.publish(ctx, msg, body)
	})
	if breakerRejected(err) {
		return fmt.Errorf("publish ledger event: %w", ErrCircuitOpen)
	}
	if err != nil {
		return fmt.Errorf("publish ledger event: %w", err)
	}

	slog.DebugContext(ctx, "Published ledger event",
		"routing_key", msg.RoutingKey(),
		log.FieldRecordID, msg.ID,
		"exchange", c.exchange)
	return nil
}

func (c *Client) publish(ctx context.Context, msg *LedgerEventMessage, body []byte) error {
	ch, err := c.reconnect()
	if err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return ch.PublishWithContext(pubCtx, c.exchange, msg.RoutingKey(), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
}

// Handler processes one ledger event. A non-nil error requeues it.
type Handler func(context.Context, *LedgerEventMessage) error

// ConsumeLedgerEvents runs handler for each event until ctx is cancelled,
// reconnecting with exponential backoff when the broker goes away.
// Malformed messages are dropped rather than requeued.
func (c *Client) ConsumeLedgerEvents(ctx context.Context, handler Handler) error {
	attempt := 0
	for {
		err := c.consume(ctx, handler, func() { attempt = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP consumer lost connection, retrying",
			"error", err,
			"attempt", attempt,
			"backoff", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) consume(ctx context.Context, handler Handler, connected func()) error {
	ch, err := c.reconnect()
	if err != nil {
		return err
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}
	connected()
	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed: %w", amqp091.ErrClosed)
			}
			c.dispatch(ctx, d, handler)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, d amqp091.Delivery, handler Handler) {
	msg, err := LedgerEventMessageFromJSON(d.Body)
	if err == nil {
		err = msg.Validate()
	}
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed ledger event",
			"error", err,
			"routing_key", d.RoutingKey)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to handle ledger event, requeueing",
			"error", err,
			log.FieldEntity, msg.Entity,
			log.FieldRecordID, msg.ID)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

// exponentialBackoff doubles from one second up to maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.channel = nil, nil
	return err
}
