// Package amqp publishes and consumes expense events over RabbitMQ.
// The HTTP API publishes one message per created expense; the ingest
// worker consumes them. Topology is a durable direct exchange bound to
// a durable queue whose routing key equals the queue name.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

type Client struct {
	url          string
	exchangeName string
	queueName    string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}
	if err := client.dial(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) dial() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.closeTransport()
		return fmt.Errorf("declare topology: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishExpenseCreated publishes one event for a stored expense.
func (c *Client) PublishExpenseCreated(ctx context.Context, e core.Expense, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewExpenseCreatedMessage(e, source)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published expense created event",
		"id", msg.ID,
		"amount_cents", msg.AmountCents,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeExpenseCreated consumes expense events until the context
// ends, redialing with exponential backoff when the broker connection
// drops. Non-connection errors end the loop.
func (c *Client) ConsumeExpenseCreated(ctx context.Context, handler func(*ExpenseCreatedMessage) error) error {
	attempt := 0
	for {
		err := c.consume(ctx, handler)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return err
		case !isConnectionError(err):
			return err
		}

		delay := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"delay", delay.String(),
			"attempt", attempt,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if err := c.dialAgain(); err != nil {
			slog.ErrorContext(ctx, "AMQP redial failed", "error", err)
			continue
		}
		attempt = 0
	}
}

func (c *Client) consume(ctx context.Context, handler func(*ExpenseCreatedMessage) error) error {
	deliveries, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming expense events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed: connection closed")
			}

			msg, err := ExpenseCreatedMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // malformed, drop
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"id", msg.ID,
					"source", msg.Source)
				delivery.Nack(false, true) // requeue for retry
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) dialAgain() error {
	c.closeTransport()
	return c.dial()
}

func (c *Client) closeTransport() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// exponentialBackoff doubles from one second per attempt, capped at
// thirty seconds.
func exponentialBackoff(attempt int) time.Duration {
	const ceiling = 30 * time.Second
	if attempt < 0 {
		return time.Second
	}
	if attempt > 5 {
		return ceiling
	}
	d := time.Second << uint(attempt)
	if d > ceiling {
		return ceiling
	}
	return d
}

// isConnectionError reports whether an error looks like a dropped or
// refused broker connection, the kind a redial can fix.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection closed",
		"broken pipe",
		"eof",
		"use of closed network connection",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
