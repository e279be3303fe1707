package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/careerpath/careerpath-backend/pkg/logger"
)

const (
	retryQueueSuffix = ".retry"

	// maxRetries bounds redeliveries of one message before it goes to
	// the dead letter queue.
	maxRetries = 3

	// retryBaseDelay is multiplied by the attempt count, so a message
	// waits 60s, then 120s, then 180s between deliveries.
	retryBaseDelay = 60 * time.Second
)

// MessageHandler is a function that handles a message
type MessageHandler func(ctx context.Context, event *Event) error

// scheduleFunc parks a failed delivery for redelivery after delay.
type scheduleFunc func(ctx context.Context, msg amqp.Delivery, delay time.Duration) error

// Consumer handles consuming events from RabbitMQ
type Consumer struct {
	rmq       *RabbitMQ
	queueName string
	handlers  map[string]MessageHandler
	schedule  scheduleFunc
	logger    *logger.Logger
}

// NewConsumer creates a new consumer for the given queue
func NewConsumer(rmq *RabbitMQ, queueName string, log *logger.Logger) (*Consumer, error) {
	// Declare the queue
	_, err := rmq.DeclareQueue(queueName)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	if _, err := rmq.DeclareRetryQueue(queueName); err != nil {
		return nil, fmt.Errorf("failed to declare retry queue for %s: %w", queueName, err)
	}

	c := &Consumer{
		rmq:       rmq,
		queueName: queueName,
		handlers:  make(map[string]MessageHandler),
		logger:    log,
	}
	c.schedule = c.publishToRetryQueue
	return c, nil
}

// publishToRetryQueue republishes the delivery onto the retry queue
// with a per-message TTL. Expiry dead-letters it back to the work
// queue, and the broker increments x-death along the way.
func (c *Consumer) publishToRetryQueue(ctx context.Context, msg amqp.Delivery, delay time.Duration) error {
	return c.rmq.Channel().PublishWithContext(ctx,
		"", // default exchange routes by queue name
		c.queueName+retryQueueSuffix,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Headers:      msg.Headers,
			Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
			Body:         msg.Body,
		},
	)
}

// Subscribe subscribes to an exchange with a routing key pattern
func (c *Consumer) Subscribe(exchange, routingKeyPattern string) error {
	// Declare the exchange first
	if err := c.rmq.DeclareExchange(exchange); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Bind the queue to the exchange
	if err := c.rmq.BindQueue(c.queueName, exchange, routingKeyPattern); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.logger.Info().
		Str("queue", c.queueName).
		Str("exchange", exchange).
		Str("routing_key", routingKeyPattern).
		Msg("subscribed to exchange")

	return nil
}

// RegisterHandler registers a handler for a specific event type
func (c *Consumer) RegisterHandler(eventType string, handler MessageHandler) {
	c.handlers[eventType] = handler
}

// Start starts consuming messages from the queue
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.rmq.Channel().Consume(
		c.queueName, // queue
		"",          // consumer tag (auto-generated)
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info().Str("queue", c.queueName).Msg("consumer started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info().Str("queue", c.queueName).Msg("consumer stopped")
				return
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Warn().Msg("message channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var event Event
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		c.logger.Error().Err(err).Msg("failed to unmarshal event")
		// Reject without requeue for malformed messages
		msg.Reject(false)
		return
	}

	// Add correlation ID to context
	ctx = WithCorrelationID(ctx, event.CorrelationID)

	handler, ok := c.handlers[event.Type]
	if !ok {
		c.logger.Debug().
			Str("event_type", event.Type).
			Msg("no handler registered for event type")
		msg.Ack(false)
		return
	}

	c.logger.Debug().
		Str("event_type", event.Type).
		Str("event_id", event.ID).
		Str("correlation_id", event.CorrelationID).
		Msg("processing event")

	if err := handler(ctx, &event); err != nil {
		c.logger.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("event_id", event.ID).
			Msg("failed to process event")

		// x-death counts completed passes through the retry queue
		retryCount := getRetryCount(msg)
		if retryCount >= maxRetries {
			// Reject dead-letters into the DLX bound on the work queue
			c.logger.Warn().
				Str("event_id", event.ID).
				Int("retry_count", retryCount).
				Msg("max retries exceeded, sending to DLQ")
			msg.Reject(false)
			return
		}

		// Park on the retry queue with a delay proportional to the
		// attempt count, then ack the original delivery.
		delay := retryBaseDelay * time.Duration(retryCount+1)
		if schedErr := c.schedule(ctx, msg, delay); schedErr != nil {
			c.logger.Error().
				Err(schedErr).
				Str("event_id", event.ID).
				Msg("failed to schedule redelivery, requeueing")
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	msg.Ack(false)
}

func getRetryCount(msg amqp.Delivery) int {
	if msg.Headers == nil {
		return 0
	}

	if deaths, ok := msg.Headers["x-death"].([]interface{}); ok {
		for _, death := range deaths {
			if d, ok := death.(amqp.Table); ok {
				if count, ok := d["count"].(int64); ok {
					return int(count)
				}
			}
		}
	}

	return 0
}
