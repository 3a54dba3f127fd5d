package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName  = "payments"
	QueueName     = "order_outcomes"
	RoutingKey    = "order.resolved"
	PrefetchCount = 1 // Process one event at a time per worker
)

// OutcomeEvent represents a resolved-outcome event on the wire
type OutcomeEvent struct {
	OrderID   string       `json:"order_id"`
	Outcome   core.Outcome `json:"outcome"`
	Timestamp time.Time    `json:"timestamp"`
}

// RabbitMQClient is a secondary adapter that implements the
// OutcomeMessaging output port. It also satisfies OutcomeNotifier, so it
// can sit directly in the reconciler's notifier fan-out.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewRabbitMQClient creates a new RabbitMQ client (returns interface for ports)
func NewRabbitMQClient(amqpURL string) (output.OutcomeMessaging, error) {
	return NewRabbitMQClientConcrete(amqpURL)
}

// NewRabbitMQClientConcrete creates a new RabbitMQ client (returns concrete type for workers)
func NewRabbitMQClientConcrete(amqpURL string) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Declare exchange
	err = channel.ExchangeDeclare(
		ExchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare queue
	_, err = channel.QueueDeclare(
		QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// Bind queue to exchange
	err = channel.QueueBind(
		QueueName,
		RoutingKey,
		ExchangeName,
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
	}, nil
}

// PublishOutcome publishes a resolved-outcome event
func (c *RabbitMQClient) PublishOutcome(orderID string, outcome core.Outcome) error {
	event := OutcomeEvent{
		OrderID:   orderID,
		Outcome:   outcome,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = c.channel.Publish(
		ExchangeName,
		RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // Make event persistent
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Printf("Published outcome event for order %s: %s", orderID, outcome)
	return nil
}

// PaySuccess implements the OutcomeNotifier success effect as an event publish
func (c *RabbitMQClient) PaySuccess(orderID string) error {
	return c.PublishOutcome(orderID, core.OutcomeSuccess)
}

// PayFail implements the OutcomeNotifier failure effect as an event publish
func (c *RabbitMQClient) PayFail(orderID string) error {
	return c.PublishOutcome(orderID, core.OutcomeFail)
}

// ConsumeOutcomeEvents starts consuming resolved-outcome events
func (c *RabbitMQClient) ConsumeOutcomeEvents(handler func(OutcomeEvent) error) error {
	// Set QoS to process one event at a time
	err := c.channel.Qos(
		PrefetchCount,
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		QueueName,
		"",    // consumer tag
		false, // auto-ack (we'll manually ack after processing)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Println("Started consuming outcome events...")

	go func() {
		for msg := range msgs {
			var event OutcomeEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				log.Printf("Error unmarshaling event: %v", err)
				msg.Nack(false, true) // Requeue message
				continue
			}

			// Process the event
			if err := handler(event); err != nil {
				log.Printf("Error processing outcome for order %s: %v", event.OrderID, err)
				// Terminal errors (no local record) are dropped,
				// transient ones requeued for retry
				if isTerminalError(err) {
					msg.Ack(false)
				} else {
					msg.Nack(false, true)
				}
				continue
			}

			// Successfully processed
			msg.Ack(false)
			log.Printf("Successfully processed outcome for order: %s", event.OrderID)
		}
	}()

	return nil
}

// Close closes the RabbitMQ connection
func (c *RabbitMQClient) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// isTerminalError checks if an error indicates an event that can never
// be processed (e.g., no local order record)
func isTerminalError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "order not found") || strings.Contains(errStr, "unknown outcome")
}
