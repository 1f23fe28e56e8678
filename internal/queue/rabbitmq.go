package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchangeName is the topic exchange task events are published to
	DefaultExchangeName = "vizflow.tasks"
	// DefaultAuditQueueName is the durable queue that keeps every event for offline consumers
	DefaultAuditQueueName = "vizflow.tasks.audit"
	// AllEvents matches every task event routing key
	AllEvents = "task.#"
)

// ErrConnectionClosed is returned by HealthCheck once the broker connection is gone
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// RabbitMQBroker publishes and consumes task events over RabbitMQ
type RabbitMQBroker struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	auditQueue   string
	mu           sync.Mutex
}

// NewRabbitMQBroker connects to RabbitMQ and declares the task event topology
func NewRabbitMQBroker(amqpURL string) (*RabbitMQBroker, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	broker := &RabbitMQBroker{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
		auditQueue:   DefaultAuditQueueName,
	}

	if err := broker.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup exchange: %w", err)
	}

	return broker, nil
}

// setup declares the topic exchange and the audit queue bound to every event
func (b *RabbitMQBroker) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = b.channel.QueueDeclare(
		b.auditQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{"x-max-length": int32(10000)},
	)
	if err != nil {
		return fmt.Errorf("failed to declare audit queue: %w", err)
	}

	if err := b.channel.QueueBind(b.auditQueue, AllEvents, b.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind audit queue: %w", err)
	}

	return nil
}

// Publish sends a message to the exchange using its event type as routing key
func (b *RabbitMQBroker) Publish(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Timestamp:    msg.OccurredAt,
		Type:         msg.Type,
		AppId:        msg.Source,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName,
		msg.RoutingKey(),
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Consume declares an exclusive, auto-deleted queue bound with pattern and streams its deliveries
func (b *RabbitMQBroker) Consume(ctx context.Context, pattern string) (<-chan *Delivery, <-chan error, error) {
	if pattern == "" {
		pattern = AllEvents
	}

	consumeCh, err := b.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	q, err := consumeCh.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to declare consumer queue: %w", err)
	}
	if err := consumeCh.QueueBind(q.Name, pattern, b.exchangeName, false, nil); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to bind consumer queue: %w", err)
	}
	if err := consumeCh.Qos(16, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.Name,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	out := make(chan *Delivery, 16)
	errChan := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errChan)
		defer func() { _ = consumeCh.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					reportErr(ctx, errChan, fmt.Errorf("delivery channel closed"))
					return
				}

				var msg Message
				if err := json.Unmarshal(d.Body, &msg); err != nil {
					_ = d.Nack(false, false)
					reportErr(ctx, errChan, fmt.Errorf("failed to unmarshal event: %w", err))
					continue
				}

				select {
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				case out <- &Delivery{Message: &msg, RoutingKey: d.RoutingKey, DeliveryTag: d.DeliveryTag, Channel: consumeCh}:
				}
			}
		}
	}()

	return out, errChan, nil
}

// HealthCheck verifies the connection and channel are open
func (b *RabbitMQBroker) HealthCheck(_ context.Context) error {
	if b.conn == nil || b.conn.IsClosed() {
		return ErrConnectionClosed
	}
	if b.channel == nil || b.channel.IsClosed() {
		return fmt.Errorf("rabbitmq channel closed")
	}
	return nil
}

// Close closes the broker connection
func (b *RabbitMQBroker) Close() error {
	var err error
	if b.channel != nil {
		err = b.channel.Close()
	}
	if b.conn != nil {
		if closeErr := b.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

var (
	_ Publisher  = (*RabbitMQBroker)(nil)
	_ Subscriber = (*RabbitMQBroker)(nil)
)

// reportErr hands err to the consumer without ever blocking: a full buffer or a
// cancelled context drops it.
func reportErr(ctx context.Context, errs chan<- error, err error) {
	select {
	case errs <- err:
	case <-ctx.Done():
	default:
	}
}
