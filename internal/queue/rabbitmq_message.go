package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery wraps a Message with its RabbitMQ delivery information
type Delivery struct {
	Message     *Message
	RoutingKey  string
	DeliveryTag uint64
	Channel     *amqp.Channel
}

// Ack acknowledges the delivery
func (d *Delivery) Ack() error {
	return d.Channel.Ack(d.DeliveryTag, false)
}

// Nack negatively acknowledges the delivery
func (d *Delivery) Nack(requeue bool) error {
	return d.Channel.Nack(d.DeliveryTag, false, requeue)
}
