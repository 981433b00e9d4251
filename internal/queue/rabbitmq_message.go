package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jcat4/token-gate/internal/models"
)

// Message wraps an audit event with its RabbitMQ delivery information
type Message struct {
	Event       *models.AuditEvent
	DeliveryTag uint64
	Channel     *amqp.Channel
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetEvent returns the audit event carried by the message
func (m *Message) GetEvent() *models.AuditEvent {
	return m.Event
}
