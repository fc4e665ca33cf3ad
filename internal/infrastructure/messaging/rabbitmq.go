package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"clinic-backend/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// AppointmentEvent is published on every appointment lifecycle change.
type AppointmentEvent struct {
	Action        string    `json:"action"`
	AppointmentID string    `json:"appointment_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	ActorID       string    `json:"actor_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// RoutingKey is appointment.<action>.
func (e AppointmentEvent) RoutingKey() string {
	return "appointment." + e.Action
}

type EventPublisher interface {
	Publish(ctx context.Context, event AppointmentEvent) error
	Close() error
}

type rabbitPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewEventPublisher dials RabbitMQ and declares a durable topic exchange.
// A disabled config yields a publisher that drops events.
func NewEventPublisher(cfg config.RabbitMQConfig, log *logrus.Logger) (EventPublisher, error) {
	if !cfg.Enabled {
		log.Info("RabbitMQ is disabled, appointment events will not be published")
		return NoopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := channel.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	log.Infof("Publishing appointment events to exchange %s", cfg.Exchange)

	return &rabbitPublisher{conn: conn, channel: channel, exchange: cfg.Exchange}, nil
}

func (p *rabbitPublisher) Publish(ctx context.Context, event AppointmentEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.AppointmentID,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

func (p *rabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event AppointmentEvent) error { return nil }
func (NoopPublisher) Close() error                                            { return nil }
