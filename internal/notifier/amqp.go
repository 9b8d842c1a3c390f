package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	RoutingRegistrationCreated = "registration.created"
	RoutingPaymentConfirmed    = "registration.paid"
	RoutingCheckedIn           = "registration.checked_in"

	publishTimeout = 5 * time.Second
)

// Event is the JSON body published for every registration event.
type Event struct {
	Type           string    `json:"type"`
	RegistrationID string    `json:"registration_id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email,omitempty"`
	Headcount      int       `json:"headcount"`
	TotalAmount    int       `json:"total_amount"`
	CheckInCode    string    `json:"check_in_code,omitempty"`
	CheckInBy      string    `json:"check_in_by,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, registration models.Registration, at time.Time) Event {
	return Event{
		Type:           eventType,
		RegistrationID: registration.ID,
		Name:           registration.Name,
		Phone:          registration.Phone,
		Email:          registration.Email,
		Headcount:      registration.Headcount(),
		TotalAmount:    registration.TotalAmount,
		CheckInCode:    registration.CodeValue(),
		CheckInBy:      registration.CheckInBy,
		OccurredAt:     at,
	}
}

// Publisher is the subset of *amqp.Channel used for publishing.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AMQPNotifier struct {
	conn     *amqp.Connection
	channel  Publisher
	exchange string
	now      func() time.Time
}

// DialAMQP connects to the broker and declares the durable topic exchange
// events are published to.
func DialAMQP(url, exchange string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp.Dial -> %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("conn.Channel -> %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ch.ExchangeDeclare -> %w", err)
	}

	zap.L().Info("AMQP notifier initialized", zap.String("exchange", exchange))

	n := NewAMQPNotifier(ch, exchange)
	n.conn = conn
	return n, nil
}

func NewAMQPNotifier(channel Publisher, exchange string) *AMQPNotifier {
	return &AMQPNotifier{
		channel:  channel,
		exchange: exchange,
		now:      time.Now,
	}
}

func (n *AMQPNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

func (n *AMQPNotifier) NotifyRegistration(registration models.Registration) error {
	return n.publish(RoutingRegistrationCreated, registration)
}

func (n *AMQPNotifier) NotifyPaymentConfirmed(registration models.Registration) error {
	return n.publish(RoutingPaymentConfirmed, registration)
}

func (n *AMQPNotifier) NotifyCheckIn(registration models.Registration) error {
	return n.publish(RoutingCheckedIn, registration)
}

func (n *AMQPNotifier) publish(routingKey string, registration models.Registration) error {
	now := n.now()
	body, err := json.Marshal(NewEvent(routingKey, registration, now))
	if err != nil {
		return fmt.Errorf("json.Marshal -> %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = n.channel.PublishWithContext(ctx,
		n.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    registration.ID + ":" + routingKey,
			Timestamp:    now,
			Body:         body,
		},
	)
	if err != nil {
		zap.L().Warn("failed to publish registration event",
			zap.String("routing_key", routingKey),
			zap.String("registration_id", registration.ID),
			zap.Error(err))
		return err
	}
	return nil
}
