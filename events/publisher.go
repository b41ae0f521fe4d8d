package events

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits domain events. Publishing is best-effort: callers log and
// ignore failures rather than failing the booking flow that produced the
// event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NewPublisherFromEnv returns an AMQP publisher when a broker URL is
// configured, otherwise a publisher that only logs events.
func NewPublisherFromEnv() Publisher {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	if url == "" {
		return LogPublisher{}
	}
	return &AMQPPublisher{URL: url}
}

// AMQPPublisher publishes events to RabbitMQ as persistent JSON messages on
// durable queues. It dials per publish; event volume here is a handful per
// booking, not a stream.
type AMQPPublisher struct {
	URL string
}

func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	queue := event.Queue()
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// LogPublisher writes events to the process log. Used when no broker is
// configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, event Event) error {
	log.Printf("event %s (no broker configured, not published)", event.Queue())
	return nil
}
