// Package service provides the RabbitMQ publisher for domain events.
// Errors are logged and returned so callers can ignore failures without
// interrupting the main request flow: a broker outage must never turn a
// succeeded password-reset request or RSVP into a client-visible error.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/brightevents/bright-events/internal/queue"
)

// Publisher pushes domain events onto their queues. Handlers depend on
// this interface; tests substitute a recording fake.
type Publisher interface {
    PublishPasswordReset(ctx context.Context, ev q.PasswordResetRequested) error
    PublishRsvpConfirmed(ctx context.Context, ev q.RsvpConfirmed) error
}

// AMQPPublisher is the RabbitMQ-backed Publisher used in production.
type AMQPPublisher struct{ URL string }

func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{URL: url} }

func (p *AMQPPublisher) PublishPasswordReset(ctx context.Context, ev q.PasswordResetRequested) error {
    return p.publish(ctx, q.PasswordResetQueue, ev)
}

func (p *AMQPPublisher) PublishRsvpConfirmed(ctx context.Context, ev q.RsvpConfirmed) error {
    return p.publish(ctx, q.RsvpConfirmedQueue, ev)
}

// publish declares the durable queue (idempotent) and sends one persistent
// JSON message to it via the default exchange.
func (p *AMQPPublisher) publish(ctx context.Context, queueName string, event any) error {
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

    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
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
    if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
