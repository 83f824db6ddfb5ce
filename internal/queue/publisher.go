package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange lifecycle events are published to.
// The routing key is the event type.
const ExchangeName = "reservations"

// Publisher delivers lifecycle events.  Implementations must be safe for
// concurrent use.  Callers treat a publish error as a warning; it never
// undoes the transition that produced the event.
type Publisher interface {
    Publish(ctx context.Context, ev ReservationEvent) error
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }

// AMQPPublisher publishes events to RabbitMQ.  The connection is dialled
// lazily and re-dialled after a failure, so a broker outage at startup
// does not prevent the server from running.
type AMQPPublisher struct {
    url string

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{url: url}
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         string(ev.Type),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, ExchangeName, string(ev.Type), false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("rabbitmq: publish %s: %w", ev.Type, err)
    }
    return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

// channel returns an open channel, dialling when needed.  Caller holds mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("rabbitmq: dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    if err := declareExchange(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// declareExchange is idempotent.  Durable so bindings survive broker restarts.
func declareExchange(ch *amqp.Channel) error {
    if err := ch.ExchangeDeclare(
        ExchangeName, // name
        "topic",      // kind
        true,         // durable
        false,        // autoDelete
        false,        // internal
        false,        // noWait
        nil,          // args
    ); err != nil {
        return fmt.Errorf("rabbitmq: exchange declare: %w", err)
    }
    return nil
}
