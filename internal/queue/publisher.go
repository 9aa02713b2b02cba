package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/campaign-tracker/internal/logging"
    "github.com/iliyamo/campaign-tracker/internal/metrics"
)

// DefaultQueue is the durable queue workflow events are routed to.
const DefaultQueue = "campaign.events"

// Publisher hands events to the broker.
type Publisher interface {
    Publish(ctx context.Context, ev Event) error
}

// AMQPPublisher publishes each event on its own connection. Errors are
// logged and returned so callers can ignore them without interrupting the
// request flow.
type AMQPPublisher struct {
    url    string
    queue  string
    logger *logging.Logger
}

// NewAMQPPublisher returns a publisher for url. An empty queue name means
// DefaultQueue.
func NewAMQPPublisher(url, queue string, logger *logging.Logger) *AMQPPublisher {
    if queue == "" {
        queue = DefaultQueue
    }
    return &AMQPPublisher{url: url, queue: queue, logger: logger}
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) (err error) {
    defer func() {
        metrics.RecordEventPublished(string(ev.Type), err)
        if err != nil {
            p.logger.WithField("event", ev.Type).WarnWithErr("rabbitmq: publish failed", err)
        }
    }()

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return err
    }
    defer func() { _ = ch.Close() }()

    if _, err := declare(ch, p.queue); err != nil {
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        amqp.Publishing{
            ContentType:  "application/json",
            DeliveryMode: amqp.Persistent,
            Timestamp:    time.Now().UTC(),
            Type:         string(ev.Type),
            Body:         body,
        })
}

// declare ensures the durable queue exists (idempotent).
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
    return ch.QueueDeclare(name, true, false, false, false, nil)
}

// Noop discards events. It stands in when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
