package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/campaign-tracker/internal/logging"
)

// NotificationConsumer reads workflow events and appends one human-readable
// line per event to a notification log.
type NotificationConsumer struct {
    URL     string
    Queue   string
    LogPath string
    Logger  *logging.Logger
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is done.
func (c NotificationConsumer) Run(ctx context.Context) error {
    if c.Queue == "" {
        c.Queue = DefaultQueue
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Logger.WarnWithErr(fmt.Sprintf("notification-consumer: dial failed; retrying in %s", backoff), err)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Logger.WarnWithErr("notification-consumer: consume loop ended; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c NotificationConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Logger.WarnWithErr("notification-consumer: set QoS failed", err)
    }
    if _, err := declare(ch, c.Queue); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(d.Body); err != nil {
                c.Logger.WarnWithErr("notification-consumer: handle message failed", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c NotificationConsumer) handle(body []byte) error {
    var ev Event
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatNotification(ev) + "\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

var headlines = map[EventType]string{
    VideoCreated:      "Video added",
    VideoEdited:       "Video updated",
    VideoDeleted:      "Video deleted",
    PaymentSet:        "Payment status changed",
    DeletionRequested: "Deletion request sent",
    DeletionApproved:  "Deletion request approved, video deleted",
    DeletionRejected:  "Deletion request rejected",
    MemberJoined:      "New user waiting for approval",
    MemberApproved:    "User approved as worker",
    MemberSuspended:   "User suspended",
    MemberReactivated: "User reactivated",
    MemberRemoved:     "User removed",
}

// FormatNotification renders ev as a single log line.
func FormatNotification(ev Event) string {
    head, ok := headlines[ev.Type]
    if !ok {
        head = string(ev.Type)
    }
    parts := []string{
        fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), head),
        "id=" + ev.SubjectID,
        "by=" + ev.ActorEmail,
    }
    if ev.OwnerEmail != "" {
        parts = append(parts, "owner="+ev.OwnerEmail)
    }
    if ev.Channel != "" {
        parts = append(parts, fmt.Sprintf("channel=%q", ev.Channel))
    }
    if ev.Detail != "" {
        parts = append(parts, "detail="+ev.Detail)
    }
    return strings.Join(parts, " | ")
}
