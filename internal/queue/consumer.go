package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "time"

    "github.com/labstack/gommon/log"
    amqp "github.com/rabbitmq/amqp091-go"
)

const auditQueueName = "reservation.audit"

// AuditLog appends one human-readable line per lifecycle event to
// reservations.log inside Dir.
type AuditLog struct {
    Dir string
    mu  sync.Mutex
}

// Append formats ev and writes it to the log file, creating the directory
// when needed.
func (a *AuditLog) Append(ev ReservationEvent) error {
    a.mu.Lock()
    defer a.mu.Unlock()
    if err := os.MkdirAll(a.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", a.Dir, err)
    }
    f, err := os.OpenFile(filepath.Join(a.Dir, "reservations.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single newline-terminated log line.
func FormatLine(ev ReservationEvent) string {
    items := "[]"
    if len(ev.Items) > 0 {
        items = "[" + strings.Join(ev.Items, ",") + "]"
    }
    line := fmt.Sprintf("[%s] %s | reservation_id=%s | type=%s | status=%s | rented_to=%q | item=%q | items=%s | start=%s | end=%s | total=%s | actor=%q",
        ev.OccurredAt, ev.Type, ev.ReservationID, ev.ResourceType, ev.Status, ev.RentedTo, ev.Item, items,
        ev.StartTime, ev.EndTime, ev.TotalCost, ev.Actor)
    if ev.CancellationFee != "" {
        line += " | fee=" + ev.CancellationFee
    }
    return line + "\n"
}

// HandleMessage decodes a delivery body and appends it to the audit log.
func (a *AuditLog) HandleMessage(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.ReservationID == "" {
        return errors.New("event missing type or reservation id")
    }
    return a.Append(ev)
}

// StartAuditConsumer binds the audit queue to every reservation event and
// appends deliveries to the audit log.  It reconnects with backoff until ctx
// is cancelled, then returns ctx.Err().
func StartAuditConsumer(ctx context.Context, url string, audit *AuditLog, logger *log.Logger) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Warnf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, audit, logger)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Warnf("audit-consumer: consume loop ended: %v; reconnecting", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, audit *AuditLog, logger *log.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Warnf("audit-consumer: set QoS failed: %v", err)
    }
    if err := declareExchange(ch); err != nil {
        return err
    }
    if _, err := ch.QueueDeclare(auditQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(auditQueueName, "reservation.#", ExchangeName, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }
    msgs, err := ch.Consume(auditQueueName, "", false, false, false, false, nil)
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
            if err := audit.HandleMessage(d.Body); err != nil {
                logger.Errorf("audit-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
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
