// Package queue contains the background consumer that listens to the
// pos.activity queue and writes structured lines to logs/activity.log.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartActivityConsumer connects to RabbitMQ, declares the durable
// pos.activity queue and starts consuming messages. Each message is
// appended to logs/activity.log in a single-line, human-friendly
// format. The function runs a reconnect loop with exponential backoff
// and keeps running indefinitely; processing errors are logged and the
// offending message is rejected without requeue so the service keeps
// operating.
func StartActivityConsumer() error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Printf("activity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("activity-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("activity-consumer: set QoS failed: %v", err)
    }

    _, err = ch.QueueDeclare(activityQueueName, true, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(activityQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(d.Body); err != nil {
            log.Printf("activity-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// handleMessage sniffs the event shape by its populated fields and
// appends one formatted line per event.
func handleMessage(body []byte) error {
    var probe struct {
        OrderID  uint64 `json:"order_id"`
        TicketID uint64 `json:"ticket_id"`
        Kind     string `json:"kind"`
    }
    if err := json.Unmarshal(body, &probe); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }

    var line string
    switch {
    case probe.Kind != "":
        var ev QRRedeemedEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] QR redeemed | kind=%s | ref_id=%d | redeemed_by=%d | event_id=%s\n",
            ev.RedeemedAt, ev.Kind, ev.RefID, ev.RedeemedBy, ev.EventID)
    case probe.TicketID != 0:
        var ev TicketPaidEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        line = fmt.Sprintf("[%s] Ticket paid | ticket_id=%d | user_id=%d | price=%d cents | qr_id=%d | event_id=%s\n",
            ev.PaidAt, ev.TicketID, ev.UserID, ev.PriceCents, ev.QRID, ev.EventID)
    default:
        var ev OrderPaidEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return fmt.Errorf("unmarshal: %w", err)
        }
        table := "-"
        if ev.TableID != nil {
            table = fmt.Sprintf("%d", *ev.TableID)
        }
        line = fmt.Sprintf("[%s] Order paid | order_id=%d | user_id=%d | type=%s | table=%s | total=%d cents | qr_id=%d | event_id=%s\n",
            ev.PaidAt, ev.OrderID, ev.UserID, ev.Type, table, ev.TotalCents, ev.QRID, ev.EventID)
    }

    // Ensure logs directory exists
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "activity.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
