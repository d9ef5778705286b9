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

// StartPasswordResetConsumer drains the mail.password_reset queue. It is
// the delivery end of the reset flow: the HTTP handler only publishes, so
// mail-server latency and failures never block or fail the response the
// client already received. Each message is rendered as an outbound mail
// line in logs/outbox.log; this writer is the seam where an SMTP client
// would plug in. The function runs a reconnect loop and keeps running
// until the process exits.
func StartPasswordResetConsumer(url string) error {
    return runConsumer(url, PasswordResetQueue, handleResetMail)
}

// StartRsvpConsumer drains rsvp.confirmed into logs/rsvp.log.
func StartRsvpConsumer(url string) error {
    return runConsumer(url, RsvpConfirmedQueue, handleRsvpConfirmed)
}

func runConsumer(url, queueName string, handle func([]byte) error) error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("%s consumer: failed to dial broker: %v; retrying in %s", queueName, err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, queueName, handle); err != nil {
            log.Printf("%s consumer: consume loop ended: %v; reconnecting", queueName, err)
            time.Sleep(2 * time.Second)
        }
    }
}

func consumeLoop(conn *amqp.Connection, queueName string, handle func([]byte) error) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("%s consumer: set QoS failed: %v", queueName, err)
    }
    if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handle(d.Body); err != nil {
            log.Printf("%s consumer: handle message failed: %v", queueName, err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleResetMail(body []byte) error {
    var ev PasswordResetRequested
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] To: %s | Subject: Reset your Bright Events password | Hi %s, use this token to reset your password (valid until %s): %s\n",
        ev.RequestedAt, ev.Email, ev.Username, ev.ExpiresAt, ev.ResetToken)
    return appendLine("outbox.log", line)
}

func handleRsvpConfirmed(body []byte) error {
    var ev RsvpConfirmed
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] RSVP confirmed | event_id=%d | event=%q | owner_id=%d | guest_id=%d | guest=%s\n",
        ev.ConfirmedAt, ev.EventID, ev.EventName, ev.OwnerID, ev.GuestID, ev.GuestEmail)
    return appendLine("rsvp.log", line)
}

func appendLine(name, line string) error {
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join("logs", name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
