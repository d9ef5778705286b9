// Package queue defines message payloads exchanged over the message broker
// and the background consumers that drain them.
package queue

// Queue names. Both queues are declared durable and messages are published
// persistent so deliveries survive a broker restart.
const (
    PasswordResetQueue = "mail.password_reset"
    RsvpConfirmedQueue = "rsvp.confirmed"
)

// PasswordResetRequested is published when a user asks for a password
// reset. It carries everything the mail worker needs to render and send
// the reset email; the raw reset token travels only on this channel and is
// never echoed into an HTTP response.
type PasswordResetRequested struct {
    UserID      uint64 `json:"user_id"`
    Email       string `json:"email"`
    Username    string `json:"username"`
    ResetToken  string `json:"reset_token"`
    ExpiresAt   string `json:"expires_at"`
    RequestedAt string `json:"requested_at"`
}

// RsvpConfirmed is published when a guest successfully reserves a spot at
// an event, so downstream consumers can notify the owner or feed analytics
// without querying the primary database.
type RsvpConfirmed struct {
    EventID     uint64 `json:"event_id"`
    EventName   string `json:"event_name"`
    OwnerID     uint64 `json:"owner_id"`
    GuestID     uint64 `json:"guest_id"`
    GuestEmail  string `json:"guest_email"`
    ConfirmedAt string `json:"confirmed_at"`
}
