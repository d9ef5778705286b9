package model

import "time"

// Event mirrors the `events` table. An owner cannot host two events with
// the same name on the same day; that is enforced with a unique index over
// (owner_id, name, date_hosted) rather than a check-then-insert.
type Event struct {
	ID          uint64    // events.id
	OwnerID     uint64    // events.owner_id (references users.id)
	Name        string    // events.name
	Category    string    // events.category
	Location    string    // events.location
	Description string    // events.description
	DateHosted  time.Time // events.date_hosted (date only)
	CreatedAt   time.Time // events.created_at
	UpdatedAt   time.Time // events.updated_at
}

// Rsvp is a row in the `rsvps` join table linking a guest to an event.
// The (event_id, user_id) pair is the primary key, which makes duplicate
// reservations a database-level conflict.
type Rsvp struct {
	EventID   uint64    // rsvps.event_id
	UserID    uint64    // rsvps.user_id
	CreatedAt time.Time // rsvps.created_at
}

// Guest is the owner-facing view of one reservation.
type Guest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}
