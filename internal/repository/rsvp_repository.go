package repository

import (
	"context"
	"database/sql"

	"github.com/brightevents/bright-events/internal/model"
)

// RsvpRepo owns the rsvps join table.
type RsvpRepo struct{ DB *sql.DB }

func NewRsvpRepo(db *sql.DB) *RsvpRepo { return &RsvpRepo{DB: db} }

// Create records a reservation for userID at eventID. Returns
// sql.ErrNoRows when the event does not exist, ErrOwnRsvp when the user
// owns the event, and ErrAlreadyRsvped on a repeat reservation (composite
// primary key violation).
func (r *RsvpRepo) Create(ctx context.Context, eventID, userID uint64) error {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM events WHERE id=? LIMIT 1", eventID).Scan(&ownerID)
	if err != nil {
		return err
	}
	if ownerID == userID {
		return ErrOwnRsvp
	}
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO rsvps (event_id, user_id) VALUES (?,?)", eventID, userID); err != nil {
		if isDuplicateKey(err) {
			return ErrAlreadyRsvped
		}
		return err
	}
	return nil
}

// Guests lists who has reserved a spot at one of the owner's events. The
// ownership check is part of the query: asking about someone else's event
// looks identical to asking about a missing one (sql.ErrNoRows).
func (r *RsvpRepo) Guests(ctx context.Context, ownerID, eventID uint64) ([]model.Guest, error) {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM events WHERE id=? AND owner_id=? LIMIT 1", eventID, ownerID).Scan(&id)
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.username, u.email
		 FROM rsvps r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.event_id=?
		 ORDER BY r.created_at ASC`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Guest{}
	for rows.Next() {
		var g model.Guest
		if err := rows.Scan(&g.Username, &g.Email); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// ListForUser returns the events the user has reserved a spot at.
func (r *RsvpRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT e.id,e.owner_id,e.name,e.category,e.location,e.description,e.date_hosted,e.created_at,e.updated_at
		 FROM rsvps r
		 JOIN events e ON e.id = r.event_id
		 WHERE r.user_id=?
		 ORDER BY e.date_hosted DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows, 8)
}
