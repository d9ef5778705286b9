package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/brightevents/bright-events/internal/model"
)

const eventColumns = "id,owner_id,name,category,location,description,date_hosted,created_at,updated_at"

// EventRepo owns the events table.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// EventUpdate carries the mutable fields of an event. Empty strings and a
// nil date mean "keep the stored value", mirroring the partial-update
// behavior of the API.
type EventUpdate struct {
	Name        string
	Category    string
	Location    string
	Description string
	DateHosted  *time.Time
}

// EventSearch defines filters and pagination for the public search
// endpoint. All text filters are case-insensitive substring matches.
type EventSearch struct {
	Name     string
	Category string
	Location string
	Upcoming bool // restrict to events hosted today or later
	Page     int
	PageSize int
}

// Create inserts an event and returns its ID. The unique index over
// (owner_id, name, date_hosted) turns same-day duplicates into
// ErrDuplicateEvent.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (owner_id, name, category, location, description, date_hosted) VALUES (?,?,?,?,?,?)",
		e.OwnerID, e.Name, e.Category, e.Location, e.Description, e.DateHosted)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrDuplicateEvent
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetOwned fetches an event scoped to its owner. Returns sql.ErrNoRows for
// both "no such event" and "not yours"; callers present both as not found.
func (r *EventRepo) GetOwned(ctx context.Context, ownerID, eventID uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? AND owner_id=? LIMIT 1",
		eventID, ownerID).Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.Category, &e.Location, &e.Description,
		&e.DateHosted, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// GetByID fetches any event by id regardless of owner.
func (r *EventRepo) GetByID(ctx context.Context, eventID uint64) (model.Event, error) {
	var e model.Event
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1",
		eventID).Scan(
		&e.ID, &e.OwnerID, &e.Name, &e.Category, &e.Location, &e.Description,
		&e.DateHosted, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Update applies a partial update to an owner's event and returns the new
// row. Fields left empty in upd keep their stored values. Renaming an event
// onto an existing (owner, name, date) triple fails with ErrDuplicateEvent.
func (r *EventRepo) Update(ctx context.Context, ownerID, eventID uint64, upd EventUpdate) (model.Event, error) {
	e, err := r.GetOwned(ctx, ownerID, eventID)
	if err != nil {
		return model.Event{}, err
	}
	if s := strings.TrimSpace(upd.Name); s != "" {
		e.Name = s
	}
	if s := strings.TrimSpace(upd.Category); s != "" {
		e.Category = s
	}
	if s := strings.TrimSpace(upd.Location); s != "" {
		e.Location = s
	}
	if s := strings.TrimSpace(upd.Description); s != "" {
		e.Description = s
	}
	if upd.DateHosted != nil {
		e.DateHosted = *upd.DateHosted
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE events SET name=?, category=?, location=?, description=?, date_hosted=?, updated_at=NOW() WHERE id=? AND owner_id=?",
		e.Name, e.Category, e.Location, e.Description, e.DateHosted, eventID, ownerID)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Event{}, ErrDuplicateEvent
		}
		return model.Event{}, err
	}
	return e, nil
}

// Delete removes an owner's event along with its reservations. Returns
// sql.ErrNoRows when the event does not exist or belongs to someone else.
func (r *EventRepo) Delete(ctx context.Context, ownerID, eventID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM events WHERE id=? AND owner_id=?", eventID, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByOwner returns one page of the owner's events, newest date first,
// along with the total count for pagination.
func (r *EventRepo) ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]model.Event, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE owner_id=?", ownerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE owner_id=? ORDER BY date_hosted DESC, id DESC LIMIT ? OFFSET ?",
		ownerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanEvents(rows, pageSize)
	return out, total, err
}

// Search runs the public text search. Filters combine with AND; when
// Upcoming is set, only events hosted today or later are returned, which is
// the behavior of the category and location searches in the API.
func (r *EventRepo) Search(ctx context.Context, q EventSearch) ([]model.Event, int64, error) {
	where := []string{}
	args := []any{}

	if q.Upcoming {
		where = append(where, "date_hosted >= CURDATE()")
	}
	if q.Name != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Category != "" {
		where = append(where, "LOWER(category) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Category)+"%")
	}
	if q.Location != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Location)+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE "+cond+" ORDER BY date_hosted DESC, id DESC LIMIT ? OFFSET ?",
		argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out, err := scanEvents(rows, q.PageSize)
	return out, total, err
}

func scanEvents(rows *sql.Rows, capacity int) ([]model.Event, error) {
	out := make([]model.Event, 0, capacity)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.Name, &e.Category, &e.Location, &e.Description,
			&e.DateHosted, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
