package handler_test

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightevents/bright-events/internal/model"
	"github.com/brightevents/bright-events/internal/repository"
)

// memEvents is an in-memory stand-in for the event and RSVP repositories,
// honoring the same sentinel-error contracts.
type memEvents struct {
	mu     sync.Mutex
	nextID uint64
	events map[uint64]model.Event
	rsvps  map[uint64][]uint64 // eventID -> guest user ids, in order
}

func newMemEvents() *memEvents {
	return &memEvents{events: map[uint64]model.Event{}, rsvps: map[uint64][]uint64{}}
}

func (s *memEvents) Create(_ context.Context, e model.Event) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.events {
		if ex.OwnerID == e.OwnerID && ex.Name == e.Name && ex.DateHosted.Equal(e.DateHosted) {
			return 0, repository.ErrDuplicateEvent
		}
	}
	s.nextID++
	e.ID = s.nextID
	s.events[e.ID] = e
	return e.ID, nil
}

func (s *memEvents) GetOwned(_ context.Context, ownerID, eventID uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || e.OwnerID != ownerID {
		return model.Event{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *memEvents) GetByID(_ context.Context, eventID uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return model.Event{}, sql.ErrNoRows
	}
	return e, nil
}

func (s *memEvents) Update(ctx context.Context, ownerID, eventID uint64, upd repository.EventUpdate) (model.Event, error) {
	e, err := s.GetOwned(ctx, ownerID, eventID)
	if err != nil {
		return model.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := strings.TrimSpace(upd.Name); v != "" {
		e.Name = v
	}
	if v := strings.TrimSpace(upd.Category); v != "" {
		e.Category = v
	}
	if v := strings.TrimSpace(upd.Location); v != "" {
		e.Location = v
	}
	if v := strings.TrimSpace(upd.Description); v != "" {
		e.Description = v
	}
	if upd.DateHosted != nil {
		e.DateHosted = *upd.DateHosted
	}
	for _, ex := range s.events {
		if ex.ID != e.ID && ex.OwnerID == e.OwnerID && ex.Name == e.Name && ex.DateHosted.Equal(e.DateHosted) {
			return model.Event{}, repository.ErrDuplicateEvent
		}
	}
	s.events[e.ID] = e
	return e, nil
}

func (s *memEvents) Delete(_ context.Context, ownerID, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok || e.OwnerID != ownerID {
		return sql.ErrNoRows
	}
	delete(s.events, eventID)
	delete(s.rsvps, eventID)
	return nil
}

func (s *memEvents) ListByOwner(_ context.Context, ownerID uint64, page, pageSize int) ([]model.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Event
	for _, e := range s.events {
		if e.OwnerID == ownerID {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DateHosted.After(all[j].DateHosted) })
	return paginate(all, page, pageSize), int64(len(all)), nil
}

func (s *memEvents) Search(_ context.Context, q repository.EventSearch) ([]model.Event, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Event
	for _, e := range s.events {
		if q.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.Category != "" && !strings.Contains(strings.ToLower(e.Category), strings.ToLower(q.Category)) {
			continue
		}
		if q.Location != "" && !strings.Contains(strings.ToLower(e.Location), strings.ToLower(q.Location)) {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].DateHosted.After(all[j].DateHosted) })
	return paginate(all, q.Page, q.PageSize), int64(len(all)), nil
}

func paginate(all []model.Event, page, pageSize int) []model.Event {
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// memRsvps adapts the shared in-memory state to the RsvpStore contract.
// It is a separate type because both stores expose a Create method.
type memRsvps struct{ ev *memEvents }

func (s *memRsvps) Create(_ context.Context, eventID, userID uint64) error {
	s.ev.mu.Lock()
	defer s.ev.mu.Unlock()
	e, ok := s.ev.events[eventID]
	if !ok {
		return sql.ErrNoRows
	}
	if e.OwnerID == userID {
		return repository.ErrOwnRsvp
	}
	for _, g := range s.ev.rsvps[eventID] {
		if g == userID {
			return repository.ErrAlreadyRsvped
		}
	}
	s.ev.rsvps[eventID] = append(s.ev.rsvps[eventID], userID)
	return nil
}

func (s *memRsvps) Guests(_ context.Context, ownerID, eventID uint64) ([]model.Guest, error) {
	s.ev.mu.Lock()
	defer s.ev.mu.Unlock()
	e, ok := s.ev.events[eventID]
	if !ok || e.OwnerID != ownerID {
		return nil, sql.ErrNoRows
	}
	out := []model.Guest{}
	for _, uid := range s.ev.rsvps[eventID] {
		out = append(out, model.Guest{Username: fmt.Sprintf("user%d", uid), Email: fmt.Sprintf("user%d@x.com", uid)})
	}
	return out, nil
}

func (s *memRsvps) ListForUser(_ context.Context, userID uint64) ([]model.Event, error) {
	s.ev.mu.Lock()
	defer s.ev.mu.Unlock()
	var out []model.Event
	for eventID, guests := range s.ev.rsvps {
		for _, g := range guests {
			if g == userID {
				out = append(out, s.ev.events[eventID])
			}
		}
	}
	return out, nil
}

func registerAndLogin(t *testing.T, e *echo.Echo, username, email string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/v1/auth/register",
		`{"username":"`+username+`","email":"`+email+`","password":"Secret1@3"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return loginToken(t, e, email, "Secret1@3")
}

func TestEventCrud(t *testing.T) {
	e, _, _ := newTestServer(t)
	token := registerAndLogin(t, e, "alice", "alice@x.com")

	body := `{"name":"GoConf","category":"tech","location":"Nairobi","description":"annual meetup","date_hosted":"2027-03-01"}`
	rec := do(e, http.MethodPost, "/v1/events", body, token)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Same owner, name and date is a conflict.
	rec = do(e, http.MethodPost, "/v1/events", body, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodGet, "/v1/events/1", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GoConf")

	// Partial update: only location changes.
	rec = do(e, http.MethodPut, "/v1/events/1", `{"location":"Mombasa"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mombasa")
	assert.Contains(t, rec.Body.String(), "GoConf")

	rec = do(e, http.MethodGet, "/v1/events", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = do(e, http.MethodDelete, "/v1/events/1", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/v1/events/1", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventOwnershipScoping(t *testing.T) {
	e, _, _ := newTestServer(t)
	alice := registerAndLogin(t, e, "alice", "alice@x.com")
	bob := registerAndLogin(t, e, "bob", "bob@x.com")

	rec := do(e, http.MethodPost, "/v1/events",
		`{"name":"GoConf","category":"tech","location":"Nairobi","description":"d","date_hosted":"2027-03-01"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Another user's event looks like it does not exist.
	rec = do(e, http.MethodGet, "/v1/events/1", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(e, http.MethodDelete, "/v1/events/1", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRsvpFlow(t *testing.T) {
	e, _, pub := newTestServer(t)
	alice := registerAndLogin(t, e, "alice", "alice@x.com")
	bob := registerAndLogin(t, e, "bob", "bob@x.com")

	rec := do(e, http.MethodPost, "/v1/events",
		`{"name":"GoConf","category":"tech","location":"Nairobi","description":"d","date_hosted":"2027-03-01"}`, alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	// The owner cannot reserve a spot at their own event.
	rec = do(e, http.MethodPost, "/v1/events/1/rsvp", "", alice)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(e, http.MethodPost, "/v1/events/1/rsvp", "", bob)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, pub.rsvps, 1)
	assert.Equal(t, uint64(1), pub.rsvps[0].EventID)
	assert.Equal(t, "bob@x.com", pub.rsvps[0].GuestEmail)

	// No double reservations.
	rec = do(e, http.MethodPost, "/v1/events/1/rsvp", "", bob)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The owner sees the guest list; the event shows up under bob's rsvps.
	rec = do(e, http.MethodGet, "/v1/events/1/guests", "", alice)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = do(e, http.MethodGet, "/v1/rsvps", "", bob)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GoConf")

	// RSVP to a missing event.
	rec = do(e, http.MethodPost, "/v1/events/99/rsvp", "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchEvents(t *testing.T) {
	e, _, _ := newTestServer(t)
	alice := registerAndLogin(t, e, "alice", "alice@x.com")

	for i, ev := range []string{
		`{"name":"GoConf","category":"tech","location":"Nairobi","description":"d","date_hosted":"2027-03-01"}`,
		`{"name":"JazzNight","category":"music","location":"Mombasa","description":"d","date_hosted":"2027-04-01"}`,
		`{"name":"TechBrunch","category":"tech","location":"Nairobi","description":"d","date_hosted":"2027-05-01"}`,
	} {
		rec := do(e, http.MethodPost, "/v1/events", ev, alice)
		require.Equal(t, http.StatusCreated, rec.Code, "event %d", i)
	}

	// Search is public: no token needed.
	rec := do(e, http.MethodGet, "/v1/search/events?category=tech", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)

	rec = do(e, http.MethodGet, "/v1/search/events?q=jazz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "JazzNight")

	rec = do(e, http.MethodGet, "/v1/search/events?location=nairobi&page=1&page_size=1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)
	assert.Contains(t, rec.Body.String(), `"page_size":1`)

	// At least one filter is required.
	rec = do(e, http.MethodGet, "/v1/search/events", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
