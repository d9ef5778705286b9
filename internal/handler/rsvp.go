package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brightevents/bright-events/internal/model"
	"github.com/brightevents/bright-events/internal/queue"
	"github.com/brightevents/bright-events/internal/repository"
	"github.com/brightevents/bright-events/internal/service"
)

// RsvpStore is the reservation persistence contract. Satisfied by
// *repository.RsvpRepo.
type RsvpStore interface {
	Create(ctx context.Context, eventID, userID uint64) error
	Guests(ctx context.Context, ownerID, eventID uint64) ([]model.Guest, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Event, error)
}

// EventLookup is the slice of the event store the RSVP handler needs.
type EventLookup interface {
	GetByID(ctx context.Context, eventID uint64) (model.Event, error)
}

// RsvpHandler serves reservation endpoints.
type RsvpHandler struct {
	Rsvps     RsvpStore
	Events    EventLookup
	Publisher service.Publisher
}

func NewRsvpHandler(rsvps RsvpStore, events EventLookup, pub service.Publisher) *RsvpHandler {
	return &RsvpHandler{Rsvps: rsvps, Events: events, Publisher: pub}
}

// Create reserves a spot at an event for the authenticated user and
// publishes an RsvpConfirmed event for downstream notification. Publish
// failures are logged only; the reservation already committed.
func (h *RsvpHandler) Create(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	userID := currentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rsvps.Create(ctx, eventID, userID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "the event you are trying to reserve does not exist"})
		case errors.Is(err, repository.ErrOwnRsvp):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you cannot make a reservation to your own event"})
		case errors.Is(err, repository.ErrAlreadyRsvped):
			return c.JSON(http.StatusConflict, echo.Map{"error": "you cannot make a reservation twice"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
		}
	}

	if e, err := h.Events.GetByID(ctx, eventID); err == nil {
		email, _ := c.Get("user_email").(string)
		if err := h.Publisher.PublishRsvpConfirmed(ctx, queue.RsvpConfirmed{
			EventID:     e.ID,
			EventName:   e.Name,
			OwnerID:     e.OwnerID,
			GuestID:     userID,
			GuestEmail:  email,
			ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
		}); err != nil {
			c.Logger().Warnf("rsvp: publish confirmation for event %d failed: %v", e.ID, err)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "you have made a reservation successfully"})
}

// Guests lists reservations for one of the authenticated user's events.
func (h *RsvpHandler) Guests(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	guests, err := h.Rsvps.Guests(ctx, currentUser(c), eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "the event does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"guests": guests, "total": len(guests)})
}

// Mine lists the events the authenticated user has reserved a spot at.
func (h *RsvpHandler) Mine(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Rsvps.ListForUser(ctx, currentUser(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]eventResp, 0, len(items))
	for _, e := range items {
		out = append(out, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}
