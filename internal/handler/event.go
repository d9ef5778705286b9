package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brightevents/bright-events/internal/model"
	"github.com/brightevents/bright-events/internal/repository"
)

// EventStore is the event persistence contract. Satisfied by
// *repository.EventRepo.
type EventStore interface {
	Create(ctx context.Context, e model.Event) (uint64, error)
	GetOwned(ctx context.Context, ownerID, eventID uint64) (model.Event, error)
	Update(ctx context.Context, ownerID, eventID uint64, upd repository.EventUpdate) (model.Event, error)
	Delete(ctx context.Context, ownerID, eventID uint64) error
	ListByOwner(ctx context.Context, ownerID uint64, page, pageSize int) ([]model.Event, int64, error)
	Search(ctx context.Context, q repository.EventSearch) ([]model.Event, int64, error)
}

// EventHandler serves the event CRUD endpoints. All of them sit behind the
// session guard, which binds user_id into the context.
type EventHandler struct {
	Events EventStore
}

func NewEventHandler(events EventStore) *EventHandler { return &EventHandler{Events: events} }

const dateLayout = "2006-01-02"

type eventReq struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	DateHosted  string `json:"date_hosted"` // YYYY-MM-DD
}

type eventResp struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	DateHosted  string `json:"date_hosted"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{
		ID:          e.ID,
		Name:        e.Name,
		Category:    e.Category,
		Location:    e.Location,
		Description: e.Description,
		DateHosted:  e.DateHosted.Format(dateLayout),
	}
}

func currentUser(c echo.Context) uint64 {
	if id, ok := c.Get("user_id").(uint64); ok {
		return id
	}
	return 0
}

// Create registers a new event for the authenticated user.
func (h *EventHandler) Create(c echo.Context) error {
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.Location = strings.TrimSpace(req.Location)
	if req.Name == "" || req.Category == "" || req.Location == "" || req.DateHosted == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, category, location and date_hosted are required"})
	}
	date, err := time.Parse(dateLayout, req.DateHosted)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_hosted must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Events.Create(ctx, model.Event{
		OwnerID:     currentUser(c),
		Name:        req.Name,
		Category:    req.Category,
		Location:    req.Location,
		Description: strings.TrimSpace(req.Description),
		DateHosted:  date,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already host an event with that name on that date"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "event created successfully",
		"event": eventResp{
			ID: id, Name: req.Name, Category: req.Category, Location: req.Location,
			Description: strings.TrimSpace(req.Description), DateHosted: req.DateHosted,
		},
	})
}

// Get returns one of the authenticated user's events.
func (h *EventHandler) Get(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.GetOwned(ctx, currentUser(c), eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "the event does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"event": toEventResp(e)})
}

// Update applies a partial update; empty fields keep their stored values.
func (h *EventHandler) Update(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	upd := repository.EventUpdate{
		Name:        req.Name,
		Category:    req.Category,
		Location:    req.Location,
		Description: req.Description,
	}
	if strings.TrimSpace(req.DateHosted) != "" {
		date, err := time.Parse(dateLayout, req.DateHosted)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_hosted must be YYYY-MM-DD"})
		}
		upd.DateHosted = &date
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Events.Update(ctx, currentUser(c), eventID, upd)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "the event does not exist"})
		case errors.Is(err, repository.ErrDuplicateEvent):
			return c.JSON(http.StatusConflict, echo.Map{"error": "the update would duplicate an existing event"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "the event has been updated successfully",
		"event":   toEventResp(e),
	})
}

// Delete removes one of the authenticated user's events.
func (h *EventHandler) Delete(c echo.Context) error {
	eventID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Events.Delete(ctx, currentUser(c), eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "the event does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted successfully"})
}

// List returns one page of the authenticated user's events.
func (h *EventHandler) List(c echo.Context) error {
	page, pageSize := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Events.ListByOwner(ctx, currentUser(c), page, pageSize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]eventResp, 0, len(items))
	for _, e := range items {
		out = append(out, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events":    out,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func pagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
