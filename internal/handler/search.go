package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/brightevents/bright-events/internal/repository"
)

// SearchHandler serves the public event search. It requires no
// authentication and sits behind the response cache.
type SearchHandler struct {
	Events EventStore
}

func NewSearchHandler(events EventStore) *SearchHandler { return &SearchHandler{Events: events} }

// Search filters events by name, category and location (case-insensitive
// substring matches). Category and location searches only surface events
// hosted today or later; a plain name search has no time restriction.
func (h *SearchHandler) Search(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))
	location := strings.TrimSpace(c.QueryParam("location"))
	if name == "" && category == "" && location == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide at least one of q, category or location"})
	}
	page, pageSize := pagination(c)

	q := repository.EventSearch{
		Name:     name,
		Category: category,
		Location: location,
		Upcoming: category != "" || location != "",
		Page:     page,
		PageSize: pageSize,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Events.Search(ctx, q)
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
