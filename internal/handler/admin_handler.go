package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hotrph/calsync/internal/calendar"
	"github.com/hotrph/calsync/internal/event"
	"github.com/hotrph/calsync/internal/model"
)

// AdminCalendarServiceInterface is the calendar management interface of
// the admin surface.
type AdminCalendarServiceInterface interface {
	Create(ctx context.Context, input calendar.CreateInput) (*model.Calendar, error)
	Get(ctx context.Context, slug string, includePrivate bool) (*model.Calendar, error)
	List(ctx context.Context) ([]*model.Calendar, error)
	Update(ctx context.Context, id string, input calendar.UpdateInput) (*model.Calendar, error)
	Delete(ctx context.Context, id string) error
}

// AdminEventServiceInterface is the event management interface of the
// admin surface.
type AdminEventServiceInterface interface {
	Create(ctx context.Context, calendarID string, input event.Input) (*model.Event, error)
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, calendarID string) ([]*model.Event, error)
	Update(ctx context.Context, id string, input event.Input) (*model.Event, error)
	Cancel(ctx context.Context, id string) (*model.Event, error)
	Delete(ctx context.Context, id string) error
}

// AdminHandler serves the key-protected management endpoints.
type AdminHandler struct {
	calendars AdminCalendarServiceInterface
	events    AdminEventServiceInterface
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(calendars AdminCalendarServiceInterface, events AdminEventServiceInterface) *AdminHandler {
	return &AdminHandler{
		calendars: calendars,
		events:    events,
	}
}

// calendarRequest is the calendar create/update request body. Pointer
// fields distinguish "absent" from "set to the zero value" on update.
type calendarRequest struct {
	Name        *string `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

// eventRequest is the event create/update request body. Times are
// RFC 3339; the targeting lists are optional and empty means open.
type eventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Timezone    string `json:"timezone"`
	Location    string `json:"location"`
	Status      string `json:"status"`

	TargetGenders              []string `json:"targetGenders"`
	TargetAgeMin               *int     `json:"targetAgeMin"`
	TargetAgeMax               *int     `json:"targetAgeMax"`
	TargetCountries            []string `json:"targetCountries"`
	TargetRelationshipStatuses []string `json:"targetRelationshipStatuses"`
}

// CreateCalendar creates a calendar.
// POST /api/admin/calendars
func (h *AdminHandler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	input := calendar.CreateInput{Slug: req.Slug}
	if req.Name != nil {
		input.Name = *req.Name
	}
	if req.Description != nil {
		input.Description = *req.Description
	}
	if req.IsPublic != nil {
		input.IsPublic = *req.IsPublic
	} else {
		input.IsPublic = true
	}

	cal, err := h.calendars.Create(r.Context(), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCalendarResponse(cal))
}

// ListCalendars returns every calendar, private ones included.
// GET /api/admin/calendars
func (h *AdminHandler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.calendars.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]calendarResponse, 0, len(calendars))
	for _, cal := range calendars {
		out = append(out, toCalendarResponse(cal))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateCalendar applies a partial update to a calendar. The slug is
// never changed; issued feed URLs embed it.
// PATCH /api/admin/calendars/{id}
func (h *AdminHandler) UpdateCalendar(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	cal, err := h.calendars.Update(r.Context(), chi.URLParam(r, "id"), calendar.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(cal))
}

// DeleteCalendar removes a calendar and everything attached to it.
// DELETE /api/admin/calendars/{id}
func (h *AdminHandler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	if err := h.calendars.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateEvent adds an event to a calendar.
// POST /api/admin/calendars/{id}/events
func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeEventInput(w, r)
	if !ok {
		return
	}

	created, err := h.events.Create(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toEventResponse(created))
}

// ListCalendarEvents returns every event of a calendar, cancelled ones
// included.
// GET /api/admin/calendars/{id}/events
func (h *AdminHandler) ListCalendarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, toEventResponse(ev))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetEvent returns one event.
// GET /api/admin/events/{id}
func (h *AdminHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(ev))
}

// UpdateEvent replaces the writable fields of an event. The iCalendar
// UID survives the update untouched.
// PUT /api/admin/events/{id}
func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	input, ok := decodeEventInput(w, r)
	if !ok {
		return
	}

	updated, err := h.events.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(updated))
}

// CancelEvent marks an event as cancelled. The event stays in the feed
// with STATUS:CANCELLED so clients strike it out instead of silently
// losing it.
// POST /api/admin/events/{id}/cancel
func (h *AdminHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	cancelled, err := h.events.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toEventResponse(cancelled))
}

// DeleteEvent removes an event outright.
// DELETE /api/admin/events/{id}
func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeEventInput parses an event request body. It writes the error
// response itself and reports success through the second return value.
func decodeEventInput(w http.ResponseWriter, r *http.Request) (event.Input, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return event.Input{}, false
	}

	var start, end time.Time
	var err error
	if req.StartTime != "" {
		if start, err = time.Parse(time.RFC3339, req.StartTime); err != nil {
			writeInvalidTime(w, "startTime")
			return event.Input{}, false
		}
	}
	if req.EndTime != "" {
		if end, err = time.Parse(time.RFC3339, req.EndTime); err != nil {
			writeInvalidTime(w, "endTime")
			return event.Input{}, false
		}
	}

	return event.Input{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   start,
		EndTime:     end,
		Timezone:    req.Timezone,
		Location:    req.Location,
		Status:      model.EventStatus(req.Status),

		TargetGenders:              req.TargetGenders,
		TargetAgeMin:               req.TargetAgeMin,
		TargetAgeMax:               req.TargetAgeMax,
		TargetCountries:            req.TargetCountries,
		TargetRelationshipStatuses: req.TargetRelationshipStatuses,
	}, true
}

func writeInvalidTime(w http.ResponseWriter, field string) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_TIME",
		Message:  field + " must be formatted as RFC 3339.",
		Category: "validation",
		Action:   "Send timestamps as RFC 3339, e.g. 2026-01-15T18:00:00+01:00.",
	})
}
