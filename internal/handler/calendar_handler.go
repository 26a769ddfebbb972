package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hotrph/calsync/internal/model"
)

// CalendarServiceInterface is the service interface for public calendar
// browsing.
type CalendarServiceInterface interface {
	// Get fetches a calendar by slug. With includePrivate false, private
	// calendars are reported as CALENDAR_PRIVATE.
	Get(ctx context.Context, slug string, includePrivate bool) (*model.Calendar, error)
	// List returns all calendars.
	List(ctx context.Context) ([]*model.Calendar, error)
	// Events returns the upcoming, non-cancelled events of a public
	// calendar.
	Events(ctx context.Context, slug string) ([]*model.Event, error)
}

// CalendarHandler serves the public calendar endpoints.
type CalendarHandler struct {
	service CalendarServiceInterface
}

// NewCalendarHandler creates a CalendarHandler.
func NewCalendarHandler(service CalendarServiceInterface) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// calendarResponse is the calendar API representation.
type calendarResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// eventResponse is the event API representation. The targeting lists are
// empty when a dimension is open to everyone.
type eventResponse struct {
	ID          string `json:"id"`
	UID         string `json:"uid"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Timezone    string `json:"timezone"`
	Location    string `json:"location,omitempty"`
	Status      string `json:"status"`

	TargetGenders              []string `json:"targetGenders,omitempty"`
	TargetAgeMin               *int     `json:"targetAgeMin,omitempty"`
	TargetAgeMax               *int     `json:"targetAgeMax,omitempty"`
	TargetCountries            []string `json:"targetCountries,omitempty"`
	TargetRelationshipStatuses []string `json:"targetRelationshipStatuses,omitempty"`
}

// ListCalendars returns all public calendars.
// GET /api/calendars
func (h *CalendarHandler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]calendarResponse, 0, len(calendars))
	for _, cal := range calendars {
		if !cal.IsPublic {
			continue
		}
		out = append(out, toCalendarResponse(cal))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetCalendar returns one calendar by slug.
// GET /api/calendars/{slug}
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"), false)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarResponse(cal))
}

// ListEvents returns the upcoming events of a calendar.
// GET /api/calendars/{slug}/events
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Events(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, toEventResponse(event))
	}
	writeJSON(w, http.StatusOK, out)
}

func toCalendarResponse(cal *model.Calendar) calendarResponse {
	return calendarResponse{
		ID:          cal.ID,
		Name:        cal.Name,
		Slug:        cal.Slug,
		Description: cal.Description,
		IsPublic:    cal.IsPublic,
	}
}

func toEventResponse(event *model.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		UID:         event.UID,
		Title:       event.Title,
		Description: event.Description,
		StartTime:   event.StartTime.Format(time.RFC3339),
		EndTime:     event.EndTime.Format(time.RFC3339),
		Timezone:    event.Timezone,
		Location:    event.Location,
		Status:      string(event.Status),

		TargetGenders:              event.TargetGenders.Members(),
		TargetAgeMin:               event.TargetAgeRange.Min,
		TargetAgeMax:               event.TargetAgeRange.Max,
		TargetCountries:            event.TargetCountries.Members(),
		TargetRelationshipStatuses: event.TargetRelationshipStatuses.Members(),
	}
}
