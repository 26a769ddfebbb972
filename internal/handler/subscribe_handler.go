package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hotrph/calsync/internal/ics"
	"github.com/hotrph/calsync/internal/model"
	"github.com/hotrph/calsync/internal/subscriber"
)

// SubscriberServiceInterface is the service interface the subscribe
// handler needs.
type SubscriberServiceInterface interface {
	// Subscribe registers a subscriber, or refreshes the profile when the
	// email is already registered on the calendar.
	Subscribe(ctx context.Context, input subscriber.SubscribeInput) (*subscriber.SubscribeResult, error)
	// UpdatePlatform records which calendar client the subscriber uses.
	UpdatePlatform(ctx context.Context, subscriberID string, platform model.Platform) error
	// SubscriptionLinks rebuilds the subscription URLs for a subscriber.
	SubscriptionLinks(ctx context.Context, subscriberID string) (ics.SubscriptionURLs, error)
}

// SubscribeHandler handles subscription registration.
type SubscribeHandler struct {
	service SubscriberServiceInterface
}

// NewSubscribeHandler creates a SubscribeHandler.
func NewSubscribeHandler(service SubscriberServiceInterface) *SubscribeHandler {
	return &SubscribeHandler{service: service}
}

// dateOnly is the wire format of the date of birth.
const dateOnly = "2006-01-02"

// subscribeRequest is the subscription request body.
type subscribeRequest struct {
	CalendarSlug       string   `json:"calendarSlug"`
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Gender             string   `json:"gender"`
	Country            string   `json:"country"`
	RelationshipStatus string   `json:"relationshipStatus"`
	DateOfBirth        string   `json:"dateOfBirth"`
	Platform           string   `json:"platform"`
	Interests          []string `json:"interests"`
}

// subscribeResponse is returned after a successful subscription.
type subscribeResponse struct {
	SubscriberID string               `json:"subscriberId"`
	Existing     bool                 `json:"existing"`
	URLs         ics.SubscriptionURLs `json:"urls"`
}

// updatePlatformRequest is the platform update request body.
type updatePlatformRequest struct {
	SubscriberID string `json:"subscriberId"`
	Platform     string `json:"platform"`
}

// Subscribe registers a subscriber on a calendar.
// POST /api/subscribe
func (h *SubscribeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	var dob time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse(dateOnly, req.DateOfBirth)
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
				Code:     "INVALID_DATE",
				Message:  "dateOfBirth must be formatted as YYYY-MM-DD.",
				Category: "validation",
				Action:   "Send the date of birth as YYYY-MM-DD.",
			})
			return
		}
		dob = parsed
	}

	result, err := h.service.Subscribe(r.Context(), subscriber.SubscribeInput{
		CalendarSlug:       req.CalendarSlug,
		Name:               req.Name,
		Email:              req.Email,
		Phone:              req.Phone,
		Gender:             model.Gender(req.Gender),
		Country:            req.Country,
		RelationshipStatus: model.RelationshipStatus(req.RelationshipStatus),
		DateOfBirth:        dob,
		Platform:           model.Platform(req.Platform),
		Interests:          req.Interests,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, subscribeResponse{
		SubscriberID: result.Subscriber.ID,
		Existing:     result.Existing,
		URLs:         result.URLs,
	})
}

// UpdatePlatform records the calendar client a subscriber picked.
// PATCH /api/subscribe/platform
func (h *SubscribeHandler) UpdatePlatform(w http.ResponseWriter, r *http.Request) {
	var req updatePlatformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w)
		return
	}

	if req.SubscriberID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewMissingFieldsError("subscriberId"))
		return
	}

	if err := h.service.UpdatePlatform(r.Context(), req.SubscriberID, model.Platform(req.Platform)); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Links returns the subscription URLs for an existing subscriber.
// GET /api/subscribe/{id}/links
func (h *SubscribeHandler) Links(w http.ResponseWriter, r *http.Request) {
	urls, err := h.service.SubscriptionLinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, urls)
}
