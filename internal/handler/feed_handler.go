package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hotrph/calsync/internal/feed"
)

// FeedServiceInterface is the service interface the feed handler needs.
type FeedServiceInterface interface {
	// Generate resolves a slug and feed token to a personalised feed.
	Generate(ctx context.Context, slug, token string) (*feed.Feed, error)
}

// FeedHandler serves the personalised ICS feed endpoint.
type FeedHandler struct {
	service FeedServiceInterface
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(service FeedServiceInterface) *FeedHandler {
	return &FeedHandler{service: service}
}

// GetFeed serves a subscriber's feed.
// GET /calendar/{slug}/feed/{token}.ics
//
// Calendar clients poll this URL on their own schedule, so the response
// forbids caching: a cached feed would hide event updates until the
// intermediary expires it.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	token := strings.TrimSuffix(chi.URLParam(r, "token"), ".ics")

	result, err := h.service.Generate(r.Context(), slug, token)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", slug+".ics"))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(result.Body))
}
