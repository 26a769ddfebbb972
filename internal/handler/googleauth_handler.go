package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hotrph/calsync/internal/googlesync"
	"github.com/hotrph/calsync/internal/model"
)

// OAuthFlow is the OAuth provider interface the auth handler needs.
type OAuthFlow interface {
	// AuthCodeURL returns the consent-screen URL carrying the state.
	AuthCodeURL(state string) string
	// Exchange swaps an authorization code for tokens.
	Exchange(ctx context.Context, code string) (model.GoogleSync, error)
}

// SubscriberStore loads and persists subscribers during the connect flow.
type SubscriberStore interface {
	Get(ctx context.Context, subscriberID string) (*model.Subscriber, error)
	SaveGoogleSync(ctx context.Context, subscriberID string, sync model.GoogleSync) error
}

// SubscriberSyncer pushes a subscriber's targeted events into their
// connected Google calendar.
type SubscriberSyncer interface {
	// SyncSubscriber provisions the remote calendar if needed and upserts
	// every matching event. It returns the number of events pushed.
	SyncSubscriber(ctx context.Context, sub *model.Subscriber) (int, error)
}

// GoogleAuthHandlerConfig configures the redirect targets of the flow.
type GoogleAuthHandlerConfig struct {
	// BaseURL is the public origin the browser is sent back to.
	BaseURL string
}

// GoogleAuthHandler drives the Google Calendar connect flow: consent
// redirect, code exchange, calendar provisioning and the initial sync.
type GoogleAuthHandler struct {
	flow        OAuthFlow
	subscribers SubscriberStore
	syncer      SubscriberSyncer
	config      GoogleAuthHandlerConfig
	logger      *slog.Logger
}

// NewGoogleAuthHandler creates a GoogleAuthHandler.
func NewGoogleAuthHandler(
	flow OAuthFlow,
	subscribers SubscriberStore,
	syncer SubscriberSyncer,
	config GoogleAuthHandlerConfig,
	logger *slog.Logger,
) *GoogleAuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleAuthHandler{
		flow:        flow,
		subscribers: subscribers,
		syncer:      syncer,
		config:      config,
		logger:      logger,
	}
}

// Connect starts the OAuth flow for a subscriber.
// GET /auth/google?subscriber={id}&calendar={slug}
func (h *GoogleAuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	subscriberID := r.URL.Query().Get("subscriber")
	calendarSlug := r.URL.Query().Get("calendar")

	if subscriberID == "" {
		h.redirectError(w, r, "missing_params")
		return
	}

	state, err := googlesync.EncodeState(googlesync.State{
		SubscriberID: subscriberID,
		CalendarSlug: calendarSlug,
	})
	if err != nil {
		h.logger.Error("failed to encode oauth state", slog.String("error", err.Error()))
		h.redirectError(w, r, "google_auth_failed")
		return
	}

	http.Redirect(w, r, h.flow.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the OAuth flow: it exchanges the code, stores the
// tokens, provisions the subscriber's calendar and runs the first sync.
// GET /auth/google/callback?code=...&state=...
func (h *GoogleAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// The provider reports a declined consent screen via the error param.
	if q.Get("error") != "" {
		h.redirectError(w, r, "google_denied")
		return
	}

	code := q.Get("code")
	rawState := q.Get("state")
	if code == "" || rawState == "" {
		h.redirectError(w, r, "missing_params")
		return
	}

	state, err := googlesync.DecodeState(rawState)
	if err != nil {
		h.logger.Warn("invalid oauth state", slog.String("error", err.Error()))
		h.redirectError(w, r, "invalid_state")
		return
	}

	sub, err := h.subscribers.Get(r.Context(), state.SubscriberID)
	if err != nil {
		h.logger.Warn("oauth callback for unknown subscriber",
			slog.String("subscriber_id", state.SubscriberID),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "unknown_subscriber")
		return
	}

	tokens, err := h.flow.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", slog.String("error", err.Error()))
		h.redirectError(w, r, "google_auth_failed")
		return
	}

	// Keep the previously provisioned calendar if this is a reconnect.
	tokens.CalendarID = sub.Google.CalendarID
	sub.Google = tokens

	if err := h.subscribers.SaveGoogleSync(r.Context(), sub.ID, tokens); err != nil {
		h.logger.Error("failed to store google tokens",
			slog.String("subscriber_id", sub.ID),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "google_auth_failed")
		return
	}

	count, err := h.syncer.SyncSubscriber(r.Context(), sub)
	if err != nil {
		h.logger.Error("initial google sync failed",
			slog.String("subscriber_id", sub.ID),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "google_auth_failed")
		return
	}

	h.logger.Info("google calendar connected",
		slog.String("subscriber_id", sub.ID),
		slog.Int("events_synced", count),
	)

	target := h.config.BaseURL + "/subscribe/success?google=true" +
		"&name=" + url.QueryEscape(firstName(sub.Name)) +
		"&events=" + strconv.Itoa(count)
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectError sends the browser back with a machine-readable reason.
func (h *GoogleAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.config.BaseURL+"/subscribe?error="+url.QueryEscape(reason), http.StatusFound)
}

// firstName returns the leading word of a full name.
func firstName(name string) string {
	if i := strings.IndexByte(strings.TrimSpace(name), ' '); i > 0 {
		return strings.TrimSpace(name)[:i]
	}
	return strings.TrimSpace(name)
}
