// Package googlesync pushes targeted events into subscribers' Google
// calendars: OAuth token lifecycle, idempotent calendar provisioning and
// per-event upsert against the Google Calendar API.
package googlesync

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/hotrph/calsync/internal/model"
)

// OAuthConfig is the Google OAuth application configuration.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ClientFactory builds OAuth clients from explicit configuration. It is
// constructed once at wiring time and passed down.
type ClientFactory struct {
	config OAuthConfig
}

// NewClientFactory returns a ClientFactory for the given application
// credentials.
func NewClientFactory(config OAuthConfig) *ClientFactory {
	return &ClientFactory{config: config}
}

// oauth2Config materialises the x/oauth2 config for this application.
func (f *ClientFactory) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     f.config.ClientID,
		ClientSecret: f.config.ClientSecret,
		RedirectURL:  f.config.RedirectURL,
		Scopes: []string{
			calendar.CalendarScope,
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// AuthCodeURL returns the consent-screen URL carrying the opaque state.
// Offline access and a forced consent prompt are requested so Google
// issues a refresh token on first grant.
func (f *ClientFactory) AuthCodeURL(state string) string {
	return f.oauth2Config().AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange swaps an authorization code for tokens. The refresh token may
// be empty when Google decides offline access was already granted; that
// is reduced capability for the caller, not a failure.
func (f *ClientFactory) Exchange(ctx context.Context, code string) (model.GoogleSync, error) {
	token, err := f.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return model.GoogleSync{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if token.AccessToken == "" {
		return model.GoogleSync{}, fmt.Errorf("empty access token in exchange response")
	}

	return model.GoogleSync{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
	}, nil
}

// tokenHolder shares the current token between the HTTP transport and
// the refresher.
type tokenHolder struct {
	mu    sync.Mutex
	token oauth2.Token
}

func (h *tokenHolder) accessToken() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.token.AccessToken
}

func (h *tokenHolder) set(token oauth2.Token) {
	h.mu.Lock()
	h.token = token
	h.mu.Unlock()
}

// authTransport injects the current bearer token into every request.
type authTransport struct {
	holder *tokenHolder
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.holder.accessToken())
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// Refresher obtains a fresh access token when the current one is expired
// or rejected. Engine calls it at most once per failed operation.
type Refresher struct {
	factory *ClientFactory
	holder  *tokenHolder
	persist func(model.GoogleSync) error
}

// Refresh performs the refresh-token grant and persists the new access
// token. A missing refresh token or a rejected refresh grant (revoked
// consent) is surfaced as a hard failure; the caller must not retry.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.holder.mu.Lock()
	refreshToken := r.holder.token.RefreshToken
	r.holder.mu.Unlock()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token available; re-consent required")
	}

	source := r.factory.oauth2Config().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return fmt.Errorf("refresh token grant failed: %w", err)
	}
	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	r.holder.set(*token)

	if r.persist != nil {
		updated := model.GoogleSync{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenExpiry:  token.Expiry,
		}
		if err := r.persist(updated); err != nil {
			return fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}

	return nil
}

// HTTPClient returns a client authenticated with the subscriber's stored
// tokens, plus the Refresher bound to the same token state. persist is
// invoked with the updated token set after every successful refresh.
func (f *ClientFactory) HTTPClient(tokens model.GoogleSync, persist func(model.GoogleSync) error) (*http.Client, *Refresher) {
	holder := &tokenHolder{token: oauth2.Token{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Expiry:       tokens.TokenExpiry,
	}}

	client := &http.Client{
		Transport: &authTransport{holder: holder},
		Timeout:   30 * time.Second,
	}
	refresher := &Refresher{factory: f, holder: holder, persist: persist}

	return client, refresher
}
