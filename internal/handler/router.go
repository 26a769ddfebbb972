package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hotrph/calsync/internal/middleware"
)

// RouterDeps bundles the dependencies NewRouter needs.
type RouterDeps struct {
	// Middleware dependencies.
	HealthChecker     HealthChecker
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	AdminAPIKey       string
	Logger            *slog.Logger

	// Feed delivery.
	FeedService FeedServiceInterface

	// Subscriptions.
	SubscriberService SubscriberServiceInterface

	// Public calendar browsing.
	CalendarService CalendarServiceInterface

	// Admin surface.
	AdminCalendarService AdminCalendarServiceInterface
	AdminEventService    AdminEventServiceInterface

	// Google connect flow.
	OAuthFlow        OAuthFlow
	SubscriberStore  SubscriberStore
	SubscriberSyncer SubscriberSyncer
	GoogleAuthConfig GoogleAuthHandlerConfig

	// Metrics is the /metrics endpoint handler. Nil disables the route.
	Metrics http.Handler
}

// NewRouter builds the routing tree and the middleware chain. Recovery
// runs outermost so panics in any later middleware are still caught,
// then logging, security headers, CORS and the general rate limit.
//
// The feed endpoint sits outside /api: its URL is pasted into calendar
// clients verbatim and must stay short and stable. The OAuth routes are
// browser redirects, also outside /api.
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	feedHandler := NewFeedHandler(deps.FeedService)
	subscribeHandler := NewSubscribeHandler(deps.SubscriberService)
	calendarHandler := NewCalendarHandler(deps.CalendarService)
	adminHandler := NewAdminHandler(deps.AdminCalendarService, deps.AdminEventService)
	authHandler := NewGoogleAuthHandler(
		deps.OAuthFlow, deps.SubscriberStore, deps.SubscriberSyncer,
		deps.GoogleAuthConfig, logger,
	)

	// --- Infrastructure routes ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	// --- Google connect flow (browser redirects) ---

	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/", authHandler.Connect)
		r.Get("/callback", authHandler.Callback)
	})

	// --- Feed delivery ---

	r.With(deps.RateLimiter.GeneralMiddleware()).
		Get("/calendar/{slug}/feed/{token}", feedHandler.GetFeed)

	// --- JSON API ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// POST /api/subscribe carries its own stricter limit.
		r.With(deps.RateLimiter.SubscribeMiddleware()).
			Post("/api/subscribe", subscribeHandler.Subscribe)

		r.Patch("/api/subscribe/platform", subscribeHandler.UpdatePlatform)
		r.Get("/api/subscribe/{id}/links", subscribeHandler.Links)

		r.Route("/api/calendars", func(r chi.Router) {
			r.Get("/", calendarHandler.ListCalendars)
			r.Get("/{slug}", calendarHandler.GetCalendar)
			r.Get("/{slug}/events", calendarHandler.ListEvents)
		})

		// Admin surface, protected by a static API key.
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewAPIKeyMiddleware(deps.AdminAPIKey))

			r.Route("/calendars", func(r chi.Router) {
				r.Post("/", adminHandler.CreateCalendar)
				r.Get("/", adminHandler.ListCalendars)

				r.Route("/{id}", func(r chi.Router) {
					r.Patch("/", adminHandler.UpdateCalendar)
					r.Delete("/", adminHandler.DeleteCalendar)

					r.Post("/events", adminHandler.CreateEvent)
					r.Get("/events", adminHandler.ListCalendarEvents)
				})
			})

			r.Route("/events/{id}", func(r chi.Router) {
				r.Get("/", adminHandler.GetEvent)
				r.Put("/", adminHandler.UpdateEvent)
				r.Post("/cancel", adminHandler.CancelEvent)
				r.Delete("/", adminHandler.DeleteEvent)
			})
		})
	})

	return r
}
