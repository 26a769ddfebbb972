// Package model defines the domain model.
package model

import "fmt"

// APIError is the unified error format returned by the HTTP layer.
// It carries a category for the cause and an actionable hint.
type APIError struct {
	Code     string // stable error code
	Message  string // human-readable message
	Category string // category: auth, validation, calendar, sync, system
	Action   string // what the caller can do about it
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Defined error codes.
const (
	ErrCodeCalendarNotFound   = "CALENDAR_NOT_FOUND"
	ErrCodeCalendarPrivate    = "CALENDAR_PRIVATE"
	ErrCodeInvalidFeedToken   = "INVALID_FEED_TOKEN"
	ErrCodeFeedForbidden      = "FEED_FORBIDDEN"
	ErrCodeFeedGeneration     = "FEED_GENERATION_FAILED"
	ErrCodeSubscriberNotFound = "SUBSCRIBER_NOT_FOUND"
	ErrCodeEventNotFound      = "EVENT_NOT_FOUND"
	ErrCodeMissingFields      = "MISSING_FIELDS"
	ErrCodeInvalidPlatform    = "INVALID_PLATFORM"
	ErrCodeGoogleAuthFailed   = "GOOGLE_AUTH_FAILED"
	ErrCodeSlugTaken          = "SLUG_TAKEN"
)

// NewCalendarNotFoundError reports an unknown calendar slug or id.
func NewCalendarNotFoundError(ref string) *APIError {
	return &APIError{
		Code:     ErrCodeCalendarNotFound,
		Message:  fmt.Sprintf("calendar not found: %s", ref),
		Category: "calendar",
		Action:   "Check the calendar slug and try again.",
	}
}

// NewCalendarPrivateError reports access to a non-public calendar.
func NewCalendarPrivateError() *APIError {
	return &APIError{
		Code:     ErrCodeCalendarPrivate,
		Message:  "this calendar is private.",
		Category: "calendar",
		Action:   "Ask the calendar owner for access.",
	}
}

// NewInvalidFeedTokenError reports a feed token that resolves to no
// subscriber. Returned instead of an empty feed so "no events" and
// "bad token" are never confused.
func NewInvalidFeedTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFeedToken,
		Message:  "the feed token does not match any subscriber.",
		Category: "auth",
		Action:   "Re-subscribe to obtain a fresh feed URL.",
	}
}

// NewFeedForbiddenError reports a valid token used against a calendar the
// subscriber does not belong to.
func NewFeedForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeFeedForbidden,
		Message:  "the feed token does not belong to this calendar.",
		Category: "auth",
		Action:   "Use the feed URL issued for your own subscription.",
	}
}

// NewFeedGenerationError reports that ICS synthesis failed. The whole feed
// fails rather than silently dropping a malformed event.
func NewFeedGenerationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFeedGeneration,
		Message:  fmt.Sprintf("failed to generate the calendar feed: %s", reason),
		Category: "system",
		Action:   "Try again later; if the problem persists contact the calendar owner.",
	}
}

// NewSubscriberNotFoundError reports an unknown subscriber id.
func NewSubscriberNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriberNotFound,
		Message:  fmt.Sprintf("subscriber not found: %s", id),
		Category: "validation",
		Action:   "Check the subscriber id.",
	}
}

// NewEventNotFoundError reports an unknown event id.
func NewEventNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("event not found: %s", id),
		Category: "calendar",
		Action:   "Check the event id.",
	}
}

// NewMissingFieldsError reports required request fields that were absent.
func NewMissingFieldsError(fields ...string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingFields,
		Message:  fmt.Sprintf("missing required fields: %v", fields),
		Category: "validation",
		Action:   "Provide all required fields and retry.",
	}
}

// NewInvalidPlatformError reports an unknown platform value.
func NewInvalidPlatformError(platform string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPlatform,
		Message:  fmt.Sprintf("invalid platform: %s", platform),
		Category: "validation",
		Action:   "Use one of: google, apple, outlook, other.",
	}
}

// NewGoogleAuthFailedError reports a hard failure of the Google OAuth or
// sync flow after any one-time refresh retry.
func NewGoogleAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeGoogleAuthFailed,
		Message:  fmt.Sprintf("google authorization failed: %s", reason),
		Category: "sync",
		Action:   "Reconnect your Google account to grant access again.",
	}
}

// NewSlugTakenError reports a calendar slug collision.
func NewSlugTakenError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeSlugTaken,
		Message:  fmt.Sprintf("calendar slug already in use: %s", slug),
		Category: "validation",
		Action:   "Choose a different slug.",
	}
}
