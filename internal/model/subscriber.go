// Package model defines the domain model.
package model

import "time"

// Gender of a subscriber.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// RelationshipStatus of a subscriber.
type RelationshipStatus string

const (
	RelationshipSingle   RelationshipStatus = "single"
	RelationshipMarried  RelationshipStatus = "married"
	RelationshipDivorced RelationshipStatus = "divorced"
	RelationshipWidowed  RelationshipStatus = "widowed"
	RelationshipEngaged  RelationshipStatus = "engaged"
)

// Platform is the calendar client a subscriber said they use.
type Platform string

const (
	PlatformGoogle  Platform = "google"
	PlatformApple   Platform = "apple"
	PlatformOutlook Platform = "outlook"
	PlatformOther   Platform = "other"
)

// ValidPlatform reports whether p is one of the known platforms.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformGoogle, PlatformApple, PlatformOutlook, PlatformOther:
		return true
	}
	return false
}

// GoogleSync holds the external provider state for a subscriber who
// connected their Google account. AccessToken is short-lived and tied to
// CalendarID. RefreshToken may be empty when Google withheld offline
// access; that is reduced capability, not an error. CalendarID is the
// provisioned secondary calendar, assigned once and reused.
type GoogleSync struct {
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	CalendarID   string
}

// Connected reports whether the subscriber has completed the OAuth flow.
func (g GoogleSync) Connected() bool {
	return g.AccessToken != "" && g.CalendarID != ""
}

// Subscriber is one person following a calendar. The feed token is the
// sole authorisation for their personalised feed URL; calendar clients
// cannot present auth headers while polling.
type Subscriber struct {
	ID         string
	CalendarID string
	Name       string
	Email      string
	Phone      string

	Gender             Gender
	Country            string
	RelationshipStatus RelationshipStatus
	DateOfBirth        time.Time // calendar date, timezone-naive

	FeedToken string
	Platform  Platform
	Interests []string

	Google GoogleSync

	CreatedAt time.Time
	UpdatedAt time.Time
}
