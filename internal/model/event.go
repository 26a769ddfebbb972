// Package model defines the domain model.
package model

import (
	"sort"
	"time"
)

// EventStatus is the publication state of an event.
type EventStatus string

const (
	// EventStatusConfirmed marks an event that will take place.
	EventStatusConfirmed EventStatus = "confirmed"
	// EventStatusTentative marks an event that is not yet certain.
	EventStatusTentative EventStatus = "tentative"
	// EventStatusCancelled marks an event that has been called off.
	// Cancelled events are excluded from subscriber feeds by the caller.
	EventStatusCancelled EventStatus = "cancelled"
)

// Audience is one targeting dimension of an event. It is either open to
// anyone or restricted to an explicit set of values. The distinction is
// carried in the type instead of relying on slice emptiness, because an
// empty target set means "everyone", not "no one".
type Audience struct {
	restricted bool
	members    map[string]struct{}
}

// Anyone returns an unrestricted Audience that allows every value.
func Anyone() Audience {
	return Audience{}
}

// OneOf returns an Audience restricted to the given values.
// With no values it is equivalent to Anyone, matching how an empty
// target list is stored.
func OneOf(values ...string) Audience {
	if len(values) == 0 {
		return Anyone()
	}
	members := make(map[string]struct{}, len(values))
	for _, v := range values {
		members[v] = struct{}{}
	}
	return Audience{restricted: true, members: members}
}

// Allows reports whether the value passes this dimension.
func (a Audience) Allows(value string) bool {
	if !a.restricted {
		return true
	}
	_, ok := a.members[value]
	return ok
}

// Restricted reports whether this dimension constrains anything.
func (a Audience) Restricted() bool {
	return a.restricted
}

// Members returns the allowed values in sorted order. Empty for Anyone.
func (a Audience) Members() []string {
	if !a.restricted {
		return nil
	}
	out := make([]string, 0, len(a.members))
	for v := range a.members {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// AgeRange is an optional inclusive age band. A nil bound is open.
type AgeRange struct {
	Min *int
	Max *int
}

// Contains reports whether age falls inside the band. Both bounds are
// inclusive and independently optional.
func (r AgeRange) Contains(age int) bool {
	if r.Min != nil && age < *r.Min {
		return false
	}
	if r.Max != nil && age > *r.Max {
		return false
	}
	return true
}

// Event is a calendar event with demographic targeting.
//
// UID is the iCalendar UID. It is assigned exactly once when the event is
// created and must be preserved verbatim through every edit, so that
// calendar clients recognise updates instead of duplicating the event.
type Event struct {
	ID          string
	CalendarID  string
	UID         string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Timezone    string // IANA name, used for local-time rendering only
	Location    string
	Status      EventStatus

	TargetGenders              Audience
	TargetAgeRange             AgeRange
	TargetCountries            Audience
	TargetRelationshipStatuses Audience

	CreatedAt time.Time
	UpdatedAt time.Time
}
