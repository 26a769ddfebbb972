// Package targeting decides which events a subscriber sees.
package targeting

import (
	"time"

	"github.com/hotrph/calsync/internal/model"
)

// Matches reports whether an event targets a subscriber. It is a pure
// conjunction over the four demographic dimensions: an event matches only
// when every dimension accepts the subscriber. An unrestricted dimension
// accepts everyone, and a value outside a restricted set is plain
// non-membership, never an error.
//
// asOf is the evaluation instant for the age check.
func Matches(sub *model.Subscriber, event *model.Event, asOf time.Time) bool {
	if !event.TargetGenders.Allows(string(sub.Gender)) {
		return false
	}

	if !event.TargetAgeRange.Contains(Age(sub.DateOfBirth, asOf)) {
		return false
	}

	if !event.TargetCountries.Allows(sub.Country) {
		return false
	}

	if !event.TargetRelationshipStatuses.Allows(string(sub.RelationshipStatus)) {
		return false
	}

	return true
}

// Filter returns the events in evs that match sub at asOf, preserving
// order.
func Filter(sub *model.Subscriber, evs []*model.Event, asOf time.Time) []*model.Event {
	matched := make([]*model.Event, 0, len(evs))
	for _, ev := range evs {
		if Matches(sub, ev, asOf) {
			matched = append(matched, ev)
		}
	}
	return matched
}
