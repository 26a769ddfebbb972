// Package targeting decides which events a subscriber sees.
package targeting

import "time"

// Age returns the whole completed years between dob and asOf using
// calendar-date semantics: the year difference, minus one when the
// birthday has not yet occurred in asOf's year. It is evaluated at
// matching time, never cached, so targeting always reflects the
// subscriber's current age.
func Age(dob, asOf time.Time) int {
	age := asOf.Year() - dob.Year()

	if asOf.Month() < dob.Month() ||
		(asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		age--
	}

	return age
}
