// Package ics synthesizes iCalendar documents and subscription URLs.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/hotrph/calsync/internal/model"
)

const (
	productID       = "-//HOTR Calendar Sync//hotrph.org//EN"
	defaultTimezone = "Africa/Lagos"

	// Local wall-clock layout for DTSTART/DTEND values carrying a TZID.
	localTimeLayout = "20060102T150405"
)

// Reminder offsets before the event start. Hour/minute triggers only:
// day-based relative durations are serialized inconsistently by some
// consumers, so hour granularity is mandatory here.
var alarmTriggers = []string{"-PT72H", "-PT24H", "-PT1H", "-PT15M"}

// Synthesizer builds spec-compliant ICS documents from filtered event
// lists. It is a pure transform: the same input yields byte-identical
// output.
//
// The synthesizer trusts its caller: cancelled-event exclusion and
// targeting have already happened by the time events arrive here.
type Synthesizer struct {
	defaultLocation string
}

// NewSynthesizer returns a Synthesizer. An empty defaultLocation falls
// back to the built-in venue address.
func NewSynthesizer(defaultLocation string) *Synthesizer {
	if defaultLocation == "" {
		defaultLocation = DefaultLocation
	}
	return &Synthesizer{defaultLocation: defaultLocation}
}

// Generate renders the calendar with the given display name and events.
// An empty event list produces a minimal valid empty calendar, never an
// error. A single malformed event (unknown timezone) fails the whole
// document: partial calendars are rejected wholesale by most clients.
func (s *Synthesizer) Generate(calendarName string, events []*model.Event) (string, error) {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetVersion("2.0")
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(calendarName)
	cal.SetXWRTimezone(defaultTimezone)

	for _, event := range events {
		if err := s.addEvent(cal, event); err != nil {
			return "", fmt.Errorf("failed to serialize event %s: %w", event.ID, err)
		}
	}

	return cal.Serialize(), nil
}

// addEvent appends one VEVENT to cal.
func (s *Synthesizer) addEvent(cal *ical.Calendar, event *model.Event) error {
	tz := event.Timezone
	if tz == "" {
		tz = defaultTimezone
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	// UID is carried verbatim; regenerating it here would make every
	// edit look like a brand-new event to subscribed clients.
	ve := cal.AddEvent(event.UID)

	// DTSTAMP comes from the event's own update time so output stays
	// deterministic across generations.
	ve.SetDtStampTime(event.UpdatedAt.UTC())

	// Timestamps are rendered as local wall-clock time in the event's
	// declared zone, resolved through the zone itself. Extracting UTC
	// fields here once shifted every Lagos event by an hour.
	tzid := &ical.KeyValues{Key: "TZID", Value: []string{tz}}
	ve.SetProperty(ical.ComponentPropertyDtStart, event.StartTime.In(loc).Format(localTimeLayout), tzid)
	ve.SetProperty(ical.ComponentPropertyDtEnd, event.EndTime.In(loc).Format(localTimeLayout), tzid)

	ve.SetProperty(ical.ComponentPropertySummary, escapeText(event.Title))
	ve.SetProperty(ical.ComponentPropertyDescription, escapeText(event.Description+DescriptionFooter))

	location := event.Location
	if location == "" {
		location = s.defaultLocation
	}
	ve.SetProperty(ical.ComponentPropertyLocation, escapeText(location))

	ve.SetStatus(objectStatus(event.Status))

	for _, trigger := range alarmTriggers {
		alarm := ve.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger(trigger)
		alarm.SetProperty(ical.ComponentPropertyDescription, "Event reminder")
	}

	return nil
}

// objectStatus maps the domain status enum onto the uppercased iCalendar
// STATUS values.
func objectStatus(status model.EventStatus) ical.ObjectStatus {
	switch status {
	case model.EventStatusTentative:
		return ical.ObjectStatusTentative
	case model.EventStatusCancelled:
		return ical.ObjectStatusCancelled
	default:
		return ical.ObjectStatusConfirmed
	}
}

// escapeText applies RFC 5545 TEXT escaping to property values.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
