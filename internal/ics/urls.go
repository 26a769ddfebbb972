package ics

import (
	"fmt"
	"net/url"
	"strings"
)

// SubscriptionURLs are the platform-specific links a subscriber can use
// to attach their personalised feed to a calendar client.
type SubscriptionURLs struct {
	ICSURL     string `json:"icsUrl"`
	GoogleURL  string `json:"googleUrl"`
	AppleURL   string `json:"appleUrl"`
	OutlookURL string `json:"outlookUrl"`
}

// BuildSubscriptionURLs derives the four subscription links from the
// service base URL, a calendar slug and a subscriber's feed token.
//
// The ICS URL is the canonical pull endpoint; the token in the path is
// the whole authorisation, since polling calendar clients cannot attach
// headers. The Apple link swaps the scheme for webcal: so native apps
// offer "subscribe" instead of downloading a file. The Google and
// Outlook deep links both take the plain https URL, percent-encoded as
// a query value: Google's add-by-URL endpoint expects an https-reachable
// resource, not a webcal scheme.
func BuildSubscriptionURLs(baseURL, calendarSlug, feedToken string) SubscriptionURLs {
	icsURL := fmt.Sprintf("%s/calendar/%s/feed/%s.ics",
		strings.TrimSuffix(baseURL, "/"), calendarSlug, feedToken)

	webcalURL := icsURL
	if i := strings.Index(webcalURL, ":"); i >= 0 && strings.HasPrefix(webcalURL[:i], "http") {
		webcalURL = "webcal" + webcalURL[i:]
	}

	return SubscriptionURLs{
		ICSURL:     icsURL,
		GoogleURL:  "https://calendar.google.com/calendar/r?cid=" + url.QueryEscape(icsURL),
		AppleURL:   webcalURL,
		OutlookURL: "https://outlook.live.com/calendar/0/addfromweb?url=" + url.QueryEscape(icsURL),
	}
}
