package googlesync

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// State rides through the OAuth consent flow as the opaque state
// parameter and identifies whose calendar to sync on callback.
type State struct {
	SubscriberID string `json:"subscriberId"`
	CalendarSlug string `json:"calendarSlug"`
}

// EncodeState serialises the state as URL-safe base64 of JSON. The value
// must round-trip exactly through the provider.
func EncodeState(s State) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeState reverses EncodeState.
func DecodeState(encoded string) (State, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return State{}, fmt.Errorf("failed to decode oauth state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}
	if s.SubscriberID == "" {
		return State{}, fmt.Errorf("oauth state missing subscriber id")
	}
	return s, nil
}
