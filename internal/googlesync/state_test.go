package googlesync

import (
	"net/url"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	in := State{SubscriberID: "sub-42", CalendarSlug: "hotr-port-harcourt"}

	encoded, err := EncodeState(in)
	if err != nil {
		t.Fatalf("EncodeState returned error: %v", err)
	}

	out, err := DecodeState(encoded)
	if err != nil {
		t.Fatalf("DecodeState returned error: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

// TestState_SurvivesQueryEncoding checks that the encoded state passes
// through a URL query parameter unchanged, since the provider echoes it
// back on the callback URL.
func TestState_SurvivesQueryEncoding(t *testing.T) {
	encoded, err := EncodeState(State{SubscriberID: "sub/1+x", CalendarSlug: "slug"})
	if err != nil {
		t.Fatalf("EncodeState returned error: %v", err)
	}

	roundTripped, err := url.QueryUnescape(url.QueryEscape(encoded))
	if err != nil {
		t.Fatalf("query round trip failed: %v", err)
	}
	if roundTripped != encoded {
		t.Errorf("state changed through query encoding: %q -> %q", encoded, roundTripped)
	}

	if _, err := DecodeState(roundTripped); err != nil {
		t.Errorf("DecodeState after query round trip: %v", err)
	}
}

func TestDecodeState_Invalid(t *testing.T) {
	if _, err := DecodeState("not base64 !!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodeState("e30"); err == nil { // "{}", no subscriber id
		t.Error("expected error for state without subscriber id")
	}
}
