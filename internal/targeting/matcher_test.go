package targeting

import (
	"testing"
	"time"

	"github.com/hotrph/calsync/internal/model"
)

func intPtr(n int) *int { return &n }

// testSubscriber matches the worked example from the feed design notes:
// female, Nigeria, single, born 2000-01-01.
func testSubscriber() *model.Subscriber {
	return &model.Subscriber{
		ID:                 "sub-1",
		Gender:             model.GenderFemale,
		Country:            "Nigeria",
		RelationshipStatus: model.RelationshipSingle,
		DateOfBirth:        date(2000, time.January, 1),
	}
}

func TestMatches_UnconstrainedEventMatchesEveryone(t *testing.T) {
	// An event with every dimension open matches any subscriber.
	event := &model.Event{
		TargetGenders:              model.Anyone(),
		TargetCountries:            model.Anyone(),
		TargetRelationshipStatuses: model.Anyone(),
	}

	subs := []*model.Subscriber{
		testSubscriber(),
		{Gender: model.GenderMale, Country: "Ghana", RelationshipStatus: model.RelationshipMarried, DateOfBirth: date(1950, time.May, 2)},
		{Gender: "unknown", Country: "", RelationshipStatus: "", DateOfBirth: date(2020, time.July, 9)},
	}

	for i, sub := range subs {
		if !Matches(sub, event, date(2026, time.June, 1)) {
			t.Errorf("subscriber %d: unconstrained event should match", i)
		}
	}
}

func TestMatches_Conjunction(t *testing.T) {
	asOf := date(2026, time.June, 1)

	tests := []struct {
		name  string
		event model.Event
		want  bool
	}{
		{
			name:  "gender mismatch",
			event: model.Event{TargetGenders: model.OneOf("male")},
			want:  false,
		},
		{
			name: "gender match with satisfied age minimum",
			event: model.Event{
				TargetGenders:  model.OneOf("female"),
				TargetAgeRange: model.AgeRange{Min: intPtr(18)},
			},
			want: true,
		},
		{
			name:  "below age minimum",
			event: model.Event{TargetAgeRange: model.AgeRange{Min: intPtr(30)}},
			want:  false,
		},
		{
			name:  "above age maximum",
			event: model.Event{TargetAgeRange: model.AgeRange{Max: intPtr(20)}},
			want:  false,
		},
		{
			name:  "age exactly at inclusive minimum",
			event: model.Event{TargetAgeRange: model.AgeRange{Min: intPtr(26)}},
			want:  true,
		},
		{
			name:  "age exactly at inclusive maximum",
			event: model.Event{TargetAgeRange: model.AgeRange{Max: intPtr(26)}},
			want:  true,
		},
		{
			name:  "country mismatch",
			event: model.Event{TargetCountries: model.OneOf("Ghana", "Kenya")},
			want:  false,
		},
		{
			name:  "relationship mismatch",
			event: model.Event{TargetRelationshipStatuses: model.OneOf("married")},
			want:  false,
		},
		{
			name: "all four dimensions satisfied",
			event: model.Event{
				TargetGenders:              model.OneOf("female"),
				TargetAgeRange:             model.AgeRange{Min: intPtr(18), Max: intPtr(35)},
				TargetCountries:            model.OneOf("Nigeria"),
				TargetRelationshipStatuses: model.OneOf("single", "engaged"),
			},
			want: true,
		},
		{
			name: "three satisfied, one failing",
			event: model.Event{
				TargetGenders:              model.OneOf("female"),
				TargetAgeRange:             model.AgeRange{Min: intPtr(18), Max: intPtr(35)},
				TargetCountries:            model.OneOf("Ghana"),
				TargetRelationshipStatuses: model.OneOf("single"),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(testSubscriber(), &tt.event, asOf)
			if got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestMatches_MalformedValueIsNonMembership verifies that a value outside
// the known enums simply fails membership instead of erroring.
func TestMatches_MalformedValueIsNonMembership(t *testing.T) {
	sub := testSubscriber()
	sub.Gender = "attack-helicopter"

	event := &model.Event{TargetGenders: model.OneOf("male", "female")}

	if Matches(sub, event, date(2026, time.June, 1)) {
		t.Error("unknown gender value should not match a restricted set")
	}
}

// TestMatches_AgeEvaluatedAtCallTime verifies the same subscriber flips
// from non-matching to matching once their birthday passes.
func TestMatches_AgeEvaluatedAtCallTime(t *testing.T) {
	sub := testSubscriber() // born 2000-01-01
	event := &model.Event{TargetAgeRange: model.AgeRange{Min: intPtr(18)}}

	if Matches(sub, event, date(2017, time.December, 31)) {
		t.Error("should not match the day before turning 18")
	}
	if !Matches(sub, event, date(2018, time.January, 1)) {
		t.Error("should match on the 18th birthday")
	}
}

func TestFilter(t *testing.T) {
	youth := &model.Event{ID: "youth", TargetAgeRange: model.AgeRange{Min: intPtr(18), Max: intPtr(35)}}
	men := &model.Event{ID: "men", TargetGenders: model.OneOf("male")}
	open := &model.Event{ID: "open"}

	got := Filter(testSubscriber(), []*model.Event{youth, men, open}, date(2026, time.June, 1))

	if len(got) != 2 {
		t.Fatalf("Filter returned %d events, want 2", len(got))
	}
	if got[0].ID != "youth" || got[1].ID != "open" {
		t.Errorf("Filter returned %q, %q; want youth, open", got[0].ID, got[1].ID)
	}
}
