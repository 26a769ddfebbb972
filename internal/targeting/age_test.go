package targeting

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		asOf time.Time
		want int
	}{
		{
			name: "birthday already passed this year",
			dob:  date(2000, time.January, 1),
			asOf: date(2026, time.June, 15),
			want: 26,
		},
		{
			name: "birthday exactly today",
			dob:  date(2000, time.June, 15),
			asOf: date(2026, time.June, 15),
			want: 26,
		},
		{
			name: "birthday tomorrow",
			dob:  date(2000, time.June, 16),
			asOf: date(2026, time.June, 15),
			want: 25,
		},
		{
			name: "birthday later this month",
			dob:  date(2000, time.June, 30),
			asOf: date(2026, time.June, 15),
			want: 25,
		},
		{
			name: "birthday in a later month",
			dob:  date(2000, time.December, 25),
			asOf: date(2026, time.June, 15),
			want: 25,
		},
		{
			name: "born this year",
			dob:  date(2026, time.January, 1),
			asOf: date(2026, time.June, 15),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Age(tt.dob, tt.asOf)
			if got != tt.want {
				t.Errorf("Age(%v, %v) = %d, want %d", tt.dob, tt.asOf, got, tt.want)
			}
		})
	}
}

// TestAge_BoundaryInclusivity pins the inclusive lower bound used by
// targeting: a subscriber born exactly N years before the evaluation date
// is N, while one born a day later is still N-1.
func TestAge_BoundaryInclusivity(t *testing.T) {
	asOf := date(2026, time.March, 10)

	if got := Age(date(2008, time.March, 10), asOf); got != 18 {
		t.Errorf("exactly 18 years before: Age = %d, want 18", got)
	}
	if got := Age(date(2008, time.March, 11), asOf); got != 17 {
		t.Errorf("one day younger: Age = %d, want 17", got)
	}
}
