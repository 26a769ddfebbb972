package security

import "testing"

func TestSanitize_StripsTags(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Youth conference with guest ministers",
			want:  "Youth conference with guest ministers",
		},
		{
			name:  "paragraph markup removed",
			input: "<p>Doors open at <strong>9am</strong></p>",
			want:  "Doors open at 9am",
		},
		{
			name:  "script removed entirely",
			input: "Register now<script>alert('x')</script>",
			want:  "Register now",
		},
		{
			name:  "entities resolved",
			input: "Worship &amp; Word",
			want:  "Worship & Word",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  <div> Easter service </div>  ",
			want:  "Easter service",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := "<em>Night of worship</em> &amp; prayer"
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("Sanitize not idempotent: %q then %q", once, twice)
	}
}
