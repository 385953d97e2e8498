package controllers

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expYear  int
		expMonth int
		expDay   int
	}{
		{
			name:     "regular date",
			input:    "2026-03-09",
			expYear:  2026,
			expMonth: 3,
			expDay:   9,
		},
		{
			name:     "start of year",
			input:    "2025-01-01",
			expYear:  2025,
			expMonth: 1,
			expDay:   1,
		},
		{
			name:     "leap day",
			input:    "2024-02-29",
			expYear:  2024,
			expMonth: 2,
			expDay:   29,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			d, err := parseDate(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Year() != tc.expYear || int(d.Month()) != tc.expMonth || d.Day() != tc.expDay {
				t.Fatalf("expected %04d-%02d-%02d, got %v", tc.expYear, tc.expMonth, tc.expDay, d)
			}
		})
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, input := range []string{"", "09-03-2026", "2026/03/09", "2026-13-01", "yesterday"} {
		if _, err := parseDate(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
