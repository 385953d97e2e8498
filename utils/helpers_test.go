package utils

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{name: "already exact", input: 85.5, expected: 85.5},
		{name: "round up", input: 66.666, expected: 66.67},
		{name: "round down", input: 33.333, expected: 33.33},
		{name: "half rounds away", input: 72.125, expected: 72.13},
		{name: "zero", input: 0, expected: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := Round2(tc.input); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestIsValidAttendanceStatus(t *testing.T) {
	for _, status := range []string{"present", "absent", "late", "excused"} {
		if !IsValidAttendanceStatus(status) {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	for _, status := range []string{"", "Present", "sick", "holiday"} {
		if IsValidAttendanceStatus(status) {
			t.Fatalf("expected %q to be invalid", status)
		}
	}
}

func TestIsValidAssignmentType(t *testing.T) {
	for _, at := range []string{"homework", "project", "quiz", "test", "exam"} {
		if !IsValidAssignmentType(at) {
			t.Fatalf("expected %q to be valid", at)
		}
	}
	for _, at := range []string{"", "Homework", "lab"} {
		if IsValidAssignmentType(at) {
			t.Fatalf("expected %q to be invalid", at)
		}
	}
}

func TestIsValidGender(t *testing.T) {
	for _, g := range []string{"M", "F", "O"} {
		if !IsValidGender(g) {
			t.Fatalf("expected %q to be valid", g)
		}
	}
	for _, g := range []string{"", "m", "male", "X"} {
		if IsValidGender(g) {
			t.Fatalf("expected %q to be invalid", g)
		}
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plain password")
	}
	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword("wrong-pass", hash); err == nil {
		t.Fatal("expected mismatch error for wrong password")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 16 {
		t.Fatalf("expected length 16, got %d", len(a))
	}
	b, err := GenerateRandomString(16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == b {
		t.Fatal("expected two random strings to differ")
	}
}
