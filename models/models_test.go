package models

import (
	"errors"
	"testing"
)

func TestLetterForPercentage(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		expected   string
	}{
		{name: "perfect score", percentage: 100, expected: "A+"},
		{name: "a plus lower bound", percentage: 90, expected: "A+"},
		{name: "just below a plus", percentage: 89.99, expected: "A"},
		{name: "a lower bound", percentage: 80, expected: "A"},
		{name: "just below a", percentage: 79.5, expected: "B+"},
		{name: "b plus lower bound", percentage: 70, expected: "B+"},
		{name: "just below b plus", percentage: 69.99, expected: "B"},
		{name: "b lower bound", percentage: 60, expected: "B"},
		{name: "just below b", percentage: 59.9, expected: "C+"},
		{name: "c plus lower bound", percentage: 50, expected: "C+"},
		{name: "just below c plus", percentage: 49.99, expected: "C"},
		{name: "c lower bound", percentage: 40, expected: "C"},
		{name: "just below c", percentage: 39.99, expected: "F"},
		{name: "zero", percentage: 0, expected: "F"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := LetterForPercentage(tc.percentage); got != tc.expected {
				t.Fatalf("expected %q for %.2f, got %q", tc.expected, tc.percentage, got)
			}
		})
	}
}

func TestGradePercentage(t *testing.T) {
	grade := Grade{
		MarksObtained: 42.5,
		Assignment:    Assignment{TotalMarks: 50},
	}
	if got := grade.Percentage(); got != 85 {
		t.Fatalf("expected 85, got %v", got)
	}
}

func TestGradePercentageZeroTotal(t *testing.T) {
	grade := Grade{MarksObtained: 10}
	if got := grade.Percentage(); got != 0 {
		t.Fatalf("expected 0 for zero total, got %v", got)
	}
}

func TestGradeBeforeSaveComputesLetter(t *testing.T) {
	tests := []struct {
		name     string
		marks    float64
		total    uint
		expected string
	}{
		{name: "top band", marks: 45, total: 50, expected: "A+"},
		{name: "middle band", marks: 13, total: 20, expected: "B"},
		{name: "failing", marks: 3, total: 10, expected: "F"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			grade := Grade{
				MarksObtained: tc.marks,
				Assignment:    Assignment{TotalMarks: tc.total},
			}
			if err := grade.BeforeSave(nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if grade.GradeLetter != tc.expected {
				t.Fatalf("expected letter %q, got %q", tc.expected, grade.GradeLetter)
			}
		})
	}
}

func TestGradeBeforeSaveRejectsExcessMarks(t *testing.T) {
	grade := Grade{
		MarksObtained: 55,
		Assignment:    Assignment{TotalMarks: 50},
	}
	err := grade.BeforeSave(nil)
	if !errors.Is(err, ErrMarksExceedTotal) {
		t.Fatalf("expected ErrMarksExceedTotal, got %v", err)
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range Roles() {
		if !role.Valid() {
			t.Fatalf("expected %q to be valid", role)
		}
	}
	for _, role := range []Role{"", "owner", "ADMIN", "teachers"} {
		if role.Valid() {
			t.Fatalf("expected %q to be invalid", role)
		}
	}
}

func TestUserFullName(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name:     "both names",
			user:     User{Username: "jdoe", FirstName: "Jane", LastName: "Doe"},
			expected: "Jane Doe",
		},
		{
			name:     "first only",
			user:     User{Username: "jdoe", FirstName: "Jane"},
			expected: "Jane",
		},
		{
			name:     "last only",
			user:     User{Username: "jdoe", LastName: "Doe"},
			expected: "Doe",
		},
		{
			name:     "username fallback",
			user:     User{Username: "jdoe"},
			expected: "jdoe",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.FullName(); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
