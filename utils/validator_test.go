package utils

import "testing"

type validatorSample struct {
	StudentID     string `json:"student_id" validate:"required"`
	Gender        string `json:"gender" validate:"omitempty,gender"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
	Status        string `json:"status" validate:"omitempty,attendance_status"`
	Type          string `json:"assignment_type" validate:"omitempty,assignment_type"`
	Role          string `json:"role" validate:"omitempty,role"`
}

func TestValidateStructPasses(t *testing.T) {
	sample := validatorSample{
		StudentID:     "STU001",
		Gender:        "F",
		GuardianEmail: "parent@example.com",
		Status:        "present",
		Type:          "quiz",
		Role:          "teacher",
	}
	if fields := ValidateStruct(sample); fields != nil {
		t.Fatalf("expected no errors, got %v", fields)
	}
}

func TestValidateStructUsesJSONFieldNames(t *testing.T) {
	fields := ValidateStruct(validatorSample{})
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	msg, ok := fields["student_id"]
	if !ok {
		t.Fatalf("expected error keyed by json name, got %v", fields)
	}
	if msg != "student_id is a required field" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidateStructCustomMessages(t *testing.T) {
	tests := []struct {
		name     string
		sample   validatorSample
		field    string
		expected string
	}{
		{
			name:     "gender",
			sample:   validatorSample{StudentID: "STU001", Gender: "male"},
			field:    "gender",
			expected: "must be one of M, F, O",
		},
		{
			name:     "attendance status",
			sample:   validatorSample{StudentID: "STU001", Status: "sick"},
			field:    "status",
			expected: "must be one of present, absent, late, excused",
		},
		{
			name:     "assignment type",
			sample:   validatorSample{StudentID: "STU001", Type: "lab"},
			field:    "assignment_type",
			expected: "must be one of homework, project, quiz, test, exam",
		},
		{
			name:     "role",
			sample:   validatorSample{StudentID: "STU001", Role: "owner"},
			field:    "role",
			expected: "must be one of admin, teacher, student, staff",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			fields := ValidateStruct(tc.sample)
			if fields == nil {
				t.Fatal("expected validation errors")
			}
			if got := fields[tc.field]; got != tc.expected {
				t.Fatalf("expected %q, got %q (all: %v)", tc.expected, got, fields)
			}
		})
	}
}

func TestValidateStructInvalidEmail(t *testing.T) {
	fields := ValidateStruct(validatorSample{StudentID: "STU001", GuardianEmail: "not-an-email"})
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["guardian_email"]; !ok {
		t.Fatalf("expected guardian_email error, got %v", fields)
	}
}
