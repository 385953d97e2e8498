package utils

import (
	"testing"
	"time"

	"lmsportal_go/models"
)

func TestToGradeDTO(t *testing.T) {
	grade := models.Grade{
		BaseModel:     models.BaseModel{ID: 7},
		StudentID:     3,
		AssignmentID:  5,
		MarksObtained: 17,
		GradeLetter:   "A",
		Student: models.Student{
			User: models.User{FirstName: "Jane", LastName: "Doe"},
		},
		Assignment: models.Assignment{
			Title:      "Fractions quiz",
			TotalMarks: 20,
		},
		GradedBy: models.Teacher{
			User: models.User{FirstName: "Alan", LastName: "Grant"},
		},
	}

	dto := ToGradeDTO(grade)

	if dto.StudentName != "Jane Doe" {
		t.Fatalf("unexpected student name: %q", dto.StudentName)
	}
	if dto.AssignmentTitle != "Fractions quiz" {
		t.Fatalf("unexpected assignment title: %q", dto.AssignmentTitle)
	}
	if dto.TotalMarks != 20 {
		t.Fatalf("unexpected total marks: %d", dto.TotalMarks)
	}
	if dto.Percentage != 85 {
		t.Fatalf("expected percentage 85, got %v", dto.Percentage)
	}
	if dto.GradedByName != "Alan Grant" {
		t.Fatalf("unexpected grader name: %q", dto.GradedByName)
	}
}

func TestToStudentListDTOWithoutClass(t *testing.T) {
	student := models.Student{
		BaseModel:  models.BaseModel{ID: 3},
		StudentID:  "STU003",
		RollNumber: "12",
		IsActive:   true,
		User:       models.User{Username: "sam"},
	}

	dto := ToStudentListDTO(student)

	if dto.ClassName != "" {
		t.Fatalf("expected empty class name, got %q", dto.ClassName)
	}
	if dto.FullName != "sam" {
		t.Fatalf("expected username fallback, got %q", dto.FullName)
	}
}

func TestToClassDTO(t *testing.T) {
	class := models.Class{
		BaseModel:    models.BaseModel{ID: 4},
		Name:         "Grade 8 - A",
		GradeLevel:   "8",
		Section:      "A",
		AcademicYear: "2026-2027",
		Teacher: &models.Teacher{
			User: models.User{FirstName: "Ellen", LastName: "Ripley"},
		},
		Students: []models.Student{{}, {}, {}},
	}

	dto := ToClassDTO(class)

	if dto.TeacherName != "Ellen Ripley" {
		t.Fatalf("unexpected teacher name: %q", dto.TeacherName)
	}
	if dto.StudentCount != 3 {
		t.Fatalf("expected 3 students, got %d", dto.StudentCount)
	}
}

func TestToClassDTOWithoutTeacher(t *testing.T) {
	dto := ToClassDTO(models.Class{Name: "Grade 9 - B"})
	if dto.TeacherName != "" {
		t.Fatalf("expected empty teacher name, got %q", dto.TeacherName)
	}
}

func TestToAttendanceDTODateFormat(t *testing.T) {
	record := models.Attendance{
		BaseModel: models.BaseModel{ID: 9},
		StudentID: 3,
		ClassID:   4,
		SubjectID: 2,
		Date:      time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		Status:    "late",
	}

	dto := ToAttendanceDTO(record)

	if dto.Date != "2026-03-09" {
		t.Fatalf("expected wire date 2026-03-09, got %q", dto.Date)
	}
	if dto.Status != "late" {
		t.Fatalf("unexpected status: %q", dto.Status)
	}
}
