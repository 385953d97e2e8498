package utils

import (
	"time"

	"lmsportal_go/models"
)

// Compact representations used across APIs
type UserShort struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name"`
}

func ToUserShort(u models.User) UserShort {
	return UserShort{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
	}
}

type SubjectShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

func ToSubjectShort(s models.Subject) SubjectShort {
	return SubjectShort{ID: s.ID, Name: s.Name, Code: s.Code}
}

// TeacherListDTO is the flat row shape for teacher listings.
type TeacherListDTO struct {
	ID         uint   `json:"id"`
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	IsActive   bool   `json:"is_active"`
}

// ToTeacherListDTO maps a models.Teacher to its list row.
// Assumptions: caller has preloaded User.
func ToTeacherListDTO(t models.Teacher) TeacherListDTO {
	return TeacherListDTO{
		ID:         t.ID,
		EmployeeID: t.EmployeeID,
		FullName:   t.User.FullName(),
		Department: t.Department,
		IsActive:   t.IsActive,
	}
}

// StudentListDTO is the flat row shape for student listings.
type StudentListDTO struct {
	ID         uint   `json:"id"`
	StudentID  string `json:"student_id"`
	RollNumber string `json:"roll_number"`
	FullName   string `json:"full_name"`
	ClassName  string `json:"class_name"`
	IsActive   bool   `json:"is_active"`
}

// ToStudentListDTO maps a models.Student to its list row.
// Assumptions: caller has preloaded User and Class.
func ToStudentListDTO(s models.Student) StudentListDTO {
	className := ""
	if s.Class != nil {
		className = s.Class.Name
	}
	return StudentListDTO{
		ID:         s.ID,
		StudentID:  s.StudentID,
		RollNumber: s.RollNumber,
		FullName:   s.User.FullName(),
		ClassName:  className,
		IsActive:   s.IsActive,
	}
}

// ClassDTO augments a class with its teacher name and student count.
type ClassDTO struct {
	models.Class
	TeacherName  string `json:"teacher_name"`
	StudentCount int    `json:"student_count"`
}

// ToClassDTO maps a models.Class to its detail shape.
// Assumptions: caller has preloaded Teacher.User and Students.
func ToClassDTO(c models.Class) ClassDTO {
	teacherName := ""
	if c.Teacher != nil {
		teacherName = c.Teacher.User.FullName()
	}
	return ClassDTO{
		Class:        c,
		TeacherName:  teacherName,
		StudentCount: len(c.Students),
	}
}

// AssignmentDTO augments an assignment with display names.
type AssignmentDTO struct {
	models.Assignment
	SubjectName string `json:"subject_name"`
	ClassName   string `json:"class_name"`
	TeacherName string `json:"teacher_name"`
}

// ToAssignmentDTO maps a models.Assignment to its detail shape.
// Assumptions: caller has preloaded Subject, Class and Teacher.User.
func ToAssignmentDTO(a models.Assignment) AssignmentDTO {
	return AssignmentDTO{
		Assignment:  a,
		SubjectName: a.Subject.Name,
		ClassName:   a.Class.Name,
		TeacherName: a.Teacher.User.FullName(),
	}
}

// GradeDTO augments a grade with names, the assignment total and the
// percentage rounded to two decimals.
type GradeDTO struct {
	ID              uint       `json:"id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StudentID       uint       `json:"student_id"`
	StudentName     string     `json:"student_name"`
	AssignmentID    uint       `json:"assignment_id"`
	AssignmentTitle string     `json:"assignment_title"`
	MarksObtained   float64    `json:"marks_obtained"`
	TotalMarks      uint       `json:"total_marks"`
	Percentage      float64    `json:"percentage"`
	GradeLetter     string     `json:"grade_letter"`
	Comments        string     `json:"comments,omitempty"`
	SubmittedDate   *time.Time `json:"submitted_date,omitempty"`
	GradedDate      time.Time  `json:"graded_date"`
	GradedByName    string     `json:"graded_by_name"`
}

// ToGradeDTO maps a models.Grade to its detail shape.
// Assumptions: caller has preloaded Student.User, Assignment and GradedBy.User.
func ToGradeDTO(g models.Grade) GradeDTO {
	return GradeDTO{
		ID:              g.ID,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
		StudentID:       g.StudentID,
		StudentName:     g.Student.User.FullName(),
		AssignmentID:    g.AssignmentID,
		AssignmentTitle: g.Assignment.Title,
		MarksObtained:   g.MarksObtained,
		TotalMarks:      g.Assignment.TotalMarks,
		Percentage:      Round2(g.Percentage()),
		GradeLetter:     g.GradeLetter,
		Comments:        g.Comments,
		SubmittedDate:   g.SubmittedDate,
		GradedDate:      g.GradedDate,
		GradedByName:    g.GradedBy.User.FullName(),
	}
}

// AttendanceDTO augments an attendance record with display names.
type AttendanceDTO struct {
	ID           uint      `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	StudentID    uint      `json:"student_id"`
	StudentName  string    `json:"student_name"`
	ClassID      uint      `json:"class_id"`
	ClassName    string    `json:"class_name"`
	SubjectID    uint      `json:"subject_id"`
	SubjectName  string    `json:"subject_name"`
	Date         string    `json:"date"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	MarkedByName string    `json:"marked_by_name"`
	MarkedAt     time.Time `json:"marked_at"`
}

// ToAttendanceDTO maps a models.Attendance to its detail shape.
// Assumptions: caller has preloaded Student.User, Class, Subject and MarkedBy.User.
func ToAttendanceDTO(a models.Attendance) AttendanceDTO {
	return AttendanceDTO{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		StudentID:    a.StudentID,
		StudentName:  a.Student.User.FullName(),
		ClassID:      a.ClassID,
		ClassName:    a.Class.Name,
		SubjectID:    a.SubjectID,
		SubjectName:  a.Subject.Name,
		Date:         a.Date.Format("2006-01-02"),
		Status:       a.Status,
		Notes:        a.Notes,
		MarkedByName: a.MarkedBy.User.FullName(),
		MarkedAt:     a.MarkedAt,
	}
}

type Sender struct {
	Type string `json:"type"` // "system" or "user"
	ID   *uint  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Recipient struct {
	Type string `json:"type"` // "user", "role", etc.
	ID   uint   `json:"id"`
}

type NotificationDTO struct {
	ID        uint       `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	UserID    uint       `json:"user_id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	User      UserShort  `json:"user"`
	Sender    Sender     `json:"sender"`
	Recipient Recipient  `json:"recipient"`
}

// ToNotificationDTO maps a models.Notification to the compact DTO.
// Assumptions: caller has preloaded User when possible.
func ToNotificationDTO(n models.Notification) NotificationDTO {
	// Sender: models don't track created_by; default to system. If later we add created_by, update mapping.
	sender := Sender{Type: "system", Name: "Notification Service"}
	recipient := Recipient{Type: "user", ID: n.UserID}

	return NotificationDTO{
		ID:        n.ID,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		User:      ToUserShort(n.User),
		Sender:    sender,
		Recipient: recipient,
	}
}
