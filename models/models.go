package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Role is the closed set of account roles. Every User carries exactly one
// Role through its Profile; permission checks switch over this type.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// Roles lists every valid role, in display order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleStaff}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleStaff:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User model
type User struct {
	BaseModel
	Username  string `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password  string `json:"-" gorm:"size:255;not null"`
	Email     string `json:"email" gorm:"size:255;uniqueIndex"`
	FirstName string `json:"first_name" gorm:"size:100"`
	LastName  string `json:"last_name" gorm:"size:100"`
	IsActive  bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	Teacher *Teacher `json:"teacher,omitempty" gorm:"foreignKey:UserID"`
	Student *Student `json:"student,omitempty" gorm:"foreignKey:UserID"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// AfterCreate attaches the default Profile so every account carries a role
// from the moment it exists. Registration overwrites the role in the same
// transaction when a different one was requested.
func (u *User) AfterCreate(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&Profile{}).Where("user_id = ?", u.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(&Profile{UserID: u.ID, Role: RoleStudent}).Error
}

// Profile model carrying the role and contact details for a User
type Profile struct {
	BaseModel
	UserID      uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Role        Role       `json:"role" gorm:"size:20;not null;default:'student';type:enum('admin','teacher','student','staff')"`
	PhoneNumber string     `json:"phone_number" gorm:"size:15"`
	Address     string     `json:"address" gorm:"type:text"`
	DateOfBirth *time.Time `json:"date_of_birth"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Subject model
type Subject struct {
	BaseModel
	Name        string `json:"name" gorm:"size:100;not null;uniqueIndex"`
	Code        string `json:"code" gorm:"size:10;not null;uniqueIndex"`
	Description string `json:"description" gorm:"type:text"`
	Credits     uint   `json:"credits" gorm:"default:1"`
}

// Teacher model
type Teacher struct {
	BaseModel
	UserID          uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	EmployeeID      string    `json:"employee_id" gorm:"size:20;not null;uniqueIndex"`
	Department      string    `json:"department" gorm:"size:100;not null"`
	Qualification   string    `json:"qualification" gorm:"size:200;not null"`
	ExperienceYears uint      `json:"experience_years" gorm:"default:0"`
	Specialization  string    `json:"specialization" gorm:"size:200"`
	HireDate        time.Time `json:"hire_date" gorm:"type:date;not null"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	User     User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Subjects []Subject `json:"subjects,omitempty" gorm:"many2many:teacher_subjects"`
	Classes  []Class   `json:"classes,omitempty" gorm:"foreignKey:TeacherID"`
}

// Class model: one cohort of students for an academic year
type Class struct {
	BaseModel
	Name         string `json:"name" gorm:"size:100;not null"`
	GradeLevel   string `json:"grade_level" gorm:"size:20;not null;uniqueIndex:idx_class_cohort"`
	Section      string `json:"section" gorm:"size:10;not null;uniqueIndex:idx_class_cohort"`
	AcademicYear string `json:"academic_year" gorm:"size:20;not null;uniqueIndex:idx_class_cohort"`
	TeacherID    *uint  `json:"teacher_id"`
	RoomNumber   string `json:"room_number" gorm:"size:20"`
	MaxStudents  uint   `json:"max_students" gorm:"default:30"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`

	// Relationships
	Teacher  *Teacher  `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
	Subjects []Subject `json:"subjects,omitempty" gorm:"many2many:class_subjects"`
	Students []Student `json:"students,omitempty" gorm:"foreignKey:ClassID"`
}

// Student model
type Student struct {
	BaseModel
	UserID            uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	StudentID         string     `json:"student_id" gorm:"size:20;not null;uniqueIndex"`
	RollNumber        string     `json:"roll_number" gorm:"size:20;not null;uniqueIndex:idx_roll_per_class"`
	ClassID           *uint      `json:"class_id" gorm:"uniqueIndex:idx_roll_per_class"`
	Gender            string     `json:"gender" gorm:"size:1;not null;type:enum('M','F','O')"` // M, F, O
	GuardianName      string     `json:"guardian_name" gorm:"size:200;not null"`
	GuardianPhone     string     `json:"guardian_phone" gorm:"size:15;not null"`
	GuardianEmail     string     `json:"guardian_email" gorm:"size:255"`
	EmergencyContact  string     `json:"emergency_contact" gorm:"size:15"`
	AdmissionDate     time.Time  `json:"admission_date" gorm:"type:date;not null"`
	BloodGroup        string     `json:"blood_group" gorm:"size:5"`
	MedicalConditions string     `json:"medical_conditions" gorm:"type:text"`
	IsActive          bool       `json:"is_active" gorm:"default:true"`

	// Relationships
	User  User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Class *Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

// Assignment model
type Assignment struct {
	BaseModel
	Title          string    `json:"title" gorm:"size:200;not null"`
	Description    string    `json:"description" gorm:"type:text"`
	SubjectID      uint      `json:"subject_id" gorm:"not null"`
	ClassID        uint      `json:"class_id" gorm:"not null"`
	TeacherID      uint      `json:"teacher_id" gorm:"not null"`
	AssignmentType string    `json:"assignment_type" gorm:"size:20;not null;default:'homework';type:enum('homework','project','quiz','test','exam')"` // homework, project, quiz, test, exam
	TotalMarks     uint      `json:"total_marks" gorm:"not null"`
	DueDate        time.Time `json:"due_date" gorm:"not null"`
	Instructions   string    `json:"instructions" gorm:"type:text"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`

	// Relationships
	Subject Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Class   Class   `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Teacher Teacher `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

// Grade persistence errors surfaced by the BeforeSave hook.
var (
	ErrAssignmentZeroMarks = errors.New("assignment total_marks must be greater than zero")
	ErrMarksExceedTotal    = errors.New("marks_obtained cannot exceed assignment total_marks")
)

// Grade model: a student's scored outcome for one assignment
type Grade struct {
	BaseModel
	StudentID     uint       `json:"student_id" gorm:"not null;uniqueIndex:idx_grade_once"`
	AssignmentID  uint       `json:"assignment_id" gorm:"not null;uniqueIndex:idx_grade_once"`
	MarksObtained float64    `json:"marks_obtained" gorm:"type:decimal(5,2);not null"`
	GradeLetter   string     `json:"grade_letter" gorm:"size:2"`
	Comments      string     `json:"comments" gorm:"type:text"`
	SubmittedDate *time.Time `json:"submitted_date"`
	GradedDate    time.Time  `json:"graded_date" gorm:"autoCreateTime"`
	GradedByID    uint       `json:"graded_by_id" gorm:"not null"`

	// Relationships
	Student    Student    `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Assignment Assignment `json:"assignment,omitempty" gorm:"foreignKey:AssignmentID"`
	GradedBy   Teacher    `json:"graded_by,omitempty" gorm:"foreignKey:GradedByID"`
}

// Percentage returns marks_obtained relative to the assignment total.
// The Assignment relationship must be populated.
func (g *Grade) Percentage() float64 {
	if g.Assignment.TotalMarks == 0 {
		return 0
	}
	return g.MarksObtained / float64(g.Assignment.TotalMarks) * 100
}

// LetterForPercentage maps a percentage onto the fixed letter-grade table.
func LetterForPercentage(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C+"
	case percentage >= 40:
		return "C"
	}
	return "F"
}

// BeforeSave recomputes the letter grade on every persist so it always
// reflects the current marks_obtained/total_marks pair. A zero total is
// rejected here rather than propagating a division fault.
func (g *Grade) BeforeSave(tx *gorm.DB) error {
	total := g.Assignment.TotalMarks
	if total == 0 {
		var assignment Assignment
		if err := tx.Select("total_marks").First(&assignment, g.AssignmentID).Error; err != nil {
			return err
		}
		total = assignment.TotalMarks
	}
	if total == 0 {
		return ErrAssignmentZeroMarks
	}
	if g.MarksObtained > float64(total) {
		return ErrMarksExceedTotal
	}
	g.GradeLetter = LetterForPercentage(g.MarksObtained / float64(total) * 100)
	return nil
}

// Attendance model: one presence record per student, class, subject and day
type Attendance struct {
	BaseModel
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_attendance_once"`
	ClassID    uint      `json:"class_id" gorm:"not null;uniqueIndex:idx_attendance_once"`
	SubjectID  uint      `json:"subject_id" gorm:"not null;uniqueIndex:idx_attendance_once"`
	Date       time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_attendance_once"`
	Status     string    `json:"status" gorm:"size:10;not null;default:'present';type:enum('present','absent','late','excused')"` // present, absent, late, excused
	MarkedByID uint      `json:"marked_by_id" gorm:"not null"`
	Notes      string    `json:"notes" gorm:"type:text"`
	MarkedAt   time.Time `json:"marked_at" gorm:"autoCreateTime"`

	// Relationships
	Student  Student `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	Class    Class   `json:"class,omitempty" gorm:"foreignKey:ClassID"`
	Subject  Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	MarkedBy Teacher `json:"marked_by,omitempty" gorm:"foreignKey:MarkedByID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}

// ReportExport model for tracking generated gradebook exports
type ReportExport struct {
	BaseModel
	RequestedByID uint   `json:"requested_by_id" gorm:"not null"`
	ClassID       uint   `json:"class_id" gorm:"not null"`
	FileName      string `json:"file_name" gorm:"size:255;not null"`
	S3Key         string `json:"s3_key" gorm:"size:500"`
	FileSize      int64  `json:"file_size"`
	Status        string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error         string `json:"error" gorm:"type:text"`

	// Relationships
	RequestedBy User  `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
	Class       Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}
