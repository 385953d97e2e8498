package permissions

import (
	"testing"

	"lmsportal_go/models"
)

func adminViewer() *Viewer {
	return &Viewer{
		User: &models.User{BaseModel: models.BaseModel{ID: 1}},
		Role: models.RoleAdmin,
	}
}

func staffViewer() *Viewer {
	return &Viewer{
		User: &models.User{BaseModel: models.BaseModel{ID: 2}},
		Role: models.RoleStaff,
	}
}

func teacherViewer(teacherID uint, classIDs ...uint) *Viewer {
	return &Viewer{
		User:     &models.User{BaseModel: models.BaseModel{ID: 100 + teacherID}},
		Role:     models.RoleTeacher,
		Teacher:  &models.Teacher{BaseModel: models.BaseModel{ID: teacherID}},
		ClassIDs: classIDs,
	}
}

func studentViewer(studentID, userID uint, classID *uint) *Viewer {
	return &Viewer{
		User: &models.User{BaseModel: models.BaseModel{ID: userID}},
		Role: models.RoleStudent,
		Student: &models.Student{
			BaseModel: models.BaseModel{ID: studentID},
			UserID:    userID,
			ClassID:   classID,
		},
	}
}

func uintPtr(v uint) *uint { return &v }

func TestTeachesClass(t *testing.T) {
	v := teacherViewer(1, 4, 5)
	if !v.TeachesClass(4) || !v.TeachesClass(5) {
		t.Fatal("expected assigned classes to match")
	}
	if v.TeachesClass(6) {
		t.Fatal("expected unassigned class to not match")
	}
}

func TestCanManageUsers(t *testing.T) {
	if !adminViewer().CanManageUsers() {
		t.Fatal("admin must manage users")
	}
	for _, v := range []*Viewer{staffViewer(), teacherViewer(1, 4), studentViewer(3, 30, uintPtr(4))} {
		if v.CanManageUsers() {
			t.Fatalf("role %s must not manage users", v.Role)
		}
	}
}

func TestCanModifySubject(t *testing.T) {
	if !adminViewer().CanModifySubject() {
		t.Fatal("admin must modify subjects")
	}
	if teacherViewer(1, 4).CanModifySubject() {
		t.Fatal("teacher must not modify subjects")
	}
	if staffViewer().CanModifySubject() {
		t.Fatal("staff must not modify subjects")
	}
}

func TestCanModifyTeacher(t *testing.T) {
	target := &models.Teacher{BaseModel: models.BaseModel{ID: 2}}

	if !adminViewer().CanModifyTeacher(target) {
		t.Fatal("admin must modify any teacher")
	}
	if !teacherViewer(2, 4).CanModifyTeacher(target) {
		t.Fatal("teacher must modify own record")
	}
	if teacherViewer(1, 4).CanModifyTeacher(target) {
		t.Fatal("teacher must not modify another teacher")
	}
	if staffViewer().CanModifyTeacher(target) {
		t.Fatal("staff must not modify teachers")
	}
}

func TestCanViewClass(t *testing.T) {
	class := &models.Class{BaseModel: models.BaseModel{ID: 4}}

	tests := []struct {
		name     string
		viewer   *Viewer
		expected bool
	}{
		{name: "admin", viewer: adminViewer(), expected: true},
		{name: "staff", viewer: staffViewer(), expected: true},
		{name: "assigned teacher", viewer: teacherViewer(1, 4), expected: true},
		{name: "other teacher", viewer: teacherViewer(1, 5), expected: false},
		{name: "enrolled student", viewer: studentViewer(3, 30, uintPtr(4)), expected: true},
		{name: "other student", viewer: studentViewer(3, 30, uintPtr(5)), expected: false},
		{name: "unenrolled student", viewer: studentViewer(3, 30, nil), expected: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.viewer.CanViewClass(class); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestCanModifyStudent(t *testing.T) {
	student := &models.Student{BaseModel: models.BaseModel{ID: 3}, ClassID: uintPtr(4)}

	if !adminViewer().CanModifyStudent(student) {
		t.Fatal("admin must modify students")
	}
	if !teacherViewer(1, 4).CanModifyStudent(student) {
		t.Fatal("class teacher must modify enrolled students")
	}
	if teacherViewer(1, 5).CanModifyStudent(student) {
		t.Fatal("unrelated teacher must not modify students")
	}
	if staffViewer().CanModifyStudent(student) {
		t.Fatal("staff must not modify students")
	}
	if studentViewer(3, 30, uintPtr(4)).CanModifyStudent(student) {
		t.Fatal("students must not modify student records")
	}
}

func TestCanCreateAssignment(t *testing.T) {
	if !adminViewer().CanCreateAssignment(4) {
		t.Fatal("admin must create assignments anywhere")
	}
	if !teacherViewer(1, 4).CanCreateAssignment(4) {
		t.Fatal("assigned teacher must create assignments for own class")
	}
	if teacherViewer(1, 5).CanCreateAssignment(4) {
		t.Fatal("teacher must not create assignments for foreign class")
	}
	if staffViewer().CanCreateAssignment(4) {
		t.Fatal("staff must not create assignments")
	}
	if studentViewer(3, 30, uintPtr(4)).CanCreateAssignment(4) {
		t.Fatal("students must not create assignments")
	}
}

// A teacher account whose linked record is missing fails every write.
func TestTeacherWithoutRecordDeniedWrites(t *testing.T) {
	v := &Viewer{
		User: &models.User{BaseModel: models.BaseModel{ID: 50}},
		Role: models.RoleTeacher,
	}
	if v.CanCreateAssignment(4) {
		t.Fatal("unlinked teacher must not create assignments")
	}
	if v.CanCreateAttendance(4) {
		t.Fatal("unlinked teacher must not mark attendance")
	}
	if v.CanModifyGrade(&models.Grade{GradedByID: 1}) {
		t.Fatal("unlinked teacher must not modify grades")
	}
	if _, ok := v.TeacherID(); ok {
		t.Fatal("unlinked teacher must report no teacher ID")
	}
}

func TestCanViewAssignment(t *testing.T) {
	assignment := &models.Assignment{
		BaseModel: models.BaseModel{ID: 5},
		ClassID:   4,
		TeacherID: 1,
	}

	if !teacherViewer(1).CanViewAssignment(assignment) {
		t.Fatal("author must view own assignment even off-class")
	}
	if !teacherViewer(2, 4).CanViewAssignment(assignment) {
		t.Fatal("class teacher must view class assignments")
	}
	if teacherViewer(2, 5).CanViewAssignment(assignment) {
		t.Fatal("unrelated teacher must not view assignment")
	}
	if !studentViewer(3, 30, uintPtr(4)).CanViewAssignment(assignment) {
		t.Fatal("enrolled student must view class assignments")
	}
	if studentViewer(3, 30, uintPtr(9)).CanViewAssignment(assignment) {
		t.Fatal("other student must not view assignment")
	}
}

func TestCanViewGrade(t *testing.T) {
	grade := &models.Grade{
		StudentID:  3,
		GradedByID: 1,
		Assignment: models.Assignment{BaseModel: models.BaseModel{ID: 5}, ClassID: 4},
	}

	if !adminViewer().CanViewGrade(grade) {
		t.Fatal("admin must view grades")
	}
	if !staffViewer().CanViewGrade(grade) {
		t.Fatal("staff must view grades")
	}
	if !teacherViewer(1).CanViewGrade(grade) {
		t.Fatal("grading teacher must view the grade")
	}
	if !teacherViewer(2, 4).CanViewGrade(grade) {
		t.Fatal("class teacher must view class grades")
	}
	if teacherViewer(2, 9).CanViewGrade(grade) {
		t.Fatal("unrelated teacher must not view the grade")
	}
	if !studentViewer(3, 30, uintPtr(4)).CanViewGrade(grade) {
		t.Fatal("student must view own grade")
	}
	if studentViewer(8, 80, uintPtr(4)).CanViewGrade(grade) {
		t.Fatal("student must not view another student's grade")
	}
}

func TestCanModifyGrade(t *testing.T) {
	grade := &models.Grade{
		StudentID:  3,
		GradedByID: 1,
		Assignment: models.Assignment{ClassID: 4},
	}

	if !teacherViewer(1).CanModifyGrade(grade) {
		t.Fatal("grading teacher must modify the grade")
	}
	if !teacherViewer(2, 4).CanModifyGrade(grade) {
		t.Fatal("class teacher must modify class grades")
	}
	if teacherViewer(2, 9).CanModifyGrade(grade) {
		t.Fatal("unrelated teacher must not modify the grade")
	}
	if studentViewer(3, 30, uintPtr(4)).CanModifyGrade(grade) {
		t.Fatal("students must never modify grades")
	}
	if staffViewer().CanModifyGrade(grade) {
		t.Fatal("staff must not modify grades")
	}
}

func TestCanModifyAttendance(t *testing.T) {
	record := &models.Attendance{
		StudentID:  3,
		ClassID:    4,
		MarkedByID: 1,
	}

	if !teacherViewer(1).CanModifyAttendance(record) {
		t.Fatal("marking teacher must modify the record")
	}
	if !teacherViewer(2, 4).CanModifyAttendance(record) {
		t.Fatal("class teacher must modify class attendance")
	}
	if teacherViewer(2, 9).CanModifyAttendance(record) {
		t.Fatal("unrelated teacher must not modify attendance")
	}
	if studentViewer(3, 30, uintPtr(4)).CanModifyAttendance(record) {
		t.Fatal("students must never modify attendance")
	}
}

func TestCanViewAttendanceAsStudent(t *testing.T) {
	own := &models.Attendance{StudentID: 3, ClassID: 4}
	other := &models.Attendance{StudentID: 8, ClassID: 4}

	v := studentViewer(3, 30, uintPtr(4))
	if !v.CanViewAttendance(own) {
		t.Fatal("student must view own attendance")
	}
	if v.CanViewAttendance(other) {
		t.Fatal("student must not view classmates' attendance")
	}
}
