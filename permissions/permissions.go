package permissions

import "lmsportal_go/models"

// Object-level checks. Each predicate answers for one loaded record;
// list endpoints apply the matching query scope instead. Deny wins:
// a viewer whose role-linked record is missing fails every write.

// CanManageUsers gates account administration, registration and role
// conversion.
func (v *Viewer) CanManageUsers() bool {
	return v.IsAdmin()
}

// CanModifySubject reports whether the viewer may create, update or
// delete subjects.
func (v *Viewer) CanModifySubject() bool {
	return v.IsAdmin()
}

// CanViewTeacher: every authenticated role may read any teacher.
func (v *Viewer) CanViewTeacher(t *models.Teacher) bool {
	return true
}

// CanModifyTeacher: admin anywhere, a teacher only their own record.
func (v *Viewer) CanModifyTeacher(t *models.Teacher) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role == models.RoleTeacher && v.Teacher != nil {
		return v.Teacher.ID == t.ID
	}
	return false
}

// CanCreateTeacher: teacher records are created by admins (registration
// or conversion), never self-service.
func (v *Viewer) CanCreateTeacher() bool {
	return v.IsAdmin()
}

func (v *Viewer) CanViewClass(class *models.Class) bool {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return true
	case models.RoleTeacher:
		return v.TeachesClass(class.ID)
	case models.RoleStudent:
		return v.Student != nil && v.Student.ClassID != nil && *v.Student.ClassID == class.ID
	}
	return false
}

func (v *Viewer) CanModifyClass(class *models.Class) bool {
	if v.IsAdmin() {
		return true
	}
	return v.Role == models.RoleTeacher && v.TeachesClass(class.ID)
}

// CanCreateClass: new cohorts are an admin operation.
func (v *Viewer) CanCreateClass() bool {
	return v.IsAdmin()
}

func (v *Viewer) CanViewStudent(s *models.Student) bool {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return true
	case models.RoleTeacher:
		return s.ClassID != nil && v.TeachesClass(*s.ClassID)
	case models.RoleStudent:
		return s.UserID == v.User.ID
	}
	return false
}

func (v *Viewer) CanModifyStudent(s *models.Student) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role == models.RoleTeacher {
		return s.ClassID != nil && v.TeachesClass(*s.ClassID)
	}
	return false
}

// CanCreateStudent: student records are created by admins (registration
// or conversion).
func (v *Viewer) CanCreateStudent() bool {
	return v.IsAdmin()
}

// CanViewAssignment requires a loaded record; teacher access follows
// authorship or the assigned class.
func (v *Viewer) CanViewAssignment(a *models.Assignment) bool {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return true
	case models.RoleTeacher:
		if v.Teacher != nil && a.TeacherID == v.Teacher.ID {
			return true
		}
		return v.TeachesClass(a.ClassID)
	case models.RoleStudent:
		return v.Student != nil && v.Student.ClassID != nil && *v.Student.ClassID == a.ClassID
	}
	return false
}

func (v *Viewer) CanModifyAssignment(a *models.Assignment) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role != models.RoleTeacher {
		return false
	}
	if v.Teacher != nil && a.TeacherID == v.Teacher.ID {
		return true
	}
	return v.TeachesClass(a.ClassID)
}

// CanCreateAssignment checks the target class before the row exists.
func (v *Viewer) CanCreateAssignment(classID uint) bool {
	if v.IsAdmin() {
		return true
	}
	return v.Role == models.RoleTeacher && v.TeachesClass(classID)
}

// CanViewGrade requires the Assignment relationship to be populated.
func (v *Viewer) CanViewGrade(g *models.Grade) bool {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return true
	case models.RoleTeacher:
		if v.Teacher != nil && g.GradedByID == v.Teacher.ID {
			return true
		}
		return v.TeachesClass(g.Assignment.ClassID)
	case models.RoleStudent:
		return v.Student != nil && g.StudentID == v.Student.ID
	}
	return false
}

// CanModifyGrade requires the Assignment relationship to be populated.
func (v *Viewer) CanModifyGrade(g *models.Grade) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role != models.RoleTeacher {
		return false
	}
	if v.Teacher != nil && g.GradedByID == v.Teacher.ID {
		return true
	}
	return v.TeachesClass(g.Assignment.ClassID)
}

// CanCreateGrade checks against the assignment being graded.
func (v *Viewer) CanCreateGrade(a *models.Assignment) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role != models.RoleTeacher {
		return false
	}
	if v.Teacher != nil && a.TeacherID == v.Teacher.ID {
		return true
	}
	return v.TeachesClass(a.ClassID)
}

func (v *Viewer) CanViewAttendance(a *models.Attendance) bool {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return true
	case models.RoleTeacher:
		if v.Teacher != nil && a.MarkedByID == v.Teacher.ID {
			return true
		}
		return v.TeachesClass(a.ClassID)
	case models.RoleStudent:
		return v.Student != nil && a.StudentID == v.Student.ID
	}
	return false
}

func (v *Viewer) CanModifyAttendance(a *models.Attendance) bool {
	if v.IsAdmin() {
		return true
	}
	if v.Role != models.RoleTeacher {
		return false
	}
	if v.Teacher != nil && a.MarkedByID == v.Teacher.ID {
		return true
	}
	return v.TeachesClass(a.ClassID)
}

// CanCreateAttendance checks the class being marked.
func (v *Viewer) CanCreateAttendance(classID uint) bool {
	if v.IsAdmin() {
		return true
	}
	return v.Role == models.RoleTeacher && v.TeachesClass(classID)
}
