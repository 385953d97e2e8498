package permissions

import (
	"lmsportal_go/models"

	"gorm.io/gorm"
)

// Query scopes narrow list queries to the rows the viewer may see. Each
// scope mirrors the object-level predicate for the same resource, so a
// record visible through a list is always retrievable and vice versa.

// denyAll produces an empty result set
func denyAll(db *gorm.DB) *gorm.DB {
	return db.Where("1 = 0")
}

// subquery starts a fresh statement on the same connection for use
// inside IN clauses.
func subquery(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true})
}

// ScopeSubjects: the subject catalog is readable by every role.
func ScopeSubjects(v *Viewer, db *gorm.DB) *gorm.DB {
	return db
}

// ScopeTeachers: the teacher directory is readable by every role.
func ScopeTeachers(v *Viewer, db *gorm.DB) *gorm.DB {
	return db
}

func ScopeClasses(v *Viewer, db *gorm.DB) *gorm.DB {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return db
	case models.RoleTeacher:
		if len(v.ClassIDs) == 0 {
			return denyAll(db)
		}
		return db.Where("id IN ?", v.ClassIDs)
	case models.RoleStudent:
		if v.Student == nil || v.Student.ClassID == nil {
			return denyAll(db)
		}
		return db.Where("id = ?", *v.Student.ClassID)
	}
	return denyAll(db)
}

func ScopeStudents(v *Viewer, db *gorm.DB) *gorm.DB {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return db
	case models.RoleTeacher:
		if len(v.ClassIDs) == 0 {
			return denyAll(db)
		}
		return db.Where("class_id IN ?", v.ClassIDs)
	case models.RoleStudent:
		if v.Student == nil {
			return denyAll(db)
		}
		return db.Where("id = ?", v.Student.ID)
	}
	return denyAll(db)
}

func ScopeAssignments(v *Viewer, db *gorm.DB) *gorm.DB {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return db
	case models.RoleTeacher:
		if v.Teacher == nil {
			return denyAll(db)
		}
		if len(v.ClassIDs) == 0 {
			return db.Where("teacher_id = ?", v.Teacher.ID)
		}
		return db.Where("teacher_id = ? OR class_id IN ?", v.Teacher.ID, v.ClassIDs)
	case models.RoleStudent:
		if v.Student == nil || v.Student.ClassID == nil {
			return denyAll(db)
		}
		return db.Where("class_id = ?", *v.Student.ClassID)
	}
	return denyAll(db)
}

func ScopeGrades(v *Viewer, db *gorm.DB) *gorm.DB {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return db
	case models.RoleTeacher:
		if v.Teacher == nil {
			return denyAll(db)
		}
		if len(v.ClassIDs) == 0 {
			return db.Where("graded_by_id = ?", v.Teacher.ID)
		}
		classStudents := subquery(db).Model(&models.Student{}).Select("id").Where("class_id IN ?", v.ClassIDs)
		return db.Where("graded_by_id = ? OR student_id IN (?)", v.Teacher.ID, classStudents)
	case models.RoleStudent:
		if v.Student == nil {
			return denyAll(db)
		}
		return db.Where("student_id = ?", v.Student.ID)
	}
	return denyAll(db)
}

func ScopeAttendance(v *Viewer, db *gorm.DB) *gorm.DB {
	switch v.Role {
	case models.RoleAdmin, models.RoleStaff:
		return db
	case models.RoleTeacher:
		if v.Teacher == nil {
			return denyAll(db)
		}
		if len(v.ClassIDs) == 0 {
			return db.Where("marked_by_id = ?", v.Teacher.ID)
		}
		return db.Where("marked_by_id = ? OR class_id IN ?", v.Teacher.ID, v.ClassIDs)
	case models.RoleStudent:
		if v.Student == nil {
			return denyAll(db)
		}
		return db.Where("student_id = ?", v.Student.ID)
	}
	return denyAll(db)
}
