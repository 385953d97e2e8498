package permissions

import (
	"errors"

	"lmsportal_go/models"

	"gorm.io/gorm"
)

// Viewer is the authorization context for one request: the account, its
// role, and the linked teacher/student record when the role implies one.
// Built once per request and passed explicitly to every predicate and
// query scope.
type Viewer struct {
	User    *models.User
	Role    models.Role
	Teacher *models.Teacher // set when a teacher record exists for the account
	Student *models.Student // set when a student record exists for the account

	// ClassIDs holds the IDs of classes assigned to the viewer's teacher
	// record. Empty for non-teachers and for teachers with no classes.
	ClassIDs []uint
}

// NewViewer loads the authorization context for user. A teacher or student
// role whose linked record is missing yields a Viewer that denies writes
// rather than an error.
func NewViewer(db *gorm.DB, user *models.User) (*Viewer, error) {
	v := &Viewer{User: user, Role: models.RoleStudent}

	if user.Profile != nil {
		v.Role = user.Profile.Role
	} else {
		var profile models.Profile
		err := db.Where("user_id = ?", user.ID).First(&profile).Error
		if err == nil {
			v.Role = profile.Role
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	switch v.Role {
	case models.RoleTeacher:
		var teacher models.Teacher
		err := db.Where("user_id = ?", user.ID).First(&teacher).Error
		if err == nil {
			v.Teacher = &teacher
			if err := db.Model(&models.Class{}).Where("teacher_id = ?", teacher.ID).Pluck("id", &v.ClassIDs).Error; err != nil {
				return nil, err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	case models.RoleStudent:
		var student models.Student
		err := db.Where("user_id = ?", user.ID).First(&student).Error
		if err == nil {
			v.Student = &student
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return v, nil
}

// IsAdmin reports whether the viewer holds the admin role
func (v *Viewer) IsAdmin() bool {
	return v.Role == models.RoleAdmin
}

// IsStaff reports whether the viewer holds the staff role
func (v *Viewer) IsStaff() bool {
	return v.Role == models.RoleStaff
}

// TeacherID returns the viewer's teacher record ID, if any
func (v *Viewer) TeacherID() (uint, bool) {
	if v.Teacher == nil {
		return 0, false
	}
	return v.Teacher.ID, true
}

// StudentID returns the viewer's student record ID, if any
func (v *Viewer) StudentID() (uint, bool) {
	if v.Student == nil {
		return 0, false
	}
	return v.Student.ID, true
}

// TeachesClass reports whether classID is one of the viewer's assigned classes
func (v *Viewer) TeachesClass(classID uint) bool {
	for _, id := range v.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}
