package controllers

import (
	"errors"
	"strconv"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/permissions"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TeacherController struct{}

// GetTeachers returns teacher list rows with pagination
func (tc *TeacherController) GetTeachers(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var teachers []models.Teacher
	var total int64

	query := permissions.ScopeTeachers(viewer, database.DB.Model(&models.Teacher{}))

	// Filter by department if specified
	if department := c.Query("department"); department != "" {
		query = query.Where("department = ?", department)
	}

	// Filter by active state
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	query.Count(&total)

	if err := query.Preload("User").
		Offset(offset).Limit(limit).Find(&teachers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch teachers",
		})
	}

	rows := make([]utils.TeacherListDTO, 0, len(teachers))
	for _, teacher := range teachers {
		rows = append(rows, utils.ToTeacherListDTO(teacher))
	}

	return c.JSON(fiber.Map{
		"teachers": rows,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetTeacher returns a specific teacher with relationships
func (tc *TeacherController) GetTeacher(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.Teacher
	if err := database.DB.Preload("User").Preload("Subjects").Preload("Classes").
		First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
		})
	}

	return c.JSON(fiber.Map{
		"teacher": teacher,
	})
}

// TeacherRequest is the write shape for teacher records
type TeacherRequest struct {
	UserID          uint   `json:"user_id" validate:"required"`
	EmployeeID      string `json:"employee_id" validate:"required,max=20"`
	Department      string `json:"department" validate:"required,max=100"`
	Qualification   string `json:"qualification" validate:"required,max=200"`
	ExperienceYears uint   `json:"experience_years"`
	Specialization  string `json:"specialization"`
	HireDate        string `json:"hire_date" validate:"required"`
	SubjectIDs      []uint `json:"subject_ids"`
}

// CreateTeacher creates a teacher record for an existing user (admin only)
func (tc *TeacherController) CreateTeacher(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}
	if !viewer.CanCreateTeacher() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req TeacherRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		return validationError(c, map[string]string{"hire_date": "hire_date must be in YYYY-MM-DD format"})
	}

	// Check the user exists
	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		return validationError(c, map[string]string{"user_id": "user does not exist"})
	}

	// Check a teacher record doesn't already exist
	var existing models.Teacher
	if err := database.DB.Where("user_id = ?", req.UserID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Teacher record already exists for this user",
		})
	}

	teacher := models.Teacher{
		UserID:          req.UserID,
		EmployeeID:      req.EmployeeID,
		Department:      req.Department,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Specialization:  req.Specialization,
		HireDate:        hireDate,
		IsActive:        true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&teacher).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", req.UserID).Update("role", models.RoleTeacher).Error; err != nil {
			return err
		}
		if len(req.SubjectIDs) > 0 {
			var subjects []models.Subject
			if err := tx.Where("id IN ?", req.SubjectIDs).Find(&subjects).Error; err != nil {
				return err
			}
			if len(subjects) != len(req.SubjectIDs) {
				return gorm.ErrRecordNotFound
			}
			if err := tx.Model(&teacher).Association("Subjects").Append(&subjects); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Employee ID already exists",
			})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError(c, map[string]string{"subject_ids": "one or more subjects do not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create teacher",
		})
	}

	database.DB.Preload("User").Preload("Subjects").First(&teacher, teacher.ID)

	// Log activity
	middleware.LogActivity(c, "CREATE", "teachers", teacher.ID, teacher)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Teacher created successfully",
		"teacher": teacher,
	})
}

// UpdateTeacher updates a teacher record (admin, or the teacher themself)
func (tc *TeacherController) UpdateTeacher(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.Teacher
	if err := database.DB.First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
		})
	}

	if !viewer.CanModifyTeacher(&teacher) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		EmployeeID      string `json:"employee_id"`
		Department      string `json:"department"`
		Qualification   string `json:"qualification"`
		ExperienceYears *uint  `json:"experience_years"`
		Specialization  string `json:"specialization"`
		HireDate        string `json:"hire_date"`
		IsActive        *bool  `json:"is_active"`
		SubjectIDs      []uint `json:"subject_ids"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if updateData.EmployeeID != "" {
		// Only admins may reassign employee IDs
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		updates["employee_id"] = updateData.EmployeeID
	}
	if updateData.Department != "" {
		updates["department"] = updateData.Department
	}
	if updateData.Qualification != "" {
		updates["qualification"] = updateData.Qualification
	}
	if updateData.ExperienceYears != nil {
		updates["experience_years"] = *updateData.ExperienceYears
	}
	if updateData.Specialization != "" {
		updates["specialization"] = updateData.Specialization
	}
	if updateData.HireDate != "" {
		hireDate, err := parseDate(updateData.HireDate)
		if err != nil {
			return validationError(c, map[string]string{"hire_date": "hire_date must be in YYYY-MM-DD format"})
		}
		updates["hire_date"] = hireDate
	}
	if updateData.IsActive != nil {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		updates["is_active"] = *updateData.IsActive
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&teacher).Updates(updates).Error; err != nil {
				return err
			}
		}
		if updateData.SubjectIDs != nil {
			var subjects []models.Subject
			if err := tx.Where("id IN ?", updateData.SubjectIDs).Find(&subjects).Error; err != nil {
				return err
			}
			if len(subjects) != len(updateData.SubjectIDs) {
				return gorm.ErrRecordNotFound
			}
			if err := tx.Model(&teacher).Association("Subjects").Replace(&subjects); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Employee ID already exists",
			})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError(c, map[string]string{"subject_ids": "one or more subjects do not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update teacher",
		})
	}

	database.DB.Preload("User").Preload("Subjects").First(&teacher, teacher.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "teachers", teacher.ID, updates)

	return c.JSON(fiber.Map{
		"message": "Teacher updated successfully",
		"teacher": teacher,
	})
}

// DeleteTeacher deactivates a teacher; ?hard=true removes the row (admin only)
func (tc *TeacherController) DeleteTeacher(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}
	if !viewer.IsAdmin() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.Teacher
	if err := database.DB.First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
		})
	}

	if c.Query("hard") == "true" {
		if err := database.DB.Delete(&teacher).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete teacher",
			})
		}
	} else {
		if err := database.DB.Model(&teacher).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate teacher",
			})
		}
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "teachers", teacher.ID, fiber.Map{
		"employee_id": teacher.EmployeeID,
		"hard":        c.Query("hard") == "true",
	})

	return c.JSON(fiber.Map{
		"message": "Teacher deleted successfully",
	})
}

// GetTeacherClasses returns the classes assigned to a teacher, narrowed
// to what the viewer may see
func (tc *TeacherController) GetTeacherClasses(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.Teacher
	if err := database.DB.First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
		})
	}

	var classes []models.Class
	query := permissions.ScopeClasses(viewer, database.DB.Model(&models.Class{})).
		Where("teacher_id = ?", teacher.ID)
	if err := query.Preload("Teacher").Preload("Teacher.User").Preload("Students").
		Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	rows := make([]utils.ClassDTO, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, utils.ToClassDTO(class))
	}

	return c.JSON(fiber.Map{
		"classes": rows,
		"total":   len(rows),
	})
}

// GetTeacherStudents returns the students enrolled in a teacher's classes,
// narrowed to what the viewer may see
func (tc *TeacherController) GetTeacherStudents(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid teacher ID",
		})
	}

	var teacher models.Teacher
	if err := database.DB.First(&teacher, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Teacher not found",
		})
	}

	var classIDs []uint
	if err := database.DB.Model(&models.Class{}).Where("teacher_id = ?", teacher.ID).
		Pluck("id", &classIDs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch classes",
		})
	}

	var students []models.Student
	if len(classIDs) > 0 {
		query := permissions.ScopeStudents(viewer, database.DB.Model(&models.Student{})).
			Where("class_id IN ?", classIDs)
		if err := query.Preload("User").Preload("Class").Find(&students).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to fetch students",
			})
		}
	}

	rows := make([]utils.StudentListDTO, 0, len(students))
	for _, student := range students {
		rows = append(rows, utils.ToStudentListDTO(student))
	}

	return c.JSON(fiber.Map{
		"students": rows,
		"total":    len(rows),
	})
}
