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

type ClassController struct{}

// GetClasses returns the classes visible to the viewer with pagination
func (cc *ClassController) GetClasses(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var classes []models.Class
	var total int64

	query := permissions.ScopeClasses(viewer, database.DB.Model(&models.Class{}))

	// Filter by grade level if specified
	if gradeLevel := c.Query("grade_level"); gradeLevel != "" {
		query = query.Where("grade_level = ?", gradeLevel)
	}

	// Filter by academic year if specified
	if academicYear := c.Query("academic_year"); academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}

	// Filter by assigned teacher if specified
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		query = query.Where("teacher_id = ?", teacherID)
	}

	// Filter by active state
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	query.Count(&total)

	if err := query.Preload("Teacher").Preload("Teacher.User").Preload("Students").
		Offset(offset).Limit(limit).Find(&classes).Error; err != nil {
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
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetClass returns a specific class; rows outside the viewer's scope read
// as missing
func (cc *ClassController) GetClass(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := permissions.ScopeClasses(viewer, database.DB).
		Preload("Teacher").Preload("Teacher.User").Preload("Subjects").
		Preload("Students").Preload("Students.User").
		First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	return c.JSON(fiber.Map{
		"class": utils.ToClassDTO(class),
	})
}

// ClassRequest is the write shape for classes
type ClassRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	GradeLevel   string `json:"grade_level" validate:"required,max=20"`
	Section      string `json:"section" validate:"required,max=10"`
	AcademicYear string `json:"academic_year" validate:"required,max=20"`
	TeacherID    *uint  `json:"teacher_id"`
	RoomNumber   string `json:"room_number"`
	MaxStudents  uint   `json:"max_students"`
	SubjectIDs   []uint `json:"subject_ids"`
}

// CreateClass creates a new class (admin only)
func (cc *ClassController) CreateClass(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}
	if !viewer.CanCreateClass() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req ClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	// Referenced teacher must exist
	if req.TeacherID != nil {
		var teacher models.Teacher
		if err := database.DB.First(&teacher, *req.TeacherID).Error; err != nil {
			return validationError(c, map[string]string{"teacher_id": "teacher does not exist"})
		}
	}

	class := models.Class{
		Name:         req.Name,
		GradeLevel:   req.GradeLevel,
		Section:      req.Section,
		AcademicYear: req.AcademicYear,
		TeacherID:    req.TeacherID,
		RoomNumber:   req.RoomNumber,
		MaxStudents:  req.MaxStudents,
		IsActive:     true,
	}
	if class.MaxStudents == 0 {
		class.MaxStudents = 30
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&class).Error; err != nil {
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
			if err := tx.Model(&class).Association("Subjects").Append(&subjects); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Class with this grade level, section and academic year already exists",
			})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError(c, map[string]string{"subject_ids": "one or more subjects do not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create class",
		})
	}

	database.DB.Preload("Teacher").Preload("Teacher.User").Preload("Subjects").First(&class, class.ID)

	// Log activity
	middleware.LogActivity(c, "CREATE", "classes", class.ID, class)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Class created successfully",
		"class":   utils.ToClassDTO(class),
	})
}

// UpdateClass updates a class (admin, or its assigned teacher)
func (cc *ClassController) UpdateClass(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	// Load through the read scope so foreign rows stay invisible
	var class models.Class
	if err := permissions.ScopeClasses(viewer, database.DB).First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	if !viewer.CanModifyClass(&class) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		Name         string `json:"name"`
		GradeLevel   string `json:"grade_level"`
		Section      string `json:"section"`
		AcademicYear string `json:"academic_year"`
		TeacherID    *uint  `json:"teacher_id"`
		RoomNumber   string `json:"room_number"`
		MaxStudents  *uint  `json:"max_students"`
		IsActive     *bool  `json:"is_active"`
		SubjectIDs   []uint `json:"subject_ids"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if updateData.Name != "" {
		updates["name"] = updateData.Name
	}
	if updateData.GradeLevel != "" {
		updates["grade_level"] = updateData.GradeLevel
	}
	if updateData.Section != "" {
		updates["section"] = updateData.Section
	}
	if updateData.AcademicYear != "" {
		updates["academic_year"] = updateData.AcademicYear
	}
	if updateData.TeacherID != nil {
		// Reassigning the class teacher is an admin operation
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		var teacher models.Teacher
		if err := database.DB.First(&teacher, *updateData.TeacherID).Error; err != nil {
			return validationError(c, map[string]string{"teacher_id": "teacher does not exist"})
		}
		updates["teacher_id"] = *updateData.TeacherID
	}
	if updateData.RoomNumber != "" {
		updates["room_number"] = updateData.RoomNumber
	}
	if updateData.MaxStudents != nil {
		updates["max_students"] = *updateData.MaxStudents
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
			if err := tx.Model(&class).Updates(updates).Error; err != nil {
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
			if err := tx.Model(&class).Association("Subjects").Replace(&subjects); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Class with this grade level, section and academic year already exists",
			})
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return validationError(c, map[string]string{"subject_ids": "one or more subjects do not exist"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update class",
		})
	}

	database.DB.Preload("Teacher").Preload("Teacher.User").Preload("Subjects").Preload("Students").First(&class, class.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "classes", class.ID, updates)

	return c.JSON(fiber.Map{
		"message": "Class updated successfully",
		"class":   utils.ToClassDTO(class),
	})
}

// DeleteClass deactivates a class; ?hard=true removes the row (admin only)
func (cc *ClassController) DeleteClass(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid class ID",
		})
	}

	var class models.Class
	if err := permissions.ScopeClasses(viewer, database.DB).First(&class, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	if !viewer.CanModifyClass(&class) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	if c.Query("hard") == "true" {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		if err := database.DB.Delete(&class).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete class",
			})
		}
	} else {
		if err := database.DB.Model(&class).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate class",
			})
		}
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "classes", class.ID, fiber.Map{
		"name": class.Name,
		"hard": c.Query("hard") == "true",
	})

	return c.JSON(fiber.Map{
		"message": "Class deleted successfully",
	})
}
