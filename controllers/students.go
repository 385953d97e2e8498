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

type StudentController struct{}

// GetStudents returns the students visible to the viewer with pagination
func (sc *StudentController) GetStudents(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var students []models.Student
	var total int64

	query := permissions.ScopeStudents(viewer, database.DB.Model(&models.Student{}))

	// Filter by class if specified
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	// Filter by gender if specified
	if gender := c.Query("gender"); gender != "" {
		query = query.Where("gender = ?", gender)
	}

	// Filter by active state
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	query.Count(&total)

	if err := query.Preload("User").Preload("Class").
		Offset(offset).Limit(limit).Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch students",
		})
	}

	rows := make([]utils.StudentListDTO, 0, len(students))
	for _, student := range students {
		rows = append(rows, utils.ToStudentListDTO(student))
	}

	return c.JSON(fiber.Map{
		"students": rows,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetStudent returns a specific student; rows outside the viewer's scope
// read as missing
func (sc *StudentController) GetStudent(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := permissions.ScopeStudents(viewer, database.DB).
		Preload("User").Preload("User.Profile").Preload("Class").Preload("Class.Teacher.User").
		First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	return c.JSON(fiber.Map{
		"student": student,
	})
}

// StudentRequest is the write shape for enrolling an existing user as a student
type StudentRequest struct {
	UserID        uint   `json:"user_id" validate:"required"`
	StudentID     string `json:"student_id" validate:"required,max=20"`
	RollNumber    string `json:"roll_number" validate:"required,max=20"`
	ClassID       *uint  `json:"class_id"`
	Gender        string `json:"gender" validate:"required,gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	GuardianEmail string `json:"guardian_email" validate:"omitempty,email"`
	AdmissionDate string `json:"admission_date" validate:"required"`
}

// CreateStudent enrolls an existing user as a student (admin only)
func (sc *StudentController) CreateStudent(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}
	if !viewer.CanCreateStudent() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	admissionDate, err := parseDate(req.AdmissionDate)
	if err != nil {
		return validationError(c, map[string]string{"admission_date": "admission_date must be in YYYY-MM-DD format"})
	}

	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		return validationError(c, map[string]string{"user_id": "user does not exist"})
	}

	var existing models.Student
	if err := database.DB.Where("user_id = ?", req.UserID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already has a student record",
		})
	}

	if req.ClassID != nil {
		var class models.Class
		if err := database.DB.First(&class, *req.ClassID).Error; err != nil {
			return validationError(c, map[string]string{"class_id": "class does not exist"})
		}
	}

	student := models.Student{
		UserID:        req.UserID,
		StudentID:     req.StudentID,
		RollNumber:    req.RollNumber,
		ClassID:       req.ClassID,
		Gender:        req.Gender,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		GuardianEmail: req.GuardianEmail,
		AdmissionDate: admissionDate,
		IsActive:      true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&student).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", req.UserID).
			Update("role", models.RoleStudent).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Student ID or roll number already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create student",
		})
	}

	database.DB.Preload("User").Preload("Class").First(&student, student.ID)

	// Log activity
	middleware.LogActivity(c, "CREATE", "students", student.ID, student)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// UpdateStudent updates a student (admin, or a teacher of the student's class)
func (sc *StudentController) UpdateStudent(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := permissions.ScopeStudents(viewer, database.DB).First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	if !viewer.CanModifyStudent(&student) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		StudentID     string `json:"student_id"`
		RollNumber    string `json:"roll_number"`
		ClassID       *uint  `json:"class_id"`
		Gender        string `json:"gender"`
		GuardianName  string `json:"guardian_name"`
		GuardianPhone string `json:"guardian_phone"`
		GuardianEmail string `json:"guardian_email"`
		AdmissionDate string `json:"admission_date"`
		IsActive      *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if updateData.StudentID != "" {
		// Changing the admission number is an admin operation
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		updates["student_id"] = updateData.StudentID
	}
	if updateData.RollNumber != "" {
		updates["roll_number"] = updateData.RollNumber
	}
	if updateData.ClassID != nil {
		// Moving a student between classes is an admin operation
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		var class models.Class
		if err := database.DB.First(&class, *updateData.ClassID).Error; err != nil {
			return validationError(c, map[string]string{"class_id": "class does not exist"})
		}
		updates["class_id"] = *updateData.ClassID
	}
	if updateData.Gender != "" {
		if !utils.IsValidGender(updateData.Gender) {
			return validationError(c, map[string]string{"gender": "must be one of M, F, O"})
		}
		updates["gender"] = updateData.Gender
	}
	if updateData.GuardianName != "" {
		updates["guardian_name"] = updateData.GuardianName
	}
	if updateData.GuardianPhone != "" {
		updates["guardian_phone"] = updateData.GuardianPhone
	}
	if updateData.GuardianEmail != "" {
		updates["guardian_email"] = updateData.GuardianEmail
	}
	if updateData.AdmissionDate != "" {
		admissionDate, err := parseDate(updateData.AdmissionDate)
		if err != nil {
			return validationError(c, map[string]string{"admission_date": "admission_date must be in YYYY-MM-DD format"})
		}
		updates["admission_date"] = admissionDate
	}
	if updateData.IsActive != nil {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		updates["is_active"] = *updateData.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&student).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Student ID or roll number already exists",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update student",
			})
		}
	}

	database.DB.Preload("User").Preload("Class").First(&student, student.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "students", student.ID, updates)

	return c.JSON(fiber.Map{
		"message": "Student updated successfully",
		"student": student,
	})
}

// DeleteStudent deactivates a student; ?hard=true removes the row (admin only)
func (sc *StudentController) DeleteStudent(c *fiber.Ctx) error {
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
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := database.DB.First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	if c.Query("hard") == "true" {
		if err := database.DB.Delete(&student).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete student",
			})
		}
	} else {
		if err := database.DB.Model(&student).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate student",
			})
		}
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "students", student.ID, fiber.Map{
		"student_id": student.StudentID,
		"hard":       c.Query("hard") == "true",
	})

	return c.JSON(fiber.Map{
		"message": "Student deleted successfully",
	})
}

// GetStudentGrades returns the grades recorded for one student
func (sc *StudentController) GetStudentGrades(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := permissions.ScopeStudents(viewer, database.DB).First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	var grades []models.Grade
	if err := permissions.ScopeGrades(viewer, database.DB.Model(&models.Grade{})).
		Where("student_id = ?", student.ID).
		Preload("Student.User").Preload("Assignment").Preload("Assignment.Subject").Preload("GradedBy.User").
		Find(&grades).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch grades",
		})
	}

	rows := make([]utils.GradeDTO, 0, len(grades))
	for _, grade := range grades {
		rows = append(rows, utils.ToGradeDTO(grade))
	}

	return c.JSON(fiber.Map{
		"grades": rows,
		"total":  len(rows),
	})
}

// GetStudentAttendance returns the attendance history for one student
func (sc *StudentController) GetStudentAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid student ID",
		})
	}

	var student models.Student
	if err := permissions.ScopeStudents(viewer, database.DB).First(&student, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Student not found",
		})
	}

	query := permissions.ScopeAttendance(viewer, database.DB.Model(&models.Attendance{})).
		Where("student_id = ?", student.ID)

	if from := c.Query("from"); from != "" {
		if fromDate, err := parseDate(from); err == nil {
			query = query.Where("date >= ?", fromDate)
		}
	}
	if to := c.Query("to"); to != "" {
		if toDate, err := parseDate(to); err == nil {
			query = query.Where("date <= ?", toDate)
		}
	}

	var records []models.Attendance
	if err := query.Preload("Student.User").Preload("Class").Preload("Subject").Preload("MarkedBy.User").
		Order("date DESC").Find(&records).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch attendance",
		})
	}

	rows := make([]utils.AttendanceDTO, 0, len(records))
	for _, record := range records {
		rows = append(rows, utils.ToAttendanceDTO(record))
	}

	return c.JSON(fiber.Map{
		"attendance": rows,
		"total":      len(rows),
	})
}
