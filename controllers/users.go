package controllers

import (
	"errors"
	"strconv"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserController struct{}

// GetUsers returns all users with pagination
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var users []models.User
	var total int64

	// Build query
	query := database.DB.Model(&models.User{})

	// Filter by role if specified (role lives on the profile)
	if role := c.Query("role"); role != "" {
		if !models.Role(role).Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid role",
			})
		}
		query = query.Joins("JOIN profiles ON profiles.user_id = users.id").
			Where("profiles.role = ?", role)
	}

	// Filter by active state, defaulting to active accounts
	active := c.Query("is_active", "true")
	query = query.Where("users.is_active = ?", active == "true")

	// Get total count
	query.Count(&total)

	// Get users with pagination
	if err := query.Preload("Profile").Preload("Teacher").Preload("Student").
		Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch users",
		})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetUser returns a specific user by ID
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.Preload("Profile").Preload("Teacher").Preload("Student").
		First(&user, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

// UpdateUser updates an existing user's core fields and role
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var updateData struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		IsActive  *bool  `json:"is_active"`
		Role      string `json:"role"`
	}

	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Validate role if provided
	if updateData.Role != "" && !models.Role(updateData.Role).Valid() {
		return validationError(c, map[string]string{"role": "must be one of admin, teacher, student, staff"})
	}

	updates := map[string]interface{}{}
	if updateData.Username != "" {
		updates["username"] = updateData.Username
	}
	if updateData.Email != "" {
		updates["email"] = updateData.Email
	}
	if updateData.FirstName != "" {
		updates["first_name"] = updateData.FirstName
	}
	if updateData.LastName != "" {
		updates["last_name"] = updateData.LastName
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}
		if updateData.Role != "" {
			if err := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("role", updateData.Role).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Username or email already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update user",
		})
	}

	// Load relationships
	database.DB.Preload("Profile").Preload("Teacher").Preload("Student").First(&user, user.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "users", user.ID, updateData)

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeleteUser deactivates a user; ?hard=true removes the row
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user ID",
		})
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if c.Query("hard") == "true" {
		if err := database.DB.Delete(&user).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete user",
			})
		}
	} else {
		if err := database.DB.Model(&user).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate user",
			})
		}
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "users", user.ID, fiber.Map{
		"username": user.Username,
		"hard":     c.Query("hard") == "true",
	})

	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
	})
}

// ConvertToTeacherRequest carries the teacher fields for a role conversion
type ConvertToTeacherRequest struct {
	UserID          uint   `json:"user_id" validate:"required"`
	EmployeeID      string `json:"employee_id" validate:"required"`
	Department      string `json:"department" validate:"required"`
	Qualification   string `json:"qualification" validate:"required"`
	ExperienceYears uint   `json:"experience_years"`
	Specialization  string `json:"specialization"`
	HireDate        string `json:"hire_date" validate:"required"`
	SubjectIDs      []uint `json:"subject_ids"`
}

// ConvertToTeacher flips an existing account to the teacher role and
// creates its teacher record in one transaction
func (uc *UserController) ConvertToTeacher(c *fiber.Ctx) error {
	var req ConvertToTeacherRequest
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

	var user models.User
	if err := database.DB.First(&user, req.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Reject if a teacher record already exists
	var existing models.Teacher
	if err := database.DB.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already has a teacher record",
		})
	}

	if len(req.SubjectIDs) > 0 {
		var count int64
		database.DB.Model(&models.Subject{}).Where("id IN ?", req.SubjectIDs).Count(&count)
		if count != int64(len(req.SubjectIDs)) {
			return validationError(c, map[string]string{"subject_ids": "one or more subjects do not exist"})
		}
	}

	teacher := models.Teacher{
		UserID:          user.ID,
		EmployeeID:      req.EmployeeID,
		Department:      req.Department,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Specialization:  req.Specialization,
		HireDate:        hireDate,
		IsActive:        true,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("role", models.RoleTeacher).Error; err != nil {
			return err
		}
		if err := tx.Create(&teacher).Error; err != nil {
			return err
		}
		if len(req.SubjectIDs) > 0 {
			var subjects []models.Subject
			if err := tx.Where("id IN ?", req.SubjectIDs).Find(&subjects).Error; err != nil {
				return err
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
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to convert user",
		})
	}

	database.DB.Preload("User").Preload("Subjects").First(&teacher, teacher.ID)

	// Log activity
	middleware.LogActivity(c, "CREATE", "teachers", teacher.ID, fiber.Map{
		"action":  "convert_to_teacher",
		"user_id": user.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User converted to teacher successfully",
		"teacher": teacher,
	})
}

// ConvertToStudentRequest carries the student fields for a role conversion
type ConvertToStudentRequest struct {
	UserID        uint   `json:"user_id" validate:"required"`
	StudentID     string `json:"student_id" validate:"required"`
	RollNumber    string `json:"roll_number" validate:"required"`
	ClassID       *uint  `json:"class_id"`
	Gender        string `json:"gender" validate:"required,gender"`
	GuardianName  string `json:"guardian_name" validate:"required"`
	GuardianPhone string `json:"guardian_phone" validate:"required"`
	GuardianEmail string `json:"guardian_email"`
	AdmissionDate string `json:"admission_date" validate:"required"`
}

// ConvertToStudent flips an existing account to the student role and
// creates its student record in one transaction
func (uc *UserController) ConvertToStudent(c *fiber.Ctx) error {
	var req ConvertToStudentRequest
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
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Reject if a student record already exists
	var existing models.Student
	if err := database.DB.Where("user_id = ?", user.ID).First(&existing).Error; err == nil {
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
		UserID:        user.ID,
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
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Update("role", models.RoleStudent).Error; err != nil {
			return err
		}
		return tx.Create(&student).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Student ID or roll number already exists",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to convert user",
		})
	}

	database.DB.Preload("User").Preload("Class").First(&student, student.ID)

	// Log activity
	middleware.LogActivity(c, "CREATE", "students", student.ID, fiber.Map{
		"action":  "convert_to_student",
		"user_id": user.ID,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User converted to student successfully",
		"student": student,
	})
}
