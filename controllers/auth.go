package controllers

import (
	"errors"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct{}

// parseDate accepts the YYYY-MM-DD wire format used for date-only fields
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// validationError renders the field-keyed 400 body
func validationError(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"fields": fields,
	})
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents the registration request body. Role-specific
// fields are required only for the matching role.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=6"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" validate:"required,role"`

	// Profile
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	DateOfBirth string `json:"date_of_birth"`

	// Teacher fields
	EmployeeID      string `json:"employee_id"`
	Department      string `json:"department"`
	Qualification   string `json:"qualification"`
	ExperienceYears uint   `json:"experience_years"`
	Specialization  string `json:"specialization"`
	HireDate        string `json:"hire_date"`
	SubjectIDs      []uint `json:"subject_ids"`

	// Student fields
	StudentID     string `json:"student_id"`
	RollNumber    string `json:"roll_number"`
	ClassID       *uint  `json:"class_id"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	GuardianEmail string `json:"guardian_email"`
	AdmissionDate string `json:"admission_date"`
}

// userPayload is the profile shape nested in auth responses
func userPayload(user *models.User) fiber.Map {
	role := models.RoleStudent
	var profile *models.Profile
	if user.Profile != nil {
		profile = user.Profile
		role = profile.Role
	}
	payload := fiber.Map{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"full_name":  user.FullName(),
		"is_active":  user.IsActive,
		"role":       role,
		"profile":    profile,
	}
	if user.Teacher != nil {
		payload["teacher"] = user.Teacher
	}
	if user.Student != nil {
		payload["student"] = user.Student
	}
	return payload
}

// Login authenticates a user and returns an access/refresh token pair
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	// Find user by username
	var user models.User
	if err := database.DB.Preload("Profile").Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	// Check password
	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	role := models.RoleStudent
	if user.Profile != nil {
		role = user.Profile.Role
	}

	tokens, err := middleware.GenerateTokenPair(&user, role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate tokens",
		})
	}

	// Load role records for the response
	database.DB.Preload("Profile").Preload("Teacher").Preload("Student").First(&user, user.ID)

	// Log the login activity
	middleware.LogActivity(c, "LOGIN", "auth", user.ID, fiber.Map{
		"username": user.Username,
		"role":     role,
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"user":    userPayload(&user),
	})
}

// Refresh exchanges a valid refresh token for a new access token
func (ac *AuthController) Refresh(c *fiber.Ctx) error {
	var req struct {
		Refresh string `json:"refresh" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	claims, err := middleware.ParseToken(req.Refresh)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid refresh token",
		})
	}
	if claims.TokenType != middleware.TokenTypeRefresh {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token type",
		})
	}
	if middleware.IsTokenBlacklisted(claims) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Token has been revoked",
		})
	}

	var user models.User
	if err := database.DB.Preload("Profile").Where("id = ? AND is_active = ?", claims.UserID, true).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found or inactive",
		})
	}

	role := models.RoleStudent
	if user.Profile != nil {
		role = user.Profile.Role
	}

	access, err := middleware.GenerateAccessToken(&user, role)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"access": access,
	})
}

// Logout revokes the presented access token, and the refresh token when
// the client sends it along
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found in context",
		})
	}

	middleware.BlacklistToken(claims)

	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.BodyParser(&req); err == nil && req.Refresh != "" {
		if refreshClaims, err := middleware.ParseToken(req.Refresh); err == nil &&
			refreshClaims.TokenType == middleware.TokenTypeRefresh &&
			refreshClaims.UserID == claims.UserID {
			middleware.BlacklistToken(refreshClaims)
		}
	}

	middleware.LogActivity(c, "LOGOUT", "auth", claims.UserID, fiber.Map{"username": claims.Username})

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Register creates a new account with its role records in one transaction.
// Admin only; teacher and student roles carry extra required fields.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	fields := utils.ValidateStruct(req)
	if fields == nil {
		fields = map[string]string{}
	}

	role := models.Role(req.Role)

	// Role-conditional required fields
	var hireDate, admissionDate, dateOfBirth time.Time
	switch role {
	case models.RoleTeacher:
		if req.EmployeeID == "" {
			fields["employee_id"] = "employee_id is a required field"
		}
		if req.Department == "" {
			fields["department"] = "department is a required field"
		}
		if req.Qualification == "" {
			fields["qualification"] = "qualification is a required field"
		}
		if req.HireDate == "" {
			fields["hire_date"] = "hire_date is a required field"
		} else {
			var err error
			if hireDate, err = parseDate(req.HireDate); err != nil {
				fields["hire_date"] = "hire_date must be in YYYY-MM-DD format"
			}
		}
	case models.RoleStudent:
		if req.StudentID == "" {
			fields["student_id"] = "student_id is a required field"
		}
		if req.RollNumber == "" {
			fields["roll_number"] = "roll_number is a required field"
		}
		if req.Gender == "" {
			fields["gender"] = "gender is a required field"
		} else if !utils.IsValidGender(req.Gender) {
			fields["gender"] = "must be one of M, F, O"
		}
		if req.GuardianName == "" {
			fields["guardian_name"] = "guardian_name is a required field"
		}
		if req.GuardianPhone == "" {
			fields["guardian_phone"] = "guardian_phone is a required field"
		}
		if req.AdmissionDate == "" {
			fields["admission_date"] = "admission_date is a required field"
		} else {
			var err error
			if admissionDate, err = parseDate(req.AdmissionDate); err != nil {
				fields["admission_date"] = "admission_date must be in YYYY-MM-DD format"
			}
		}
	}

	if req.DateOfBirth != "" {
		var err error
		if dateOfBirth, err = parseDate(req.DateOfBirth); err != nil {
			fields["date_of_birth"] = "date_of_birth must be in YYYY-MM-DD format"
		}
	}

	// Check if username already exists
	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		fields["username"] = "username already exists"
	}
	if err := database.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		fields["email"] = "email already exists"
	}

	// Referenced class must exist before creating a student against it
	if role == models.RoleStudent && req.ClassID != nil {
		var class models.Class
		if err := database.DB.First(&class, *req.ClassID).Error; err != nil {
			fields["class_id"] = "class does not exist"
		}
	}
	if role == models.RoleTeacher && len(req.SubjectIDs) > 0 {
		var count int64
		database.DB.Model(&models.Subject{}).Where("id IN ?", req.SubjectIDs).Count(&count)
		if count != int64(len(req.SubjectIDs)) {
			fields["subject_ids"] = "one or more subjects do not exist"
		}
	}

	if len(fields) > 0 {
		return validationError(c, fields)
	}

	// Hash password
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Username:  req.Username,
		Password:  hashedPassword,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsActive:  true,
	}

	// User, profile role and the role record land atomically
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		profileUpdates := map[string]interface{}{"role": role}
		if req.PhoneNumber != "" {
			profileUpdates["phone_number"] = req.PhoneNumber
		}
		if req.Address != "" {
			profileUpdates["address"] = req.Address
		}
		if req.DateOfBirth != "" {
			profileUpdates["date_of_birth"] = dateOfBirth
		}
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", user.ID).Updates(profileUpdates).Error; err != nil {
			return err
		}

		switch role {
		case models.RoleTeacher:
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
		case models.RoleStudent:
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
			if err := tx.Create(&student).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Duplicate value for a unique field",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	// Load the created records
	database.DB.Preload("Profile").Preload("Teacher").Preload("Student").First(&user, user.ID)

	// Log the registration activity
	middleware.LogActivity(c, "CREATE", "users", user.ID, fiber.Map{
		"username": user.Username,
		"role":     role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    userPayload(&user),
	})
}

// GetProfile returns the current user's profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	// Load role records
	database.DB.Preload("Profile").Preload("Teacher").Preload("Teacher.Subjects").
		Preload("Student").Preload("Student.Class").First(user, user.ID)

	return c.JSON(fiber.Map{
		"user": userPayload(user),
	})
}

// ChangePassword allows users to change their password
func (ac *AuthController) ChangePassword(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	// Check current password
	if err := utils.CheckPassword(req.CurrentPassword, user.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Current password is incorrect",
		})
	}

	// Hash new password
	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	// Update password
	if err := database.DB.Model(user).Update("password", hashedPassword).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update password",
		})
	}

	// Log the password change activity
	middleware.LogActivity(c, "UPDATE", "users", user.ID, fiber.Map{
		"action": "password_change",
	})

	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}
