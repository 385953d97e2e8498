package controllers

import (
	"errors"
	"fmt"
	"strconv"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/permissions"
	"lmsportal_go/services/notifications"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type GradeController struct{}

// gradeWriteError maps the Grade hook sentinels onto field errors
func gradeWriteError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Grade already recorded for this student and assignment",
		})
	case errors.Is(err, models.ErrMarksExceedTotal):
		return validationError(c, map[string]string{"marks_obtained": "marks_obtained cannot exceed the assignment total_marks"})
	case errors.Is(err, models.ErrAssignmentZeroMarks):
		return validationError(c, map[string]string{"assignment_id": "assignment total_marks must be greater than zero"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to save grade",
	})
}

// GetGrades returns the grades visible to the viewer with pagination
func (gc *GradeController) GetGrades(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var grades []models.Grade
	var total int64

	query := permissions.ScopeGrades(viewer, database.DB.Model(&models.Grade{}))

	// Filter by student if specified
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	// Filter by assignment if specified
	if assignmentID := c.Query("assignment_id"); assignmentID != "" {
		query = query.Where("assignment_id = ?", assignmentID)
	}

	// Filter by letter if specified
	if letter := c.Query("grade_letter"); letter != "" {
		query = query.Where("grade_letter = ?", letter)
	}

	query.Count(&total)

	if err := query.Preload("Student.User").Preload("Assignment").Preload("Assignment.Subject").
		Preload("GradedBy.User").
		Order("graded_date DESC").Offset(offset).Limit(limit).Find(&grades).Error; err != nil {
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
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetGrade returns a specific grade; rows outside the viewer's scope read
// as missing
func (gc *GradeController) GetGrade(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grade ID",
		})
	}

	var grade models.Grade
	if err := permissions.ScopeGrades(viewer, database.DB).
		Preload("Student.User").Preload("Assignment").Preload("Assignment.Subject").
		Preload("GradedBy.User").
		First(&grade, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Grade not found",
		})
	}

	return c.JSON(fiber.Map{
		"grade": utils.ToGradeDTO(grade),
	})
}

// GradeRequest is the write shape for grades
type GradeRequest struct {
	StudentID     uint     `json:"student_id" validate:"required"`
	AssignmentID  uint     `json:"assignment_id" validate:"required"`
	MarksObtained *float64 `json:"marks_obtained" validate:"required,gte=0"`
	Comments      string   `json:"comments"`
	SubmittedDate string   `json:"submitted_date"`
	GradedByID    *uint    `json:"graded_by_id"`
}

// CreateGrade records a grade. Teachers may only grade students in classes
// they are assigned to.
func (gc *GradeController) CreateGrade(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	var req GradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	var assignment models.Assignment
	if err := database.DB.First(&assignment, req.AssignmentID).Error; err != nil {
		return validationError(c, map[string]string{"assignment_id": "assignment does not exist"})
	}

	var student models.Student
	if err := database.DB.First(&student, req.StudentID).Error; err != nil {
		return validationError(c, map[string]string{"student_id": "student does not exist"})
	}

	// The student must sit in the class the assignment targets
	if student.ClassID == nil || *student.ClassID != assignment.ClassID {
		return validationError(c, map[string]string{"student_id": "student is not enrolled in the assignment's class"})
	}

	if !viewer.CanCreateGrade(&assignment) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	// The grader defaults to the viewer's teacher record; admins must name one
	gradedByID, ok := viewer.TeacherID()
	if req.GradedByID != nil {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		var teacher models.Teacher
		if err := database.DB.First(&teacher, *req.GradedByID).Error; err != nil {
			return validationError(c, map[string]string{"graded_by_id": "teacher does not exist"})
		}
		gradedByID = teacher.ID
		ok = true
	}
	if !ok {
		return validationError(c, map[string]string{"graded_by_id": "graded_by_id is a required field"})
	}

	grade := models.Grade{
		StudentID:     req.StudentID,
		AssignmentID:  req.AssignmentID,
		MarksObtained: *req.MarksObtained,
		Comments:      req.Comments,
		GradedByID:    gradedByID,
	}
	if req.SubmittedDate != "" {
		submitted, err := parseDate(req.SubmittedDate)
		if err != nil {
			return validationError(c, map[string]string{"submitted_date": "submitted_date must be in YYYY-MM-DD format"})
		}
		grade.SubmittedDate = &submitted
	}

	if err := database.DB.Create(&grade).Error; err != nil {
		return gradeWriteError(c, err)
	}

	database.DB.Preload("Student.User").Preload("Assignment").Preload("Assignment.Subject").
		Preload("GradedBy.User").First(&grade, grade.ID)

	// Notify the student over the queue and any live sockets
	if err := notifications.NewService().EnqueueOrCreate(
		[]uint{grade.Student.UserID},
		notifications.Queued("New grade posted",
			fmt.Sprintf("You scored %g/%d on %s (%s)", grade.MarksObtained, grade.Assignment.TotalMarks, grade.Assignment.Title, grade.GradeLetter),
			"info"),
	); err != nil {
		logrus.WithError(err).Warn("Failed to notify student of new grade")
	}

	// Log activity
	middleware.LogActivity(c, "CREATE", "grades", grade.ID, fiber.Map{
		"student_id":     grade.StudentID,
		"assignment_id":  grade.AssignmentID,
		"marks_obtained": grade.MarksObtained,
		"grade_letter":   grade.GradeLetter,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Grade recorded successfully",
		"grade":   utils.ToGradeDTO(grade),
	})
}

// UpdateGrade updates a grade; the letter is recomputed whenever marks change
func (gc *GradeController) UpdateGrade(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grade ID",
		})
	}

	var grade models.Grade
	if err := permissions.ScopeGrades(viewer, database.DB).
		Preload("Assignment").First(&grade, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Grade not found",
		})
	}

	if !viewer.CanModifyGrade(&grade) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		MarksObtained *float64 `json:"marks_obtained"`
		Comments      string   `json:"comments"`
		SubmittedDate string   `json:"submitted_date"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if updateData.MarksObtained != nil {
		if *updateData.MarksObtained < 0 {
			return validationError(c, map[string]string{"marks_obtained": "marks_obtained cannot be negative"})
		}
		grade.MarksObtained = *updateData.MarksObtained
	}
	if updateData.Comments != "" {
		grade.Comments = updateData.Comments
	}
	if updateData.SubmittedDate != "" {
		submitted, err := parseDate(updateData.SubmittedDate)
		if err != nil {
			return validationError(c, map[string]string{"submitted_date": "submitted_date must be in YYYY-MM-DD format"})
		}
		grade.SubmittedDate = &submitted
	}

	// Save through the hook so the letter tracks the new marks
	if err := database.DB.Omit("Student", "Assignment", "GradedBy").Save(&grade).Error; err != nil {
		return gradeWriteError(c, err)
	}

	database.DB.Preload("Student.User").Preload("Assignment").Preload("Assignment.Subject").
		Preload("GradedBy.User").First(&grade, grade.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "grades", grade.ID, fiber.Map{
		"marks_obtained": grade.MarksObtained,
		"grade_letter":   grade.GradeLetter,
	})

	return c.JSON(fiber.Map{
		"message": "Grade updated successfully",
		"grade":   utils.ToGradeDTO(grade),
	})
}

// DeleteGrade removes a grade
func (gc *GradeController) DeleteGrade(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid grade ID",
		})
	}

	var grade models.Grade
	if err := permissions.ScopeGrades(viewer, database.DB).
		Preload("Assignment").First(&grade, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Grade not found",
		})
	}

	if !viewer.CanModifyGrade(&grade) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	if err := database.DB.Delete(&grade).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete grade",
		})
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "grades", grade.ID, fiber.Map{
		"student_id":    grade.StudentID,
		"assignment_id": grade.AssignmentID,
	})

	return c.JSON(fiber.Map{
		"message": "Grade deleted successfully",
	})
}
