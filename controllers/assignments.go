package controllers

import (
	"fmt"
	"strconv"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/permissions"
	"lmsportal_go/services/notifications"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AssignmentController struct{}

// GetAssignments returns the assignments visible to the viewer with pagination
func (ac *AssignmentController) GetAssignments(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var assignments []models.Assignment
	var total int64

	query := permissions.ScopeAssignments(viewer, database.DB.Model(&models.Assignment{}))

	// Filter by subject if specified
	if subjectID := c.Query("subject_id"); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}

	// Filter by class if specified
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	// Filter by assignment type if specified
	if assignmentType := c.Query("assignment_type"); assignmentType != "" {
		query = query.Where("assignment_type = ?", assignmentType)
	}

	// Filter by active state
	if active := c.Query("is_active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	query.Count(&total)

	if err := query.Preload("Subject").Preload("Class").Preload("Teacher.User").
		Order("due_date DESC").Offset(offset).Limit(limit).Find(&assignments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch assignments",
		})
	}

	rows := make([]utils.AssignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		rows = append(rows, utils.ToAssignmentDTO(assignment))
	}

	return c.JSON(fiber.Map{
		"assignments": rows,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetAssignment returns a specific assignment; rows outside the viewer's
// scope read as missing
func (ac *AssignmentController) GetAssignment(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var assignment models.Assignment
	if err := permissions.ScopeAssignments(viewer, database.DB).
		Preload("Subject").Preload("Class").Preload("Teacher.User").
		First(&assignment, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	return c.JSON(fiber.Map{
		"assignment": utils.ToAssignmentDTO(assignment),
	})
}

// AssignmentRequest is the write shape for assignments
type AssignmentRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description"`
	SubjectID      uint   `json:"subject_id" validate:"required"`
	ClassID        uint   `json:"class_id" validate:"required"`
	TeacherID      *uint  `json:"teacher_id"`
	AssignmentType string `json:"assignment_type" validate:"omitempty,assignment_type"`
	TotalMarks     uint   `json:"total_marks" validate:"required,gt=0"`
	DueDate        string `json:"due_date" validate:"required"`
	Instructions   string `json:"instructions"`
}

// CreateAssignment creates a new assignment. Teachers may only target
// classes they are assigned to.
func (ac *AssignmentController) CreateAssignment(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	var req AssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	if !viewer.CanCreateAssignment(req.ClassID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		// Accept a bare date as midnight UTC
		dueDate, err = parseDate(req.DueDate)
		if err != nil {
			return validationError(c, map[string]string{"due_date": "due_date must be an RFC3339 timestamp or YYYY-MM-DD"})
		}
	}

	var subject models.Subject
	if err := database.DB.First(&subject, req.SubjectID).Error; err != nil {
		return validationError(c, map[string]string{"subject_id": "subject does not exist"})
	}

	var class models.Class
	if err := database.DB.First(&class, req.ClassID).Error; err != nil {
		return validationError(c, map[string]string{"class_id": "class does not exist"})
	}

	// The author defaults to the viewer's teacher record; admins must name one
	teacherID, ok := viewer.TeacherID()
	if req.TeacherID != nil {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		var teacher models.Teacher
		if err := database.DB.First(&teacher, *req.TeacherID).Error; err != nil {
			return validationError(c, map[string]string{"teacher_id": "teacher does not exist"})
		}
		teacherID = teacher.ID
		ok = true
	}
	if !ok {
		return validationError(c, map[string]string{"teacher_id": "teacher_id is a required field"})
	}

	assignmentType := req.AssignmentType
	if assignmentType == "" {
		assignmentType = "homework"
	}

	assignment := models.Assignment{
		Title:          req.Title,
		Description:    req.Description,
		SubjectID:      req.SubjectID,
		ClassID:        req.ClassID,
		TeacherID:      teacherID,
		AssignmentType: assignmentType,
		TotalMarks:     req.TotalMarks,
		DueDate:        dueDate,
		Instructions:   req.Instructions,
		IsActive:       true,
	}

	if err := database.DB.Create(&assignment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create assignment",
		})
	}

	database.DB.Preload("Subject").Preload("Class").Preload("Teacher.User").First(&assignment, assignment.ID)

	// Notify every active student in the target class
	var studentUserIDs []uint
	database.DB.Model(&models.Student{}).
		Where("class_id = ? AND is_active = ?", assignment.ClassID, true).
		Pluck("user_id", &studentUserIDs)
	if len(studentUserIDs) > 0 {
		if err := notifications.NewService().EnqueueOrCreate(
			studentUserIDs,
			notifications.Queued("New assignment",
				fmt.Sprintf("%s is due %s", assignment.Title, assignment.DueDate.Format("2006-01-02")),
				"info"),
		); err != nil {
			logrus.WithError(err).Warn("Failed to notify class of new assignment")
		}
	}

	// Log activity
	middleware.LogActivity(c, "CREATE", "assignments", assignment.ID, assignment)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Assignment created successfully",
		"assignment": utils.ToAssignmentDTO(assignment),
	})
}

// UpdateAssignment updates an assignment (admin, author, or a teacher of
// its class)
func (ac *AssignmentController) UpdateAssignment(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var assignment models.Assignment
	if err := permissions.ScopeAssignments(viewer, database.DB).First(&assignment, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	if !viewer.CanModifyAssignment(&assignment) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		Title          string `json:"title"`
		Description    string `json:"description"`
		SubjectID      *uint  `json:"subject_id"`
		ClassID        *uint  `json:"class_id"`
		AssignmentType string `json:"assignment_type"`
		TotalMarks     *uint  `json:"total_marks"`
		DueDate        string `json:"due_date"`
		Instructions   string `json:"instructions"`
		IsActive       *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if updateData.Title != "" {
		updates["title"] = updateData.Title
	}
	if updateData.Description != "" {
		updates["description"] = updateData.Description
	}
	if updateData.SubjectID != nil {
		var subject models.Subject
		if err := database.DB.First(&subject, *updateData.SubjectID).Error; err != nil {
			return validationError(c, map[string]string{"subject_id": "subject does not exist"})
		}
		updates["subject_id"] = *updateData.SubjectID
	}
	if updateData.ClassID != nil {
		if !viewer.CanCreateAssignment(*updateData.ClassID) {
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
	if updateData.AssignmentType != "" {
		if !utils.IsValidAssignmentType(updateData.AssignmentType) {
			return validationError(c, map[string]string{"assignment_type": "must be one of homework, project, quiz, test, exam"})
		}
		updates["assignment_type"] = updateData.AssignmentType
	}
	if updateData.TotalMarks != nil {
		if *updateData.TotalMarks == 0 {
			return validationError(c, map[string]string{"total_marks": "total_marks must be greater than zero"})
		}
		// Marks already recorded keep their letters until re-graded; reject
		// shrinking the total below an existing score instead of silently
		// invalidating grades
		var over int64
		database.DB.Model(&models.Grade{}).
			Where("assignment_id = ? AND marks_obtained > ?", assignment.ID, *updateData.TotalMarks).
			Count(&over)
		if over > 0 {
			return validationError(c, map[string]string{"total_marks": "existing grades exceed the new total_marks"})
		}
		updates["total_marks"] = *updateData.TotalMarks
	}
	if updateData.DueDate != "" {
		dueDate, err := time.Parse(time.RFC3339, updateData.DueDate)
		if err != nil {
			dueDate, err = parseDate(updateData.DueDate)
			if err != nil {
				return validationError(c, map[string]string{"due_date": "due_date must be an RFC3339 timestamp or YYYY-MM-DD"})
			}
		}
		updates["due_date"] = dueDate
	}
	if updateData.Instructions != "" {
		updates["instructions"] = updateData.Instructions
	}
	if updateData.IsActive != nil {
		updates["is_active"] = *updateData.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&assignment).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update assignment",
			})
		}
	}

	database.DB.Preload("Subject").Preload("Class").Preload("Teacher.User").First(&assignment, assignment.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "assignments", assignment.ID, updates)

	return c.JSON(fiber.Map{
		"message":    "Assignment updated successfully",
		"assignment": utils.ToAssignmentDTO(assignment),
	})
}

// DeleteAssignment deactivates an assignment; ?hard=true removes the row
func (ac *AssignmentController) DeleteAssignment(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var assignment models.Assignment
	if err := permissions.ScopeAssignments(viewer, database.DB).First(&assignment, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	if !viewer.CanModifyAssignment(&assignment) {
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
		if err := database.DB.Delete(&assignment).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to delete assignment",
			})
		}
	} else {
		if err := database.DB.Model(&assignment).Update("is_active", false).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to deactivate assignment",
			})
		}
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "assignments", assignment.ID, fiber.Map{
		"title": assignment.Title,
		"hard":  c.Query("hard") == "true",
	})

	return c.JSON(fiber.Map{
		"message": "Assignment deleted successfully",
	})
}

// GetAssignmentGrades returns the grades recorded against one assignment
func (ac *AssignmentController) GetAssignmentGrades(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var assignment models.Assignment
	if err := permissions.ScopeAssignments(viewer, database.DB).First(&assignment, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignment not found",
		})
	}

	var grades []models.Grade
	if err := permissions.ScopeGrades(viewer, database.DB.Model(&models.Grade{})).
		Where("assignment_id = ?", assignment.ID).
		Preload("Student.User").Preload("Assignment").Preload("GradedBy.User").
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
