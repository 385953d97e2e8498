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

type AttendanceController struct{}

// attendanceNotificationType flags absences so they stand out in the feed
func attendanceNotificationType(status string) string {
	if status == "absent" {
		return "warning"
	}
	return "info"
}

// GetAttendance returns the attendance records visible to the viewer with
// pagination
func (atc *AttendanceController) GetAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	var records []models.Attendance
	var total int64

	query := permissions.ScopeAttendance(viewer, database.DB.Model(&models.Attendance{}))

	// Filter by class if specified
	if classID := c.Query("class_id"); classID != "" {
		query = query.Where("class_id = ?", classID)
	}

	// Filter by subject if specified
	if subjectID := c.Query("subject_id"); subjectID != "" {
		query = query.Where("subject_id = ?", subjectID)
	}

	// Filter by student if specified
	if studentID := c.Query("student_id"); studentID != "" {
		query = query.Where("student_id = ?", studentID)
	}

	// Filter by status if specified
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	// Filter by date or date range
	if date := c.Query("date"); date != "" {
		if day, err := parseDate(date); err == nil {
			query = query.Where("date = ?", day)
		}
	}
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

	query.Count(&total)

	if err := query.Preload("Student.User").Preload("Class").Preload("Subject").Preload("MarkedBy.User").
		Order("date DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
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
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetAttendanceRecord returns a specific attendance record; rows outside
// the viewer's scope read as missing
func (atc *AttendanceController) GetAttendanceRecord(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attendance ID",
		})
	}

	var record models.Attendance
	if err := permissions.ScopeAttendance(viewer, database.DB).
		Preload("Student.User").Preload("Class").Preload("Subject").Preload("MarkedBy.User").
		First(&record, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attendance record not found",
		})
	}

	return c.JSON(fiber.Map{
		"attendance": utils.ToAttendanceDTO(record),
	})
}

// AttendanceRequest is the write shape for a single attendance record
type AttendanceRequest struct {
	StudentID  uint   `json:"student_id" validate:"required"`
	ClassID    uint   `json:"class_id" validate:"required"`
	SubjectID  uint   `json:"subject_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Status     string `json:"status" validate:"omitempty,attendance_status"`
	Notes      string `json:"notes"`
	MarkedByID *uint  `json:"marked_by_id"`
}

// CreateAttendance marks one student for one class period. Teachers may
// only mark classes they are assigned to.
func (atc *AttendanceController) CreateAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	var req AttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	if !viewer.CanCreateAttendance(req.ClassID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return validationError(c, map[string]string{"date": "date must be in YYYY-MM-DD format"})
	}

	var class models.Class
	if err := database.DB.First(&class, req.ClassID).Error; err != nil {
		return validationError(c, map[string]string{"class_id": "class does not exist"})
	}

	var subject models.Subject
	if err := database.DB.First(&subject, req.SubjectID).Error; err != nil {
		return validationError(c, map[string]string{"subject_id": "subject does not exist"})
	}

	var student models.Student
	if err := database.DB.First(&student, req.StudentID).Error; err != nil {
		return validationError(c, map[string]string{"student_id": "student does not exist"})
	}
	if student.ClassID == nil || *student.ClassID != req.ClassID {
		return validationError(c, map[string]string{"student_id": "student is not enrolled in this class"})
	}

	// The marker defaults to the viewer's teacher record; admins must name one
	markedByID, ok := viewer.TeacherID()
	if req.MarkedByID != nil {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		var teacher models.Teacher
		if err := database.DB.First(&teacher, *req.MarkedByID).Error; err != nil {
			return validationError(c, map[string]string{"marked_by_id": "teacher does not exist"})
		}
		markedByID = teacher.ID
		ok = true
	}
	if !ok {
		return validationError(c, map[string]string{"marked_by_id": "marked_by_id is a required field"})
	}

	status := req.Status
	if status == "" {
		status = "present"
	}

	record := models.Attendance{
		StudentID:  req.StudentID,
		ClassID:    req.ClassID,
		SubjectID:  req.SubjectID,
		Date:       day,
		Status:     status,
		MarkedByID: markedByID,
		Notes:      req.Notes,
	}

	if err := database.DB.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Attendance already marked for this student, class, subject and date",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark attendance",
		})
	}

	database.DB.Preload("Student.User").Preload("Class").Preload("Subject").Preload("MarkedBy.User").
		First(&record, record.ID)

	// Tell the student their attendance was recorded
	if err := notifications.NewService().EnqueueOrCreate(
		[]uint{record.Student.UserID},
		notifications.Queued("Attendance recorded",
			fmt.Sprintf("You were marked %s for %s on %s", record.Status, subject.Name, req.Date),
			attendanceNotificationType(record.Status)),
	); err != nil {
		logrus.WithError(err).Warn("Failed to notify student of attendance")
	}

	// Log activity
	middleware.LogActivity(c, "CREATE", "attendance", record.ID, fiber.Map{
		"student_id": record.StudentID,
		"class_id":   record.ClassID,
		"date":       req.Date,
		"status":     record.Status,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Attendance marked successfully",
		"attendance": utils.ToAttendanceDTO(record),
	})
}

// BulkAttendanceRequest marks a whole class period in one call
type BulkAttendanceRequest struct {
	ClassID   uint   `json:"class_id" validate:"required"`
	SubjectID uint   `json:"subject_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Records   []struct {
		StudentID uint   `json:"student_id" validate:"required"`
		Status    string `json:"status" validate:"omitempty,attendance_status"`
		Notes     string `json:"notes"`
	} `json:"records" validate:"required,min=1,dive"`
}

// BulkMarkAttendance marks attendance for many students of one class on one
// date. Existing records for the same period are updated rather than
// duplicated.
func (atc *AttendanceController) BulkMarkAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	var req BulkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	if !viewer.CanCreateAttendance(req.ClassID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	day, err := parseDate(req.Date)
	if err != nil {
		return validationError(c, map[string]string{"date": "date must be in YYYY-MM-DD format"})
	}

	var class models.Class
	if err := database.DB.First(&class, req.ClassID).Error; err != nil {
		return validationError(c, map[string]string{"class_id": "class does not exist"})
	}
	var subject models.Subject
	if err := database.DB.First(&subject, req.SubjectID).Error; err != nil {
		return validationError(c, map[string]string{"subject_id": "subject does not exist"})
	}

	markedByID, ok := viewer.TeacherID()
	if !ok {
		if !viewer.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}
		// Admins without a teacher record fall back to the class teacher
		if class.TeacherID == nil {
			return validationError(c, map[string]string{"class_id": "class has no assigned teacher to mark attendance as"})
		}
		markedByID = *class.TeacherID
	}

	// Every student must belong to the class before anything is written
	studentIDs := make([]uint, 0, len(req.Records))
	for _, r := range req.Records {
		studentIDs = append(studentIDs, r.StudentID)
	}
	var enrolled int64
	database.DB.Model(&models.Student{}).
		Where("id IN ? AND class_id = ?", studentIDs, req.ClassID).
		Count(&enrolled)
	if enrolled != int64(len(studentIDs)) {
		return validationError(c, map[string]string{"records": "one or more students are not enrolled in this class"})
	}

	created := 0
	updated := 0
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, r := range req.Records {
			status := r.Status
			if status == "" {
				status = "present"
			}
			record := models.Attendance{
				StudentID:  r.StudentID,
				ClassID:    req.ClassID,
				SubjectID:  req.SubjectID,
				Date:       day,
				Status:     status,
				MarkedByID: markedByID,
				Notes:      r.Notes,
			}
			if err := tx.Create(&record).Error; err != nil {
				if !errors.Is(err, gorm.ErrDuplicatedKey) {
					return err
				}
				res := tx.Model(&models.Attendance{}).
					Where("student_id = ? AND class_id = ? AND subject_id = ? AND date = ?",
						r.StudentID, req.ClassID, req.SubjectID, day).
					Updates(map[string]interface{}{
						"status":       status,
						"notes":        r.Notes,
						"marked_by_id": markedByID,
					})
				if res.Error != nil {
					return res.Error
				}
				updated++
				continue
			}
			created++
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark attendance",
		})
	}

	// Fan the per-student statuses out to the notification queue, one
	// enqueue per status so the fanout stays batched
	var enrolledStudents []models.Student
	database.DB.Where("id IN ?", studentIDs).Find(&enrolledStudents)
	userIDByStudent := make(map[uint]uint, len(enrolledStudents))
	for _, s := range enrolledStudents {
		userIDByStudent[s.ID] = s.UserID
	}
	usersByStatus := map[string][]uint{}
	for _, r := range req.Records {
		uid, ok := userIDByStudent[r.StudentID]
		if !ok {
			continue
		}
		status := r.Status
		if status == "" {
			status = "present"
		}
		usersByStatus[status] = append(usersByStatus[status], uid)
	}
	notifSvc := notifications.NewService()
	for status, userIDs := range usersByStatus {
		if err := notifSvc.EnqueueOrCreate(
			userIDs,
			notifications.Queued("Attendance recorded",
				fmt.Sprintf("You were marked %s for %s on %s", status, subject.Name, req.Date),
				attendanceNotificationType(status)),
		); err != nil {
			logrus.WithError(err).Warn("Failed to notify students of attendance")
		}
	}

	// Log activity
	middleware.LogActivity(c, "CREATE", "attendance", req.ClassID, fiber.Map{
		"class_id": req.ClassID,
		"date":     req.Date,
		"created":  created,
		"updated":  updated,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attendance marked successfully",
		"created": created,
		"updated": updated,
	})
}

// UpdateAttendance updates an attendance record
func (atc *AttendanceController) UpdateAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attendance ID",
		})
	}

	var record models.Attendance
	if err := permissions.ScopeAttendance(viewer, database.DB).First(&record, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attendance record not found",
		})
	}

	if !viewer.CanModifyAttendance(&record) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	var updateData struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
		Date   string `json:"date"`
	}
	if err := c.BodyParser(&updateData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if updateData.Status != "" {
		if !utils.IsValidAttendanceStatus(updateData.Status) {
			return validationError(c, map[string]string{"status": "must be one of present, absent, late, excused"})
		}
		updates["status"] = updateData.Status
	}
	if updateData.Notes != "" {
		updates["notes"] = updateData.Notes
	}
	if updateData.Date != "" {
		day, err := parseDate(updateData.Date)
		if err != nil {
			return validationError(c, map[string]string{"date": "date must be in YYYY-MM-DD format"})
		}
		updates["date"] = day
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&record).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Attendance already marked for this student, class, subject and date",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update attendance",
			})
		}
	}

	database.DB.Preload("Student.User").Preload("Class").Preload("Subject").Preload("MarkedBy.User").
		First(&record, record.ID)

	// Log activity
	middleware.LogActivity(c, "UPDATE", "attendance", record.ID, updates)

	return c.JSON(fiber.Map{
		"message":    "Attendance updated successfully",
		"attendance": utils.ToAttendanceDTO(record),
	})
}

// DeleteAttendance removes an attendance record
func (atc *AttendanceController) DeleteAttendance(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid attendance ID",
		})
	}

	var record models.Attendance
	if err := permissions.ScopeAttendance(viewer, database.DB).First(&record, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Attendance record not found",
		})
	}

	if !viewer.CanModifyAttendance(&record) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	if err := database.DB.Delete(&record).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete attendance",
		})
	}

	// Log activity
	middleware.LogActivity(c, "DELETE", "attendance", record.ID, fiber.Map{
		"student_id": record.StudentID,
		"class_id":   record.ClassID,
	})

	return c.JSON(fiber.Map{
		"message": "Attendance record deleted successfully",
	})
}
