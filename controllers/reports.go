package controllers

import (
	"fmt"
	"strconv"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/services"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	service *services.ReportExportService
}

func NewReportController() *ReportController {
	return &ReportController{service: services.NewReportExportService()}
}

// GradebookRequest names the class to export
type GradebookRequest struct {
	ClassID uint `json:"class_id" validate:"required"`
}

// RequestGradebook queues a gradebook spreadsheet export for one class.
// The build runs in the background; poll the returned report for status.
func (rc *ReportController) RequestGradebook(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	var req GradebookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		return validationError(c, fields)
	}

	var class models.Class
	if err := database.DB.First(&class, req.ClassID).Error; err != nil {
		return validationError(c, map[string]string{"class_id": "class does not exist"})
	}

	if !viewer.IsAdmin() && !viewer.TeachesClass(class.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	export := models.ReportExport{
		RequestedByID: viewer.User.ID,
		ClassID:       class.ID,
		FileName:      fmt.Sprintf("gradebook-class-%d-%s.xlsx", class.ID, time.Now().Format("20060102-150405")),
		Status:        "pending",
	}
	if err := database.DB.Create(&export).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to queue export",
		})
	}

	go rc.service.GenerateGradebook(export.ID)

	// Log activity
	middleware.LogActivity(c, "EXPORT", "reports", export.ID, fiber.Map{
		"class_id":  class.ID,
		"file_name": export.FileName,
	})

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Gradebook export queued",
		"report":  export,
	})
}

// DownloadGradebook builds the gradebook for one class and streams it back
// immediately. A copy lands in S3 and the export history alongside the
// queued variant.
func (rc *ReportController) DownloadGradebook(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	classID, err := strconv.ParseUint(c.Query("class_id"), 10, 32)
	if err != nil {
		return validationError(c, map[string]string{"class_id": "class_id is a required field"})
	}

	var class models.Class
	if err := database.DB.First(&class, uint(classID)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Class not found",
		})
	}

	if !viewer.IsAdmin() && !viewer.TeachesClass(class.ID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient permissions",
		})
	}

	export, data, err := rc.service.GenerateGradebookSync(&class, viewer.User.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate gradebook",
		})
	}

	// Log activity
	middleware.LogActivity(c, "EXPORT", "reports", export.ID, fiber.Map{
		"class_id":  class.ID,
		"file_name": export.FileName,
		"mode":      "download",
	})

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	return c.Send(data)
}

// GetReports lists exports; admins see all, everyone else their own
func (rc *ReportController) GetReports(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	offset := (page - 1) * limit

	query := database.DB.Model(&models.ReportExport{})
	if !viewer.IsAdmin() {
		query = query.Where("requested_by_id = ?", viewer.User.ID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var reports []models.ReportExport
	if err := query.Preload("Class").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&reports).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch reports",
		})
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"pagination": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetReport returns one export with a download link once it has completed
func (rc *ReportController) GetReport(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report ID",
		})
	}

	query := database.DB.Preload("Class")
	if !viewer.IsAdmin() {
		query = query.Where("requested_by_id = ?", viewer.User.ID)
	}

	var report models.ReportExport
	if err := query.First(&report, uint(id)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report not found",
		})
	}

	payload := fiber.Map{
		"report": report,
	}
	if report.Status == "completed" {
		if url, err := rc.service.PresignDownload(&report); err == nil {
			payload["download_url"] = url
		}
	}

	return c.JSON(payload)
}
