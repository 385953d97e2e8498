package controllers

import (
	"fmt"
	"time"

	"lmsportal_go/database"
	"lmsportal_go/middleware"
	"lmsportal_go/models"
	"lmsportal_go/permissions"
	"lmsportal_go/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardController struct{}

// GetDashboard returns role-specific summary statistics. Results are cached
// in Redis for a short window because the counts touch most tables.
func (dc *DashboardController) GetDashboard(c *fiber.Ctx) error {
	viewer, err := middleware.GetViewer(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Viewer not found in context",
		})
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%d", viewer.Role, viewer.User.ID)
	if cached := readDashboardCache(cacheKey); cached != nil {
		return c.JSON(cached)
	}

	var stats fiber.Map
	switch viewer.Role {
	case models.RoleAdmin, models.RoleStaff:
		// Staff see the same totals as admins, read-only
		stats = dc.adminStats()
	case models.RoleTeacher:
		stats = dc.teacherStats(viewer)
	case models.RoleStudent:
		stats = dc.studentStats(viewer)
	default:
		stats = fiber.Map{}
	}

	writeDashboardCache(cacheKey, stats)

	return c.JSON(stats)
}

func (dc *DashboardController) adminStats() fiber.Map {
	var totalStudents, totalTeachers, totalClasses, totalSubjects, totalAssignments int64

	database.DB.Model(&models.Student{}).Where("is_active = ?", true).Count(&totalStudents)
	database.DB.Model(&models.Teacher{}).Where("is_active = ?", true).Count(&totalTeachers)
	database.DB.Model(&models.Class{}).Where("is_active = ?", true).Count(&totalClasses)
	database.DB.Model(&models.Subject{}).Count(&totalSubjects)
	database.DB.Model(&models.Assignment{}).Where("is_active = ?", true).Count(&totalAssignments)

	return fiber.Map{
		"total_students":    totalStudents,
		"total_teachers":    totalTeachers,
		"total_classes":     totalClasses,
		"total_subjects":    totalSubjects,
		"total_assignments": totalAssignments,
	}
}

func (dc *DashboardController) teacherStats(viewer *permissions.Viewer) fiber.Map {
	teacherID, ok := viewer.TeacherID()
	if !ok {
		return fiber.Map{}
	}

	var myClasses int64
	database.DB.Model(&models.Class{}).Where("teacher_id = ?", teacherID).Count(&myClasses)

	var myStudents int64
	if len(viewer.ClassIDs) > 0 {
		database.DB.Model(&models.Student{}).Where("class_id IN ?", viewer.ClassIDs).Count(&myStudents)
	}

	var pendingAssignments int64
	database.DB.Model(&models.Assignment{}).
		Where("teacher_id = ? AND due_date >= ?", teacherID, time.Now()).
		Count(&pendingAssignments)

	subjectsTeaching := database.DB.Model(viewer.Teacher).Association("Subjects").Count()

	return fiber.Map{
		"my_classes":          myClasses,
		"my_students":         myStudents,
		"pending_assignments": pendingAssignments,
		"subjects_teaching":   subjectsTeaching,
	}
}

func (dc *DashboardController) studentStats(viewer *permissions.Viewer) fiber.Map {
	studentID, ok := viewer.StudentID()
	if !ok {
		return fiber.Map{}
	}

	myClass := "Not assigned"
	var totalAssignments int64
	if viewer.Student.ClassID != nil {
		var class models.Class
		if err := database.DB.First(&class, *viewer.Student.ClassID).Error; err == nil {
			myClass = class.Name
		}
		database.DB.Model(&models.Assignment{}).Where("class_id = ?", *viewer.Student.ClassID).Count(&totalAssignments)
	}

	var completedAssignments int64
	database.DB.Model(&models.Grade{}).Where("student_id = ?", studentID).Count(&completedAssignments)

	return fiber.Map{
		"my_class":              myClass,
		"total_assignments":     totalAssignments,
		"completed_assignments": completedAssignments,
		"attendance_percentage": attendancePercentage(studentID),
	}
}

// attendancePercentage counts late arrivals as attended
func attendancePercentage(studentID uint) float64 {
	var totalDays int64
	database.DB.Model(&models.Attendance{}).Where("student_id = ?", studentID).Count(&totalDays)
	if totalDays == 0 {
		return 0
	}

	var presentDays int64
	database.DB.Model(&models.Attendance{}).
		Where("student_id = ? AND status IN ?", studentID, []string{"present", "late"}).
		Count(&presentDays)

	return utils.Round2(float64(presentDays) / float64(totalDays) * 100)
}
