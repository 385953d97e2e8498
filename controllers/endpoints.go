package controllers

import (
	"github.com/gofiber/fiber/v2"
)

// APIController serves the API index so clients can discover the
// available endpoints without authentication
type APIController struct{}

// GetEndpoints lists all available API endpoints
func (ac *APIController) GetEndpoints(c *fiber.Ctx) error {
	base := c.BaseURL() + "/api/"

	endpoints := fiber.Map{
		"authentication": fiber.Map{
			"login":         base + "auth/login",
			"refresh_token": base + "auth/refresh",
			"register":      base + "auth/register",
			"logout":        base + "auth/logout",
		},
		"user_profile": fiber.Map{
			"current_user":    base + "profile/me",
			"change_password": base + "auth/change-password",
		},
		"dashboard": fiber.Map{
			"statistics": base + "dashboard/stats",
		},
		"users": fiber.Map{
			"list":               base + "users",
			"detail":             base + "users/{id}",
			"convert_to_teacher": base + "users/convert-to-teacher",
			"convert_to_student": base + "users/convert-to-student",
		},
		"students": fiber.Map{
			"list":       base + "students",
			"create":     base + "students",
			"detail":     base + "students/{id}",
			"update":     base + "students/{id}",
			"delete":     base + "students/{id}",
			"grades":     base + "students/{id}/grades",
			"attendance": base + "students/{id}/attendance",
		},
		"teachers": fiber.Map{
			"list":             base + "teachers",
			"create":           base + "teachers",
			"detail":           base + "teachers/{id}",
			"update":           base + "teachers/{id}",
			"delete":           base + "teachers/{id}",
			"teacher_classes":  base + "teachers/{id}/classes",
			"teacher_students": base + "teachers/{id}/students",
		},
		"classes": fiber.Map{
			"list":   base + "classes",
			"create": base + "classes",
			"detail": base + "classes/{id}",
			"update": base + "classes/{id}",
			"delete": base + "classes/{id}",
		},
		"subjects": fiber.Map{
			"list":   base + "subjects",
			"create": base + "subjects",
			"detail": base + "subjects/{id}",
			"update": base + "subjects/{id}",
			"delete": base + "subjects/{id}",
		},
		"assignments": fiber.Map{
			"list":   base + "assignments",
			"create": base + "assignments",
			"detail": base + "assignments/{id}",
			"update": base + "assignments/{id}",
			"delete": base + "assignments/{id}",
			"grades": base + "assignments/{id}/grades",
		},
		"grades": fiber.Map{
			"list":   base + "grades",
			"create": base + "grades",
			"detail": base + "grades/{id}",
			"update": base + "grades/{id}",
			"delete": base + "grades/{id}",
		},
		"attendance": fiber.Map{
			"list":      base + "attendance",
			"create":    base + "attendance",
			"bulk_mark": base + "attendance/bulk",
			"detail":    base + "attendance/{id}",
			"update":    base + "attendance/{id}",
			"delete":    base + "attendance/{id}",
		},
		"reports": fiber.Map{
			"gradebook_download": base + "reports/gradebook",
			"list":               base + "reports",
			"detail":             base + "reports/{id}",
		},
		"notifications": fiber.Map{
			"list":          base + "notifications",
			"unread_count":  base + "notifications/unread-count",
			"mark_read":     base + "notifications/{id}/read",
			"mark_all_read": base + "notifications/mark-all-read",
		},
		"health": fiber.Map{
			"status": base + "health",
		},
	}

	return c.JSON(fiber.Map{
		"message":   "LMS Portal API v1",
		"version":   "1.0.0",
		"endpoints": endpoints,
		"authentication": fiber.Map{
			"type":         "JWT Bearer Token",
			"header":       "Authorization: Bearer <token>",
			"obtain_token": base + "auth/login",
		},
		"permissions": fiber.Map{
			"admin":   "Full access to all resources",
			"teacher": "Access to assigned classes, students, and grading",
			"student": "Read-only access to own data",
			"staff":   "Read-only access to most resources",
		},
	})
}
