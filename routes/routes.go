package routes

import (
	"strings"

	"lmsportal_go/controllers"
	"lmsportal_go/middleware"
	"lmsportal_go/services"
	"lmsportal_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	subjectController := &controllers.SubjectController{}
	teacherController := &controllers.TeacherController{}
	classController := &controllers.ClassController{}
	studentController := &controllers.StudentController{}
	assignmentController := &controllers.AssignmentController{}
	gradeController := &controllers.GradeController{}
	attendanceController := &controllers.AttendanceController{}
	dashboardController := &controllers.DashboardController{}
	reportController := controllers.NewReportController()
	notificationController := &controllers.NotificationController{}
	logController := &controllers.LogController{}
	healthController := controllers.NewHealthController(services.NewHealthService("LMS Portal API", "1.0.0"))
	apiController := &controllers.APIController{}
	wsController := controllers.NewWebSocketController(wsHub)

	// Versioned alias: /api/v1/... serves the same routes as /api/...
	app.Use("/api/v1", func(c *fiber.Ctx) error {
		c.Path("/api" + strings.TrimPrefix(c.Path(), "/api/v1"))
		return c.RestartRouting()
	})

	// API group
	api := app.Group("/api")

	// Public endpoints (no authentication required)
	api.Get("/", apiController.GetEndpoints)
	api.Get("/endpoints", apiController.GetEndpoints)
	api.Get("/health", healthController.GetHealthStatus)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Post("/refresh", authController.Refresh)

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware(), middleware.ViewerMiddleware())

	// Profile routes (authenticated users)
	protected.Get("/auth/profile", authController.GetProfile)
	protected.Get("/profile/me", authController.GetProfile)
	protected.Post("/auth/logout", authController.Logout)
	protected.Put("/auth/change-password", authController.ChangePassword)

	// Registration is restricted to administrators
	protected.Post("/auth/register", middleware.RequireAdmin(), authController.Register)

	// User management routes (admin only)
	users := protected.Group("/users", middleware.RequireAdmin())
	users.Get("/", userController.GetUsers)
	users.Post("/", authController.Register) // Registration goes through the auth controller
	users.Post("/convert-to-teacher", userController.ConvertToTeacher)
	users.Post("/convert-to-student", userController.ConvertToStudent)
	users.Get("/:id", userController.GetUser)
	users.Put("/:id", userController.UpdateUser)
	users.Delete("/:id", userController.DeleteUser)

	// Subject management routes
	subjects := protected.Group("/subjects")
	subjects.Get("/", subjectController.GetSubjects)
	subjects.Get("/:id", subjectController.GetSubject)
	subjects.Post("/", middleware.RequireAdmin(), subjectController.CreateSubject)
	subjects.Put("/:id", middleware.RequireAdmin(), subjectController.UpdateSubject)
	subjects.Delete("/:id", middleware.RequireAdmin(), subjectController.DeleteSubject)

	// Teacher management routes
	teachers := protected.Group("/teachers")
	teachers.Get("/", teacherController.GetTeachers)
	teachers.Get("/:id", teacherController.GetTeacher)
	teachers.Post("/", middleware.RequireAdmin(), teacherController.CreateTeacher)
	teachers.Put("/:id", teacherController.UpdateTeacher)
	teachers.Delete("/:id", middleware.RequireAdmin(), teacherController.DeleteTeacher)
	teachers.Get("/:id/classes", teacherController.GetTeacherClasses)
	teachers.Get("/:id/students", teacherController.GetTeacherStudents)

	// Class management routes
	classes := protected.Group("/classes")
	classes.Get("/", classController.GetClasses)
	classes.Get("/:id", classController.GetClass)
	classes.Post("/", middleware.RequireAdmin(), classController.CreateClass)
	classes.Put("/:id", middleware.RequireTeacherOrAdmin(), classController.UpdateClass)
	classes.Delete("/:id", middleware.RequireTeacherOrAdmin(), classController.DeleteClass)

	// Student management routes
	students := protected.Group("/students")
	students.Get("/", studentController.GetStudents)
	students.Get("/:id", studentController.GetStudent)
	students.Post("/", middleware.RequireAdmin(), studentController.CreateStudent)
	students.Put("/:id", middleware.RequireTeacherOrAdmin(), studentController.UpdateStudent)
	students.Delete("/:id", middleware.RequireAdmin(), studentController.DeleteStudent)
	students.Get("/:id/grades", studentController.GetStudentGrades)
	students.Get("/:id/attendance", studentController.GetStudentAttendance)

	// Assignment management routes
	assignments := protected.Group("/assignments")
	assignments.Get("/", assignmentController.GetAssignments)
	assignments.Get("/:id", assignmentController.GetAssignment)
	assignments.Post("/", middleware.RequireTeacherOrAdmin(), assignmentController.CreateAssignment)
	assignments.Put("/:id", middleware.RequireTeacherOrAdmin(), assignmentController.UpdateAssignment)
	assignments.Delete("/:id", middleware.RequireTeacherOrAdmin(), assignmentController.DeleteAssignment)
	assignments.Get("/:id/grades", assignmentController.GetAssignmentGrades)

	// Grade management routes
	grades := protected.Group("/grades")
	grades.Get("/", gradeController.GetGrades)
	grades.Get("/:id", gradeController.GetGrade)
	grades.Post("/", middleware.RequireTeacherOrAdmin(), gradeController.CreateGrade)
	grades.Put("/:id", middleware.RequireTeacherOrAdmin(), gradeController.UpdateGrade)
	grades.Delete("/:id", middleware.RequireTeacherOrAdmin(), gradeController.DeleteGrade)

	// Attendance management routes
	attendance := protected.Group("/attendance")
	attendance.Get("/", attendanceController.GetAttendance)
	attendance.Post("/bulk", middleware.RequireTeacherOrAdmin(), attendanceController.BulkMarkAttendance)
	attendance.Get("/:id", attendanceController.GetAttendanceRecord)
	attendance.Post("/", middleware.RequireTeacherOrAdmin(), attendanceController.CreateAttendance)
	attendance.Put("/:id", middleware.RequireTeacherOrAdmin(), attendanceController.UpdateAttendance)
	attendance.Delete("/:id", middleware.RequireTeacherOrAdmin(), attendanceController.DeleteAttendance)

	// Dashboard routes (role-aware statistics)
	protected.Get("/dashboard/stats", dashboardController.GetDashboard)
	protected.Get("/dashboard", dashboardController.GetDashboard)

	// Report export routes
	reports := protected.Group("/reports")
	reports.Get("/gradebook", middleware.RequireTeacherOrAdmin(), reportController.DownloadGradebook)
	reports.Post("/gradebook", middleware.RequireTeacherOrAdmin(), reportController.RequestGradebook)
	reports.Get("/", reportController.GetReports)
	reports.Get("/:id", reportController.GetReport)

	// Notification management routes
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Get("/stats", middleware.RequireAdmin(), notificationController.GetNotificationStats)
	notifications.Get("/:id", notificationController.GetNotification)
	notifications.Post("/", middleware.RequireAdmin(), notificationController.CreateNotification)
	notifications.Patch("/:id/read", notificationController.MarkAsRead)
	notifications.Patch("/mark-all-read", notificationController.MarkAllAsRead)
	notifications.Delete("/:id", notificationController.DeleteNotification)

	// Log management routes (Admin only)
	logs := protected.Group("/logs", middleware.RequireAdmin())
	logs.Get("/", logController.GetLogs)
	logs.Get("/stats", logController.GetLogStats)
	logs.Get("/export", logController.ExportLogs)
	logs.Get("/archives", logController.GetLogArchives)
	logs.Get("/archives/:id/download", logController.DownloadLogArchive)
	logs.Post("/flush-cache", logController.FlushCachedLogs)
	logs.Delete("/old", logController.DeleteOldLogs)
	logs.Get("/:id", logController.GetLog)

	// WebSocket routes
	ws := protected.Group("/ws")
	ws.Get("/stats", middleware.RequireAdmin(), wsController.GetWebSocketStats)

	// WebSocket connection endpoint - use websocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		// IsWebSocketUpgrade returns true if the client
		// requested upgrade to the WebSocket protocol.
		if fiberws.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", wsController.WebSocketHandler())
}

// SetupStaticRoutes configures static file serving
func SetupStaticRoutes(app *fiber.App) {
	// Serve static files if needed
	app.Static("/", "./public")
}
