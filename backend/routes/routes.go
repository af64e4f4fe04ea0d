package routes

import (
	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware(db, cfg)

	// User routes
	userController := controllers.NewUserController(db, cfg)
	app.Get("/api/user/profile", authMiddleware, userController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, userController.UpdateProfile)

	// Courses routes
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", coursesController.GetAvailableCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Get("/:id/analytics", adminMiddleware, coursesController.GetCourseAnalytics)

	// Enrollment + progress routes
	enrollmentsController := controllers.NewEnrollmentsController(db, cfg)
	progressController := controllers.NewProgressController(db, cfg)
	enrollments := app.Group("/api/enrollments", authMiddleware)
	enrollments.Post("/", enrollmentsController.Enroll)
	enrollments.Get("/", enrollmentsController.ListEnrollments)
	enrollments.Post("/:id/progress", progressController.UpdateProgress)
	enrollments.Get("/:id/progress", progressController.GetProgress)
	enrollments.Post("/:id/issue-certificate", progressController.IssueCertificate)
	enrollments.Get("/:id/certificate", progressController.GetCertificate)
	enrollments.Post("/:id/migrate-legacy", progressController.MigrateLegacy)

	// Admin routes for courses
	adminCourses := app.Group("/api/admin/courses", authMiddleware, adminMiddleware)
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Post("/:id/items", coursesController.AddItem)
}
