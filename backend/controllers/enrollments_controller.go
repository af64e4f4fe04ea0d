package controllers

import (
	"errors"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type EnrollmentsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewEnrollmentsController(db *gorm.DB, cfg *config.Config) *EnrollmentsController {
	return &EnrollmentsController{DB: db, Cfg: cfg}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Creates an enrollment for the authenticated user
// @Tags enrollments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments [post]
func (ec *EnrollmentsController) Enroll(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var input struct {
		CourseID uint `json:"course_id"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var course models.Course
	if err := ec.DB.First(&course, input.CourseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	enrollment := models.Enrollment{
		UserID:   userID,
		CourseID: input.CourseID,
		Status:   models.EnrollmentStatusEnrolled,
	}

	if err := ec.DB.Create(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.Conflict(c, "Already enrolled in this course")
		}
		return utils.InternalServerError(c, "Could not create enrollment")
	}

	return c.JSON(fiber.Map{
		"message":    "Enrolled",
		"enrollment": enrollment,
	})
}

// ListEnrollments godoc
// @Summary List own enrollments
// @Description Returns the user's enrollments with cached progress
// @Tags enrollments
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments [get]
func (ec *EnrollmentsController) ListEnrollments(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ec.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var enrollments []models.Enrollment
	ec.DB.Where("user_id = ?", userID).Find(&enrollments)

	var result []fiber.Map
	for _, enrollment := range enrollments {
		var course models.Course
		if err := ec.DB.First(&course, enrollment.CourseID).Error; err != nil {
			continue
		}

		result = append(result, fiber.Map{
			"id":           enrollment.ID,
			"course_id":    course.ID,
			"course_title": course.Title,
			"status":       enrollment.Status,
			"progress":     enrollment.Progress,
			"completed_at": enrollment.CompletedAt,
		})
	}

	return c.JSON(result)
}
