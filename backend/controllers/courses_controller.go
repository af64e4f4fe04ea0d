package controllers

import (
	"encoding/json"
	"errors"
	"strconv"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CoursesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg}
}

func (cc *CoursesController) GetAvailableCourses(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	category := c.Query("category")
	institution := c.Query("institution")

	query := cc.DB.Model(&models.Course{})
	if category != "" {
		query = query.Where("category LIKE ?", "%"+category+"%")
	}
	if institution != "" {
		query = query.Where("institution LIKE ?", "%"+institution+"%")
	}

	var courses []models.Course
	query.Find(&courses)

	var result []fiber.Map
	for _, course := range courses {
		var itemCount int64
		cc.DB.Model(&models.CurriculumItem{}).Where("course_id = ?", course.ID).Count(&itemCount)

		result = append(result, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.ShortDesc,
			"category":    course.Category,
			"institution": course.Institution,
			"author":      course.AuthorID,
			"logo_url":    course.LogoURL,
			"items":       itemCount,
		})
	}

	return c.JSON(result)
}

func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := cc.DB.Preload("Items").Preload("Items.Questions").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	// Question options come out of storage as JSON text
	var items []fiber.Map
	for _, item := range course.Items {
		entry := fiber.Map{
			"id":    item.ID,
			"type":  item.ItemType,
			"title": item.Title,
			"order": item.SequenceOrder,
		}
		if item.ItemType == models.ItemTypeVideo {
			entry["duration_sec"] = item.DurationSec
			entry["video_url"] = item.VideoURL
		} else {
			var questions []fiber.Map
			for _, q := range item.Questions {
				options := []string{}
				if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
					// Malformed stored options render as an empty list.
					options = []string{}
				}
				questions = append(questions, fiber.Map{
					"id":       q.ID,
					"question": q.Question,
					"options":  options,
					"order":    q.SequenceOrder,
				})
			}
			entry["questions"] = questions
		}
		items = append(items, entry)
	}

	var enrollment models.Enrollment
	enrolled := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error == nil

	response := fiber.Map{
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"description": course.Description,
			"short_desc":  course.ShortDesc,
			"category":    course.Category,
			"institution": course.Institution,
			"logo_url":    course.LogoURL,
			"author":      course.AuthorID,
			"items":       items,
		},
		"enrolled": enrolled,
	}
	if enrolled {
		response["enrollment"] = enrollment
	}

	return c.JSON(response)
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	course.AuthorID = userID

	if err := cc.DB.Create(&course).Error; err != nil {
		return utils.InternalServerError(c, "Could not create course")
	}

	return c.JSON(fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

type AddItemRequest struct {
	ItemType    string `json:"item_type"`
	Title       string `json:"title"`
	DurationSec int    `json:"duration_sec"`
	VideoURL    string `json:"video_url"`
	Questions   []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
	} `json:"questions"`
}

func (cc *CoursesController) AddItem(c *fiber.Ctx) error {
	if _, err := utils.ExtractUserIDFromToken(c, cc.Cfg); err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var input AddItemRequest
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}
	if input.ItemType != models.ItemTypeVideo && input.ItemType != models.ItemTypeQuiz {
		return utils.BadRequest(c, "Item type must be video or quiz")
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	var itemCount int64
	cc.DB.Model(&models.CurriculumItem{}).Where("course_id = ?", courseID).Count(&itemCount)

	item := models.CurriculumItem{
		CourseID:      uint(courseID),
		ItemType:      input.ItemType,
		Title:         input.Title,
		SequenceOrder: int(itemCount) + 1,
		DurationSec:   input.DurationSec,
		VideoURL:      input.VideoURL,
	}

	for i, q := range input.Questions {
		optionsJSON, _ := json.Marshal(q.Options)
		item.Questions = append(item.Questions, models.QuizQuestion{
			Question:      q.Question,
			Options:       string(optionsJSON),
			CorrectAnswer: q.CorrectAnswer,
			SequenceOrder: i + 1,
		})
	}

	if err := cc.DB.Create(&item).Error; err != nil {
		return utils.InternalServerError(c, "Could not create curriculum item")
	}

	return c.JSON(fiber.Map{
		"message": "Curriculum item added",
		"item":    item,
	})
}

// GetCourseAnalytics lists per-learner progress for one course.
func (cc *CoursesController) GetCourseAnalytics(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var enrollments []models.Enrollment
	if err := cc.DB.Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	var learners []fiber.Map
	for _, enrollment := range enrollments {
		var user models.User
		if err := cc.DB.First(&user, enrollment.UserID).Error; err != nil {
			continue
		}

		learners = append(learners, fiber.Map{
			"user_id":      user.ID,
			"username":     user.Username,
			"status":       enrollment.Status,
			"progress":     enrollment.Progress,
			"completed_at": enrollment.CompletedAt,
		})
	}

	return c.JSON(fiber.Map{
		"analytics": learners,
	})
}
