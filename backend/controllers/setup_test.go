package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/routes"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	app        *fiber.App
	db         *gorm.DB
	cfg        *config.Config
	adminToken string
	userToken  string
	adminID    uint
	userID     uint
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	var err error
	db, err = gorm.Open(sqlite.Open("file:controllers_test?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		panic(err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CurriculumItem{},
		&models.QuizQuestion{},
		&models.Enrollment{},
		&models.ProgressRecord{},
		&models.Certificate{},
		&models.LegacyMigration{},
	)
	if err != nil {
		panic(err)
	}

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg)

	adminToken, adminID = registerUser("admin", "admin@example.com")
	if err := db.Model(&models.User{}).Where("id = ?", adminID).Update("role", "admin").Error; err != nil {
		panic(err)
	}
	userToken, userID = registerUser("learner", "learner@example.com")
}

func registerUser(username, email string) (string, uint) {
	body, status := request("POST", "/api/auth/register", "", map[string]interface{}{
		"Username":     username,
		"Email":        email,
		"PasswordHash": "password123",
	})
	if status != http.StatusOK {
		panic(fmt.Sprintf("register %s: status %d", username, status))
	}
	token := body["token"].(string)
	id := uint(body["user"].(map[string]interface{})["id"].(float64))
	return token, id
}

// request fires a JSON request at the test app and decodes the response.
func request(method, path, token string, payload interface{}) (map[string]interface{}, int) {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode
}

// createCourse seeds a course with the given curriculum over the admin API.
func createCourse(t *testing.T, videos, quizzes int) (uint, []uint, []uint) {
	t.Helper()

	body, status := request("POST", "/api/admin/courses", adminToken, map[string]interface{}{
		"Title":     "Course " + t.Name(),
		"ShortDesc": "test course",
	})
	if status != http.StatusOK {
		t.Fatalf("create course: status %d", status)
	}
	courseID := uint(body["course"].(map[string]interface{})["ID"].(float64))

	var videoIDs, quizIDs []uint
	for i := 0; i < videos; i++ {
		body, status = request("POST", fmt.Sprintf("/api/admin/courses/%d/items", courseID), adminToken, map[string]interface{}{
			"item_type":    "video",
			"title":        fmt.Sprintf("Video %d", i+1),
			"duration_sec": 300,
		})
		if status != http.StatusOK {
			t.Fatalf("add video: status %d", status)
		}
		videoIDs = append(videoIDs, uint(body["item"].(map[string]interface{})["ID"].(float64)))
	}
	for i := 0; i < quizzes; i++ {
		body, status = request("POST", fmt.Sprintf("/api/admin/courses/%d/items", courseID), adminToken, map[string]interface{}{
			"item_type": "quiz",
			"title":     fmt.Sprintf("Quiz %d", i+1),
			"questions": []map[string]interface{}{
				{"question": "2+2?", "options": []string{"3", "4"}, "correct_answer": 1},
			},
		})
		if status != http.StatusOK {
			t.Fatalf("add quiz: status %d", status)
		}
		quizIDs = append(quizIDs, uint(body["item"].(map[string]interface{})["ID"].(float64)))
	}

	return courseID, videoIDs, quizIDs
}

// enroll enrolls the default learner and returns the enrollment ID.
func enroll(t *testing.T, courseID uint) uint {
	t.Helper()

	body, status := request("POST", "/api/enrollments", userToken, map[string]interface{}{
		"course_id": courseID,
	})
	if status != http.StatusOK {
		t.Fatalf("enroll: status %d", status)
	}
	return uint(body["enrollment"].(map[string]interface{})["ID"].(float64))
}
