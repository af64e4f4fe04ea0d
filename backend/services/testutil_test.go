package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"learnhub/backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBCounter int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A uniquely named shared-cache memory DB keeps gorm's connection pool
	// on one database while isolating tests from each other.
	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test database: %v", err)
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
		t.Fatalf("migrate test database: %v", err)
	}

	return db
}

type fixture struct {
	DB         *gorm.DB
	User       models.User
	Course     models.Course
	Videos     []models.CurriculumItem
	Quizzes    []models.CurriculumItem
	Enrollment models.Enrollment
}

// newFixture seeds a learner enrolled in a course with the given number of
// videos and quizzes.
func newFixture(t *testing.T, videos, quizzes int) *fixture {
	t.Helper()
	db := openTestDB(t)

	f := &fixture{DB: db}

	f.User = models.User{Username: "learner", Email: "learner@example.com", PasswordHash: "x"}
	if err := db.Create(&f.User).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	f.Course = models.Course{Title: "Intro to Go", AuthorID: f.User.ID}
	if err := db.Create(&f.Course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	for i := 0; i < videos; i++ {
		item := models.CurriculumItem{
			CourseID:      f.Course.ID,
			ItemType:      models.ItemTypeVideo,
			Title:         fmt.Sprintf("Video %d", i+1),
			SequenceOrder: i + 1,
			DurationSec:   600,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create video item: %v", err)
		}
		f.Videos = append(f.Videos, item)
	}

	for i := 0; i < quizzes; i++ {
		item := models.CurriculumItem{
			CourseID:      f.Course.ID,
			ItemType:      models.ItemTypeQuiz,
			Title:         fmt.Sprintf("Quiz %d", i+1),
			SequenceOrder: videos + i + 1,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create quiz item: %v", err)
		}
		f.Quizzes = append(f.Quizzes, item)
	}

	f.Enrollment = models.Enrollment{UserID: f.User.ID, CourseID: f.Course.ID, Status: models.EnrollmentStatusEnrolled}
	if err := db.Create(&f.Enrollment).Error; err != nil {
		t.Fatalf("create enrollment: %v", err)
	}

	return f
}
