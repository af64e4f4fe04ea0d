package services

import (
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New()

type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

type UpsertInput struct {
	ItemID   uint   `json:"itemId" validate:"required"`
	ItemType string `json:"itemType" validate:"required,oneof=video quiz"`
	Progress int    `json:"progress" validate:"min=0,max=100"`
}

type UpsertResult struct {
	Record        models.ProgressRecord
	ItemCompleted bool // the item's threshold is reached with this value
}

// UpsertProgress records a reported percentage for one curriculum item.
// One row exists per (enrollment, user, item); a concurrent writer for the
// same key lands on the unique index and turns into an update. Stored
// progress never regresses: a lower incoming value leaves the row at its
// high-water mark.
func (s *ProgressService) UpsertProgress(userID, enrollmentID uint, in UpsertInput) (*UpsertResult, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	enrollment, err := s.ownedEnrollment(userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	var item models.CurriculumItem
	err = s.DB.Where("id = ? AND course_id = ?", in.ItemID, enrollment.CourseID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: curriculum item", ErrNotFound)
		}
		return nil, classifyStoreErr(err)
	}
	if item.ItemType != in.ItemType {
		return nil, fmt.Errorf("%w: item %d is a %s, not a %s", ErrValidation, item.ID, item.ItemType, in.ItemType)
	}

	now := time.Now()
	record := models.ProgressRecord{
		EnrollmentID: enrollmentID,
		UserID:       userID,
		ItemID:       in.ItemID,
		ItemType:     in.ItemType,
		Progress:     in.Progress,
	}

	// Atomic max-wins upsert on the (enrollment_id, user_id, item_id) key.
	// The CASE keeps the existing value when the incoming one is lower.
	err = withRetry(func() error {
		return classifyStoreErr(s.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "enrollment_id"},
				{Name: "user_id"},
				{Name: "item_id"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"progress": gorm.Expr(
					"CASE WHEN excluded.progress > progress_records.progress" +
						" THEN excluded.progress ELSE progress_records.progress END"),
				"updated_at": now,
			}),
		}).Create(&record).Error)
	})
	if err != nil {
		return nil, err
	}

	// Reload: on conflict the insert struct does not reflect the winning row.
	var out models.ProgressRecord
	err = withRetry(func() error {
		return classifyStoreErr(s.DB.
			Where("enrollment_id = ? AND user_id = ? AND item_id = ?", enrollmentID, userID, in.ItemID).
			First(&out).Error)
	})
	if err != nil {
		return nil, err
	}

	completed := ItemComplete(out.ItemType, out.Progress)
	if completed && out.CompletedAt == nil {
		err = withRetry(func() error {
			return classifyStoreErr(s.DB.Model(&out).Update("completed_at", now).Error)
		})
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.RecomputeEnrollment(enrollment); err != nil {
		return nil, err
	}

	return &UpsertResult{Record: out, ItemCompleted: completed}, nil
}

// RecomputeEnrollment derives the enrollment's aggregate from the current
// record set and refreshes the cached value on the enrollment row.
func (s *ProgressService) RecomputeEnrollment(enrollment *models.Enrollment) (int, error) {
	var items []models.CurriculumItem
	if err := classifyStoreErr(s.DB.Where("course_id = ?", enrollment.CourseID).Find(&items).Error); err != nil {
		return 0, err
	}

	var records []models.ProgressRecord
	if err := classifyStoreErr(s.DB.Where("enrollment_id = ?", enrollment.ID).Find(&records).Error); err != nil {
		return 0, err
	}

	overall := AggregateProgress(items, records)
	if overall != enrollment.Progress {
		if err := classifyStoreErr(s.DB.Model(enrollment).Update("progress", overall).Error); err != nil {
			return 0, err
		}
	}
	enrollment.Progress = overall

	return overall, nil
}

type ProgressSummary struct {
	CompletedVideos  []uint `json:"completedVideos"`
	CompletedQuizzes []uint `json:"completedQuizzes"`
	TotalProgress    int    `json:"totalProgress"`
}

// Summary returns the enrollment's completed item IDs by kind plus the
// overall aggregate, recomputed on read.
func (s *ProgressService) Summary(userID, enrollmentID uint) (*ProgressSummary, error) {
	enrollment, err := s.ownedEnrollment(userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	overall, err := s.RecomputeEnrollment(enrollment)
	if err != nil {
		return nil, err
	}

	var records []models.ProgressRecord
	if err := classifyStoreErr(s.DB.Where("enrollment_id = ?", enrollmentID).Find(&records).Error); err != nil {
		return nil, err
	}

	summary := &ProgressSummary{
		CompletedVideos:  []uint{},
		CompletedQuizzes: []uint{},
		TotalProgress:    overall,
	}
	for _, record := range records {
		if !ItemComplete(record.ItemType, record.Progress) {
			continue
		}
		switch record.ItemType {
		case models.ItemTypeVideo:
			summary.CompletedVideos = append(summary.CompletedVideos, record.ItemID)
		case models.ItemTypeQuiz:
			summary.CompletedQuizzes = append(summary.CompletedQuizzes, record.ItemID)
		}
	}

	return summary, nil
}

// ownedEnrollment loads an enrollment and checks the caller owns it.
func (s *ProgressService) ownedEnrollment(userID, enrollmentID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := s.DB.First(&enrollment, enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: enrollment", ErrNotFound)
		}
		return nil, classifyStoreErr(err)
	}
	if enrollment.UserID != userID {
		return nil, fmt.Errorf("%w: enrollment belongs to another user", ErrForbidden)
	}
	return &enrollment, nil
}
