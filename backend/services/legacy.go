package services

import (
	"errors"

	"learnhub/backend/models"

	"gorm.io/gorm/clause"
)

// LegacyPayload is the client-cached list of item IDs the old frontend
// stored locally before progress moved server-side.
type LegacyPayload struct {
	CompletedVideos  []uint `json:"completedVideos"`
	CompletedQuizzes []uint `json:"completedQuizzes"`
}

type LegacyResult struct {
	AlreadyMigrated bool `json:"alreadyMigrated"`
	ItemsReplayed   int  `json:"itemsReplayed"`
}

// MigrateLegacy folds a client-cached completion list into the progress
// store by replaying each item as a progress=100 upsert, then writes a
// per-enrollment marker so the replay runs exactly once. Re-running with an
// empty or already-migrated payload is a no-op.
func (s *ProgressService) MigrateLegacy(userID, enrollmentID uint, payload LegacyPayload) (*LegacyResult, error) {
	if _, err := s.ownedEnrollment(userID, enrollmentID); err != nil {
		return nil, err
	}

	var count int64
	err := withRetry(func() error {
		return classifyStoreErr(s.DB.Model(&models.LegacyMigration{}).
			Where("enrollment_id = ?", enrollmentID).
			Count(&count).Error)
	})
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return &LegacyResult{AlreadyMigrated: true}, nil
	}

	replay := func(itemIDs []uint, itemType string) (int, error) {
		n := 0
		for _, itemID := range itemIDs {
			_, err := s.UpsertProgress(userID, enrollmentID, UpsertInput{
				ItemID:   itemID,
				ItemType: itemType,
				Progress: 100,
			})
			// Stale cache entries for items removed from the curriculum
			// are skipped, not fatal.
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
				continue
			}
			if err != nil {
				return n, err
			}
			n++
		}
		return n, nil
	}

	replayed, err := replay(payload.CompletedVideos, models.ItemTypeVideo)
	if err != nil {
		return nil, err
	}
	n, err := replay(payload.CompletedQuizzes, models.ItemTypeQuiz)
	if err != nil {
		return nil, err
	}
	replayed += n

	marker := models.LegacyMigration{EnrollmentID: enrollmentID, ItemsReplayed: replayed}
	err = withRetry(func() error {
		return classifyStoreErr(s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&marker).Error)
	})
	if err != nil {
		return nil, err
	}

	return &LegacyResult{ItemsReplayed: replayed}, nil
}
