package models

import (
	"time"

	"gorm.io/gorm"
)

// ProgressRecord stores the raw reported percentage for one learner/item
// pair. At most one row exists per (enrollment_id, user_id, item_id); the
// unique index is what makes concurrent upserts for the same key safe.
// Completion thresholds are applied at aggregation time, not stored here.
type ProgressRecord struct {
	gorm.Model
	EnrollmentID uint   `gorm:"index:idx_progress_key,unique;not null"`
	UserID       uint   `gorm:"index:idx_progress_key,unique;not null"`
	ItemID       uint   `gorm:"index:idx_progress_key,unique;not null"`
	ItemType     string `gorm:"not null"` // video, quiz
	Progress     int    `gorm:"not null;default:0"`
	CompletedAt  *time.Time
}
