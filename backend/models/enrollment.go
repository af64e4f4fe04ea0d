package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	EnrollmentStatusEnrolled  = "enrolled"
	EnrollmentStatusCompleted = "completed"
)

type Enrollment struct {
	gorm.Model
	UserID      uint   `gorm:"index:idx_enrollment_user_course,unique"`
	CourseID    uint   `gorm:"index:idx_enrollment_user_course,unique"`
	Status      string `gorm:"default:enrolled"` // enrolled, completed
	Progress    int    `gorm:"default:0"`        // cached aggregate, 0-100
	CompletedAt *time.Time
}

// LegacyMigration marks that the client-cached completion list for an
// enrollment has already been folded into progress_records. One row per
// enrollment; its presence makes a repeat replay a no-op.
type LegacyMigration struct {
	gorm.Model
	EnrollmentID  uint `gorm:"uniqueIndex"`
	ItemsReplayed int
}
