package models

import (
	"time"

	"gorm.io/gorm"
)

type Certificate struct {
	gorm.Model
	UserID            uint
	CourseID          uint
	EnrollmentID      uint   `gorm:"uniqueIndex"`
	CertificateNumber string `gorm:"unique;not null"`
	IssuedAt          time.Time
	Status            string `gorm:"default:active"` // active, revoked
}
