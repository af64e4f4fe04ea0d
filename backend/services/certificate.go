package services

import (
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

type CertificateService struct {
	DB       *gorm.DB
	Progress *ProgressService
}

func NewCertificateService(db *gorm.DB, progress *ProgressService) *CertificateService {
	return &CertificateService{DB: db, Progress: progress}
}

// Issue hands out the certificate for an enrollment once its aggregate
// reaches the eligibility threshold. Issuance is idempotent: if a
// certificate already exists it is returned as-is, never duplicated. A
// successful issue also transitions the enrollment to completed.
func (s *CertificateService) Issue(userID, enrollmentID uint) (*models.Certificate, error) {
	enrollment, err := s.Progress.ownedEnrollment(userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	if cert, err := s.find(enrollmentID); err == nil {
		return cert, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	overall, err := s.Progress.RecomputeEnrollment(enrollment)
	if err != nil {
		return nil, err
	}
	if overall < CertificateThreshold {
		return nil, &IneligibleError{Progress: overall, Required: CertificateThreshold}
	}

	now := time.Now()
	cert := models.Certificate{
		UserID:            userID,
		CourseID:          enrollment.CourseID,
		EnrollmentID:      enrollmentID,
		CertificateNumber: CertificateNumber(enrollmentID, now.Year()),
		IssuedAt:          now,
		Status:            "active",
	}

	err = withRetry(func() error {
		return classifyStoreErr(s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&cert).Error; err != nil {
				return err
			}
			return tx.Model(enrollment).Updates(map[string]interface{}{
				"status":       models.EnrollmentStatusCompleted,
				"completed_at": now,
			}).Error
		}))
	})
	if err != nil {
		// Lost a race on the unique enrollment index: another request
		// issued first, so return its certificate.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if cert, findErr := s.find(enrollmentID); findErr == nil {
				return cert, nil
			}
			return nil, fmt.Errorf("%w: certificate already issued", ErrConflict)
		}
		return nil, err
	}

	return &cert, nil
}

// Get returns the enrollment's certificate, issuing it on the fly when the
// enrollment is eligible but no certificate exists yet.
func (s *CertificateService) Get(userID, enrollmentID uint) (*models.Certificate, error) {
	if _, err := s.Progress.ownedEnrollment(userID, enrollmentID); err != nil {
		return nil, err
	}

	cert, err := s.find(enrollmentID)
	if err == nil {
		return cert, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.Issue(userID, enrollmentID)
}

// CertificateNumber derives the certificate number deterministically from
// the enrollment and issue year, so re-issuing in the same year can never
// mint a second number.
func CertificateNumber(enrollmentID uint, year int) string {
	return fmt.Sprintf("LH-%d-%06d", year, enrollmentID)
}

func (s *CertificateService) find(enrollmentID uint) (*models.Certificate, error) {
	var cert models.Certificate
	err := s.DB.Where("enrollment_id = ? AND status = ?", enrollmentID, "active").First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, classifyStoreErr(err)
	}
	return &cert, nil
}
