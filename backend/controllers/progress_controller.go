package controllers

import (
	"errors"
	"strconv"

	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	DB           *gorm.DB
	Cfg          *config.Config
	Progress     *services.ProgressService
	Certificates *services.CertificateService
	Guard        *services.InFlightGuard
}

func NewProgressController(db *gorm.DB, cfg *config.Config) *ProgressController {
	progress := services.NewProgressService(db)
	return &ProgressController{
		DB:           db,
		Cfg:          cfg,
		Progress:     progress,
		Certificates: services.NewCertificateService(db, progress),
		Guard:        services.NewInFlightGuard(),
	}
}

// UpdateProgress godoc
// @Summary Report progress for a curriculum item
// @Description Upserts the watched/score percentage for one video or quiz
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 429 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/{id}/progress [post]
func (pc *ProgressController) UpdateProgress(c *fiber.Ctx) error {
	userID, enrollmentID, err := pc.callerAndEnrollment(c)
	if err != nil {
		return err
	}

	var input services.UpsertInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var result *services.UpsertResult
	err = pc.Guard.Do(services.ProgressKey(userID, enrollmentID, input.ItemID), func() error {
		var upsertErr error
		result, upsertErr = pc.Progress.UpsertProgress(userID, enrollmentID, input)
		return upsertErr
	})
	if err != nil {
		return pc.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"progress":      result.Record.Progress,
		"itemCompleted": result.ItemCompleted,
	})
}

// GetProgress godoc
// @Summary Get enrollment progress
// @Description Returns completed item IDs by kind and the overall percentage
// @Tags progress
// @Produce json
// @Success 200 {object} services.ProgressSummary
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/{id}/progress [get]
func (pc *ProgressController) GetProgress(c *fiber.Ctx) error {
	userID, enrollmentID, err := pc.callerAndEnrollment(c)
	if err != nil {
		return err
	}

	summary, err := pc.Progress.Summary(userID, enrollmentID)
	if err != nil {
		return pc.serviceError(c, err)
	}

	return c.JSON(summary)
}

// IssueCertificate godoc
// @Summary Issue the course certificate
// @Description Issues the certificate once aggregate progress reaches 80%
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/{id}/issue-certificate [post]
func (pc *ProgressController) IssueCertificate(c *fiber.Ctx) error {
	userID, enrollmentID, err := pc.callerAndEnrollment(c)
	if err != nil {
		return err
	}

	cert, err := pc.Certificates.Issue(userID, enrollmentID)
	if err != nil {
		return pc.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"certificate": cert,
	})
}

// GetCertificate godoc
// @Summary Get the course certificate
// @Description Returns the certificate, issuing it on read when eligible
// @Tags progress
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/{id}/certificate [get]
func (pc *ProgressController) GetCertificate(c *fiber.Ctx) error {
	userID, enrollmentID, err := pc.callerAndEnrollment(c)
	if err != nil {
		return err
	}

	cert, err := pc.Certificates.Get(userID, enrollmentID)
	if err != nil {
		return pc.serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"certificate": cert,
	})
}

// MigrateLegacy godoc
// @Summary Fold client-cached completions into the progress store
// @Description One-shot replay of locally cached completed item IDs
// @Tags progress
// @Accept json
// @Produce json
// @Success 200 {object} services.LegacyResult
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /enrollments/{id}/migrate-legacy [post]
func (pc *ProgressController) MigrateLegacy(c *fiber.Ctx) error {
	userID, enrollmentID, err := pc.callerAndEnrollment(c)
	if err != nil {
		return err
	}

	var payload services.LegacyPayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	result, err := pc.Progress.MigrateLegacy(userID, enrollmentID, payload)
	if err != nil {
		return pc.serviceError(c, err)
	}

	return c.JSON(result)
}

func (pc *ProgressController) callerAndEnrollment(c *fiber.Ctx) (uint, uint, error) {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return 0, 0, utils.Unauthorized(c, "Unauthorized")
	}

	enrollmentID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, 0, utils.BadRequest(c, "Invalid enrollment ID")
	}

	return userID, uint(enrollmentID), nil
}

// serviceError maps the services error taxonomy onto HTTP responses.
func (pc *ProgressController) serviceError(c *fiber.Ctx, err error) error {
	var ineligible *services.IneligibleError
	var transient *services.TransientStoreError

	switch {
	case errors.Is(err, services.ErrValidation):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInFlight):
		return utils.Error(c, fiber.StatusTooManyRequests, err)
	case errors.As(err, &ineligible):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err, fiber.Map{
			"progress": ineligible.Progress,
			"required": ineligible.Required,
		})
	case errors.As(err, &transient):
		return utils.Error(c, fiber.StatusServiceUnavailable, err)
	}
	return utils.InternalServerError(c, err.Error())
}
