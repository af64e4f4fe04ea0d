package services

import (
	"testing"

	"learnhub/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertProgressCreatesSingleRecord(t *testing.T) {
	f := newFixture(t, 1, 0)
	svc := NewProgressService(f.DB)
	in := UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 40}

	result, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 40, result.Record.Progress)
	assert.False(t, result.ItemCompleted)

	// Same report again: still exactly one row with the same value.
	result, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 40, result.Record.Progress)

	var count int64
	f.DB.Model(&models.ProgressRecord{}).
		Where("enrollment_id = ? AND item_id = ?", f.Enrollment.ID, f.Videos[0].ID).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsertProgressMaxWins(t *testing.T) {
	f := newFixture(t, 1, 0)
	svc := NewProgressService(f.DB)

	_, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 40})
	require.NoError(t, err)

	// A stale, lower report must not regress the stored high-water mark.
	result, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 30})
	require.NoError(t, err)
	assert.Equal(t, 40, result.Record.Progress)

	result, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 95})
	require.NoError(t, err)
	assert.Equal(t, 95, result.Record.Progress)
	assert.True(t, result.ItemCompleted)
}

func TestUpsertProgressStampsCompletedAtOnce(t *testing.T) {
	f := newFixture(t, 1, 0)
	svc := NewProgressService(f.DB)

	result, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 90})
	require.NoError(t, err)
	require.NotNil(t, result.Record.CompletedAt)
	first := *result.Record.CompletedAt

	result, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 100})
	require.NoError(t, err)
	require.NotNil(t, result.Record.CompletedAt)
	assert.Equal(t, first.Unix(), result.Record.CompletedAt.Unix())
}

func TestUpsertProgressValidation(t *testing.T) {
	f := newFixture(t, 1, 0)
	svc := NewProgressService(f.DB)

	_, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 101})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "podcast", Progress: 50})
	assert.ErrorIs(t, err, ErrValidation)

	// Declared type must match the item's actual kind.
	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "quiz", Progress: 50})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpsertProgressOwnershipAndExistence(t *testing.T) {
	f := newFixture(t, 1, 0)
	svc := NewProgressService(f.DB)

	other := models.User{Username: "other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, f.DB.Create(&other).Error)

	_, err := svc.UpsertProgress(other.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 50})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID+100, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 50})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID + 100, ItemType: "video", Progress: 50})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertProgressRefreshesEnrollmentAggregate(t *testing.T) {
	f := newFixture(t, 2, 0)
	svc := NewProgressService(f.DB)

	_, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 100})
	require.NoError(t, err)

	var enrollment models.Enrollment
	require.NoError(t, f.DB.First(&enrollment, f.Enrollment.ID).Error)
	assert.Equal(t, 50, enrollment.Progress)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, 2, 1)
	svc := NewProgressService(f.DB)

	_, err := svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[0].ID, ItemType: "video", Progress: 95})
	require.NoError(t, err)
	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Videos[1].ID, ItemType: "video", Progress: 50})
	require.NoError(t, err)
	_, err = svc.UpsertProgress(f.User.ID, f.Enrollment.ID, UpsertInput{ItemID: f.Quizzes[0].ID, ItemType: "quiz", Progress: 70})
	require.NoError(t, err)

	summary, err := svc.Summary(f.User.ID, f.Enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.Videos[0].ID}, summary.CompletedVideos)
	assert.Equal(t, []uint{f.Quizzes[0].ID}, summary.CompletedQuizzes)
	assert.Equal(t, 67, summary.TotalProgress)
}

func TestSummaryEmptyEnrollment(t *testing.T) {
	f := newFixture(t, 1, 1)
	svc := NewProgressService(f.DB)

	summary, err := svc.Summary(f.User.ID, f.Enrollment.ID)
	require.NoError(t, err)
	assert.Empty(t, summary.CompletedVideos)
	assert.Empty(t, summary.CompletedQuizzes)
	assert.Equal(t, 0, summary.TotalProgress)
}
