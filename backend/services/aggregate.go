package services

import (
	"math"

	"learnhub/backend/models"
)

// Completion thresholds. A video counts once 90% of it has been watched, a
// quiz once it scores 60%. Certificate eligibility requires an 80% course
// aggregate. Thresholds apply at aggregation time; stored records keep the
// raw percentage so the policy can change without rewriting history.
const (
	VideoCompletionThreshold = 90
	QuizCompletionThreshold  = 60
	CertificateThreshold     = 80
)

// ItemComplete reports whether a raw percentage completes an item of the
// given type.
func ItemComplete(itemType string, progress int) bool {
	switch itemType {
	case models.ItemTypeVideo:
		return progress >= VideoCompletionThreshold
	case models.ItemTypeQuiz:
		return progress >= QuizCompletionThreshold
	}
	return false
}

// AggregateProgress computes the course-level completion percentage for one
// enrollment: completed items over total curriculum items, rounded. Pure and
// deterministic, safe to call on every read. A course with no curriculum
// items aggregates to 0 and never becomes certificate-eligible.
func AggregateProgress(items []models.CurriculumItem, records []models.ProgressRecord) int {
	if len(items) == 0 {
		return 0
	}

	typeByItem := make(map[uint]string, len(items))
	for _, item := range items {
		typeByItem[item.ID] = item.ItemType
	}

	completed := 0
	for _, record := range records {
		itemType, ok := typeByItem[record.ItemID]
		if !ok {
			// Record for an item no longer in the curriculum; ignore.
			continue
		}
		if ItemComplete(itemType, record.Progress) {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(items)) * 100))
}
