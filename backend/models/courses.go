package models

import "gorm.io/gorm"

const (
	ItemTypeVideo = "video"
	ItemTypeQuiz  = "quiz"
)

type Course struct {
	gorm.Model
	Title       string
	ShortDesc   string
	Description string
	Category    string
	Institution string
	AuthorID    uint
	LogoURL     string
	Items       []CurriculumItem
}

// CurriculumItem is one unit of a course's syllabus, either a video or a
// quiz. Items are read-only input to progress aggregation; the progress
// subsystem never mutates them.
type CurriculumItem struct {
	gorm.Model
	CourseID      uint `gorm:"index"`
	ItemType      string
	Title         string
	SequenceOrder int
	// Video fields
	DurationSec int
	VideoURL    string
	// Quiz fields
	Questions []QuizQuestion
}

type QuizQuestion struct {
	gorm.Model
	CurriculumItemID uint `gorm:"index"`
	Question         string
	Options          string // JSON array of options
	CorrectAnswer    int
	SequenceOrder    int
}
