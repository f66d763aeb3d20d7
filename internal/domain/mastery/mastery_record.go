package mastery

import (
	"time"

	"github.com/google/uuid"
)

const (
	LevelBeginning  = "beginning"
	LevelDeveloping = "developing"
	LevelProficient = "proficient"
	LevelAdvanced   = "advanced"
)

// BelowProficient reports whether a level counts toward a cohort gap.
func BelowProficient(level string) bool {
	return level == LevelBeginning || level == LevelDeveloping
}

// MasteryRecord is an append-only ledger fact. Rows are inserted, never updated.
// The newest AssessedAt per (student, standard) is the current mastery.
type MasteryRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID `gorm:"type:uuid;not null;index:idx_mastery_student_standard" json:"student_id"`
	StandardID uuid.UUID `gorm:"type:uuid;not null;index:idx_mastery_student_standard" json:"standard_id"`
	Level      string    `gorm:"column:level;not null" json:"level"`
	Score      int       `gorm:"column:score;not null" json:"score"`
	Source     uuid.UUID `gorm:"type:uuid;column:source;not null;index" json:"source"`
	AssessedAt time.Time `gorm:"column:assessed_at;not null;index" json:"assessed_at"`
	Notes      string    `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (MasteryRecord) TableName() string { return "mastery_record" }
