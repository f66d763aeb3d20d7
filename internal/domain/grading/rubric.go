package grading

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rubric is a weighted set of criteria scored against an ordered list of proficiency levels.
// Levels run lowest to highest.
type Rubric struct {
	ID        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID uuid.UUID                   `gorm:"type:uuid;index" json:"teacher_id"`
	Title     string                      `gorm:"column:title;not null" json:"title"`
	Levels    datatypes.JSONSlice[string] `gorm:"column:levels;not null" json:"levels"`
	Criteria  []Criterion                 `gorm:"foreignKey:RubricID" json:"criteria,omitempty"`
	CreatedAt time.Time                   `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time                   `gorm:"not null" json:"updated_at"`
}

func (Rubric) TableName() string { return "rubric" }

// LevelIndex returns the ordinal of a level name, or -1.
func (r *Rubric) LevelIndex(level string) int {
	if r == nil {
		return -1
	}
	level = strings.TrimSpace(level)
	for i, l := range r.Levels {
		if strings.EqualFold(l, level) {
			return i
		}
	}
	return -1
}

// CanonicalLevel maps a case-insensitive level name to the rubric's spelling.
func (r *Rubric) CanonicalLevel(level string) (string, bool) {
	idx := r.LevelIndex(level)
	if idx < 0 {
		return "", false
	}
	return r.Levels[idx], true
}

func (r *Rubric) CriterionByID(id uuid.UUID) *Criterion {
	if r == nil {
		return nil
	}
	for i := range r.Criteria {
		if r.Criteria[i].ID == id {
			return &r.Criteria[i]
		}
	}
	return nil
}

// MaxScore is the sum of every criterion's point ceiling.
func (r *Rubric) MaxScore() float64 {
	if r == nil {
		return 0
	}
	total := 0.0
	for _, c := range r.Criteria {
		total += c.MaxScore()
	}
	return Round2(total)
}

// Criterion is one independently scored dimension of a rubric.
type Criterion struct {
	ID          uuid.UUID                             `gorm:"type:uuid;primaryKey" json:"id"`
	RubricID    uuid.UUID                             `gorm:"type:uuid;not null;index" json:"rubric_id"`
	Name        string                                `gorm:"column:name;not null" json:"name"`
	Description string                                `gorm:"column:description" json:"description,omitempty"`
	Weight      float64                               `gorm:"column:weight;not null" json:"weight"`
	StandardID  *uuid.UUID                            `gorm:"type:uuid;column:standard_id;index" json:"standard_id,omitempty"`
	Descriptors datatypes.JSONType[map[string]string] `gorm:"column:descriptors" json:"descriptors"`
	Position    int                                   `gorm:"column:position;not null" json:"position"`
	CreatedAt   time.Time                             `gorm:"not null" json:"created_at"`
}

func (Criterion) TableName() string { return "rubric_criterion" }

// MaxScore is weight scaled to points; a weight of 0.25 is worth 25 points.
func (c Criterion) MaxScore() float64 {
	if c.Weight <= 0 {
		return 0
	}
	return Round2(c.Weight * 100)
}

// Descriptor returns the descriptor text for a level, if any.
func (c Criterion) Descriptor(level string) string {
	for k, v := range c.Descriptors.Data() {
		if strings.EqualFold(k, level) {
			return v
		}
	}
	return ""
}

// ScoreForLevel applies the level-ordinal scoring rule: index/(levels-1) of the criterion max.
func ScoreForLevel(levelIndex, levelCount int, max float64) float64 {
	if levelIndex < 0 || levelCount <= 0 || max <= 0 {
		return 0
	}
	if levelCount == 1 {
		return max
	}
	return Round2(float64(levelIndex) / float64(levelCount-1) * max)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
