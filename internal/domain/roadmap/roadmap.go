package roadmap

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roadmap is a persisted generation result. Rows are written once and never updated.
type Roadmap struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubjectName string         `gorm:"not null;column:subject_name" json:"subjectName"`
	Duration    string         `gorm:"not null;column:duration" json:"duration"`
	RoadmapData datatypes.JSON `gorm:"not null;column:roadmap_data" json:"roadmapData"`
	CreatedAt   time.Time      `gorm:"not null;index;column:created_at" json:"createdAt"`
}

func (Roadmap) TableName() string { return "roadmap" }

func (r *Roadmap) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
