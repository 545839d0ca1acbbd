package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionType string

const (
	InteractionChat           InteractionType = "chat"
	InteractionRecommendation InteractionType = "recommendation"
	InteractionCollaboration  InteractionType = "collaboration"
)

// CapyInteraction is a symmetric edge between two capys. A recommendation
// cycle records a self-edge. Immutable once written.
type CapyInteraction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CapyID1         uuid.UUID       `gorm:"type:uuid;index;not null;column:capy_id_1" json:"capy_id_1"`
	CapyID2         uuid.UUID       `gorm:"type:uuid;index;not null;column:capy_id_2" json:"capy_id_2"`
	Content         string          `gorm:"column:content" json:"content"`
	InteractionType InteractionType `gorm:"not null;column:interaction_type" json:"interaction_type"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (CapyInteraction) TableName() string {
	return "capy_interactions"
}

func (i *CapyInteraction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
