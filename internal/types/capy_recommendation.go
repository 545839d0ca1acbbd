package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CapyRecommendation is immutable once written; there is no update path.
type CapyRecommendation struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CapyID          uuid.UUID `gorm:"type:uuid;index;not null;column:capy_id" json:"capy_id"`
	PostID          uuid.UUID `gorm:"type:uuid;index;not null;column:post_id" json:"post_id"`
	PostTitle       string    `gorm:"not null;column:post_title" json:"post_title"`
	Reason          string    `gorm:"column:reason" json:"reason"`
	ConfidenceScore float64   `gorm:"not null;default:0.5;column:confidence_score" json:"confidence_score"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	Post *Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}

func (CapyRecommendation) TableName() string {
	return "capy_recommendations"
}

func (r *CapyRecommendation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
