package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID     uuid.UUID `gorm:"type:uuid;index;not null;column:post_id" json:"post_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;index;not null;column:author_id" json:"author_id"`
	Content    string    `gorm:"not null;column:content" json:"content"`
	LikesCount int       `gorm:"not null;default:0;column:likes_count" json:"likes_count"`
	IsDeleted  bool      `gorm:"not null;default:false;column:is_deleted" json:"is_deleted"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
