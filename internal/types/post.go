package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID     uuid.UUID `gorm:"type:uuid;index;not null;column:author_id" json:"author_id"`
	Title        string    `gorm:"not null;column:title" json:"title"`
	Content      string    `gorm:"not null;column:content" json:"content"`
	Category     string    `gorm:"index;not null;column:category" json:"category"`
	LikesCount   int       `gorm:"not null;default:0;column:likes_count" json:"likes_count"`
	CommentCount int       `gorm:"not null;default:0;column:comment_count" json:"comment_count"`
	Hotness      int       `gorm:"not null;default:0;column:hotness" json:"hotness"`
	IsDeleted    bool      `gorm:"not null;default:false;column:is_deleted" json:"is_deleted"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
