package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserTier string

const (
	TierFree UserTier = "free"
	TierPro  UserTier = "pro"
	TierMax  UserTier = "max"
)

// TierLevel orders tiers for minimum-tier checks: free < pro < max.
// Unknown tiers rank below free so a corrupted row never gains access.
func TierLevel(t UserTier) int {
	switch t {
	case TierFree:
		return 0
	case TierPro:
		return 1
	case TierMax:
		return 2
	default:
		return -1
	}
}

func ValidTier(t UserTier) bool {
	return TierLevel(t) >= 0
}

type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Tier        UserTier   `gorm:"not null;default:'free';column:tier" json:"tier"`
	IsActive    bool       `gorm:"not null;default:true;column:is_active" json:"is_active"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
