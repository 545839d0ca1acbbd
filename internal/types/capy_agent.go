package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CapyPersonality string

const (
	PersonalityLazy     CapyPersonality = "lazy"
	PersonalityActive   CapyPersonality = "active"
	PersonalityCurious  CapyPersonality = "curious"
	PersonalityFriendly CapyPersonality = "friendly"
	PersonalityShy      CapyPersonality = "shy"
)

// CapyAgent is the AI pet bound 1:1 to a max-tier user. The one-per-user
// rule is enforced by the existence check in the create path plus the
// unique index on user_id.
type CapyAgent struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	Name         string          `gorm:"not null;column:name" json:"name"`
	Personality  CapyPersonality `gorm:"not null;column:personality" json:"personality"`
	AvatarURL    string          `gorm:"column:avatar_url" json:"avatar_url"`
	Bio          string          `gorm:"column:bio" json:"bio"`
	IsActive     bool            `gorm:"not null;default:true;column:is_active" json:"is_active"`
	LastActiveAt *time.Time      `gorm:"column:last_active_at" json:"last_active_at,omitempty"`
	Config       datatypes.JSON  `gorm:"type:jsonb;column:config" json:"config"`
	Memory       datatypes.JSON  `gorm:"type:jsonb;column:memory" json:"memory"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

func (CapyAgent) TableName() string {
	return "capy_agents"
}

func (a *CapyAgent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// CapyConfig is the typed view of the config blob. Known hint keys get
// fields; anything else survives round-trips through Extra.
type CapyConfig struct {
	Interests     []string `json:"interests,omitempty"`
	ResponseStyle string   `json:"response_style,omitempty"`
	ActivityLevel string   `json:"activity_level,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// CapyMemory is the typed view of the memory blob.
type CapyMemory struct {
	FavoriteTopics        []string `json:"favorite_topics,omitempty"`
	InteractionCount      int      `json:"interaction_count,omitempty"`
	RecentRecommendations []string `json:"recent_recommendations,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var capyConfigKeys = map[string]struct{}{
	"interests":      {},
	"response_style": {},
	"activity_level": {},
}

var capyMemoryKeys = map[string]struct{}{
	"favorite_topics":        {},
	"interaction_count":      {},
	"recent_recommendations": {},
}

func (a *CapyAgent) DecodeConfig() (CapyConfig, error) {
	var out CapyConfig
	if len(a.Config) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.Config, &out); err != nil {
		return out, err
	}
	out.Extra = extraKeys(a.Config, capyConfigKeys)
	return out, nil
}

func (a *CapyAgent) DecodeMemory() (CapyMemory, error) {
	var out CapyMemory
	if len(a.Memory) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(a.Memory, &out); err != nil {
		return out, err
	}
	out.Extra = extraKeys(a.Memory, capyMemoryKeys)
	return out, nil
}

func (m CapyMemory) Encode() (datatypes.JSON, error) {
	merged := map[string]json.RawMessage{}
	for k, v := range m.Extra {
		merged[k] = v
	}
	known, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var knownMap map[string]json.RawMessage
	if err := json.Unmarshal(known, &knownMap); err != nil {
		return nil, err
	}
	for k, v := range knownMap {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func extraKeys(raw []byte, known map[string]struct{}) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}
	extra := map[string]json.RawMessage{}
	for k, v := range all {
		if _, ok := known[k]; !ok {
			extra[k] = v
		}
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
