package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Preferences represents a user's cooking profile. One row per user,
// created on first save and mutated in place afterwards.
type Preferences struct {
	ID                  uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID              string      `gorm:"size:128;not null;uniqueIndex" json:"user_id"`
	DietaryRestrictions StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_restrictions"`
	Allergies           StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	FavoriteIngredients StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"favorite_ingredients"`
	DislikedIngredients StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"disliked_ingredients"`
	PreferredCuisines   StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"preferred_cuisines"`
	SkillLevel          string      `gorm:"size:20;not null;default:beginner" json:"skill_level"`
	Equipment           StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"equipment"`
	MaxCookingTime      int         `gorm:"default:0" json:"max_cooking_time"`
	SpiceLevel          int         `gorm:"default:0" json:"spice_level"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

func (p *Preferences) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
