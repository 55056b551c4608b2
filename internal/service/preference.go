package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rnkp755/chefcognito/internal/models"
)

// PreferenceService handles the per-user cooking profile.
type PreferenceService struct {
	db *gorm.DB
}

func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// Get returns the user's preferences, or a defaulted profile when none has
// been saved yet.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	var prefs models.Preferences
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return DefaultPreferences(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &prefs, nil
}

// Save upserts the user's preferences by user id.
func (s *PreferenceService) Save(ctx context.Context, prefs *models.Preferences) error {
	var existing models.Preferences
	err := s.db.WithContext(ctx).Where("user_id = ?", prefs.UserID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.db.WithContext(ctx).Create(prefs).Error; err != nil {
			return fmt.Errorf("failed to save preferences: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	prefs.ID = existing.ID
	prefs.CreatedAt = existing.CreatedAt
	if err := s.db.WithContext(ctx).Save(prefs).Error; err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// DefaultPreferences is the profile assumed for a user who never saved one.
func DefaultPreferences(userID string) *models.Preferences {
	return &models.Preferences{
		UserID:              userID,
		DietaryRestrictions: models.StringArray{},
		Allergies:           models.StringArray{},
		FavoriteIngredients: models.StringArray{},
		DislikedIngredients: models.StringArray{},
		PreferredCuisines:   models.StringArray{},
		SkillLevel:          "beginner",
		Equipment:           models.StringArray{},
	}
}

// PreferenceSummary renders the preferences as a short prompt fragment.
func PreferenceSummary(prefs *models.Preferences) string {
	if prefs == nil {
		return "No stored preferences."
	}
	out := "Skill level: " + prefs.SkillLevel
	if len(prefs.DietaryRestrictions) > 0 {
		out += "; dietary restrictions: " + strings.Join(prefs.DietaryRestrictions, ", ")
	}
	if len(prefs.Allergies) > 0 {
		out += "; allergies: " + strings.Join(prefs.Allergies, ", ")
	}
	if len(prefs.FavoriteIngredients) > 0 {
		out += "; likes: " + strings.Join(prefs.FavoriteIngredients, ", ")
	}
	if len(prefs.DislikedIngredients) > 0 {
		out += "; dislikes: " + strings.Join(prefs.DislikedIngredients, ", ")
	}
	if len(prefs.PreferredCuisines) > 0 {
		out += "; cuisines: " + strings.Join(prefs.PreferredCuisines, ", ")
	}
	if prefs.MaxCookingTime > 0 {
		out += fmt.Sprintf("; max cooking time: %d minutes", prefs.MaxCookingTime)
	}
	return out
}
