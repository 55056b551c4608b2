package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Recipe categories
const (
	CategoryBasic    = "basic"
	CategoryAdvanced = "advanced"
)

// Ingredient is a single detected ingredient from a photo.
type Ingredient struct {
	Name       string  `json:"name"`
	Quantity   string  `json:"quantity"`
	Confidence float64 `json:"confidence"`
}

// RecipeIngredient is one ingredient line of a generated recipe.
// Available marks whether the user already has it; Substitute suggests a
// replacement when they don't.
type RecipeIngredient struct {
	Name       string `json:"name"`
	Quantity   string `json:"quantity"`
	Available  bool   `json:"available"`
	Substitute string `json:"substitute,omitempty"`
}

// RecipePayload is the recipe shape exchanged with the LLM and embedded in
// recipe session documents.
type RecipePayload struct {
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	CookingTime    string               `json:"cooking_time"`
	Difficulty     string               `json:"difficulty"`
	Servings       int                  `json:"servings"`
	Ingredients    RecipeIngredientList `json:"ingredients"`
	Equipment      StringArray          `json:"equipment"`
	Steps          StringArray          `json:"steps"`
	Tips           StringArray          `json:"tips"`
	NutritionNotes string               `json:"nutrition_notes"`
}

// Recipe is an individually stored generated dish. Recipes always carry the
// source ingredients of the generation event that produced them.
type Recipe struct {
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string               `gorm:"size:128;not null;index" json:"user_id"`
	SessionID         string               `gorm:"size:128;not null;index" json:"session_id"`
	Name              string               `gorm:"size:255;not null" json:"name"`
	Description       string               `gorm:"type:text" json:"description"`
	CookingTime       string               `gorm:"size:50" json:"cooking_time"`
	Difficulty        string               `gorm:"size:20" json:"difficulty"`
	Servings          int                  `json:"servings"`
	Ingredients       RecipeIngredientList `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Equipment         StringArray          `gorm:"type:jsonb;not null;default:'[]'" json:"equipment"`
	Steps             StringArray          `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Tips              StringArray          `gorm:"type:jsonb;not null;default:'[]'" json:"tips"`
	NutritionNotes    string               `gorm:"type:text" json:"nutrition_notes"`
	SourceIngredients IngredientList       `gorm:"type:jsonb;not null;default:'[]'" json:"source_ingredients"`
	Category          string               `gorm:"size:20;not null;default:basic" json:"category"`
	Embedding         pgvector.Vector      `gorm:"type:vector(3)" json:"-"`
	CreatedAt         time.Time            `json:"created_at"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeSession is one ingredient-to-recipes generation event, stored as a
// single immutable document alongside the individual recipe rows.
type RecipeSession struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string         `gorm:"size:128;not null;index" json:"user_id"`
	SessionID         string         `gorm:"size:128;not null;index" json:"session_id"`
	SourceIngredients IngredientList `gorm:"type:jsonb;not null;default:'[]'" json:"source_ingredients"`
	BasicRecipes      RecipeList     `gorm:"type:jsonb;not null;default:'[]'" json:"basic_recipes"`
	AdvancedRecipes   RecipeList     `gorm:"type:jsonb;not null;default:'[]'" json:"advanced_recipes"`
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`
}

func (s *RecipeSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
