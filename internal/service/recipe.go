package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rnkp755/chefcognito/internal/models"
)

// ErrStoreRecipes is the generic error surfaced on recipe write failures.
var ErrStoreRecipes = errors.New("failed to store recipes")

// RecipeService persists generation events and individual recipes.
type RecipeService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecipeService(db *gorm.DB, logger *zap.Logger) *RecipeService {
	return &RecipeService{db: db, logger: logger}
}

// StoreRecipeSession persists one generation event plus its individual
// recipes, tagging every recipe with the user, category and source
// ingredients. The session and recipe inserts are independent: a failure of
// the second after the first succeeded leaves the session in place.
func (s *RecipeService) StoreRecipeSession(ctx context.Context, userID, sessionID string, source []models.Ingredient, basic, advanced []models.RecipePayload) (uuid.UUID, error) {
	session := models.RecipeSession{
		UserID:            userID,
		SessionID:         sessionID,
		SourceIngredients: models.IngredientList(source),
		BasicRecipes:      models.RecipeList(basic),
		AdvancedRecipes:   models.RecipeList(advanced),
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		s.logger.Error("recipe session insert failed", zap.Error(err))
		return uuid.Nil, ErrStoreRecipes
	}

	recipes := make([]models.Recipe, 0, len(basic)+len(advanced))
	for _, payload := range basic {
		recipes = append(recipes, recipeFromPayload(payload, userID, sessionID, source, models.CategoryBasic))
	}
	for _, payload := range advanced {
		recipes = append(recipes, recipeFromPayload(payload, userID, sessionID, source, models.CategoryAdvanced))
	}
	if len(recipes) > 0 {
		if err := s.db.WithContext(ctx).Create(&recipes).Error; err != nil {
			s.logger.Error("recipe insert failed", zap.Error(err))
			return uuid.Nil, ErrStoreRecipes
		}
	}

	return session.ID, nil
}

func recipeFromPayload(payload models.RecipePayload, userID, sessionID string, source []models.Ingredient, category string) models.Recipe {
	return models.Recipe{
		UserID:            userID,
		SessionID:         sessionID,
		Name:              payload.Name,
		Description:       payload.Description,
		CookingTime:       payload.CookingTime,
		Difficulty:        payload.Difficulty,
		Servings:          payload.Servings,
		Ingredients:       payload.Ingredients,
		Equipment:         payload.Equipment,
		Steps:             payload.Steps,
		Tips:              payload.Tips,
		NutritionNotes:    payload.NutritionNotes,
		SourceIngredients: models.IngredientList(source),
		Category:          category,
		Embedding:         GenerateEmbedding(payload.Name + " " + payload.Description),
	}
}

// GetUserRecipes returns the user's recipes, newest first.
func (s *RecipeService) GetUserRecipes(ctx context.Context, userID string, limit int) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe returns one recipe by id, scoped to the user.
func (s *RecipeService) GetRecipe(ctx context.Context, userID string, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetRecipeSession returns the generation event for the given session.
func (s *RecipeService) GetRecipeSession(ctx context.Context, userID, sessionID string) (*models.RecipeSession, error) {
	var session models.RecipeSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUserRecipeSessions returns the user's generation events, newest first.
func (s *RecipeService) GetUserRecipeSessions(ctx context.Context, userID string, limit int) ([]models.RecipeSession, error) {
	var sessions []models.RecipeSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe sessions: %w", err)
	}
	return sessions, nil
}

// SearchRecipes does a case-insensitive substring match across name,
// description and ingredient names. On postgres the results are also ordered
// by embedding distance to the query.
func (s *RecipeService) SearchRecipes(ctx context.Context, userID, query string, limit int) ([]models.Recipe, error) {
	like := "%" + strings.ToLower(query) + "%"

	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if s.db.Dialector.Name() == "postgres" {
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients::text) LIKE ?", like, like, like)
		vec := GenerateEmbedding(query)
		q = q.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		})
	} else {
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(ingredients) LIKE ?", like, like, like).
			Order("created_at DESC")
	}

	var recipes []models.Recipe
	if err := q.Limit(limit).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return recipes, nil
}
