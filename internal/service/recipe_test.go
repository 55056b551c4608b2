package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/internal/models"
)

func sampleRecipe(name string) models.RecipePayload {
	return models.RecipePayload{
		Name:        name,
		Description: "A test dish",
		CookingTime: "15 minutes",
		Difficulty:  "Easy",
		Servings:    2,
		Ingredients: models.RecipeIngredientList{
			{Name: "egg", Quantity: "2", Available: true},
		},
		Equipment: models.StringArray{"pan"},
		Steps:     models.StringArray{"cook it"},
	}
}

func TestStoreRecipeSessionTagsRecipes(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecipeService(db, zap.NewNop())
	ctx := context.Background()

	source := []models.Ingredient{{Name: "egg", Quantity: "2", Confidence: 0.9}}
	sessionID, err := svc.StoreRecipeSession(ctx, "u1", "s1", source,
		[]models.RecipePayload{sampleRecipe("Omelette")},
		[]models.RecipePayload{sampleRecipe("Souffle")})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, sessionID)

	recipes, err := svc.GetUserRecipes(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	byName := map[string]models.Recipe{}
	for _, r := range recipes {
		byName[r.Name] = r
	}
	assert.Equal(t, models.CategoryBasic, byName["Omelette"].Category)
	assert.Equal(t, models.CategoryAdvanced, byName["Souffle"].Category)
	for _, r := range recipes {
		assert.Equal(t, "u1", r.UserID)
		assert.Equal(t, "s1", r.SessionID)
		require.Len(t, r.SourceIngredients, 1)
		assert.Equal(t, "egg", r.SourceIngredients[0].Name)
	}
}

func TestGetRecipeScopedToUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecipeService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.StoreRecipeSession(ctx, "u1", "s1", nil,
		[]models.RecipePayload{sampleRecipe("Omelette")}, nil)
	require.NoError(t, err)

	recipes, err := svc.GetUserRecipes(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	_, err = svc.GetRecipe(ctx, "someone-else", recipes[0].ID)
	assert.Error(t, err)

	found, err := svc.GetRecipe(ctx, "u1", recipes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", found.Name)
}

func TestSearchRecipesCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecipeService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.StoreRecipeSession(ctx, "u1", "s1", nil,
		[]models.RecipePayload{sampleRecipe("Garlic Pasta"), sampleRecipe("Fruit Salad")}, nil)
	require.NoError(t, err)

	found, err := svc.SearchRecipes(ctx, "u1", "GARLIC", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Garlic Pasta", found[0].Name)

	// Ingredient names match too.
	found, err = svc.SearchRecipes(ctx, "u1", "egg", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestGetRecipeSessionReturnsLatest(t *testing.T) {
	db := newTestDB(t)
	svc := NewRecipeService(db, zap.NewNop())
	ctx := context.Background()

	_, err := svc.StoreRecipeSession(ctx, "u1", "s1",
		[]models.Ingredient{{Name: "rice"}}, nil, nil)
	require.NoError(t, err)

	session, err := svc.GetRecipeSession(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, session.SourceIngredients, 1)
	assert.Equal(t, "rice", session.SourceIngredients[0].Name)

	_, err = svc.GetRecipeSession(ctx, "u1", "missing")
	assert.Error(t, err)
}
