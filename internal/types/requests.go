package types

import (
	"github.com/rnkp755/chefcognito/internal/models"
)

// ChatRequest is the body of the single-call chat endpoint.
type ChatRequest struct {
	Message            string                 `json:"message" binding:"required"`
	SessionID          string                 `json:"session_id" binding:"required"`
	RequestType        string                 `json:"request_type"`
	CurrentRecipes     []models.RecipePayload `json:"current_recipes"`
	CurrentIngredients []models.Ingredient    `json:"current_ingredients"`
}

// ChatResponse is the reply of the single-call chat endpoint.
type ChatResponse struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// StreamChatRequest is the body of the streaming chat endpoint.
type StreamChatRequest struct {
	Message     string              `json:"message" binding:"required"`
	SessionID   string              `json:"session_id" binding:"required"`
	Ingredients []models.Ingredient `json:"ingredients"`
}

// ToolCallRequest is the body of the tool-invocation endpoint.
type ToolCallRequest struct {
	Tool        string                 `json:"tool" binding:"required"`
	Parameters  map[string]interface{} `json:"parameters"`
	Description string                 `json:"description"`
}

// DetectIngredientsRequest carries a base64-encoded photo of ingredients.
type DetectIngredientsRequest struct {
	Image string `json:"image" binding:"required"`
}

// GenerateRecipesRequest asks for recipes from a detected ingredient list.
type GenerateRecipesRequest struct {
	SessionID   string              `json:"session_id" binding:"required"`
	Ingredients []models.Ingredient `json:"ingredients" binding:"required"`
}
