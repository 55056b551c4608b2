package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ToolName identifies one of the fixed data-access tools the model may
// request. New tools require a dispatch arm; the compiler keeps the switch
// honest via the typed constant set.
type ToolName string

const (
	ToolGetChatHistory       ToolName = "get_chat_history"
	ToolGetUserRecipes       ToolName = "get_user_recipes"
	ToolSearchRecipes        ToolName = "search_recipes"
	ToolGetRecipeDetails     ToolName = "get_recipe_details"
	ToolGetUserPreferences   ToolName = "get_user_preferences"
	ToolGetRecentIngredients ToolName = "get_recent_ingredients"
	ToolGetCookingHistory    ToolName = "get_cooking_history"
	ToolSearchConversations  ToolName = "search_conversations"
)

// Per-tool parameter defaults. These are part of the tool contract and are
// echoed in the catalog.
const (
	defaultToolLimit    = 20
	defaultToolDaysBack = 7
)

// ToolResponse is the uniform envelope every tool returns.
type ToolResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
}

// ToolParam documents one parameter in the tool catalog.
type ToolParam struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Required    bool        `json:"required"`
	Default     interface{} `json:"default,omitempty"`
}

// ToolSpec documents one tool in the catalog.
type ToolSpec struct {
	Name        ToolName    `json:"name"`
	Description string      `json:"description"`
	Parameters  []ToolParam `json:"parameters"`
}

// ToolRouter dispatches named tool calls to the stores.
type ToolRouter struct {
	conversations *ConversationService
	recipes       *RecipeService
	preferences   *PreferenceService
	logger        *zap.Logger
}

func NewToolRouter(conversations *ConversationService, recipes *RecipeService, preferences *PreferenceService, logger *zap.Logger) *ToolRouter {
	return &ToolRouter{
		conversations: conversations,
		recipes:       recipes,
		preferences:   preferences,
		logger:        logger,
	}
}

// Catalog returns the static tool list for introspection.
func Catalog() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolGetChatHistory,
			Description: "Fetch the user's recent chat messages, newest first.",
			Parameters: []ToolParam{
				{Name: "session_id", Type: "string", Description: "Restrict to one session"},
				{Name: "limit", Type: "number", Description: "Maximum messages", Default: defaultToolLimit},
				{Name: "days_back", Type: "number", Description: "Trailing window in days", Default: defaultToolDaysBack},
			},
		},
		{
			Name:        ToolGetUserRecipes,
			Description: "Fetch the user's generated recipes, newest first.",
			Parameters: []ToolParam{
				{Name: "limit", Type: "number", Description: "Maximum recipes", Default: defaultToolLimit},
			},
		},
		{
			Name:        ToolSearchRecipes,
			Description: "Search the user's recipes by name, description or ingredient.",
			Parameters: []ToolParam{
				{Name: "query", Type: "string", Description: "Substring to match", Required: true},
				{Name: "limit", Type: "number", Description: "Maximum recipes", Default: defaultToolLimit},
			},
		},
		{
			Name:        ToolGetRecipeDetails,
			Description: "Fetch one recipe by its id.",
			Parameters: []ToolParam{
				{Name: "recipe_id", Type: "string", Description: "Recipe id", Required: true},
			},
		},
		{
			Name:        ToolGetUserPreferences,
			Description: "Fetch the user's cooking profile.",
			Parameters:  []ToolParam{},
		},
		{
			Name:        ToolGetRecentIngredients,
			Description: "List ingredients the user recently cooked with, deduplicated.",
			Parameters: []ToolParam{
				{Name: "days_back", Type: "number", Description: "Trailing window in days", Default: defaultToolDaysBack},
			},
		},
		{
			Name:        ToolGetCookingHistory,
			Description: "Summarize the user's recent recipe generation sessions.",
			Parameters: []ToolParam{
				{Name: "limit", Type: "number", Description: "Maximum sessions", Default: defaultToolLimit},
				{Name: "days_back", Type: "number", Description: "Trailing window in days", Default: defaultToolDaysBack},
			},
		},
		{
			Name:        ToolSearchConversations,
			Description: "Search the user's past messages by content.",
			Parameters: []ToolParam{
				{Name: "query", Type: "string", Description: "Substring to match", Required: true},
				{Name: "limit", Type: "number", Description: "Maximum messages", Default: defaultToolLimit},
			},
		},
	}
}

// Dispatch routes a tool call to its handler. Unknown tool names are
// reported in-band, never as an error.
func (r *ToolRouter) Dispatch(ctx context.Context, userID string, name ToolName, params map[string]interface{}) ToolResponse {
	r.logger.Debug("dispatching tool call",
		zap.String("tool", string(name)),
		zap.String("user_id", userID))

	switch name {
	case ToolGetChatHistory:
		return r.getChatHistory(ctx, userID, params)
	case ToolGetUserRecipes:
		return r.getUserRecipes(ctx, userID, params)
	case ToolSearchRecipes:
		return r.searchRecipes(ctx, userID, params)
	case ToolGetRecipeDetails:
		return r.getRecipeDetails(ctx, userID, params)
	case ToolGetUserPreferences:
		return r.getUserPreferences(ctx, userID)
	case ToolGetRecentIngredients:
		return r.getRecentIngredients(ctx, userID, params)
	case ToolGetCookingHistory:
		return r.getCookingHistory(ctx, userID, params)
	case ToolSearchConversations:
		return r.searchConversations(ctx, userID, params)
	default:
		return ToolResponse{
			Success: false,
			Message: fmt.Sprintf("unknown tool: %s", name),
		}
	}
}

func (r *ToolRouter) getChatHistory(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	sessionID := stringParam(params, "session_id", "")
	limit := intParam(params, "limit", defaultToolLimit)
	daysBack := intParam(params, "days_back", defaultToolDaysBack)

	messages, err := r.conversations.GetHistory(ctx, userID, sessionID, daysBack, limit)
	if err != nil {
		return ToolResponse{Success: false, Message: "failed to load chat history"}
	}
	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"messages": messages},
		Message: fmt.Sprintf("found %d messages", len(messages)),
	}
}

func (r *ToolRouter) getUserRecipes(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	limit := intParam(params, "limit", defaultToolLimit)

	recipes, err := r.recipes.GetUserRecipes(ctx, userID, limit)
	if err != nil {
		return ToolResponse{Success: false, Message: "failed to load recipes"}
	}
	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"recipes": recipes},
		Message: fmt.Sprintf("found %d recipes", len(recipes)),
	}
}

func (r *ToolRouter) searchRecipes(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	query := stringParam(params, "query", "")
	if query == "" {
		return ToolResponse{Success: false, Message: "query parameter is required"}
	}
	limit := intParam(params, "limit", defaultToolLimit)

	recipes, err := r.recipes.SearchRecipes(ctx, userID, query, limit)
	if err != nil {
		return ToolResponse{Success: false, Message: "recipe search failed"}
	}
	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"recipes": recipes, "query": query},
		Message: fmt.Sprintf("found %d recipes matching %q", len(recipes), query),
	}
}

func (r *ToolRouter) getRecipeDetails(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	idStr := stringParam(params, "recipe_id", "")
	if idStr == "" {
		return ToolResponse{Success: false, Message: "recipe_id parameter is required"}
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return ToolResponse{Success: false, Message: "invalid recipe_id"}
	}

	recipe, err := r.recipes.GetRecipe(ctx, userID, id)
	if err != nil {
		return ToolResponse{Success: false, Message: "recipe not found"}
	}
	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"recipe": recipe},
		Message: "recipe found",
	}
}

func (r *ToolRouter) getUserPreferences(ctx context.Context, userID string) ToolResponse {
	prefs, err := r.preferences.Get(ctx, userID)
	if err != nil {
		return ToolResponse{Success: false, Message: "failed to load preferences"}
	}
	return ToolResponse{
		Success: true,
		Data: map[string]interface{}{
			"dietary_restrictions": prefs.DietaryRestrictions,
			"allergies":            prefs.Allergies,
			"favorite_ingredients": prefs.FavoriteIngredients,
			"disliked_ingredients": prefs.DislikedIngredients,
			"preferred_cuisines":   prefs.PreferredCuisines,
			"skill_level":          prefs.SkillLevel,
		},
		Message: "preferences loaded",
	}
}

func (r *ToolRouter) getRecentIngredients(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	daysBack := intParam(params, "days_back", defaultToolDaysBack)

	sessions, err := r.recipes.GetUserRecipeSessions(ctx, userID, defaultToolLimit)
	if err != nil {
		return ToolResponse{Success: false, Message: "failed to load recipe sessions"}
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)

	// Sessions arrive newest-first; the first occurrence of a name wins, so
	// the most recently used quantity of an ingredient is the one reported.
	seen := map[string]bool{}
	ingredients := []map[string]interface{}{}
	for _, session := range sessions {
		if session.CreatedAt.Before(cutoff) {
			continue
		}
		for _, ing := range session.SourceIngredients {
			key := strings.ToLower(ing.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			ingredients = append(ingredients, map[string]interface{}{
				"name":      ing.Name,
				"quantity":  ing.Quantity,
				"last_used": session.CreatedAt,
			})
		}
	}

	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"ingredients": ingredients},
		Message: fmt.Sprintf("found %d distinct ingredients", len(ingredients)),
	}
}

func (r *ToolRouter) getCookingHistory(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	limit := intParam(params, "limit", defaultToolLimit)
	daysBack := intParam(params, "days_back", defaultToolDaysBack)

	sessions, err := r.recipes.GetUserRecipeSessions(ctx, userID, limit)
	if err != nil {
		return ToolResponse{Success: false, Message: "failed to load cooking history"}
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	history := []map[string]interface{}{}
	for _, session := range sessions {
		if session.CreatedAt.Before(cutoff) {
			continue
		}
		names := []string{}
		for _, recipe := range session.BasicRecipes {
			names = append(names, recipe.Name)
		}
		for _, recipe := range session.AdvancedRecipes {
			names = append(names, recipe.Name)
		}
		ingredients := []string{}
		for _, ing := range session.SourceIngredients {
			ingredients = append(ingredients, ing.Name)
		}
		history = append(history, map[string]interface{}{
			"session_id":  session.SessionID,
			"cooked_at":   session.CreatedAt,
			"ingredients": ingredients,
			"recipes":     names,
		})
	}

	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"history": history},
		Message: fmt.Sprintf("found %d cooking sessions", len(history)),
	}
}

func (r *ToolRouter) searchConversations(ctx context.Context, userID string, params map[string]interface{}) ToolResponse {
	query := stringParam(params, "query", "")
	if query == "" {
		return ToolResponse{Success: false, Message: "query parameter is required"}
	}
	limit := intParam(params, "limit", defaultToolLimit)

	messages, err := r.conversations.SearchMessages(ctx, userID, query, limit)
	if err != nil {
		return ToolResponse{Success: false, Message: "conversation search failed"}
	}
	return ToolResponse{
		Success: true,
		Data:    map[string]interface{}{"messages": messages, "query": query},
		Message: fmt.Sprintf("found %d messages matching %q", len(messages), query),
	}
}

// stringParam reads a string parameter, falling back to the tool default.
func stringParam(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// intParam reads a numeric parameter, tolerating the float64 that JSON
// decoding produces.
func intParam(params map[string]interface{}, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		if n > 0 {
			return n
		}
	case float64:
		if n > 0 {
			return int(n)
		}
	}
	return fallback
}
