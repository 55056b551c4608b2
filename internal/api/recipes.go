package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/service"
	"github.com/rnkp755/chefcognito/internal/types"
)

// RecipeHandler serves recipe generation and retrieval.
type RecipeHandler struct {
	llm     *service.LLMClient
	recipes *service.RecipeService
	prefs   *service.PreferenceService
	logger  *zap.Logger
}

func NewRecipeHandler(llm *service.LLMClient, recipes *service.RecipeService, prefs *service.PreferenceService, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{llm: llm, recipes: recipes, prefs: prefs, logger: logger}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.POST("/generate", h.GenerateRecipes)
		recipes.GET("", h.ListRecipes)
		recipes.GET("/search", h.SearchRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.GET("/sessions/:session_id", h.GetRecipeSession)
	}
}

// GenerateRecipes turns a detected ingredient list into basic and advanced
// recipes and records the generation event. Generation itself never fails;
// only the storage write can.
func (h *RecipeHandler) GenerateRecipes(c *gin.Context) {
	var req types.GenerateRecipesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Ingredients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients are required"})
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx := c.Request.Context()

	prefs, err := h.prefs.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("preference load failed, generating without them", zap.Error(err))
		prefs = nil
	}

	generated := h.llm.GenerateRecipes(ctx, req.Ingredients, prefs)

	sessionID, err := h.recipes.StoreRecipeSession(ctx, userID, req.SessionID, req.Ingredients, generated.Basic, generated.Advanced)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id":       sessionID,
		"basic_recipes":    generated.Basic,
		"advanced_recipes": generated.Advanced,
	})
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit := queryInt(c, "limit", 20)
	recipes, err := h.recipes.GetUserRecipes(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) SearchRecipes(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	limit := queryInt(c, "limit", 20)
	recipes, err := h.recipes.SearchRecipes(c.Request.Context(), userID, query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recipe search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes, "query": query})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), userID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) GetRecipeSession(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	session, err := h.recipes.GetRecipeSession(c.Request.Context(), userID, c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
