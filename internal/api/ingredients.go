package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/service"
	"github.com/rnkp755/chefcognito/internal/types"
)

// IngredientHandler serves photo-based ingredient detection.
type IngredientHandler struct {
	llm    *service.LLMClient
	images *service.ImageService
	logger *zap.Logger
}

func NewIngredientHandler(llm *service.LLMClient, images *service.ImageService, logger *zap.Logger) *IngredientHandler {
	return &IngredientHandler{llm: llm, images: images, logger: logger}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/ingredients/detect", h.DetectIngredients)
}

// DetectIngredients identifies ingredients in a photo. The photo is archived
// to S3 best effort; detection runs regardless and never errors out.
func (h *IngredientHandler) DetectIngredients(c *gin.Context) {
	var req types.DetectIngredientsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	ctx := c.Request.Context()

	photoURL := ""
	if h.images != nil {
		url, err := h.images.StoreIngredientPhoto(ctx, req.Image)
		if err != nil {
			h.logger.Warn("photo archive failed", zap.Error(err))
		} else {
			photoURL = url
		}
	}

	ingredients := h.llm.DetectIngredients(ctx, req.Image)

	resp := gin.H{"ingredients": ingredients}
	if photoURL != "" {
		resp["photo_url"] = photoURL
	}
	c.JSON(http.StatusOK, resp)
}
