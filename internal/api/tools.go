package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/service"
	"github.com/rnkp755/chefcognito/internal/types"
)

// ToolHandler exposes the tool router for direct invocation and listing.
type ToolHandler struct {
	tools *service.ToolRouter
}

func NewToolHandler(tools *service.ToolRouter) *ToolHandler {
	return &ToolHandler{tools: tools}
}

func (h *ToolHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/tools/call", h.CallTool)
	router.GET("/tools", h.ListTools)
}

func (h *ToolHandler) CallTool(c *gin.Context) {
	var req types.ToolCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	result := h.tools.Dispatch(c.Request.Context(), userID, service.ToolName(req.Tool), req.Parameters)
	c.JSON(http.StatusOK, result)
}

func (h *ToolHandler) ListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": service.Catalog()})
}
