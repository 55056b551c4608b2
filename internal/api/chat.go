package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/internal/middleware"
	"github.com/rnkp755/chefcognito/internal/models"
	"github.com/rnkp755/chefcognito/internal/service"
	"github.com/rnkp755/chefcognito/internal/types"
)

// ChatHandler serves the conversational endpoints. The single-call endpoint
// runs a simplified two-pass tool protocol; the streaming endpoint runs the
// full pipeline and pushes progress events over SSE.
type ChatHandler struct {
	model         service.ChatModel
	workflow      *service.ChatWorkflow
	tools         *service.ToolRouter
	conversations *service.ConversationService
	preferences   *service.PreferenceService
	logger        *zap.Logger
}

func NewChatHandler(model service.ChatModel, workflow *service.ChatWorkflow, tools *service.ToolRouter, conversations *service.ConversationService, preferences *service.PreferenceService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		model:         model,
		workflow:      workflow,
		tools:         tools,
		conversations: conversations,
		preferences:   preferences,
		logger:        logger,
	}
}

func (h *ChatHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/chat", h.Chat)
	router.POST("/chat/stream", h.StreamChat)
}

// toolDirective is the structured reply the model may send instead of a
// final answer.
type toolDirective struct {
	ToolCall *toolCall `json:"tool_call"`
}

type toolCall struct {
	Tool        string                 `json:"tool"`
	Parameters  map[string]interface{} `json:"parameters"`
	Description string                 `json:"description"`
}

// Chat handles one request/response turn. The model gets one optional tool
// round-trip: if the first reply is a tool directive, the tool runs and the
// model is re-prompted with the result. The second reply is taken literally,
// even if it nominally requests another tool call.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req types.ChatRequest
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

	if err := h.conversations.CreateOrUpdateSession(ctx, userID, req.SessionID, ""); err != nil {
		h.logger.Error("session upsert failed", zap.Error(err))
	}

	if h.conversations.ShouldSummarizeSession(ctx, userID, req.SessionID) {
		h.summarize(ctx, userID, req.SessionID)
	}

	messages := h.buildMessages(ctx, userID, &req)

	reply, err := h.model.Chat(ctx, messages)
	if err != nil {
		h.logger.Error("chat completion failed", zap.Error(err))
		reply = service.FallbackReply
	} else if directive, ok := parseToolDirective(reply); ok {
		result := h.tools.Dispatch(ctx, userID, service.ToolName(directive.Tool), directive.Parameters)
		resultJSON, _ := json.Marshal(result)

		messages = append(messages,
			service.Message{Role: models.RoleAssistant, Content: reply},
			service.Message{Role: models.RoleUser, Content: "Tool result: " + string(resultJSON) + "\nAnswer the original question using this data."},
		)
		second, err := h.model.Chat(ctx, messages)
		if err != nil {
			h.logger.Error("second chat completion failed", zap.Error(err))
			reply = service.FallbackReply
		} else {
			reply = second
		}
	}

	msgType := service.ClassifyMessage(req.RequestType, req.Message, req.CurrentRecipes)
	h.saveTurn(ctx, userID, req.SessionID, req.Message, reply, msgType)

	c.JSON(http.StatusOK, types.ChatResponse{
		Message:   reply,
		Type:      msgType,
		SessionID: req.SessionID,
	})
}

// StreamChat runs the full pipeline, emitting one SSE event per step and a
// terminal done event carrying the reply.
func (h *ChatHandler) StreamChat(c *gin.Context) {
	var req types.StreamChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	chatReq := &types.ChatRequest{
		Message:            req.Message,
		SessionID:          req.SessionID,
		CurrentIngredients: req.Ingredients,
	}

	events := make(chan service.ProgressEvent, 8)
	go func() {
		defer close(events)
		h.workflow.Run(c.Request.Context(), userID, chatReq, func(ev service.ProgressEvent) {
			events <- ev
		})
	}()

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}
		c.SSEvent("message", ev)
		return !ev.Done
	})
}

func (h *ChatHandler) buildMessages(ctx context.Context, userID string, req *types.ChatRequest) []service.Message {
	messages := []service.Message{{Role: models.RoleSystem, Content: h.systemPrompt(ctx, userID, req)}}
	for _, msg := range h.conversations.GetRecentMessages(ctx, userID, req.SessionID, 2) {
		messages = append(messages, service.Message{Role: msg.Role, Content: msg.Content})
	}
	return append(messages, service.Message{Role: models.RoleUser, Content: req.Message})
}

func (h *ChatHandler) systemPrompt(ctx context.Context, userID string, req *types.ChatRequest) string {
	var b strings.Builder
	b.WriteString("You are a friendly cooking assistant.\n")

	prefs, err := h.preferences.Get(ctx, userID)
	if err == nil {
		b.WriteString("User profile: " + service.PreferenceSummary(prefs) + "\n")
	}

	if summary := h.conversations.GetSessionSummary(ctx, userID, req.SessionID); summary != "" {
		b.WriteString("Earlier in this conversation: " + summary + "\n")
	}

	if len(req.CurrentIngredients) > 0 {
		names := make([]string, 0, len(req.CurrentIngredients))
		for _, ing := range req.CurrentIngredients {
			names = append(names, ing.Name)
		}
		b.WriteString("Ingredients currently on hand: " + strings.Join(names, ", ") + "\n")
	}

	b.WriteString("\nWhen you need stored data to answer, respond with exactly one JSON object and nothing else:\n")
	b.WriteString(`{"tool_call": {"tool": "<name>", "parameters": {}, "description": "why"}}` + "\n")
	b.WriteString("Available tools:\n")
	for _, tool := range service.Catalog() {
		fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
	}
	b.WriteString("Otherwise answer the user directly in plain text.\n")

	return b.String()
}

// parseToolDirective detects a tool-call reply. Prose replies that merely
// mention tools do not qualify; the JSON object must carry a tool_call key
// with a tool name.
func parseToolDirective(reply string) (*toolCall, bool) {
	span, ok := service.ExtractJSON(reply)
	if !ok {
		return nil, false
	}
	var directive toolDirective
	if err := json.Unmarshal([]byte(span), &directive); err != nil {
		return nil, false
	}
	if directive.ToolCall == nil || directive.ToolCall.Tool == "" {
		return nil, false
	}
	return directive.ToolCall, true
}

func (h *ChatHandler) saveTurn(ctx context.Context, userID, sessionID, userText, assistantText, msgType string) {
	userMsg := &models.ChatMessage{
		UserID:      userID,
		SessionID:   sessionID,
		Role:        models.RoleUser,
		Content:     userText,
		MessageType: msgType,
	}
	if err := h.conversations.SaveMessage(ctx, userMsg); err != nil {
		h.logger.Error("user message save failed", zap.Error(err))
	}

	assistantMsg := &models.ChatMessage{
		UserID:      userID,
		SessionID:   sessionID,
		Role:        models.RoleAssistant,
		Content:     assistantText,
		MessageType: msgType,
	}
	if err := h.conversations.SaveMessage(ctx, assistantMsg); err != nil {
		h.logger.Error("assistant message save failed", zap.Error(err))
	}
}

func (h *ChatHandler) summarize(ctx context.Context, userID, sessionID string) {
	messages := h.conversations.GetRecentMessages(ctx, userID, sessionID, 24)
	if len(messages) == 0 {
		return
	}
	summary := h.conversations.SummarizeContext(ctx, messages)
	if summary == "" {
		return
	}
	if err := h.conversations.SaveContextSummary(ctx, userID, sessionID, summary); err != nil {
		h.logger.Error("summary save failed", zap.Error(err))
	}
}
