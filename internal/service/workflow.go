package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rnkp755/chefcognito/internal/models"
	"github.com/rnkp755/chefcognito/internal/types"
)

// Hours of conversation pulled into the prompt by default.
const recentContextHours = 2

// Messages fetched when the user refers back past the recent window.
const olderContextLimit = 20

// FallbackReply is sent when the model gives no usable answer.
const FallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// ChatModel is the completion surface the workflow needs from the LLM.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ProgressEvent is one step update emitted while a chat turn is processed.
type ProgressEvent struct {
	Step     string `json:"step"`
	Progress int    `json:"progress"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Done     bool   `json:"done"`
}

// ChatWorkflow runs a chat turn through a fixed pipeline: load preferences,
// load recent context, widen the window if the message refers back, generate,
// persist. Every step degrades rather than aborting; only a model failure
// replaces the answer, and even then the user gets a reply.
type ChatWorkflow struct {
	model         ChatModel
	conversations *ConversationService
	preferences   *PreferenceService
	logger        *zap.Logger
}

func NewChatWorkflow(model ChatModel, conversations *ConversationService, preferences *PreferenceService, logger *zap.Logger) *ChatWorkflow {
	return &ChatWorkflow{
		model:         model,
		conversations: conversations,
		preferences:   preferences,
		logger:        logger,
	}
}

type workflowState struct {
	userID  string
	req     *types.ChatRequest
	prefs   *models.Preferences
	context []models.ChatMessage
	reply   string
	msgType string
	errMsg  string
}

// Run processes one chat turn, emitting a ProgressEvent per step. The final
// event carries the assistant's reply and Done=true.
func (w *ChatWorkflow) Run(ctx context.Context, userID string, req *types.ChatRequest, emit func(ProgressEvent)) {
	state := &workflowState{userID: userID, req: req}

	emit(ProgressEvent{Step: "loading_preferences", Progress: 10})
	w.loadPreferences(ctx, state)

	emit(ProgressEvent{Step: "loading_context", Progress: 25})
	w.loadContext(ctx, state)

	emit(ProgressEvent{Step: "checking_context_need", Progress: 40})
	if NeedsOlderContext(req.Message) {
		emit(ProgressEvent{Step: "loading_older_context", Progress: 55})
		w.loadOlderContext(ctx, state)
	}

	emit(ProgressEvent{Step: "generating_response", Progress: 70})
	w.generateResponse(ctx, state)

	emit(ProgressEvent{Step: "saving_response", Progress: 90})
	w.saveResponse(ctx, state)

	emit(ProgressEvent{
		Step:     "done",
		Progress: 100,
		Response: state.reply,
		Error:    state.errMsg,
		Done:     true,
	})
}

func (w *ChatWorkflow) loadPreferences(ctx context.Context, state *workflowState) {
	prefs, err := w.preferences.Get(ctx, state.userID)
	if err != nil {
		w.logger.Warn("preference load failed, continuing with defaults", zap.Error(err))
		prefs = DefaultPreferences(state.userID)
	}
	state.prefs = prefs
}

func (w *ChatWorkflow) loadContext(ctx context.Context, state *workflowState) {
	state.context = w.conversations.GetRecentMessages(ctx, state.userID, state.req.SessionID, recentContextHours)
}

func (w *ChatWorkflow) loadOlderContext(ctx context.Context, state *workflowState) {
	before := time.Now().Add(-recentContextHours * time.Hour)
	if len(state.context) > 0 {
		before = state.context[0].CreatedAt
	}

	older, err := w.conversations.GetOlderMessages(ctx, state.userID, state.req.SessionID, before, olderContextLimit)
	if err != nil {
		w.logger.Warn("older context load failed, continuing without it", zap.Error(err))
		return
	}
	state.context = append(older, state.context...)
}

func (w *ChatWorkflow) generateResponse(ctx context.Context, state *workflowState) {
	state.msgType = ClassifyMessage(state.req.RequestType, state.req.Message, state.req.CurrentRecipes)

	messages := []Message{{Role: models.RoleSystem, Content: w.systemPrompt(ctx, state)}}
	for _, msg := range state.context {
		messages = append(messages, Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, Message{Role: models.RoleUser, Content: state.req.Message})

	reply, err := w.model.Chat(ctx, messages)
	if err != nil || strings.TrimSpace(reply) == "" {
		w.logger.Error("chat completion failed", zap.Error(err))
		state.errMsg = "response generation failed"
		state.reply = FallbackReply
		return
	}
	state.reply = reply
}

func (w *ChatWorkflow) systemPrompt(ctx context.Context, state *workflowState) string {
	var b strings.Builder
	b.WriteString("You are a friendly cooking assistant. Help the user cook with what they have, suggest recipes and answer cooking questions.\n")
	fmt.Fprintf(&b, "User id: %s. Current time: %s.\n", state.userID, time.Now().Format(time.RFC3339))
	b.WriteString("User profile: " + PreferenceSummary(state.prefs) + "\n")

	if summary := w.conversations.GetSessionSummary(ctx, state.userID, state.req.SessionID); summary != "" {
		b.WriteString("Earlier in this conversation: " + summary + "\n")
	}

	if len(state.req.CurrentIngredients) > 0 {
		names := make([]string, 0, len(state.req.CurrentIngredients))
		for _, ing := range state.req.CurrentIngredients {
			names = append(names, ing.Name)
		}
		b.WriteString("Ingredients currently on hand: " + strings.Join(names, ", ") + "\n")
	}

	if len(state.req.CurrentRecipes) > 0 {
		names := make([]string, 0, len(state.req.CurrentRecipes))
		for _, recipe := range state.req.CurrentRecipes {
			names = append(names, recipe.Name)
		}
		b.WriteString("Recipes currently on screen: " + strings.Join(names, ", ") + "\n")
	}

	return b.String()
}

// saveResponse persists both turns. Failures are logged; the reply already
// generated is still delivered to the user.
func (w *ChatWorkflow) saveResponse(ctx context.Context, state *workflowState) {
	if err := w.conversations.CreateOrUpdateSession(ctx, state.userID, state.req.SessionID, ""); err != nil {
		w.logger.Error("session upsert failed", zap.Error(err))
	}

	userMsg := &models.ChatMessage{
		UserID:      state.userID,
		SessionID:   state.req.SessionID,
		Role:        models.RoleUser,
		Content:     state.req.Message,
		MessageType: state.msgType,
	}
	if err := w.conversations.SaveMessage(ctx, userMsg); err != nil {
		w.logger.Error("user message save failed", zap.Error(err))
	}

	assistantMsg := &models.ChatMessage{
		UserID:      state.userID,
		SessionID:   state.req.SessionID,
		Role:        models.RoleAssistant,
		Content:     state.reply,
		MessageType: state.msgType,
	}
	if err := w.conversations.SaveMessage(ctx, assistantMsg); err != nil {
		w.logger.Error("assistant message save failed", zap.Error(err))
	}

	if w.conversations.ShouldSummarizeSession(ctx, state.userID, state.req.SessionID) {
		w.summarize(ctx, state)
	}
}

func (w *ChatWorkflow) summarize(ctx context.Context, state *workflowState) {
	messages := w.conversations.GetRecentMessages(ctx, state.userID, state.req.SessionID, 24)
	if len(messages) == 0 {
		return
	}
	summary := w.conversations.SummarizeContext(ctx, messages)
	if summary == "" {
		return
	}
	if err := w.conversations.SaveContextSummary(ctx, state.userID, state.req.SessionID, summary); err != nil {
		w.logger.Error("summary save failed", zap.Error(err))
	}
}

// backReferences are the phrases that signal the user is asking about
// something beyond the recent context window.
var backReferences = []string{"yesterday", "earlier", "before", "previous"}

// NeedsOlderContext reports whether the message refers back in time.
func NeedsOlderContext(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range backReferences {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// ClassifyMessage picks the message type: an explicit request type wins, then
// the word "recipe" in the message, then recipes already in view.
func ClassifyMessage(requestType, message string, currentRecipes []models.RecipePayload) string {
	switch requestType {
	case models.MessageTypeRecipeRequest, models.MessageTypeRecipeQuery, models.MessageTypeGeneral:
		return requestType
	}
	if strings.Contains(strings.ToLower(message), "recipe") {
		return models.MessageTypeRecipeRequest
	}
	if len(currentRecipes) > 0 {
		return models.MessageTypeRecipeQuery
	}
	return models.MessageTypeGeneral
}
