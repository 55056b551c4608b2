package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rnkp755/chefcognito/internal/models"
)

// DefaultSessionTitle is assigned to sessions created without a title.
const DefaultSessionTitle = "New Recipe Chat"

// summarizeThreshold: a session is due for summarization once more than this
// many unsummarized messages accumulated in the trailing 24 hours.
const summarizeThreshold = 5

// ErrSaveMessage is the generic error surfaced on message write failures.
var ErrSaveMessage = errors.New("failed to save message")

// Summarizer compresses a conversation transcript into a short text.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// ConversationService persists chat messages and session metadata.
type ConversationService struct {
	db         *gorm.DB
	redis      *redis.Client // optional summary cache
	summarizer Summarizer
	logger     *zap.Logger
}

func NewConversationService(db *gorm.DB, redisClient *redis.Client, summarizer Summarizer, logger *zap.Logger) *ConversationService {
	return &ConversationService{
		db:         db,
		redis:      redisClient,
		summarizer: summarizer,
		logger:     logger,
	}
}

// SaveMessage persists a message with a server-assigned timestamp and
// increments the owning session's message count.
func (s *ConversationService) SaveMessage(ctx context.Context, msg *models.ChatMessage) error {
	msg.CreatedAt = time.Now()
	if msg.MessageType == "" {
		msg.MessageType = models.MessageTypeGeneral
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		s.logger.Error("message insert failed", zap.Error(err))
		return ErrSaveMessage
	}

	err := s.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("user_id = ? AND session_id = ?", msg.UserID, msg.SessionID).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("message_count + 1"),
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		s.logger.Error("message count increment failed", zap.Error(err))
		return ErrSaveMessage
	}

	return nil
}

// GetRecentMessages returns all messages within the trailing time window,
// oldest first. Storage errors degrade to an empty slice.
func (s *ConversationService) GetRecentMessages(ctx context.Context, userID, sessionID string, hoursBack int) []models.ChatMessage {
	cutoff := time.Now().Add(-time.Duration(hoursBack) * time.Hour)

	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND created_at >= ?", userID, sessionID, cutoff).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		s.logger.Error("recent messages lookup failed", zap.Error(err))
		return []models.ChatMessage{}
	}
	return messages
}

// GetOlderMessages returns up to limit messages strictly before the given
// time, oldest first. Storage fetches newest-first so the limit keeps the
// messages closest to the cutoff, then reverses.
func (s *ConversationService) GetOlderMessages(ctx context.Context, userID, sessionID string, before time.Time, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ? AND created_at < ?", userID, sessionID, before).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load older messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// CreateOrUpdateSession is idempotent: an existing session only gets its
// updated timestamp refreshed, otherwise a new session is created with the
// default title and a zero message count.
func (s *ConversationService) CreateOrUpdateSession(ctx context.Context, userID, sessionID, title string) error {
	var session models.ChatSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&session).Error
	if err == nil {
		return s.db.WithContext(ctx).Model(&session).
			Update("updated_at", time.Now()).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if title == "" {
		title = DefaultSessionTitle
	}
	session = models.ChatSession{
		UserID:    userID,
		SessionID: sessionID,
		Title:     title,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// ShouldSummarizeSession reports whether the session crossed the fixed
// unsummarized-volume threshold. A missing session is never due.
func (s *ConversationService) ShouldSummarizeSession(ctx context.Context, userID, sessionID string) bool {
	var session models.ChatSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&session).Error
	if err != nil {
		return false
	}

	since := time.Now().Add(-24 * time.Hour)
	if session.LastSummarizedAt != nil && session.LastSummarizedAt.After(since) {
		since = *session.LastSummarizedAt
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.ChatMessage{}).
		Where("user_id = ? AND session_id = ? AND created_at > ?", userID, sessionID, since).
		Count(&count).Error
	if err != nil {
		s.logger.Error("unsummarized count failed", zap.Error(err))
		return false
	}

	return count > summarizeThreshold
}

// SummarizeContext compresses the transcript via the model. It never fails
// the caller: LLM errors fall back to a deterministic synthetic summary.
func (s *ConversationService) SummarizeContext(ctx context.Context, messages []models.ChatMessage) string {
	if len(messages) == 0 {
		return ""
	}

	transcript := ""
	for _, msg := range messages {
		transcript += fmt.Sprintf("[%s] %s: %s\n", msg.CreatedAt.Format(time.RFC3339), msg.Role, msg.Content)
	}

	summary, err := s.summarizer.Summarize(ctx, transcript)
	if err != nil || summary == "" {
		s.logger.Warn("summarization failed, using synthetic summary", zap.Error(err))
		return syntheticSummary(messages)
	}
	return summary
}

// syntheticSummary builds a deterministic summary by counting message types
// and citing the last timestamp.
func syntheticSummary(messages []models.ChatMessage) string {
	counts := map[string]int{}
	for _, msg := range messages {
		counts[msg.MessageType]++
	}
	last := messages[len(messages)-1].CreatedAt

	out := fmt.Sprintf("Conversation with %d messages", len(messages))
	if n := counts[models.MessageTypeRecipeRequest]; n > 0 {
		out += fmt.Sprintf(", %d recipe requests", n)
	}
	if n := counts[models.MessageTypeRecipeQuery]; n > 0 {
		out += fmt.Sprintf(", %d recipe queries", n)
	}
	if n := counts[models.MessageTypeGeneral]; n > 0 {
		out += fmt.Sprintf(", %d general messages", n)
	}
	out += fmt.Sprintf(". Last activity at %s.", last.Format(time.RFC3339))
	return out
}

func summaryCacheKey(userID, sessionID string) string {
	return fmt.Sprintf("session:summary:%s:%s", userID, sessionID)
}

// SaveContextSummary writes the session summary and stamps
// last_summarized_at, writing through to the cache.
func (s *ConversationService) SaveContextSummary(ctx context.Context, userID, sessionID, summary string) error {
	now := time.Now()
	err := s.db.WithContext(ctx).Model(&models.ChatSession{}).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Updates(map[string]interface{}{
			"summary":            summary,
			"last_summarized_at": now,
			"updated_at":         now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, summaryCacheKey(userID, sessionID), summary, 24*time.Hour).Err(); err != nil {
			s.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return nil
}

// GetSessionSummary reads the session summary, preferring the cache.
// Returns an empty string when no summary exists.
func (s *ConversationService) GetSessionSummary(ctx context.Context, userID, sessionID string) string {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, summaryCacheKey(userID, sessionID)).Result()
		if err == nil && cached != "" {
			return cached
		}
	}

	var session models.ChatSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		First(&session).Error
	if err != nil {
		return ""
	}
	return session.Summary
}

// SearchMessages finds messages for the user whose content contains the
// query, case-insensitive, newest first.
func (s *ConversationService) SearchMessages(ctx context.Context, userID, query string, limit int) ([]models.ChatMessage, error) {
	like := "%" + strings.ToLower(query) + "%"
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(content) LIKE ?", userID, like).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	return messages, nil
}

// GetHistory returns the user's messages within the trailing day window,
// newest first, optionally scoped to one session.
func (s *ConversationService) GetHistory(ctx context.Context, userID, sessionID string, daysBack, limit int) ([]models.ChatMessage, error) {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, cutoff)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}

	var messages []models.ChatMessage
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return messages, nil
}
