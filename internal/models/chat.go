package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Chat message types
const (
	MessageTypeGeneral       = "general"
	MessageTypeRecipeRequest = "recipe_request"
	MessageTypeRecipeQuery   = "recipe_query"
)

// ChatMessage is one immutable turn in a conversation.
type ChatMessage struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"size:128;not null;index:idx_messages_user_session" json:"user_id"`
	SessionID   string    `gorm:"size:128;not null;index:idx_messages_user_session" json:"session_id"`
	Role        string    `gorm:"size:20;not null" json:"role"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	MessageType string    `gorm:"size:30;not null;default:general" json:"message_type"`
	Metadata    JSONMap   `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ChatSession groups messages for one user under an opaque session id.
// MessageCount is maintained by incrementing on every save, never recomputed.
// Summary covers all messages up to LastSummarizedAt.
type ChatSession struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string     `gorm:"size:128;not null;uniqueIndex:idx_sessions_user_session" json:"user_id"`
	SessionID        string     `gorm:"size:128;not null;uniqueIndex:idx_sessions_user_session" json:"session_id"`
	Title            string     `gorm:"size:255;not null;default:'New Recipe Chat'" json:"title"`
	Summary          string     `gorm:"type:text" json:"summary"`
	MessageCount     int        `gorm:"not null;default:0" json:"message_count"`
	LastSummarizedAt *time.Time `json:"last_summarized_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
