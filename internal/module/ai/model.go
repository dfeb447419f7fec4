package ai

import (
	"time"

	"github.com/google/uuid"
)

// Generation is a stored text generation.
type Generation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Prompt           string    `gorm:"type:text;not null" json:"prompt"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	Model            string    `gorm:"size:100" json:"model"`
	PromptTokens     int       `gorm:"not null;default:0" json:"prompt_tokens"`
	CompletionTokens int       `gorm:"not null;default:0" json:"completion_tokens"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Generation.
func (Generation) TableName() string {
	return "ai_generations"
}
