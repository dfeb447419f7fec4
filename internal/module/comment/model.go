package comment

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reply on a post.
type Comment struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PostID   uuid.UUID `gorm:"type:uuid;index;not null" json:"post_id"`
	AuthorID uuid.UUID `gorm:"type:uuid;index;not null" json:"author_id"`
	Content  string    `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Comment.
func (Comment) TableName() string {
	return "comments"
}
