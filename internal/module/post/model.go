package post

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Label controls post visibility.
type Label string

// Visibility labels.
const (
	// LabelPublic posts are visible to everyone.
	LabelPublic Label = "public"
	// LabelPrivate posts are visible to the author, the recipient, and the
	// author's friends.
	LabelPrivate Label = "private"
)

// Valid reports whether the label is a known value.
func (l Label) Valid() bool {
	return l == LabelPublic || l == LabelPrivate
}

// Post is a shared note, optionally addressed to another user and optionally
// carrying one attachment.
type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"author_id"`
	RecipientID *uuid.UUID     `gorm:"type:uuid;index" json:"recipient_id,omitempty"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Label       Label          `gorm:"size:16;not null;default:'public'" json:"label"`
	Pinned      bool           `gorm:"not null;default:false" json:"pinned"`
	Tags        pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`

	// AttachmentPath is the object storage key; AttachmentURL is the
	// client-facing URL derived from it. Both empty when there is no
	// attachment.
	AttachmentPath string `gorm:"size:500" json:"-"`
	AttachmentURL  string `gorm:"size:500" json:"attachment_url,omitempty"`

	LikeCount    int64 `gorm:"not null;default:0" json:"like_count"`
	CommentCount int64 `gorm:"not null;default:0" json:"comment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Post.
func (Post) TableName() string {
	return "posts"
}

// HasAttachment reports whether the post carries an attachment.
func (p *Post) HasAttachment() bool {
	return p.AttachmentPath != ""
}
