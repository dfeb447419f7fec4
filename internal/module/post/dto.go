package post

import (
	"time"

	"github.com/google/uuid"
)

// CreatePostRequest is the post creation payload (multipart form fields;
// the attachment file rides alongside).
type CreatePostRequest struct {
	Title       string   `form:"title" binding:"required,max=200"`
	Description string   `form:"description" binding:"omitempty,max=5000"`
	Label       string   `form:"label" binding:"omitempty,oneof=public private"`
	RecipientID string   `form:"recipient_id" binding:"omitempty,uuid"`
	Tags        []string `form:"tags" binding:"omitempty,max=10,dive,max=32"`
}

// UpdatePostRequest is the post update payload.
type UpdatePostRequest struct {
	Title       *string  `form:"title" binding:"omitempty,max=200"`
	Description *string  `form:"description" binding:"omitempty,max=5000"`
	Label       *string  `form:"label" binding:"omitempty,oneof=public private"`
	Tags        []string `form:"tags" binding:"omitempty,max=10,dive,max=32"`

	// RemoveAttachment drops the current attachment without replacing it.
	RemoveAttachment bool `form:"remove_attachment"`
}

// PostResponse is the API view of a post.
type PostResponse struct {
	ID            uuid.UUID  `json:"id"`
	AuthorID      uuid.UUID  `json:"author_id"`
	RecipientID   *uuid.UUID `json:"recipient_id,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Label         Label      `json:"label"`
	Pinned        bool       `json:"pinned"`
	Tags          []string   `json:"tags,omitempty"`
	AttachmentURL string     `json:"attachment_url,omitempty"`
	LikeCount     int64      `json:"like_count"`
	CommentCount  int64      `json:"comment_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ToResponse converts a Post to its API view.
func (p *Post) ToResponse() *PostResponse {
	return &PostResponse{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		RecipientID:   p.RecipientID,
		Title:         p.Title,
		Description:   p.Description,
		Label:         p.Label,
		Pinned:        p.Pinned,
		Tags:          p.Tags,
		AttachmentURL: p.AttachmentURL,
		LikeCount:     p.LikeCount,
		CommentCount:  p.CommentCount,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
