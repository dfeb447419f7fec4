package interaction

import (
	"time"

	"github.com/google/uuid"
)

// Like marks a user's like on a post.
type Like struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_likes_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Like.
func (Like) TableName() string {
	return "likes"
}

// Bookmark marks a post a user saved for later.
type Bookmark struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_post_user" json:"post_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_post_user;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for Bookmark.
func (Bookmark) TableName() string {
	return "bookmarks"
}
