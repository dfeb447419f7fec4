package events

import "github.com/google/uuid"

// Event type constants.
const (
	PostCreatedType    = "PostCreated"
	PostUpdatedType    = "PostUpdated"
	PostDeletedType    = "PostDeleted"
	CommentCreatedType = "CommentCreated"
	CommentDeletedType = "CommentDeleted"
	PostLikedType      = "PostLiked"
	PostUnlikedType    = "PostUnliked"
	FriendsChangedType = "FriendsChanged"
)

// PostCreatedEvent is emitted after a post is persisted.
type PostCreatedEvent struct {
	BaseEvent

	// PostID is the unique identifier of the post.
	PostID uuid.UUID `json:"post_id"`

	// AuthorID is the ID of the user who created the post.
	AuthorID uuid.UUID `json:"author_id"`

	// RecipientID is the ID of the addressed user, if any.
	RecipientID *uuid.UUID `json:"recipient_id,omitempty"`

	// Label is the post visibility label ("public" or "private").
	Label string `json:"label"`
}

// NewPostCreatedEvent creates a new PostCreatedEvent.
func NewPostCreatedEvent(postID, authorID uuid.UUID, recipientID *uuid.UUID, label string) *PostCreatedEvent {
	return &PostCreatedEvent{
		BaseEvent:   NewBaseEvent(PostCreatedType, postID, "Post"),
		PostID:      postID,
		AuthorID:    authorID,
		RecipientID: recipientID,
		Label:       label,
	}
}

// PostUpdatedEvent is emitted after a post's content or label changes.
type PostUpdatedEvent struct {
	BaseEvent

	PostID   uuid.UUID `json:"post_id"`
	AuthorID uuid.UUID `json:"author_id"`
	Label    string    `json:"label"`
}

// NewPostUpdatedEvent creates a new PostUpdatedEvent.
func NewPostUpdatedEvent(postID, authorID uuid.UUID, label string) *PostUpdatedEvent {
	return &PostUpdatedEvent{
		BaseEvent: NewBaseEvent(PostUpdatedType, postID, "Post"),
		PostID:    postID,
		AuthorID:  authorID,
		Label:     label,
	}
}

// PostDeletedEvent is emitted after a post and its attachment are removed.
type PostDeletedEvent struct {
	BaseEvent

	PostID   uuid.UUID `json:"post_id"`
	AuthorID uuid.UUID `json:"author_id"`
}

// NewPostDeletedEvent creates a new PostDeletedEvent.
func NewPostDeletedEvent(postID, authorID uuid.UUID) *PostDeletedEvent {
	return &PostDeletedEvent{
		BaseEvent: NewBaseEvent(PostDeletedType, postID, "Post"),
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// CommentCreatedEvent is emitted after a comment is persisted.
type CommentCreatedEvent struct {
	BaseEvent

	CommentID uuid.UUID `json:"comment_id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
}

// NewCommentCreatedEvent creates a new CommentCreatedEvent.
func NewCommentCreatedEvent(commentID, postID, authorID uuid.UUID) *CommentCreatedEvent {
	return &CommentCreatedEvent{
		BaseEvent: NewBaseEvent(CommentCreatedType, commentID, "Comment"),
		CommentID: commentID,
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// CommentDeletedEvent is emitted after a comment is removed.
type CommentDeletedEvent struct {
	BaseEvent

	CommentID uuid.UUID `json:"comment_id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
}

// NewCommentDeletedEvent creates a new CommentDeletedEvent.
func NewCommentDeletedEvent(commentID, postID, authorID uuid.UUID) *CommentDeletedEvent {
	return &CommentDeletedEvent{
		BaseEvent: NewBaseEvent(CommentDeletedType, commentID, "Comment"),
		CommentID: commentID,
		PostID:    postID,
		AuthorID:  authorID,
	}
}

// PostLikedEvent is emitted when a user likes a post.
type PostLikedEvent struct {
	BaseEvent

	PostID uuid.UUID `json:"post_id"`

	// LikerID is the user who liked the post.
	LikerID uuid.UUID `json:"liker_id"`

	// AuthorID is the post author, credited with the like reward.
	AuthorID uuid.UUID `json:"author_id"`
}

// NewPostLikedEvent creates a new PostLikedEvent.
func NewPostLikedEvent(postID, likerID, authorID uuid.UUID) *PostLikedEvent {
	return &PostLikedEvent{
		BaseEvent: NewBaseEvent(PostLikedType, postID, "Post"),
		PostID:    postID,
		LikerID:   likerID,
		AuthorID:  authorID,
	}
}

// PostUnlikedEvent is emitted when a user removes a like.
type PostUnlikedEvent struct {
	BaseEvent

	PostID  uuid.UUID `json:"post_id"`
	LikerID uuid.UUID `json:"liker_id"`
}

// NewPostUnlikedEvent creates a new PostUnlikedEvent.
func NewPostUnlikedEvent(postID, likerID uuid.UUID) *PostUnlikedEvent {
	return &PostUnlikedEvent{
		BaseEvent: NewBaseEvent(PostUnlikedType, postID, "Post"),
		PostID:    postID,
		LikerID:   likerID,
	}
}

// FriendsChangedEvent is emitted when a friendship is created or removed.
// Both users' friend feeds become stale.
type FriendsChangedEvent struct {
	BaseEvent

	UserID   uuid.UUID `json:"user_id"`
	FriendID uuid.UUID `json:"friend_id"`
}

// NewFriendsChangedEvent creates a new FriendsChangedEvent.
func NewFriendsChangedEvent(userID, friendID uuid.UUID) *FriendsChangedEvent {
	return &FriendsChangedEvent{
		BaseEvent: NewBaseEvent(FriendsChangedType, userID, "Friendship"),
		UserID:    userID,
		FriendID:  friendID,
	}
}
