package interaction

import "errors"

// Interaction module errors.
var (
	ErrAlreadyLiked      = errors.New("post already liked")
	ErrNotLiked          = errors.New("post not liked")
	ErrAlreadyBookmarked = errors.New("post already bookmarked")
	ErrNotBookmarked     = errors.New("post not bookmarked")
)
