package comment

import "errors"

// Comment module errors.
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotAuthor       = errors.New("not the comment author")
)
