package post

import "errors"

// Post module errors.
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotAuthor      = errors.New("not the post author")
	ErrForbidden      = errors.New("post not visible")
	ErrInvalidLabel   = errors.New("invalid label")
	ErrAttachmentSize = errors.New("attachment too large")

	// ErrUploadFailed means the attachment never reached object storage;
	// nothing was persisted.
	ErrUploadFailed = errors.New("attachment upload failed")

	// ErrDeleteFailed means the stored object could not be removed; the
	// post record is kept so the path is not forgotten.
	ErrDeleteFailed = errors.New("attachment delete failed")

	// ErrPersistFailed means the post record could not be written after the
	// attachment was uploaded.
	ErrPersistFailed = errors.New("post persist failed")
)
