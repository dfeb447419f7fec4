package post

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/shared/logger"
)

// maxAttachmentSize is the upload cap for post attachments.
const maxAttachmentSize = 20 << 20 // 20 MiB

// Upload is an incoming attachment file.
type Upload struct {
	Filename    string
	Body        io.Reader
	Size        int64
	ContentType string
}

// AttachmentCoordinator sequences object storage against post records. The
// rule it enforces: a stored attachment path must always point at an object
// that exists. Objects are uploaded before their path is persisted, and
// deleted before their path is forgotten.
type AttachmentCoordinator struct {
	store storage.ObjectStore
	log   *logger.Logger
}

// NewAttachmentCoordinator creates a new coordinator.
func NewAttachmentCoordinator(store storage.ObjectStore, log *logger.Logger) *AttachmentCoordinator {
	return &AttachmentCoordinator{store: store, log: log}
}

// Stage uploads an attachment and returns its storage key and public URL.
// Nothing has been persisted yet; on any later failure the caller must
// Discard the key. A failed upload leaves no state anywhere.
func (c *AttachmentCoordinator) Stage(ctx context.Context, authorID uuid.UUID, up *Upload) (string, string, error) {
	if up.Size > maxAttachmentSize {
		return "", "", ErrAttachmentSize
	}

	key := fmt.Sprintf("attachments/%s/%s%s", authorID, uuid.New(), path.Ext(up.Filename))
	if err := c.store.Upload(ctx, key, up.Body, up.Size, up.ContentType); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return key, c.store.PublicURL(key), nil
}

// Discard removes a staged object whose post record never made it to the
// database. Failures leave an orphaned object, which is logged and otherwise
// ignored: an orphan is unreachable, a dangling path is not.
func (c *AttachmentCoordinator) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.ErrorContext(ctx, "orphaned attachment object",
			"key", key,
			"error", err,
		)
	}
}

// Remove deletes a referenced object ahead of its path being forgotten.
// The object is deleted first; if that fails the caller must keep the
// record so the path stays resolvable. Deleting a missing object succeeds.
func (c *AttachmentCoordinator) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// PresignDownload generates a short-lived download URL for an attachment.
func (c *AttachmentCoordinator) PresignDownload(ctx context.Context, key string, expiry time.Duration) (*storage.PresignedURL, error) {
	return c.store.PresignDownload(ctx, key, expiry)
}
