package post

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/shared/logger"
)

// fakeStore is an in-memory ObjectStore with injectable failures.
type fakeStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   int
	uploadErr error
	deleteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Download(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, 0, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeStore) PresignDownload(_ context.Context, key string, expiry time.Duration) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://signed.example.com/" + key,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func testUpload() *Upload {
	content := []byte("note body")
	return &Upload{
		Filename:    "photo.png",
		Body:        bytes.NewReader(content),
		Size:        int64(len(content)),
		ContentType: "image/png",
	}
}

func TestAttachmentCoordinator_Stage(t *testing.T) {
	store := newFakeStore()
	coord := NewAttachmentCoordinator(store, logger.New(nil))
	authorID := uuid.New()

	key, url, err := coord.Stage(context.Background(), authorID, testUpload())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "attachments/"+authorID.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+key, url)

	exists, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestAttachmentCoordinator_StageTooLarge(t *testing.T) {
	store := newFakeStore()
	coord := NewAttachmentCoordinator(store, logger.New(nil))

	up := testUpload()
	up.Size = maxAttachmentSize + 1

	_, _, err := coord.Stage(context.Background(), uuid.New(), up)
	assert.ErrorIs(t, err, ErrAttachmentSize)
	assert.Zero(t, store.count())
}

func TestAttachmentCoordinator_StageUploadFailure(t *testing.T) {
	store := newFakeStore()
	store.uploadErr = errors.New("bucket unreachable")
	coord := NewAttachmentCoordinator(store, logger.New(nil))

	_, _, err := coord.Stage(context.Background(), uuid.New(), testUpload())
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Zero(t, store.count())
}

func TestAttachmentCoordinator_Discard(t *testing.T) {
	store := newFakeStore()
	coord := NewAttachmentCoordinator(store, logger.New(nil))

	key, _, err := coord.Stage(context.Background(), uuid.New(), testUpload())
	require.NoError(t, err)

	coord.Discard(context.Background(), key)
	assert.Zero(t, store.count())

	// A failing delete only logs; the orphan stays.
	key2, _, err := coord.Stage(context.Background(), uuid.New(), testUpload())
	require.NoError(t, err)
	store.deleteErr = errors.New("bucket unreachable")
	coord.Discard(context.Background(), key2)

	store.deleteErr = nil
	exists, _ := store.Exists(context.Background(), key2)
	assert.True(t, exists)
}

func TestAttachmentCoordinator_Remove(t *testing.T) {
	t.Run("deletes the object", func(t *testing.T) {
		store := newFakeStore()
		coord := NewAttachmentCoordinator(store, logger.New(nil))

		key, _, err := coord.Stage(context.Background(), uuid.New(), testUpload())
		require.NoError(t, err)

		require.NoError(t, coord.Remove(context.Background(), key))
		assert.Zero(t, store.count())
	})

	t.Run("empty key is a no-op", func(t *testing.T) {
		coord := NewAttachmentCoordinator(newFakeStore(), logger.New(nil))
		assert.NoError(t, coord.Remove(context.Background(), ""))
	})

	t.Run("missing object deletes cleanly", func(t *testing.T) {
		coord := NewAttachmentCoordinator(newFakeStore(), logger.New(nil))
		assert.NoError(t, coord.Remove(context.Background(), "attachments/gone"))
	})

	t.Run("delete failure surfaces", func(t *testing.T) {
		store := newFakeStore()
		store.deleteErr = errors.New("bucket unreachable")
		coord := NewAttachmentCoordinator(store, logger.New(nil))

		err := coord.Remove(context.Background(), "attachments/x")
		assert.ErrorIs(t, err, ErrDeleteFailed)
	})
}
