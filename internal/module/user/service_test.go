package user

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteshare/server/internal/module/auth"
	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/shared/logger"
)

// fakeRepo is an in-memory user Repository.
type fakeRepo struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*User
	tokens map[string]*RefreshToken
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:  make(map[uuid.UUID]*User),
		tokens: make(map[string]*RefreshToken),
	}
}

func (f *fakeRepo) Create(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeRepo) Update(_ context.Context, u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeRepo) CreateRefreshToken(_ context.Context, t *RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.tokens[t.TokenHash] = &cp
	return nil
}

func (f *fakeRepo) GetRefreshToken(_ context.Context, hash string) (*RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[hash]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrInvalidRefresh
}

func (f *fakeRepo) RevokeRefreshToken(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (f *fakeRepo) RevokeUserRefreshTokens(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// fakeWallets records wallet grants.
type fakeWallets struct {
	mu      sync.Mutex
	created []uuid.UUID
	err     error
}

func (f *fakeWallets) CreateWalletForUser(_ context.Context, userID uuid.UUID) (*credits.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, userID)
	return &credits.Wallet{ID: uuid.New(), UserID: userID, Balance: 10}, nil
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
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
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
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
		Method:    "GET",
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func newTestService(repo Repository, wallets WalletCreator, store storage.ObjectStore) *Service {
	jwt := auth.NewJWTManager(&auth.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "noteshare-test",
	})
	return NewService(repo, jwt, wallets, store, logger.New(nil), nil)
}

func registerReq() *RegisterRequest {
	return &RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "supersecret",
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with seeded wallet and tokens", func(t *testing.T) {
		repo := newFakeRepo()
		wallets := &fakeWallets{}
		svc := newTestService(repo, wallets, newFakeStore())

		resp, err := svc.Register(ctx, registerReq())
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.User.Username)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Tokens.RefreshToken)

		require.Len(t, wallets.created, 1)
		assert.Equal(t, resp.User.ID, wallets.created[0])

		// Password is stored hashed.
		stored, err := repo.GetByID(ctx, resp.User.ID)
		require.NoError(t, err)
		assert.NotEqual(t, "supersecret", stored.PasswordHash)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, &fakeWallets{}, newFakeStore())

		_, err := svc.Register(ctx, registerReq())
		require.NoError(t, err)

		dup := registerReq()
		dup.Username = "bob"
		_, err = svc.Register(ctx, dup)
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("rejects duplicate username", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, &fakeWallets{}, newFakeStore())

		_, err := svc.Register(ctx, registerReq())
		require.NoError(t, err)

		dup := registerReq()
		dup.Email = "other@example.com"
		_, err = svc.Register(ctx, dup)
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("rejects short password", func(t *testing.T) {
		svc := newTestService(newFakeRepo(), &fakeWallets{}, newFakeStore())

		req := registerReq()
		req.Password = "short"
		_, err := svc.Register(ctx, req)
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("normalizes email", func(t *testing.T) {
		repo := newFakeRepo()
		svc := newTestService(repo, &fakeWallets{}, newFakeStore())

		req := registerReq()
		req.Email = "  Alice@Example.COM "
		resp, err := svc.Register(ctx, req)
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, resp.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", stored.Email)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWallets{}, newFakeStore())

	_, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	t.Run("succeeds with correct password", func(t *testing.T) {
		resp, err := svc.Login(ctx, &LoginRequest{Email: "alice@example.com", Password: "supersecret"})
		require.NoError(t, err)
		assert.Equal(t, "alice", resp.User.Username)
		assert.NotEmpty(t, resp.Tokens.AccessToken)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "alice@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "supersecret"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Refresh(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWallets{}, newFakeStore())

	resp, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	t.Run("rotates the refresh token", func(t *testing.T) {
		tokens, err := svc.Refresh(ctx, resp.Tokens.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEqual(t, resp.Tokens.RefreshToken, tokens.RefreshToken)

		// The used token is revoked.
		_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "garbage")
		assert.ErrorIs(t, err, ErrInvalidRefresh)
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWallets{}, newFakeStore())

	resp, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, resp.User.ID))

	_, err = svc.Refresh(ctx, resp.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWallets{}, newFakeStore())

	resp, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	bio := "hello there"
	updated, err := svc.UpdateProfile(ctx, resp.User.ID, &UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)
}

func TestService_UploadAvatar(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	svc := newTestService(repo, &fakeWallets{}, store)

	resp, err := svc.Register(ctx, registerReq())
	require.NoError(t, err)

	t.Run("stores image and updates profile", func(t *testing.T) {
		body := bytes.NewReader([]byte("png-bytes"))
		updated, err := svc.UploadAvatar(ctx, resp.User.ID, "me.png", body, 9, "image/png")
		require.NoError(t, err)
		assert.Contains(t, updated.AvatarURL, "https://cdn.example.com/avatars/")
		assert.Contains(t, updated.AvatarURL, ".png")
	})

	t.Run("rejects oversized upload", func(t *testing.T) {
		_, err := svc.UploadAvatar(ctx, resp.User.ID, "big.png", bytes.NewReader(nil), maxAvatarSize+1, "image/png")
		assert.ErrorIs(t, err, ErrAvatarTooLarge)
	})

	t.Run("replacing deletes the previous image", func(t *testing.T) {
		_, err := svc.UploadAvatar(ctx, resp.User.ID, "new.png", bytes.NewReader([]byte("png-bytes")), 9, "image/png")
		require.NoError(t, err)

		store.mu.Lock()
		defer store.mu.Unlock()
		assert.Len(t, store.objects, 1)
		assert.Len(t, store.deleted, 1)
	})

	t.Run("remove deletes the object and clears the profile", func(t *testing.T) {
		cleared, err := svc.RemoveAvatar(ctx, resp.User.ID)
		require.NoError(t, err)
		assert.Empty(t, cleared.AvatarURL)

		store.mu.Lock()
		defer store.mu.Unlock()
		assert.Empty(t, store.objects)
	})
}
