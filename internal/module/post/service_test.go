package post

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// fakeRepo is an in-memory post Repository with injectable failures.
type fakeRepo struct {
	mu        sync.Mutex
	posts     map[uuid.UUID]*Post
	createErr error
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{posts: make(map[uuid.UUID]*Post)}
}

func (f *fakeRepo) Create(_ context.Context, p *Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, ErrPostNotFound
}

func (f *fakeRepo) Update(_ context.Context, p *Post) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeRepo) ListPublic(_ context.Context, offset, limit int) ([]Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Post
	for _, p := range f.posts {
		if p.Label == LabelPublic {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) ListByAuthor(_ context.Context, authorID uuid.UUID, includePrivate bool, offset, limit int) ([]Post, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Post
	for _, p := range f.posts {
		if p.AuthorID != authorID {
			continue
		}
		if !includePrivate && p.Label != LabelPublic {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRepo) ListByAuthors(_ context.Context, authorIDs []uuid.UUID, offset, limit int) ([]Post, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListByRecipient(_ context.Context, recipientID uuid.UUID, offset, limit int) ([]Post, int64, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]Post, error) {
	return nil, nil
}

func (f *fakeRepo) AdjustLikeCount(_ context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeRepo) AdjustCommentCount(_ context.Context, id uuid.UUID, delta int64) error {
	return nil
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

// fakeLedger implements workflow.Ledger over an in-memory balance.
type fakeLedger struct {
	mu       sync.Mutex
	prices   map[credits.Action]int64
	balances map[uuid.UUID]int64
	debitErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		prices:   map[credits.Action]int64{credits.ActionCreatePost: 1},
		balances: make(map[uuid.UUID]int64),
	}
}

func (f *fakeLedger) Price(action credits.Action) int64 {
	return f.prices[action]
}

func (f *fakeLedger) CanAfford(_ context.Context, userID uuid.UUID, action credits.Action) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance := f.balances[userID]
	return balance >= f.prices[action], balance, nil
}

func (f *fakeLedger) Debit(_ context.Context, userID uuid.UUID, action credits.Action, _ uuid.UUID) (*credits.Wallet, error) {
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cost := f.prices[action]
	if f.balances[userID] < cost {
		return nil, credits.ErrInsufficientCredits
	}
	f.balances[userID] -= cost
	return &credits.Wallet{UserID: userID, Balance: f.balances[userID]}, nil
}

// fakeFriends answers friendship queries from a fixed pair set.
type fakeFriends struct {
	pairs map[[2]uuid.UUID]bool
}

func newFakeFriends() *fakeFriends {
	return &fakeFriends{pairs: make(map[[2]uuid.UUID]bool)}
}

func (f *fakeFriends) befriend(a, b uuid.UUID) {
	f.pairs[[2]uuid.UUID{a, b}] = true
	f.pairs[[2]uuid.UUID{b, a}] = true
}

func (f *fakeFriends) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	return f.pairs[[2]uuid.UUID{a, b}], nil
}

type testEnv struct {
	svc     *Service
	repo    *fakeRepo
	store   *fakeStore
	ledger  *fakeLedger
	friends *fakeFriends
}

func newTestEnv() *testEnv {
	repo := newFakeRepo()
	store := newFakeStore()
	ledger := newFakeLedger()
	friends := newFakeFriends()
	log := logger.New(nil)

	svc := NewService(
		repo,
		workflow.NewDispatcher(ledger, log, nil),
		NewAttachmentCoordinator(store, log),
		friends,
		events.NewBus(zap.NewNop()),
		log,
	)

	return &testEnv{svc: svc, repo: repo, store: store, ledger: ledger, friends: friends}
}

func TestService_Create(t *testing.T) {
	t.Run("persists and charges", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()
		env.ledger.balances[authorID] = 3

		p, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{
			Title:       "hello",
			Description: "first note",
			Label:       "public",
			Tags:        []string{"intro"},
		}, nil)
		require.NoError(t, err)

		assert.Equal(t, authorID, p.AuthorID)
		assert.Equal(t, LabelPublic, p.Label)
		assert.Equal(t, int64(2), env.ledger.balances[authorID])
		assert.Equal(t, 1, env.repo.count())
	})

	t.Run("stores the attachment before the record", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()
		env.ledger.balances[authorID] = 3

		p, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{Title: "with file"}, testUpload())
		require.NoError(t, err)

		require.True(t, p.HasAttachment())
		exists, err := env.store.Exists(context.Background(), p.AttachmentPath)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Contains(t, p.AttachmentURL, p.AttachmentPath)
	})

	t.Run("rejects without funds before any effect", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()

		_, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{Title: "broke"}, testUpload())
		assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
		assert.Zero(t, env.repo.count())
		assert.Zero(t, env.store.count())
	})

	t.Run("discards the staged object when persist fails", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()
		env.ledger.balances[authorID] = 3
		env.repo.createErr = errors.New("db down")

		_, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{Title: "lost"}, testUpload())
		assert.ErrorIs(t, err, ErrPersistFailed)
		assert.Zero(t, env.store.count())
		assert.Equal(t, int64(3), env.ledger.balances[authorID])
	})

	t.Run("compensates when the debit loses the race", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()
		env.ledger.balances[authorID] = 1

		// Drain the balance between the advisory check and the debit.
		env.ledger.debitErr = credits.ErrInsufficientCredits

		_, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{Title: "raced"}, testUpload())
		assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
		assert.Zero(t, env.repo.count())
		assert.Zero(t, env.store.count())
	})

	t.Run("keeps the post when the debit errors", func(t *testing.T) {
		env := newTestEnv()
		authorID := uuid.New()
		env.ledger.balances[authorID] = 5
		env.ledger.debitErr = errors.New("wallet table locked")

		p, err := env.svc.Create(context.Background(), authorID, &CreatePostRequest{Title: "kept"}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, env.repo.count())
		assert.NotNil(t, p)
	})

	t.Run("rejects an unknown label", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.svc.Create(context.Background(), uuid.New(), &CreatePostRequest{Title: "x", Label: "secret"}, nil)
		assert.ErrorIs(t, err, ErrInvalidLabel)
	})
}

func TestService_Get_Visibility(t *testing.T) {
	env := newTestEnv()
	author := uuid.New()
	recipient := uuid.New()
	friend := uuid.New()
	stranger := uuid.New()
	env.friends.befriend(author, friend)
	env.ledger.balances[author] = 10

	private, err := env.svc.Create(context.Background(), author, &CreatePostRequest{
		Title:       "just us",
		Label:       "private",
		RecipientID: recipient.String(),
	}, nil)
	require.NoError(t, err)

	public, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "everyone"}, nil)
	require.NoError(t, err)

	t.Run("public is open to anonymous viewers", func(t *testing.T) {
		_, err := env.svc.Get(context.Background(), uuid.Nil, public.ID)
		assert.NoError(t, err)
	})

	t.Run("private is open to author, recipient and friends", func(t *testing.T) {
		for _, viewer := range []uuid.UUID{author, recipient, friend} {
			_, err := env.svc.Get(context.Background(), viewer, private.ID)
			assert.NoError(t, err)
		}
	})

	t.Run("private is closed to strangers and anonymous viewers", func(t *testing.T) {
		_, err := env.svc.Get(context.Background(), stranger, private.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = env.svc.Get(context.Background(), uuid.Nil, private.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown post", func(t *testing.T) {
		_, err := env.svc.Get(context.Background(), author, uuid.New())
		assert.ErrorIs(t, err, ErrPostNotFound)
	})
}

func TestService_Update(t *testing.T) {
	newTitle := "rewritten"

	t.Run("only the author may update", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "mine"}, nil)
		require.NoError(t, err)

		_, err = env.svc.Update(context.Background(), uuid.New(), p.ID, &UpdatePostRequest{Title: &newTitle}, nil)
		assert.ErrorIs(t, err, ErrNotAuthor)
	})

	t.Run("replacing the attachment removes the old object", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "v1"}, testUpload())
		require.NoError(t, err)
		oldKey := p.AttachmentPath

		updated, err := env.svc.Update(context.Background(), author, p.ID, &UpdatePostRequest{}, testUpload())
		require.NoError(t, err)

		assert.NotEqual(t, oldKey, updated.AttachmentPath)
		exists, _ := env.store.Exists(context.Background(), oldKey)
		assert.False(t, exists)
		exists, _ = env.store.Exists(context.Background(), updated.AttachmentPath)
		assert.True(t, exists)
	})

	t.Run("a failed delete of the old object aborts before any upload", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "v1"}, testUpload())
		require.NoError(t, err)
		uploadsBefore := env.store.uploads

		env.store.deleteErr = errors.New("bucket unreachable")
		_, err = env.svc.Update(context.Background(), author, p.ID, &UpdatePostRequest{}, testUpload())
		assert.ErrorIs(t, err, ErrDeleteFailed)

		assert.Equal(t, uploadsBefore, env.store.uploads)
		kept, err := env.repo.GetByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.AttachmentPath, kept.AttachmentPath)
	})

	t.Run("a failed replacement upload keeps the post attachment-less", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "v1"}, testUpload())
		require.NoError(t, err)

		env.store.uploadErr = errors.New("bucket unreachable")
		_, err = env.svc.Update(context.Background(), author, p.ID, &UpdatePostRequest{}, testUpload())
		assert.ErrorIs(t, err, ErrUploadFailed)

		kept, err := env.repo.GetByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.False(t, kept.HasAttachment())
		assert.Zero(t, env.store.count())
	})

	t.Run("removing the attachment deletes the object first", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "v1"}, testUpload())
		require.NoError(t, err)

		updated, err := env.svc.Update(context.Background(), author, p.ID, &UpdatePostRequest{RemoveAttachment: true}, nil)
		require.NoError(t, err)

		assert.False(t, updated.HasAttachment())
		assert.Zero(t, env.store.count())
	})

	t.Run("a failed object delete keeps the path", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "v1"}, testUpload())
		require.NoError(t, err)

		env.store.deleteErr = errors.New("bucket unreachable")
		_, err = env.svc.Update(context.Background(), author, p.ID, &UpdatePostRequest{RemoveAttachment: true}, nil)
		assert.ErrorIs(t, err, ErrDeleteFailed)

		kept, err := env.repo.GetByID(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.AttachmentPath, kept.AttachmentPath)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("removes the object before the record", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "bye"}, testUpload())
		require.NoError(t, err)

		require.NoError(t, env.svc.Delete(context.Background(), author, p.ID))
		assert.Zero(t, env.repo.count())
		assert.Zero(t, env.store.count())
	})

	t.Run("a failed object delete keeps the record", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "stuck"}, testUpload())
		require.NoError(t, err)

		env.store.deleteErr = errors.New("bucket unreachable")
		err = env.svc.Delete(context.Background(), author, p.ID)
		assert.ErrorIs(t, err, ErrDeleteFailed)
		assert.Equal(t, 1, env.repo.count())
	})

	t.Run("only the author may delete", func(t *testing.T) {
		env := newTestEnv()
		author := uuid.New()
		env.ledger.balances[author] = 10
		p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "mine"}, nil)
		require.NoError(t, err)

		err = env.svc.Delete(context.Background(), uuid.New(), p.ID)
		assert.ErrorIs(t, err, ErrNotAuthor)
	})
}

func TestService_SetPinned(t *testing.T) {
	env := newTestEnv()
	author := uuid.New()
	env.ledger.balances[author] = 10
	p, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "pin me"}, nil)
	require.NoError(t, err)

	pinned, err := env.svc.SetPinned(context.Background(), author, p.ID, true)
	require.NoError(t, err)
	assert.True(t, pinned.Pinned)

	_, err = env.svc.SetPinned(context.Background(), uuid.New(), p.ID, false)
	assert.ErrorIs(t, err, ErrNotAuthor)
}

func TestService_ListByAuthor(t *testing.T) {
	env := newTestEnv()
	author := uuid.New()
	friend := uuid.New()
	stranger := uuid.New()
	env.friends.befriend(author, friend)
	env.ledger.balances[author] = 10

	_, err := env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "open"}, nil)
	require.NoError(t, err)
	_, err = env.svc.Create(context.Background(), author, &CreatePostRequest{Title: "closed", Label: "private"}, nil)
	require.NoError(t, err)

	page := pagination.New()

	posts, total, err := env.svc.ListByAuthor(context.Background(), author, author, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, posts, 2)

	_, total, err = env.svc.ListByAuthor(context.Background(), friend, author, page)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = env.svc.ListByAuthor(context.Background(), stranger, author, page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
