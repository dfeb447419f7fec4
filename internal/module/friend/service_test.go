package friend

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// fakeRepo is an in-memory friend Repository.
type fakeRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*Request
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: make(map[uuid.UUID]*Request)}
}

func (f *fakeRepo) Create(_ context.Context, req *Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if req, ok := f.requests[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, ErrRequestNotFound
}

func (f *fakeRepo) GetBetween(_ context.Context, a, b uuid.UUID) (*Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if (req.FromID == a && req.ToID == b) || (req.FromID == b && req.ToID == a) {
			cp := *req
			return &cp, nil
		}
	}
	return nil, ErrRequestNotFound
}

func (f *fakeRepo) Update(_ context.Context, req *Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *req
	f.requests[req.ID] = &cp
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.requests[id]; !ok {
		return ErrRequestNotFound
	}
	delete(f.requests, id)
	return nil
}

func (f *fakeRepo) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.requests {
		if req.Status != StatusAccepted {
			continue
		}
		if (req.FromID == a && req.ToID == b) || (req.FromID == b && req.ToID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListFriendIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for _, req := range f.requests {
		if req.Status != StatusAccepted {
			continue
		}
		if req.FromID == userID {
			ids = append(ids, req.ToID)
		} else if req.ToID == userID {
			ids = append(ids, req.FromID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) ListIncoming(_ context.Context, userID uuid.UUID, offset, limit int) ([]Request, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Request
	for _, req := range f.requests {
		if req.ToID == userID && req.Status == StatusPending {
			out = append(out, *req)
		}
	}
	return out, int64(len(out)), nil
}

// capture collects published events.
type capture struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capture) Handles() []string {
	return []string{events.FriendsChangedType}
}

func (c *capture) Handle(e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *capture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func newTestService() (*Service, *fakeRepo, *capture) {
	repo := newFakeRepo()
	bus := events.NewBus(zap.NewNop())
	captured := &capture{}
	bus.Register(captured)
	return NewService(repo, bus, logger.New(nil)), repo, captured
}

func TestService_SendRequest(t *testing.T) {
	t.Run("creates a pending request", func(t *testing.T) {
		svc, _, _ := newTestService()
		from, to := uuid.New(), uuid.New()

		req, err := svc.SendRequest(context.Background(), from, to)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, req.Status)
		assert.Equal(t, from, req.FromID)
		assert.Equal(t, to, req.ToID)
	})

	t.Run("rejects self, duplicates and existing friendships", func(t *testing.T) {
		svc, _, _ := newTestService()
		from, to := uuid.New(), uuid.New()

		_, err := svc.SendRequest(context.Background(), from, from)
		assert.ErrorIs(t, err, ErrSelfFriend)

		req, err := svc.SendRequest(context.Background(), from, to)
		require.NoError(t, err)

		_, err = svc.SendRequest(context.Background(), from, to)
		assert.ErrorIs(t, err, ErrRequestExists)

		// The reverse direction collides with the same pending pair.
		_, err = svc.SendRequest(context.Background(), to, from)
		assert.ErrorIs(t, err, ErrRequestExists)

		_, err = svc.Accept(context.Background(), to, req.ID)
		require.NoError(t, err)

		_, err = svc.SendRequest(context.Background(), from, to)
		assert.ErrorIs(t, err, ErrAlreadyFriends)
	})

	t.Run("revives a declined request", func(t *testing.T) {
		svc, _, _ := newTestService()
		from, to := uuid.New(), uuid.New()

		req, err := svc.SendRequest(context.Background(), from, to)
		require.NoError(t, err)
		require.NoError(t, svc.Decline(context.Background(), to, req.ID))

		// The declined side asks this time.
		revived, err := svc.SendRequest(context.Background(), to, from)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, revived.Status)
		assert.Equal(t, to, revived.FromID)
		assert.Equal(t, from, revived.ToID)
	})
}

func TestService_Accept(t *testing.T) {
	svc, _, captured := newTestService()
	from, to := uuid.New(), uuid.New()

	req, err := svc.SendRequest(context.Background(), from, to)
	require.NoError(t, err)

	t.Run("only the addressee may accept", func(t *testing.T) {
		_, err := svc.Accept(context.Background(), from, req.ID)
		assert.ErrorIs(t, err, ErrNotAddressee)
	})

	t.Run("accepting links both users and announces", func(t *testing.T) {
		accepted, err := svc.Accept(context.Background(), to, req.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusAccepted, accepted.Status)

		friends, err := svc.AreFriends(context.Background(), from, to)
		require.NoError(t, err)
		assert.True(t, friends)

		friends, err = svc.AreFriends(context.Background(), to, from)
		require.NoError(t, err)
		assert.True(t, friends)

		assert.Equal(t, 1, captured.count())
	})

	t.Run("a settled request cannot be accepted again", func(t *testing.T) {
		_, err := svc.Accept(context.Background(), to, req.ID)
		assert.ErrorIs(t, err, ErrRequestNotFound)
	})
}

func TestService_Remove(t *testing.T) {
	svc, _, captured := newTestService()
	from, to := uuid.New(), uuid.New()

	req, err := svc.SendRequest(context.Background(), from, to)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), to, req.ID)
	require.NoError(t, err)

	// Either side may remove; here the addressee does.
	require.NoError(t, svc.Remove(context.Background(), to, from))

	friends, err := svc.AreFriends(context.Background(), from, to)
	require.NoError(t, err)
	assert.False(t, friends)

	// One event for the accept, one for the removal.
	assert.Equal(t, 2, captured.count())

	err = svc.Remove(context.Background(), to, from)
	assert.ErrorIs(t, err, ErrNotFriends)
}

func TestService_Lists(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()
	accepted := uuid.New()
	pending := uuid.New()

	req, err := svc.SendRequest(context.Background(), accepted, me)
	require.NoError(t, err)
	_, err = svc.Accept(context.Background(), me, req.ID)
	require.NoError(t, err)

	_, err = svc.SendRequest(context.Background(), pending, me)
	require.NoError(t, err)

	ids, err := svc.ListFriendIDs(context.Background(), me)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{accepted}, ids)

	incoming, total, err := svc.ListIncoming(context.Background(), me, pagination.New())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, incoming, 1)
	assert.Equal(t, pending, incoming[0].FromID)
}

func TestService_AreFriends_Self(t *testing.T) {
	svc, _, _ := newTestService()
	me := uuid.New()
	friends, err := svc.AreFriends(context.Background(), me, me)
	require.NoError(t, err)
	assert.False(t, friends)
}
