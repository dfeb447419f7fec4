package friend

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Service handles friendship business logic.
type Service struct {
	repo Repository
	bus  *events.Bus
	log  *logger.Logger
}

// NewService creates a new friend service.
func NewService(repo Repository, bus *events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log,
	}
}

// SendRequest creates a pending friend request. A declined request between
// the same pair is revived instead of duplicated; either side may re-ask.
func (s *Service) SendRequest(ctx context.Context, fromID, toID uuid.UUID) (*Request, error) {
	if fromID == toID {
		return nil, ErrSelfFriend
	}

	existing, err := s.repo.GetBetween(ctx, fromID, toID)
	switch {
	case err == nil:
		switch existing.Status {
		case StatusAccepted:
			return nil, ErrAlreadyFriends
		case StatusPending:
			return nil, ErrRequestExists
		case StatusDeclined:
			existing.FromID = fromID
			existing.ToID = toID
			existing.Status = StatusPending
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		return nil, ErrRequestExists

	case errors.Is(err, ErrRequestNotFound):
		req := &Request{
			ID:     uuid.New(),
			FromID: fromID,
			ToID:   toID,
			Status: StatusPending,
		}
		if err := s.repo.Create(ctx, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, err
	}
}

// Accept turns a pending request into a friendship. Only the addressee may
// accept.
func (s *Service) Accept(ctx context.Context, userID, requestID uuid.UUID) (*Request, error) {
	req, err := s.pendingFor(ctx, userID, requestID)
	if err != nil {
		return nil, err
	}

	req.Status = StatusAccepted
	if err := s.repo.Update(ctx, req); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewFriendsChangedEvent(req.FromID, req.ToID))
	return req, nil
}

// Decline rejects a pending request. Only the addressee may decline.
func (s *Service) Decline(ctx context.Context, userID, requestID uuid.UUID) error {
	req, err := s.pendingFor(ctx, userID, requestID)
	if err != nil {
		return err
	}

	req.Status = StatusDeclined
	return s.repo.Update(ctx, req)
}

// Remove ends a friendship. Either side may remove.
func (s *Service) Remove(ctx context.Context, userID, friendID uuid.UUID) error {
	req, err := s.repo.GetBetween(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return ErrNotFriends
		}
		return err
	}
	if req.Status != StatusAccepted {
		return ErrNotFriends
	}

	if err := s.repo.Delete(ctx, req.ID); err != nil {
		return err
	}

	s.bus.Publish(events.NewFriendsChangedEvent(req.FromID, req.ToID))
	return nil
}

// AreFriends reports whether two users are friends.
func (s *Service) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	if a == b {
		return false, nil
	}
	return s.repo.AreFriends(ctx, a, b)
}

// ListFriendIDs lists the IDs of a user's friends.
func (s *Service) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.ListFriendIDs(ctx, userID)
}

// ListIncoming lists pending requests addressed to the user.
func (s *Service) ListIncoming(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) ([]Request, int64, error) {
	return s.repo.ListIncoming(ctx, userID, p.Offset(), p.Limit())
}

func (s *Service) pendingFor(ctx context.Context, userID, requestID uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ToID != userID {
		return nil, ErrNotAddressee
	}
	if req.Status != StatusPending {
		return nil, ErrRequestNotFound
	}
	return req, nil
}
