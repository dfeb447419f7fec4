package friend

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the friendship data access interface.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)

	// GetBetween finds the request between two users in either direction,
	// regardless of status.
	GetBetween(ctx context.Context, a, b uuid.UUID) (*Request, error)

	Update(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AreFriends reports whether an accepted request links the two users.
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)

	// ListFriendIDs lists the IDs of a user's accepted friends.
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)

	// ListIncoming lists pending requests addressed to the user, newest
	// first.
	ListIncoming(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Request, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new friend repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) GetBetween(ctx context.Context, a, b uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) Update(ctx context.Context, req *Request) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Request{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *repository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Request{}).
		Where("status = ?", StatusAccepted).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var requests []Request
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusAccepted).
		Where("from_id = ? OR to_id = ?", userID, userID).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(requests))
	for _, req := range requests {
		if req.FromID == userID {
			ids = append(ids, req.ToID)
		} else {
			ids = append(ids, req.FromID)
		}
	}
	return ids, nil
}

func (r *repository) ListIncoming(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Request, int64, error) {
	query := r.db.WithContext(ctx).Model(&Request{}).
		Where("to_id = ? AND status = ?", userID, StatusPending)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var requests []Request
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error
	if err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
