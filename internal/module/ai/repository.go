package ai

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the generation data access interface.
type Repository interface {
	Create(ctx context.Context, gen *Generation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Generation, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByUser lists a user's generations, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Generation, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new generation repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, gen *Generation) error {
	return r.db.WithContext(ctx).Create(gen).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Generation, error) {
	var gen Generation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&gen).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	return &gen, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Generation{}, "id = ?", id).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Generation, int64, error) {
	query := r.db.WithContext(ctx).Model(&Generation{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var generations []Generation
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&generations).Error
	if err != nil {
		return nil, 0, err
	}

	return generations, total, nil
}
