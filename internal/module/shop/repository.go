package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the shop data access interface.
type Repository interface {
	CreateBanner(ctx context.Context, banner *Banner) error
	GetBanner(ctx context.Context, id uuid.UUID) (*Banner, error)

	// SetBannerActive flips a banner's sale status.
	SetBannerActive(ctx context.Context, id uuid.UUID, active bool) error

	// ListBanners lists active banners, cheapest first.
	ListBanners(ctx context.Context, offset, limit int) ([]Banner, int64, error)

	// CreatePurchase records ownership. Returns ErrAlreadyOwned on a
	// duplicate.
	CreatePurchase(ctx context.Context, purchase *Purchase) error

	DeletePurchase(ctx context.Context, id uuid.UUID) error

	// Owns reports whether the user owns the banner.
	Owns(ctx context.Context, userID, bannerID uuid.UUID) (bool, error)

	// ListOwned lists the banners a user owns, newest purchase first.
	ListOwned(ctx context.Context, userID uuid.UUID) ([]Banner, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new shop repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBanner(ctx context.Context, banner *Banner) error {
	return r.db.WithContext(ctx).Create(banner).Error
}

func (r *repository) GetBanner(ctx context.Context, id uuid.UUID) (*Banner, error) {
	var banner Banner
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&banner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBannerNotFound
		}
		return nil, err
	}
	return &banner, nil
}

func (r *repository) SetBannerActive(ctx context.Context, id uuid.UUID, active bool) error {
	result := r.db.WithContext(ctx).Model(&Banner{}).
		Where("id = ?", id).
		Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBannerNotFound
	}
	return nil
}

func (r *repository) ListBanners(ctx context.Context, offset, limit int) ([]Banner, int64, error) {
	query := r.db.WithContext(ctx).Model(&Banner{}).Where("active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var banners []Banner
	err := query.Order("price ASC, created_at ASC").Offset(offset).Limit(limit).Find(&banners).Error
	if err != nil {
		return nil, 0, err
	}

	return banners, total, nil
}

func (r *repository) CreatePurchase(ctx context.Context, purchase *Purchase) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(purchase)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyOwned
	}
	return nil
}

func (r *repository) DeletePurchase(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Purchase{}, "id = ?", id).Error
}

func (r *repository) Owns(ctx context.Context, userID, bannerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Purchase{}).
		Where("user_id = ? AND banner_id = ?", userID, bannerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListOwned(ctx context.Context, userID uuid.UUID) ([]Banner, error) {
	var banners []Banner
	err := r.db.WithContext(ctx).
		Joins("JOIN banner_purchases ON banner_purchases.banner_id = banners.id").
		Where("banner_purchases.user_id = ?", userID).
		Order("banner_purchases.created_at DESC").
		Find(&banners).Error
	return banners, err
}
