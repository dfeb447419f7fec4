package shop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// maxBannerImageSize caps banner art uploads at 5 MiB.
const maxBannerImageSize = 5 << 20

// Ledger is the wallet surface the shop needs. Banners carry per-item
// prices, so the debit takes an amount instead of an action.
type Ledger interface {
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	DebitAmount(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*credits.Wallet, error)
}

// ProfileWriter equips a purchased banner on the user's profile.
type ProfileWriter interface {
	SetBanner(ctx context.Context, userID uuid.UUID, bannerID *uuid.UUID) error
}

// Service handles the banner shop.
type Service struct {
	repo     Repository
	ledger   Ledger
	profiles ProfileWriter
	store    storage.ObjectStore
	log      *logger.Logger
}

// NewService creates a new shop service.
func NewService(repo Repository, ledger Ledger, profiles ProfileWriter, store storage.ObjectStore, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		ledger:   ledger,
		profiles: profiles,
		store:    store,
		log:      log,
	}
}

// ListBanners lists the banners on sale, cheapest first.
func (s *Service) ListBanners(ctx context.Context, p *pagination.Pagination) ([]Banner, int64, error) {
	return s.repo.ListBanners(ctx, p.Offset(), p.Limit())
}

// ListOwned lists the banners the user owns.
func (s *Service) ListOwned(ctx context.Context, userID uuid.UUID) ([]Banner, error) {
	return s.repo.ListOwned(ctx, userID)
}

// Purchase buys a banner for the user. The ownership record is written
// before the debit settles; if the balance check loses a concurrent race the
// record is removed again. Other debit failures keep the purchase but fail
// the call with a balance inconsistency, since the charge never landed.
func (s *Service) Purchase(ctx context.Context, userID, bannerID uuid.UUID) (*Banner, error) {
	banner, err := s.repo.GetBanner(ctx, bannerID)
	if err != nil {
		return nil, err
	}
	if !banner.Active {
		return nil, ErrBannerInactive
	}

	if banner.Price > 0 {
		balance, err := s.ledger.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
		if balance < banner.Price {
			return nil, credits.ErrInsufficientCredits
		}
	}

	purchase := &Purchase{
		ID:       uuid.New(),
		UserID:   userID,
		BannerID: bannerID,
	}
	if err := s.repo.CreatePurchase(ctx, purchase); err != nil {
		return nil, err
	}

	if banner.Price > 0 {
		_, err := s.ledger.DebitAmount(ctx, userID, banner.Price, credits.ReasonShopPurchase, bannerID)
		switch {
		case err == nil:

		case errors.Is(err, credits.ErrInsufficientCredits):
			if delErr := s.repo.DeletePurchase(ctx, purchase.ID); delErr != nil {
				s.log.ErrorContext(ctx, "unpaid purchase not rolled back",
					"user_id", userID,
					"banner_id", bannerID,
					"error", delErr,
				)
			}
			return nil, credits.ErrInsufficientCredits

		default:
			s.log.ErrorContext(ctx, "debit failed after purchase, balance inconsistent",
				"user_id", userID,
				"banner_id", bannerID,
				"price", banner.Price,
				"error", err,
			)
			return nil, fmt.Errorf("%w: %v", workflow.ErrBalanceInconsistency, err)
		}
	}

	s.log.InfoContext(ctx, "banner purchased",
		"user_id", userID,
		"banner_id", bannerID,
		"price", banner.Price,
	)

	return banner, nil
}

// CreateBanner puts a new banner on sale. The art is uploaded first; if the
// record cannot be written the object is removed again.
func (s *Service) CreateBanner(ctx context.Context, req *CreateBannerRequest, filename string, body io.Reader, size int64, contentType string) (*Banner, error) {
	if size > maxBannerImageSize {
		return nil, ErrImageTooLarge
	}

	key := fmt.Sprintf("banners/%s%s", uuid.New(), path.Ext(filename))
	if err := s.store.Upload(ctx, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("upload banner image: %w", err)
	}

	banner := &Banner{
		ID:       uuid.New(),
		Name:     req.Name,
		ImageURL: s.store.PublicURL(key),
		Price:    req.Price,
		Active:   true,
	}
	if err := s.repo.CreateBanner(ctx, banner); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.ErrorContext(ctx, "orphaned banner image",
				"key", key,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "banner created",
		"banner_id", banner.ID,
		"name", banner.Name,
		"price", banner.Price,
	)

	return banner, nil
}

// DeactivateBanner takes a banner off sale. Existing owners keep it.
func (s *Service) DeactivateBanner(ctx context.Context, bannerID uuid.UUID) error {
	banner, err := s.repo.GetBanner(ctx, bannerID)
	if err != nil {
		return err
	}
	if !banner.Active {
		return nil
	}

	if err := s.repo.SetBannerActive(ctx, bannerID, false); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "banner deactivated", "banner_id", bannerID)
	return nil
}

// Equip sets an owned banner on the user's profile.
func (s *Service) Equip(ctx context.Context, userID, bannerID uuid.UUID) error {
	owned, err := s.repo.Owns(ctx, userID, bannerID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotOwned
	}

	return s.profiles.SetBanner(ctx, userID, &bannerID)
}

// Unequip clears the banner from the user's profile.
func (s *Service) Unequip(ctx context.Context, userID uuid.UUID) error {
	return s.profiles.SetBanner(ctx, userID, nil)
}
