package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noteshare/server/internal/module/auth"
	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/storage"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
)

// maxAvatarSize is the upload cap for avatar images.
const maxAvatarSize = 5 << 20 // 5 MiB

// WalletCreator seeds a wallet for a new account.
type WalletCreator interface {
	CreateWalletForUser(ctx context.Context, userID uuid.UUID) (*credits.Wallet, error)
}

// Service provides account operations.
type Service struct {
	repo    Repository
	jwt     *auth.JWTManager
	wallets WalletCreator
	store   storage.ObjectStore
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a new user service.
func NewService(repo Repository, jwt *auth.JWTManager, wallets WalletCreator, store storage.ObjectStore, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		jwt:     jwt,
		wallets: wallets,
		store:   store,
		log:     log,
		metrics: m,
	}
}

// Register creates a new account with a seeded wallet.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if len(req.Password) < 8 {
		return nil, ErrPasswordTooShort
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	if _, err := s.wallets.CreateWalletForUser(ctx, u.ID); err != nil {
		// The account exists either way; a missing wallet blocks every
		// priced action, so fail registration loudly.
		s.log.ErrorContext(ctx, "wallet creation failed during registration",
			"user_id", u.ID,
			"error", err,
		)
		return nil, fmt.Errorf("create wallet: %w", err)
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAuthEvent("register")
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "username", u.Username)

	return &AuthResponse{User: u.ToResponse(), Tokens: tokens}, nil
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			if s.metrics != nil {
				s.metrics.RecordAuthEvent("login_failed")
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		if s.metrics != nil {
			s.metrics.RecordAuthEvent("login_failed")
		}
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAuthEvent("login_success")
	}

	return &AuthResponse{User: u.ToResponse(), Tokens: tokens}, nil
}

// Refresh rotates a refresh token and issues a new pair.
func (s *Service) Refresh(ctx context.Context, rawToken string) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, s.jwt.HashRefreshToken(rawToken))
	if err != nil {
		return nil, err
	}
	if !stored.IsValid() {
		return nil, ErrInvalidRefresh
	}

	u, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	// Rotate: revoke the used token before issuing the replacement.
	if err := s.repo.RevokeRefreshToken(ctx, stored.TokenHash); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordAuthEvent("token_refresh")
	}

	return tokens, nil
}

// Logout revokes all refresh tokens for the user.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RevokeUserRefreshTokens(ctx, userID)
}

// GetProfile returns the public profile of a user.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

// UpdateProfile updates the caller's profile fields.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Bio != nil {
		u.Bio = *req.Bio
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u.ToResponse(), nil
}

// SetBanner sets the user's equipped banner.
func (s *Service) SetBanner(ctx context.Context, userID uuid.UUID, bannerID *uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	u.BannerID = bannerID
	return s.repo.Update(ctx, u)
}

// UploadAvatar stores a new avatar image and updates the profile.
func (s *Service) UploadAvatar(ctx context.Context, userID uuid.UUID, filename string, body io.Reader, size int64, contentType string) (*UserResponse, error) {
	if size > maxAvatarSize {
		return nil, ErrAvatarTooLarge
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldKey := u.AvatarPath

	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New(), path.Ext(filename))
	if err := s.store.Upload(ctx, key, body, size, contentType); err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	u.AvatarPath = key
	u.AvatarURL = s.store.PublicURL(key)
	if err := s.repo.Update(ctx, u); err != nil {
		// The profile still points at the old image; remove the new object.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.ErrorContext(ctx, "orphaned avatar object",
				"user_id", userID,
				"key", key,
				"error", delErr,
			)
		}
		return nil, err
	}

	// The old image is unreferenced now; a leftover object only costs
	// storage, so a failed delete is logged and not retried.
	if oldKey != "" && oldKey != key {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.log.ErrorContext(ctx, "orphaned avatar object",
				"user_id", userID,
				"key", oldKey,
				"error", err,
			)
		}
	}

	return u.ToResponse(), nil
}

// RemoveAvatar drops the avatar image. The object is deleted before the
// profile stops pointing at it, so a failed delete leaves the profile intact.
func (s *Service) RemoveAvatar(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.AvatarPath == "" && u.AvatarURL == "" {
		return u.ToResponse(), nil
	}

	if u.AvatarPath != "" {
		if err := s.store.Delete(ctx, u.AvatarPath); err != nil {
			return nil, fmt.Errorf("delete avatar: %w", err)
		}
	}

	u.AvatarPath = ""
	u.AvatarURL = ""
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u.ToResponse(), nil
}

// issueTokens generates an access/refresh pair and stores the refresh hash.
func (s *Service) issueTokens(ctx context.Context, u *User) (*TokenResponse, error) {
	access, expiresAt, err := s.jwt.GenerateAccessToken(u.ID, u.Username, u.IsAdmin)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, refreshExpiry, err := s.jwt.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateRefreshToken(ctx, &RefreshToken{
		ID:        uuid.New(),
		UserID:    u.ID,
		TokenHash: refreshHash,
		ExpiresAt: refreshExpiry,
	}); err != nil {
		return nil, err
	}

	return &TokenResponse{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresAt:    expiresAt,
	}, nil
}
