package credits

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the credits data access interface.
type Repository interface {
	CreateWallet(ctx context.Context, wallet *Wallet) error
	GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// DebitIfSufficient atomically decrements the wallet balance if and only
	// if the balance covers the amount. Returns ErrInsufficientCredits when
	// it does not; the balance is never driven below zero. The decrement and
	// its ledger entry commit in one database transaction.
	DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error)

	// Credit increments the wallet balance and records the ledger entry in
	// the same database transaction.
	Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error)

	RecordTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Transaction, int64, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new credits repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWallet creates a wallet.
func (r *repository) CreateWallet(ctx context.Context, wallet *Wallet) error {
	if err := r.db.WithContext(ctx).Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrWalletExists
		}
		return err
	}
	return nil
}

// GetWalletByUserID retrieves a wallet by user ID.
func (r *repository) GetWalletByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	var wallet Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// DebitIfSufficient performs the conditional decrement in a single UPDATE so
// concurrent debits cannot overdraw the wallet. The ledger entry is written
// in the same transaction; a failed insert rolls the decrement back.
func (r *repository) DebitIfSufficient(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error) {
	if amount < 0 {
		return nil, ErrInvalidAmount
	}
	if amount == 0 {
		return r.GetWalletByUserID(ctx, userID)
	}

	var wallet Wallet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Wallet{}).
			Where("user_id = ? AND balance >= ?", userID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			// Either the wallet is missing or the balance does not cover
			// the amount. Look the wallet up to tell the two apart.
			if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrWalletNotFound
				}
				return err
			}
			return ErrInsufficientCredits
		}

		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&Transaction{
			ID:           uuid.New(),
			WalletID:     wallet.ID,
			UserID:       userID,
			Amount:       -amount,
			Reason:       reason,
			RefID:        refID,
			BalanceAfter: wallet.Balance,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit increments the wallet balance and its ledger entry in one
// transaction.
func (r *repository) Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var wallet Wallet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Wallet{}).
			Where("user_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrWalletNotFound
		}

		if err := tx.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			return err
		}
		return tx.Create(&Transaction{
			ID:           uuid.New(),
			WalletID:     wallet.ID,
			UserID:       userID,
			Amount:       amount,
			Reason:       reason,
			RefID:        refID,
			BalanceAfter: wallet.Balance,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// RecordTransaction appends a ledger entry.
func (r *repository) RecordTransaction(ctx context.Context, tx *Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListTransactions lists ledger entries for a user, newest first.
func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID, offset, limit int) ([]Transaction, int64, error) {
	var txs []Transaction
	var total int64

	query := r.db.WithContext(ctx).Model(&Transaction{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txs).Error
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
