package credits

import (
	"time"

	"github.com/google/uuid"
)

// Wallet tracks a user's credit balance. Every user has exactly one.
type Wallet struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Wallet.
func (Wallet) TableName() string {
	return "wallets"
}

// Transaction records a single wallet movement. Amount is positive for
// grants and negative for debits; BalanceAfter snapshots the balance the
// movement left behind.
type Transaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	WalletID     uuid.UUID `gorm:"type:uuid;index;not null" json:"wallet_id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	Reason       string    `gorm:"size:64;not null" json:"reason"`
	RefID        uuid.UUID `gorm:"type:uuid" json:"ref_id,omitempty"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the table name for Transaction.
func (Transaction) TableName() string {
	return "wallet_transactions"
}
