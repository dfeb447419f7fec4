package credits

import (
	"context"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/shared/config"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Service provides credit wallet operations.
type Service struct {
	repo           Repository
	prices         *PriceTable
	initialBalance int64
	log            *logger.Logger
	metrics        *metrics.Metrics
}

// NewService creates a new credits service.
func NewService(repo Repository, cfg *config.CreditsConfig, log *logger.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:           repo,
		prices:         NewPriceTable(cfg),
		initialBalance: cfg.InitialBalance,
		log:            log,
		metrics:        m,
	}
}

// Price returns the credit cost of an action.
func (s *Service) Price(action Action) int64 {
	return s.prices.Price(action)
}

// CreateWalletForUser creates a wallet seeded with the signup grant.
func (s *Service) CreateWalletForUser(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	wallet := &Wallet{
		ID:      uuid.New(),
		UserID:  userID,
		Balance: s.initialBalance,
	}

	if err := s.repo.CreateWallet(ctx, wallet); err != nil {
		return nil, err
	}

	if s.initialBalance > 0 {
		s.recordTransaction(ctx, wallet, s.initialBalance, ReasonSignupGrant, uuid.Nil)
		if s.metrics != nil {
			s.metrics.RecordCredit(s.initialBalance)
		}
	}

	s.log.InfoContext(ctx, "wallet created",
		"user_id", userID,
		"initial_balance", s.initialBalance,
	)

	return wallet, nil
}

// Balance returns the current balance for a user.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	wallet, err := s.repo.GetWalletByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Wallet returns the wallet for a user.
func (s *Service) Wallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.GetWalletByUserID(ctx, userID)
}

// CanAfford reports whether the user's balance covers the action's cost.
// This is an advisory read; the debit itself re-checks atomically.
func (s *Service) CanAfford(ctx context.Context, userID uuid.UUID, action Action) (bool, int64, error) {
	cost := s.prices.Price(action)
	if cost == 0 {
		return true, 0, nil
	}

	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return false, cost, err
	}

	return balance >= cost, cost, nil
}

// Debit charges the user for an action. A zero-cost action is a no-op that
// returns the current wallet and leaves no ledger entry. Returns
// ErrInsufficientCredits when the balance does not cover the cost.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, action Action, refID uuid.UUID) (*Wallet, error) {
	cost := s.prices.Price(action)
	if cost == 0 {
		return s.repo.GetWalletByUserID(ctx, userID)
	}

	wallet, err := s.repo.DebitIfSufficient(ctx, userID, cost, ReasonActionDebit, refID)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDebit(cost)
	}

	s.log.InfoContext(ctx, "credits debited",
		"user_id", userID,
		"action", string(action),
		"cost", cost,
		"balance", wallet.Balance,
	)

	return wallet, nil
}

// DebitAmount charges the user an arbitrary amount, for goods priced per
// item rather than per action. A zero amount is a no-op that returns the
// current wallet. Returns ErrInsufficientCredits when the balance does not
// cover the amount.
func (s *Service) DebitAmount(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error) {
	if amount == 0 {
		return s.repo.GetWalletByUserID(ctx, userID)
	}

	wallet, err := s.repo.DebitIfSufficient(ctx, userID, amount, reason, refID)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordDebit(amount)
	}

	s.log.InfoContext(ctx, "credits debited",
		"user_id", userID,
		"reason", reason,
		"cost", amount,
		"balance", wallet.Balance,
	)

	return wallet, nil
}

// Credit grants credits to a user.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, reason string, refID uuid.UUID) (*Wallet, error) {
	wallet, err := s.repo.Credit(ctx, userID, amount, reason, refID)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordCredit(amount)
	}

	s.log.InfoContext(ctx, "credits granted",
		"user_id", userID,
		"amount", amount,
		"reason", reason,
		"balance", wallet.Balance,
	)

	return wallet, nil
}

// Transactions lists the user's ledger entries, newest first.
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) ([]Transaction, int64, error) {
	return s.repo.ListTransactions(ctx, userID, p.Offset(), p.Limit())
}

// recordTransaction appends a ledger entry outside the repository's debit
// and credit paths; only the signup grant uses it. Write failures are logged
// rather than surfaced: the balance change already happened.
func (s *Service) recordTransaction(ctx context.Context, wallet *Wallet, amount int64, reason string, refID uuid.UUID) {
	tx := &Transaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		UserID:       wallet.UserID,
		Amount:       amount,
		Reason:       reason,
		RefID:        refID,
		BalanceAfter: wallet.Balance,
	}
	if err := s.repo.RecordTransaction(ctx, tx); err != nil {
		s.log.ErrorContext(ctx, "record wallet transaction failed",
			"user_id", wallet.UserID,
			"amount", amount,
			"reason", reason,
			"error", err,
		)
	}
}
