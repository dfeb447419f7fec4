package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/shared/logger"
)

// fakeLedger is an in-memory Ledger with atomic conditional debits.
type fakeLedger struct {
	mu       sync.Mutex
	prices   map[credits.Action]int64
	balances map[uuid.UUID]int64
	debitErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		prices: map[credits.Action]int64{
			credits.ActionCreatePost:    1,
			credits.ActionCreateComment: 1,
			credits.ActionAIGenerate:    5,
		},
		balances: make(map[uuid.UUID]int64),
	}
}

func (f *fakeLedger) Price(action credits.Action) int64 {
	return f.prices[action]
}

func (f *fakeLedger) CanAfford(_ context.Context, userID uuid.UUID, action credits.Action) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cost := f.prices[action]
	return f.balances[userID] >= cost, cost, nil
}

func (f *fakeLedger) Debit(_ context.Context, userID uuid.UUID, action credits.Action, _ uuid.UUID) (*credits.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return nil, f.debitErr
	}
	cost := f.prices[action]
	if f.balances[userID] < cost {
		return nil, credits.ErrInsufficientCredits
	}
	f.balances[userID] -= cost
	return &credits.Wallet{UserID: userID, Balance: f.balances[userID]}, nil
}

func (f *fakeLedger) balance(userID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeLedger) setBalance(userID uuid.UUID, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[userID] = amount
}

func newTestDispatcher(ledger Ledger) *Dispatcher {
	return NewDispatcher(ledger, logger.New(nil), nil)
}

func TestDispatcher_Invoke_Completed(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 10)
	d := newTestDispatcher(ledger)

	refID := uuid.New()
	var ran bool
	result, err := d.Invoke(context.Background(), actorID, credits.ActionAIGenerate, Effect{
		Run: func(context.Context) (uuid.UUID, error) {
			ran = true
			return refID, nil
		},
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, StateCompleted, result.State)
	assert.Equal(t, refID, result.RefID)
	assert.Equal(t, int64(5), result.Cost)
	assert.Equal(t, int64(5), result.Balance)
	assert.Equal(t, int64(5), ledger.balance(actorID))
}

func TestDispatcher_Invoke_RejectedBeforeEffect(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 2)
	d := newTestDispatcher(ledger)

	var ran bool
	result, err := d.Invoke(context.Background(), actorID, credits.ActionAIGenerate, Effect{
		Run: func(context.Context) (uuid.UUID, error) {
			ran = true
			return uuid.New(), nil
		},
	})

	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
	assert.Equal(t, StateRejected, result.State)
	// The effect never ran and the balance is untouched.
	assert.False(t, ran)
	assert.Equal(t, int64(2), ledger.balance(actorID))
}

func TestDispatcher_Invoke_UnpricedSkipsWallet(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	// No wallet at all: unpriced actions must still work.
	d := newTestDispatcher(ledger)

	refID := uuid.New()
	result, err := d.Invoke(context.Background(), actorID, credits.ActionDeletePost, Effect{
		Run: func(context.Context) (uuid.UUID, error) {
			return refID, nil
		},
	})

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, result.State)
	assert.Zero(t, result.Cost)
	assert.Equal(t, refID, result.RefID)
}

func TestDispatcher_Invoke_EffectFailure(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 10)
	d := newTestDispatcher(ledger)

	boom := errors.New("storage unavailable")
	result, err := d.Invoke(context.Background(), actorID, credits.ActionCreatePost, Effect{
		Run: func(context.Context) (uuid.UUID, error) {
			return uuid.Nil, boom
		},
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, result.State)
	// Failed effects are never charged.
	assert.Equal(t, int64(10), ledger.balance(actorID))
}

func TestDispatcher_Invoke_LostRaceCompensates(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 1)
	d := newTestDispatcher(ledger)

	var compensated bool
	result, err := d.Invoke(context.Background(), actorID, credits.ActionCreatePost, Effect{
		Run: func(ctx context.Context) (uuid.UUID, error) {
			// Simulate a concurrent spender draining the wallet between the
			// advisory check and the debit.
			ledger.setBalance(actorID, 0)
			return uuid.New(), nil
		},
		Compensate: func(context.Context) error {
			compensated = true
			return nil
		},
	})

	assert.ErrorIs(t, err, credits.ErrInsufficientCredits)
	assert.Equal(t, StateRejected, result.State)
	assert.True(t, compensated)
	assert.Equal(t, int64(0), ledger.balance(actorID))
}

func TestDispatcher_Invoke_DebitErrorKeepsEffect(t *testing.T) {
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 10)
	ledger.debitErr = errors.New("connection reset")
	d := newTestDispatcher(ledger)

	var compensated bool
	refID := uuid.New()
	result, err := d.Invoke(context.Background(), actorID, credits.ActionCreatePost, Effect{
		Run: func(context.Context) (uuid.UUID, error) {
			return refID, nil
		},
		Compensate: func(context.Context) error {
			compensated = true
			return nil
		},
	})

	// Non-insufficiency debit errors keep the effect but fail the dispatch:
	// the caller must not mistake an uncharged action for a settled one.
	assert.ErrorIs(t, err, ErrBalanceInconsistency)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, refID, result.RefID)
	assert.False(t, compensated)
	// The wallet was never touched.
	assert.Equal(t, int64(10), ledger.balance(actorID))
}

func TestDispatcher_Invoke_ConcurrentAtBalanceOne(t *testing.T) {
	// Two concurrent priced actions against a balance of 1: exactly one
	// completes, the other is rejected, and the balance ends at 0.
	ledger := newFakeLedger()
	actorID := uuid.New()
	ledger.setBalance(actorID, 1)
	d := newTestDispatcher(ledger)

	type outcome struct {
		result *Result
		err    error
	}

	results := make(chan outcome, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := d.Invoke(context.Background(), actorID, credits.ActionCreatePost, Effect{
				Run: func(context.Context) (uuid.UUID, error) {
					return uuid.New(), nil
				},
				Compensate: func(context.Context) error {
					return nil
				},
			})
			results <- outcome{res, err}
		}()
	}
	wg.Wait()
	close(results)

	var completed, rejected int
	for o := range results {
		switch {
		case o.err == nil:
			assert.Equal(t, StateCompleted, o.result.State)
			completed++
		case errors.Is(o.err, credits.ErrInsufficientCredits):
			assert.Equal(t, StateRejected, o.result.State)
			rejected++
		default:
			t.Fatalf("unexpected error: %v", o.err)
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, int64(0), ledger.balance(actorID))
}
