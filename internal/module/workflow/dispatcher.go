package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
)

// State is a dispatch lifecycle state.
type State string

// Dispatch states.
const (
	StateValidating State = "validating"
	StateExecuting  State = "executing"
	StateDebiting   State = "debiting"
	StateCompleted  State = "completed"
	StateRejected   State = "rejected"
	StateFailed     State = "failed"
)

// ErrBalanceInconsistency reports a debit that failed after its effect was
// already produced. The effect is kept; the wallet needs reconciliation.
var ErrBalanceInconsistency = errors.New("balance inconsistent after effect")

// Effect is the domain side effect of a priced action. Run produces the
// effect and returns a reference ID for the ledger. Compensate undoes the
// effect when the debit cannot be settled; it may be nil for effects that
// cannot be undone.
type Effect struct {
	Run        func(ctx context.Context) (uuid.UUID, error)
	Compensate func(ctx context.Context) error
}

// Result describes a completed dispatch.
type Result struct {
	State   State
	RefID   uuid.UUID
	Cost    int64
	Balance int64
}

// Ledger is the wallet surface the dispatcher needs.
type Ledger interface {
	Price(action credits.Action) int64
	CanAfford(ctx context.Context, userID uuid.UUID, action credits.Action) (bool, int64, error)
	Debit(ctx context.Context, userID uuid.UUID, action credits.Action, refID uuid.UUID) (*credits.Wallet, error)
}

// Dispatcher runs priced actions through a fixed lifecycle: validate the
// balance, run the effect, settle the debit. The balance check before the
// effect is advisory; the debit after it is the atomic one, so a concurrent
// spender can still win the race and force a compensation.
type Dispatcher struct {
	ledger  Ledger
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(ledger Ledger, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		ledger:  ledger,
		log:     log,
		metrics: m,
	}
}

// Invoke dispatches a priced action for the given actor.
//
// Unpriced actions skip the balance phases entirely. For priced actions the
// effect runs before the debit; if the atomic debit then reports an
// insufficient balance, the effect is compensated and the caller sees the
// rejection. Debit failures other than insufficiency keep the effect but fail
// the dispatch with ErrBalanceInconsistency so the caller knows the charge
// never landed.
func (d *Dispatcher) Invoke(ctx context.Context, actorID uuid.UUID, action credits.Action, effect Effect) (*Result, error) {
	start := time.Now()
	cost := d.ledger.Price(action)

	result := &Result{State: StateValidating, Cost: cost}

	if cost > 0 {
		ok, _, err := d.ledger.CanAfford(ctx, actorID, action)
		if err != nil {
			result.State = StateFailed
			d.record(action, "failed", start)
			return result, err
		}
		if !ok {
			result.State = StateRejected
			d.record(action, "rejected", start)
			return result, credits.ErrInsufficientCredits
		}
	}

	result.State = StateExecuting
	refID, err := effect.Run(ctx)
	if err != nil {
		result.State = StateFailed
		d.record(action, "failed", start)
		return result, err
	}
	result.RefID = refID

	if cost > 0 {
		result.State = StateDebiting
		wallet, err := d.ledger.Debit(ctx, actorID, action, refID)
		switch {
		case err == nil:
			result.Balance = wallet.Balance

		case errors.Is(err, credits.ErrInsufficientCredits):
			// A concurrent spender drained the wallet between the advisory
			// check and the debit. Undo the effect and reject.
			d.metricDebitFailure(action, "insufficient")
			d.compensate(ctx, action, refID, effect)
			result.State = StateRejected
			d.record(action, "rejected", start)
			return result, credits.ErrInsufficientCredits

		default:
			// The effect exists but the charge did not land. Keep the effect,
			// flag the wallet for reconciliation, and surface the failure.
			d.metricDebitFailure(action, "error")
			d.log.ErrorContext(ctx, "debit failed after effect, balance inconsistent",
				"actor_id", actorID,
				"action", string(action),
				"ref_id", refID,
				"cost", cost,
				"error", err,
			)
			result.State = StateFailed
			d.record(action, "failed", start)
			return result, fmt.Errorf("%w: %v", ErrBalanceInconsistency, err)
		}
	}

	result.State = StateCompleted
	d.record(action, "completed", start)

	d.log.InfoContext(ctx, "action dispatched",
		"actor_id", actorID,
		"action", string(action),
		"ref_id", refID,
		"cost", cost,
	)

	return result, nil
}

// compensate undoes an effect whose debit lost the balance race.
func (d *Dispatcher) compensate(ctx context.Context, action credits.Action, refID uuid.UUID, effect Effect) {
	if effect.Compensate == nil {
		d.log.WarnContext(ctx, "no compensation for effect, orphan kept",
			"action", string(action),
			"ref_id", refID,
		)
		if d.metrics != nil {
			d.metrics.RecordCompensation(string(action), false)
		}
		return
	}

	if err := effect.Compensate(ctx); err != nil {
		d.log.ErrorContext(ctx, "effect compensation failed",
			"action", string(action),
			"ref_id", refID,
			"error", err,
		)
		if d.metrics != nil {
			d.metrics.RecordCompensation(string(action), false)
		}
		return
	}

	if d.metrics != nil {
		d.metrics.RecordCompensation(string(action), true)
	}
}

func (d *Dispatcher) record(action credits.Action, outcome string, start time.Time) {
	if d.metrics != nil {
		d.metrics.RecordAction(string(action), outcome, time.Since(start))
	}
}

func (d *Dispatcher) metricDebitFailure(action credits.Action, reason string) {
	if d.metrics != nil {
		d.metrics.RecordDebitFailure(string(action), reason)
	}
}
