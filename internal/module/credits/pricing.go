package credits

import "github.com/noteshare/server/internal/shared/config"

// Action identifies a credit-priced operation.
type Action string

// Priced actions.
const (
	ActionCreatePost    Action = "create_post"
	ActionCreateComment Action = "create_comment"
	ActionAIGenerate    Action = "ai_generate"
	ActionUpdatePost    Action = "update_post"
	ActionDeletePost    Action = "delete_post"
	ActionDeleteComment Action = "delete_comment"
	ActionShopPurchase  Action = "shop_purchase"
)

// Transaction reasons.
const (
	ReasonSignupGrant  = "signup_grant"
	ReasonActionDebit  = "action_debit"
	ReasonLikeReward   = "like_reward"
	ReasonRefund       = "refund"
	ReasonShopPurchase = "shop_purchase"
)

// PriceTable maps actions to their credit cost. Actions absent from the
// table cost nothing.
type PriceTable struct {
	prices map[Action]int64
}

// NewPriceTable builds a price table from configuration.
func NewPriceTable(cfg *config.CreditsConfig) *PriceTable {
	return &PriceTable{
		prices: map[Action]int64{
			ActionCreatePost:    cfg.PostCost,
			ActionCreateComment: cfg.CommentCost,
			ActionAIGenerate:    cfg.AICost,
		},
	}
}

// Price returns the credit cost of an action. Unpriced actions cost 0.
func (t *PriceTable) Price(action Action) int64 {
	return t.prices[action]
}

// SetPrice overrides the cost of an action.
func (t *PriceTable) SetPrice(action Action, cost int64) {
	if t.prices == nil {
		t.prices = make(map[Action]int64)
	}
	t.prices[action] = cost
}
