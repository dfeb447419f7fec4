package credits

import (
	"context"
	"fmt"

	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
)

// RewardHandler grants the like reward to post authors when their posts are
// liked. Self-likes earn nothing.
type RewardHandler struct {
	service *Service
	reward  int64
	log     *logger.Logger
}

// NewRewardHandler creates a new reward handler.
func NewRewardHandler(service *Service, reward int64, log *logger.Logger) *RewardHandler {
	return &RewardHandler{
		service: service,
		reward:  reward,
		log:     log,
	}
}

// Handles returns the event types the handler processes.
func (h *RewardHandler) Handles() []string {
	return []string{events.PostLikedType}
}

// Handle credits the post author for a like.
func (h *RewardHandler) Handle(event events.Event) error {
	liked, ok := event.(*events.PostLikedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if h.reward <= 0 || liked.LikerID == liked.AuthorID {
		return nil
	}

	ctx := context.Background()
	if _, err := h.service.Credit(ctx, liked.AuthorID, h.reward, ReasonLikeReward, liked.PostID); err != nil {
		return fmt.Errorf("grant like reward: %w", err)
	}

	return nil
}
