package feed

import (
	"context"
	"fmt"

	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
)

// Invalidator drops stale feed pages when posts or friendships change.
// Post writes clear the public and friends feeds and the author's profile
// feed; addressed posts also clear the recipient's inbox. Friendship changes
// clear both users' friends feeds.
type Invalidator struct {
	cache PageCache
	log   *logger.Logger
}

// NewInvalidator creates a new feed invalidator.
func NewInvalidator(cache PageCache, log *logger.Logger) *Invalidator {
	return &Invalidator{cache: cache, log: log}
}

// Handles returns the event types that make feed pages stale.
func (i *Invalidator) Handles() []string {
	return []string{
		events.PostCreatedType,
		events.PostUpdatedType,
		events.PostDeletedType,
		events.FriendsChangedType,
	}
}

// Handle drops the feed pages the event made stale.
func (i *Invalidator) Handle(event events.Event) error {
	ctx := context.Background()

	var prefixes []string
	switch e := event.(type) {
	case *events.PostCreatedEvent:
		prefixes = []string{
			prefixPublic,
			prefixFriends,
			fmt.Sprintf("%s%s:", prefixProfile, e.AuthorID),
		}
		if e.RecipientID != nil {
			prefixes = append(prefixes, fmt.Sprintf("%s%s:", prefixInbox, e.RecipientID))
		}
	case *events.PostUpdatedEvent:
		prefixes = []string{
			prefixPublic,
			prefixFriends,
			fmt.Sprintf("%s%s:", prefixProfile, e.AuthorID),
		}
	case *events.PostDeletedEvent:
		prefixes = []string{
			prefixPublic,
			prefixFriends,
			fmt.Sprintf("%s%s:", prefixProfile, e.AuthorID),
		}
	case *events.FriendsChangedEvent:
		prefixes = []string{
			fmt.Sprintf("%s%s:", prefixFriends, e.UserID),
			fmt.Sprintf("%s%s:", prefixFriends, e.FriendID),
		}
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}

	if err := i.cache.Invalidate(ctx, prefixes...); err != nil {
		return fmt.Errorf("invalidate feed pages: %w", err)
	}
	return nil
}
