package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/shared/config"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/metrics"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Feed key prefixes. Invalidation works by prefix; every cached page key
// must start with one of these.
const (
	prefixPublic  = "feed:public:"
	prefixFriends = "feed:friends:"
	prefixInbox   = "feed:inbox:"
	prefixProfile = "feed:profile:"
)

// PostSource is the post surface feeds read from.
type PostSource interface {
	ListPublic(ctx context.Context, offset, limit int) ([]post.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, includePrivate bool, offset, limit int) ([]post.Post, int64, error)
	ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, offset, limit int) ([]post.Post, int64, error)
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, offset, limit int) ([]post.Post, int64, error)
}

// FriendSource resolves a user's friend set.
type FriendSource interface {
	ListFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Page is a rendered feed page.
type Page struct {
	Posts      []*post.PostResponse `json:"posts"`
	Pagination pagination.PageInfo  `json:"pagination"`
}

// Service assembles feeds, caching rendered pages in Redis. Pages expire on
// a short TTL; writes additionally invalidate the affected prefixes through
// the Invalidator.
type Service struct {
	posts   PostSource
	friends FriendSource
	cache   PageCache
	cfg     *config.FeedConfig
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewService creates a new feed service.
func NewService(
	posts PostSource,
	friends FriendSource,
	cache PageCache,
	cfg *config.FeedConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		posts:   posts,
		friends: friends,
		cache:   cache,
		cfg:     cfg,
		log:     log,
		metrics: m,
	}
}

// Public returns the public feed page, pinned posts first.
func (s *Service) Public(ctx context.Context, p *pagination.Pagination) (*Page, error) {
	key := fmt.Sprintf("%sp%d:s%d", prefixPublic, p.Page, p.PageSize)
	return s.cached(ctx, key, func(ctx context.Context) (*Page, error) {
		posts, total, err := s.posts.ListPublic(ctx, p.Offset(), p.Limit())
		if err != nil {
			return nil, err
		}
		return render(posts, p, total), nil
	})
}

// Friends returns the page of posts written by the user's friends.
func (s *Service) Friends(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) (*Page, error) {
	key := fmt.Sprintf("%s%s:p%d:s%d", prefixFriends, userID, p.Page, p.PageSize)
	return s.cached(ctx, key, func(ctx context.Context) (*Page, error) {
		ids, err := s.friends.ListFriendIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		posts, total, err := s.posts.ListByAuthors(ctx, ids, p.Offset(), p.Limit())
		if err != nil {
			return nil, err
		}
		return render(posts, p, total), nil
	})
}

// Profile returns the page of an author's posts. Private posts appear only
// when the author is viewing their own profile; that variant is cached under
// its own key so it never leaks to other viewers.
func (s *Service) Profile(ctx context.Context, viewerID, authorID uuid.UUID, p *pagination.Pagination) (*Page, error) {
	includePrivate := viewerID == authorID

	visibility := "pub"
	if includePrivate {
		visibility = "all"
	}
	key := fmt.Sprintf("%s%s:%s:p%d:s%d", prefixProfile, authorID, visibility, p.Page, p.PageSize)

	return s.cached(ctx, key, func(ctx context.Context) (*Page, error) {
		posts, total, err := s.posts.ListByAuthor(ctx, authorID, includePrivate, p.Offset(), p.Limit())
		if err != nil {
			return nil, err
		}
		return render(posts, p, total), nil
	})
}

// Inbox returns the page of posts addressed to the user.
func (s *Service) Inbox(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) (*Page, error) {
	key := fmt.Sprintf("%s%s:p%d:s%d", prefixInbox, userID, p.Page, p.PageSize)
	return s.cached(ctx, key, func(ctx context.Context) (*Page, error) {
		posts, total, err := s.posts.ListByRecipient(ctx, userID, p.Offset(), p.Limit())
		if err != nil {
			return nil, err
		}
		return render(posts, p, total), nil
	})
}

// cached serves the page from the cache when possible, otherwise builds and
// stores it. Cache failures degrade to a direct build.
func (s *Service) cached(ctx context.Context, key string, build func(context.Context) (*Page, error)) (*Page, error) {
	var page Page
	hit, err := s.cache.GetPage(ctx, key, &page)
	if err != nil {
		s.log.WarnContext(ctx, "feed cache read failed", "key", key, "error", err)
	} else if hit {
		if s.metrics != nil {
			s.metrics.RecordCacheHit("feed")
		}
		return &page, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss("feed")
	}

	built, err := build(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPage(ctx, key, built, s.cfg.CacheTTL); err != nil {
		s.log.WarnContext(ctx, "feed cache write failed", "key", key, "error", err)
	}

	return built, nil
}

func render(posts []post.Post, p *pagination.Pagination, total int64) *Page {
	responses := make([]*post.PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, posts[i].ToResponse())
	}
	return &Page{
		Posts:      responses,
		Pagination: p.Info(total),
	}
}
