package interaction

import (
	"context"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// PostDirectory is the post surface interactions need.
type PostDirectory interface {
	Get(ctx context.Context, viewerID, postID uuid.UUID) (*post.Post, error)
	AdjustLikeCount(ctx context.Context, postID uuid.UUID, delta int64) error
	ListVisibleByIDs(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]post.Post, error)
}

// Service handles likes and bookmarks.
type Service struct {
	repo  Repository
	posts PostDirectory
	bus   *events.Bus
	log   *logger.Logger
}

// NewService creates a new interaction service.
func NewService(repo Repository, posts PostDirectory, bus *events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		posts: posts,
		bus:   bus,
		log:   log,
	}
}

// Like records a like on a post the user can see and bumps its counter.
// Liking is idempotent at the storage level; a second like is rejected
// before the counter moves.
func (s *Service) Like(ctx context.Context, userID, postID uuid.UUID) error {
	target, err := s.posts.Get(ctx, userID, postID)
	if err != nil {
		return err
	}

	like := &Like{ID: uuid.New(), PostID: postID, UserID: userID}
	if err := s.repo.CreateLike(ctx, like); err != nil {
		return err
	}

	if err := s.posts.AdjustLikeCount(ctx, postID, 1); err != nil {
		s.log.ErrorContext(ctx, "like counter not incremented",
			"post_id", postID,
			"user_id", userID,
			"error", err,
		)
	}

	s.bus.Publish(events.NewPostLikedEvent(postID, userID, target.AuthorID))
	return nil
}

// Unlike removes a like and drops the counter.
func (s *Service) Unlike(ctx context.Context, userID, postID uuid.UUID) error {
	if err := s.repo.DeleteLike(ctx, postID, userID); err != nil {
		return err
	}

	if err := s.posts.AdjustLikeCount(ctx, postID, -1); err != nil {
		s.log.ErrorContext(ctx, "like counter not decremented",
			"post_id", postID,
			"user_id", userID,
			"error", err,
		)
	}

	s.bus.Publish(events.NewPostUnlikedEvent(postID, userID))
	return nil
}

// HasLiked reports whether the user has liked the post.
func (s *Service) HasLiked(ctx context.Context, userID, postID uuid.UUID) (bool, error) {
	return s.repo.HasLiked(ctx, postID, userID)
}

// Bookmark saves a post the user can see.
func (s *Service) Bookmark(ctx context.Context, userID, postID uuid.UUID) error {
	if _, err := s.posts.Get(ctx, userID, postID); err != nil {
		return err
	}

	bookmark := &Bookmark{ID: uuid.New(), PostID: postID, UserID: userID}
	return s.repo.CreateBookmark(ctx, bookmark)
}

// Unbookmark removes a saved post.
func (s *Service) Unbookmark(ctx context.Context, userID, postID uuid.UUID) error {
	return s.repo.DeleteBookmark(ctx, postID, userID)
}

// ListBookmarked lists the user's saved posts, newest first. Posts that have
// since gone invisible to the user are dropped from the page.
func (s *Service) ListBookmarked(ctx context.Context, userID uuid.UUID, p *pagination.Pagination) ([]post.Post, int64, error) {
	ids, total, err := s.repo.ListBookmarked(ctx, userID, p.Offset(), p.Limit())
	if err != nil {
		return nil, 0, err
	}

	posts, err := s.posts.ListVisibleByIDs(ctx, userID, ids)
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}
