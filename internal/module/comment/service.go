package comment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// PostDirectory is the post surface comments need: visibility-checked reads
// and the comment counter.
type PostDirectory interface {
	Get(ctx context.Context, viewerID, postID uuid.UUID) (*post.Post, error)
	AdjustCommentCount(ctx context.Context, postID uuid.UUID, delta int64) error
}

// Service handles comment business logic.
type Service struct {
	repo       Repository
	posts      PostDirectory
	dispatcher *workflow.Dispatcher
	bus        *events.Bus
	log        *logger.Logger
}

// NewService creates a new comment service.
func NewService(repo Repository, posts PostDirectory, dispatcher *workflow.Dispatcher, bus *events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		posts:      posts,
		dispatcher: dispatcher,
		bus:        bus,
		log:        log,
	}
}

// Create adds a comment to a post the author can see, charging the comment
// cost. The post's comment counter moves with the record.
func (s *Service) Create(ctx context.Context, authorID, postID uuid.UUID, req *CreateCommentRequest) (*Comment, error) {
	target, err := s.posts.Get(ctx, authorID, postID)
	if err != nil {
		return nil, err
	}

	var created *Comment
	effect := workflow.Effect{
		Run: func(ctx context.Context) (uuid.UUID, error) {
			c := &Comment{
				ID:       uuid.New(),
				PostID:   postID,
				AuthorID: authorID,
				Content:  req.Content,
			}
			if err := s.repo.Create(ctx, c); err != nil {
				return uuid.Nil, err
			}
			if err := s.posts.AdjustCommentCount(ctx, postID, 1); err != nil {
				s.log.ErrorContext(ctx, "comment counter not incremented",
					"post_id", postID,
					"comment_id", c.ID,
					"error", err,
				)
			}
			created = c
			return c.ID, nil
		},
		Compensate: func(ctx context.Context) error {
			if err := s.repo.Delete(ctx, created.ID); err != nil {
				return err
			}
			if err := s.posts.AdjustCommentCount(ctx, postID, -1); err != nil {
				s.log.ErrorContext(ctx, "comment counter not decremented",
					"post_id", postID,
					"error", err,
				)
			}
			return nil
		},
	}

	if _, err := s.dispatcher.Invoke(ctx, authorID, credits.ActionCreateComment, effect); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewCommentCreatedEvent(created.ID, postID, target.AuthorID))
	return created, nil
}

// Delete removes a comment. The comment author and the post author may both
// delete.
func (s *Service) Delete(ctx context.Context, actorID, commentID uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	if c.AuthorID != actorID {
		target, err := s.posts.Get(ctx, actorID, c.PostID)
		if err != nil {
			return fmt.Errorf("resolve post for comment: %w", err)
		}
		if target.AuthorID != actorID {
			return ErrNotAuthor
		}
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		return err
	}

	if err := s.posts.AdjustCommentCount(ctx, c.PostID, -1); err != nil {
		s.log.ErrorContext(ctx, "comment counter not decremented",
			"post_id", c.PostID,
			"comment_id", commentID,
			"error", err,
		)
	}

	s.bus.Publish(events.NewCommentDeletedEvent(commentID, c.PostID, c.AuthorID))
	return nil
}

// ListByPost lists a post's comments, oldest first, if the viewer can see
// the post.
func (s *Service) ListByPost(ctx context.Context, viewerID, postID uuid.UUID, p *pagination.Pagination) ([]Comment, int64, error) {
	if _, err := s.posts.Get(ctx, viewerID, postID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByPost(ctx, postID, p.Offset(), p.Limit())
}
