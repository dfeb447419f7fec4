package post

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/events"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/pagination"
)

// FriendChecker answers friendship queries for visibility decisions.
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
}

// Service handles post business logic.
type Service struct {
	repo        Repository
	dispatcher  *workflow.Dispatcher
	attachments *AttachmentCoordinator
	friends     FriendChecker
	bus         *events.Bus
	log         *logger.Logger
}

// NewService creates a new post service.
func NewService(
	repo Repository,
	dispatcher *workflow.Dispatcher,
	attachments *AttachmentCoordinator,
	friends FriendChecker,
	bus *events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		dispatcher:  dispatcher,
		attachments: attachments,
		friends:     friends,
		bus:         bus,
		log:         log,
	}
}

// Create creates a post for the author, charging the posting cost. When an
// upload is given it is staged in object storage before the record is
// written, so a persisted path always resolves. If the record cannot be
// written, or the debit loses the balance race, the staged object is
// discarded again.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest, up *Upload) (*Post, error) {
	label := LabelPublic
	if req.Label != "" {
		label = Label(req.Label)
		if !label.Valid() {
			return nil, ErrInvalidLabel
		}
	}

	var recipientID *uuid.UUID
	if req.RecipientID != "" {
		id, err := uuid.Parse(req.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient id: %w", err)
		}
		recipientID = &id
	}

	var created *Post
	effect := workflow.Effect{
		Run: func(ctx context.Context) (uuid.UUID, error) {
			p := &Post{
				ID:          uuid.New(),
				AuthorID:    authorID,
				RecipientID: recipientID,
				Title:       req.Title,
				Description: req.Description,
				Label:       label,
				Tags:        req.Tags,
			}

			if up != nil {
				key, url, err := s.attachments.Stage(ctx, authorID, up)
				if err != nil {
					return uuid.Nil, err
				}
				p.AttachmentPath = key
				p.AttachmentURL = url
			}

			if err := s.repo.Create(ctx, p); err != nil {
				s.attachments.Discard(ctx, p.AttachmentPath)
				return uuid.Nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
			}

			created = p
			return p.ID, nil
		},
		Compensate: func(ctx context.Context) error {
			if err := s.repo.Delete(ctx, created.ID); err != nil {
				return err
			}
			s.attachments.Discard(ctx, created.AttachmentPath)
			return nil
		},
	}

	if _, err := s.dispatcher.Invoke(ctx, authorID, credits.ActionCreatePost, effect); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewPostCreatedEvent(created.ID, authorID, recipientID, string(label)))
	return created, nil
}

// Get retrieves a post, enforcing visibility. Private posts are readable by
// the author, the recipient, and the author's friends.
func (s *Service) Get(ctx context.Context, viewerID, postID uuid.UUID) (*Post, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	visible, err := s.canView(ctx, viewerID, p)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrForbidden
	}

	return p, nil
}

// Update modifies a post's title, description, label, tags, or attachment. Only the
// author may update. Replacing an attachment deletes the old object before
// anything is uploaded: the record is the only place the old path is
// remembered, so a failed delete aborts with the post unchanged. If the
// replacement upload then fails, the old object is already gone and the
// post is persisted attachment-less. Removing the attachment likewise
// deletes the object before the path is dropped.
func (s *Service) Update(ctx context.Context, authorID, postID uuid.UUID, req *UpdatePostRequest, up *Upload) (*Post, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != authorID {
		return nil, ErrNotAuthor
	}

	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Label != nil {
		label := Label(*req.Label)
		if !label.Valid() {
			return nil, ErrInvalidLabel
		}
		p.Label = label
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}

	oldKey := p.AttachmentPath

	switch {
	case up != nil:
		if err := s.attachments.Remove(ctx, oldKey); err != nil {
			return nil, err
		}

		key, url, err := s.attachments.Stage(ctx, authorID, up)
		if err != nil {
			// The old object is already gone. Keep the post, drop the
			// dead reference, and surface the failed upload.
			p.AttachmentPath = ""
			p.AttachmentURL = ""
			if perr := s.repo.Update(ctx, p); perr != nil {
				return nil, fmt.Errorf("%w: %v", ErrPersistFailed, perr)
			}
			return nil, err
		}
		p.AttachmentPath = key
		p.AttachmentURL = url

		if err := s.repo.Update(ctx, p); err != nil {
			s.attachments.Discard(ctx, key)
			if oldKey != "" {
				s.log.ErrorContext(ctx, "stored attachment path no longer resolves",
					"post_id", p.ID,
					"key", oldKey,
				)
			}
			return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}

	case req.RemoveAttachment && oldKey != "":
		// Delete the object first; only a successful delete may forget
		// the path.
		if err := s.attachments.Remove(ctx, oldKey); err != nil {
			return nil, err
		}
		p.AttachmentPath = ""
		p.AttachmentURL = ""

		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}

	default:
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
	}

	s.bus.Publish(events.NewPostUpdatedEvent(p.ID, p.AuthorID, string(p.Label)))
	return p, nil
}

// Delete removes a post. Only the author may delete. The attachment object
// is deleted before the record; if the object cannot be removed the record
// stays so its path remains resolvable.
func (s *Service) Delete(ctx context.Context, authorID, postID uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if p.AuthorID != authorID {
		return ErrNotAuthor
	}

	if err := s.attachments.Remove(ctx, p.AttachmentPath); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		return err
	}

	s.bus.Publish(events.NewPostDeletedEvent(p.ID, p.AuthorID))
	return nil
}

// SetPinned pins or unpins one of the author's posts.
func (s *Service) SetPinned(ctx context.Context, authorID, postID uuid.UUID, pinned bool) (*Post, error) {
	p, err := s.repo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != authorID {
		return nil, ErrNotAuthor
	}

	if p.Pinned == pinned {
		return p, nil
	}

	p.Pinned = pinned
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewPostUpdatedEvent(p.ID, p.AuthorID, string(p.Label)))
	return p, nil
}

// ListByAuthor lists a user's posts as seen by the viewer. Private posts are
// included when the viewer is the author or one of their friends.
func (s *Service) ListByAuthor(ctx context.Context, viewerID, authorID uuid.UUID, p *pagination.Pagination) ([]Post, int64, error) {
	includePrivate := viewerID == authorID
	if !includePrivate && viewerID != uuid.Nil {
		friends, err := s.friends.AreFriends(ctx, viewerID, authorID)
		if err != nil {
			return nil, 0, err
		}
		includePrivate = friends
	}
	return s.repo.ListByAuthor(ctx, authorID, includePrivate, p.Offset(), p.Limit())
}

// ListVisibleByIDs fetches posts by ID, dropping those the viewer cannot
// see. The result keeps the order of ids.
func (s *Service) ListVisibleByIDs(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]Post, error) {
	posts, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}

	out := make([]Post, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		visible, err := s.canView(ctx, viewerID, p)
		if err != nil {
			return nil, err
		}
		if visible {
			out = append(out, *p)
		}
	}
	return out, nil
}

// AdjustLikeCount atomically adjusts a post's like counter.
func (s *Service) AdjustLikeCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	return s.repo.AdjustLikeCount(ctx, postID, delta)
}

// AdjustCommentCount atomically adjusts a post's comment counter.
func (s *Service) AdjustCommentCount(ctx context.Context, postID uuid.UUID, delta int64) error {
	return s.repo.AdjustCommentCount(ctx, postID, delta)
}

// canView reports whether the viewer may read the post.
func (s *Service) canView(ctx context.Context, viewerID uuid.UUID, p *Post) (bool, error) {
	if p.Label == LabelPublic {
		return true, nil
	}
	if viewerID == uuid.Nil {
		return false, nil
	}
	if viewerID == p.AuthorID {
		return true, nil
	}
	if p.RecipientID != nil && viewerID == *p.RecipientID {
		return true, nil
	}
	return s.friends.AreFriends(ctx, viewerID, p.AuthorID)
}
