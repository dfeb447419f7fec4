package post

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the post data access interface.
type Repository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Update(ctx context.Context, post *Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListPublic lists public posts, pinned first, newest first.
	ListPublic(ctx context.Context, offset, limit int) ([]Post, int64, error)

	// ListByAuthor lists an author's posts. When includePrivate is false,
	// private posts are filtered out.
	ListByAuthor(ctx context.Context, authorID uuid.UUID, includePrivate bool, offset, limit int) ([]Post, int64, error)

	// ListByAuthors lists posts from any of the given authors.
	ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, offset, limit int) ([]Post, int64, error)

	// ListByRecipient lists posts addressed to a user.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID, offset, limit int) ([]Post, int64, error)

	// ListByIDs fetches posts preserving no particular order.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Post, error)

	// AdjustLikeCount atomically adjusts the like counter.
	AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) error

	// AdjustCommentCount atomically adjusts the comment counter.
	AdjustCommentCount(ctx context.Context, id uuid.UUID, delta int64) error
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new post repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Create creates a post.
func (r *repository) Create(ctx context.Context, post *Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID retrieves a post by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Post, error) {
	var post Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Update saves post changes.
func (r *repository) Update(ctx context.Context, post *Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes a post.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListPublic lists public posts, pinned first, newest first.
func (r *repository) ListPublic(ctx context.Context, offset, limit int) ([]Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&Post{}).Where("label = ?", LabelPublic)
	return r.list(query, "pinned DESC, created_at DESC", offset, limit)
}

// ListByAuthor lists an author's posts.
func (r *repository) ListByAuthor(ctx context.Context, authorID uuid.UUID, includePrivate bool, offset, limit int) ([]Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&Post{}).Where("author_id = ?", authorID)
	if !includePrivate {
		query = query.Where("label = ?", LabelPublic)
	}
	return r.list(query, "pinned DESC, created_at DESC", offset, limit)
}

// ListByAuthors lists posts from any of the given authors.
func (r *repository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, offset, limit int) ([]Post, int64, error) {
	if len(authorIDs) == 0 {
		return nil, 0, nil
	}
	query := r.db.WithContext(ctx).Model(&Post{}).Where("author_id IN ?", authorIDs)
	return r.list(query, "created_at DESC", offset, limit)
}

// ListByRecipient lists posts addressed to a user.
func (r *repository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, offset, limit int) ([]Post, int64, error) {
	query := r.db.WithContext(ctx).Model(&Post{}).Where("recipient_id = ?", recipientID)
	return r.list(query, "created_at DESC", offset, limit)
}

// ListByIDs fetches posts by ID.
func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// AdjustLikeCount atomically adjusts the like counter.
func (r *repository) AdjustLikeCount(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.adjustCounter(ctx, id, "like_count", delta)
}

// AdjustCommentCount atomically adjusts the comment counter.
func (r *repository) AdjustCommentCount(ctx context.Context, id uuid.UUID, delta int64) error {
	return r.adjustCounter(ctx, id, "comment_count", delta)
}

func (r *repository) adjustCounter(ctx context.Context, id uuid.UUID, column string, delta int64) error {
	result := r.db.WithContext(ctx).Model(&Post{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *repository) list(query *gorm.DB, order string, offset, limit int) ([]Post, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []Post
	err := query.Order(order).Offset(offset).Limit(limit).Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}
