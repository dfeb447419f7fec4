package interaction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the like and bookmark data access interface.
type Repository interface {
	// CreateLike records a like. Returns ErrAlreadyLiked on a duplicate.
	CreateLike(ctx context.Context, like *Like) error

	// DeleteLike removes a like. Returns ErrNotLiked when absent.
	DeleteLike(ctx context.Context, postID, userID uuid.UUID) error

	// HasLiked reports whether the user has liked the post.
	HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	// CreateBookmark records a bookmark. Returns ErrAlreadyBookmarked on a
	// duplicate.
	CreateBookmark(ctx context.Context, bookmark *Bookmark) error

	// DeleteBookmark removes a bookmark. Returns ErrNotBookmarked when
	// absent.
	DeleteBookmark(ctx context.Context, postID, userID uuid.UUID) error

	// ListBookmarked lists the post IDs a user bookmarked, newest first.
	ListBookmarked(ctx context.Context, userID uuid.UUID, offset, limit int) ([]uuid.UUID, int64, error)

	// DeleteByPost removes all likes and bookmarks on a post.
	DeleteByPost(ctx context.Context, postID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new interaction repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateLike records a like. The unique index on (post_id, user_id) makes
// duplicate likes a conflict, surfaced as ErrAlreadyLiked.
func (r *repository) CreateLike(ctx context.Context, like *Like) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(like)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyLiked
	}
	return nil
}

func (r *repository) DeleteLike(ctx context.Context, postID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&Like{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotLiked
	}
	return nil
}

func (r *repository) HasLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var like Like
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) CreateBookmark(ctx context.Context, bookmark *Bookmark) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(bookmark)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyBookmarked
	}
	return nil
}

func (r *repository) DeleteBookmark(ctx context.Context, postID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotBookmarked
	}
	return nil
}

func (r *repository) ListBookmarked(ctx context.Context, userID uuid.UUID, offset, limit int) ([]uuid.UUID, int64, error) {
	query := r.db.WithContext(ctx).Model(&Bookmark{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ids []uuid.UUID
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Pluck("post_id", &ids).Error
	if err != nil {
		return nil, 0, err
	}

	return ids, total, nil
}

func (r *repository) DeleteByPost(ctx context.Context, postID uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&Like{}, "post_id = ?", postID).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&Bookmark{}, "post_id = ?", postID).Error
}
