package repository

import (
	"context"

	"colloquy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines interface for like-ledger operations. Likes
// are membership rows: presence is the only state, and the unique
// (user_id, comment_id) index is the sole correctness mechanism under
// concurrent toggles.
type LikeRepository interface {
	// Set records a like and reports whether a new row was created.
	// A duplicate like hits the unique constraint and is treated as
	// success, not an error.
	Set(ctx context.Context, commentID, userID uint) (bool, error)
	// Unset removes a like if present. Absence is a no-op.
	Unset(ctx context.Context, commentID, userID uint) error
	// Count returns the number of like rows for a comment. Rows whose
	// user has been anonymized to NULL still count.
	Count(ctx context.Context, commentID uint) (int64, error)
	// CountByComment batch-counts likes for many comments at once.
	CountByComment(ctx context.Context, commentIDs []uint) (map[uint]int64, error)
	// LikedByUser returns the subset of commentIDs the given user has
	// liked, as a membership set.
	LikedByUser(ctx context.Context, commentIDs []uint, userID uint) (map[uint]bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Set(ctx context.Context, commentID, userID uint) (bool, error) {
	like := models.Like{UserID: &userID, CommentID: commentID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "comment_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *likeRepository) Unset(ctx context.Context, commentID, userID uint) error {
	return r.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentID, userID).
		Delete(&models.Like{}).Error
}

func (r *likeRepository) Count(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	return count, err
}

func (r *likeRepository) CountByComment(ctx context.Context, commentIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(commentIDs))
	if len(commentIDs) == 0 {
		return counts, nil
	}

	type row struct {
		CommentID uint
		N         int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Select("comment_id, COUNT(*) AS n").
		Where("comment_id IN ?", commentIDs).
		Group("comment_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.CommentID] = r.N
	}
	return counts, nil
}

func (r *likeRepository) LikedByUser(ctx context.Context, commentIDs []uint, userID uint) (map[uint]bool, error) {
	liked := make(map[uint]bool, len(commentIDs))
	if len(commentIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("comment_id IN ? AND user_id = ?", commentIDs, userID).
		Pluck("comment_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}
