package service

import (
	"context"
	"errors"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

// LikeService toggles likes on comments. Row presence in the like
// ledger is the only state; the unique (user, comment) constraint
// resolves concurrent duplicate likes, never a lock.
type LikeService struct {
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
}

type SetLikeInput struct {
	UserID    uint
	CommentID uint
	Liked     bool
}

// SetLikeResult reports the outcome of a toggle. Created is true only
// on an absent-to-present transition, which is the single case that
// warrants a notification.
type SetLikeResult struct {
	Liked   bool
	Count   int64
	Created bool
	Comment *models.Comment
}

// NewLikeService returns a new LikeService.
func NewLikeService(
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
	}
}

// SetLike creates or removes the (user, comment) like row according to
// the wanted state and returns the resulting total count. Both
// directions are idempotent.
func (s *LikeService) SetLike(ctx context.Context, in SetLikeInput) (*SetLikeResult, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}

	created := false
	if in.Liked {
		created, err = s.likeRepo.Set(ctx, in.CommentID, in.UserID)
	} else {
		err = s.likeRepo.Unset(ctx, in.CommentID, in.UserID)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.likeRepo.Count(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	return &SetLikeResult{
		Liked:   in.Liked,
		Count:   count,
		Created: created,
		Comment: comment,
	}, nil
}
