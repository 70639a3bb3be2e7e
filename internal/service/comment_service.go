package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"colloquy/internal/markdown"
	"colloquy/internal/models"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

const maxMessageLen = 10000

// CommentService implements comment creation and editing. Deletion,
// moderation and likes live in their own services.
type CommentService struct {
	commentRepo repository.CommentRepository
	targetRepo  repository.TargetRepository
}

type CreateCommentInput struct {
	UserID     uint
	TargetKind string
	TargetUID  uint
	Message    string
	ReplyToID  *uint
}

type EditCommentInput struct {
	ActorID     uint
	CommentID   uint
	Message     string
	IsModerator bool
}

// NewCommentService returns a new CommentService.
func NewCommentService(
	commentRepo repository.CommentRepository,
	targetRepo repository.TargetRepository,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		targetRepo:  targetRepo,
	}
}

// CreateComment validates and persists a comment together with its
// target binding. Notification dispatch is the caller's responsibility,
// after and outside the transaction.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validateMessage(in.Message); err != nil {
		return nil, err
	}

	target, err := s.targetRepo.Resolve(ctx, in.TargetKind, in.TargetUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Target", in.TargetUID)
		}
		return nil, err
	}

	if in.ReplyToID != nil {
		if _, err := s.commentRepo.GetByID(ctx, *in.ReplyToID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Reply target does not exist")
			}
			return nil, err
		}
		// The parent must live on the same content object, otherwise the
		// reply would never surface in any tree.
		parentTarget, err := s.commentRepo.TargetOf(ctx, *in.ReplyToID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewValidationError("Reply target does not exist")
			}
			return nil, err
		}
		if parentTarget.TargetKind() != target.TargetKind() ||
			parentTarget.TargetID() != target.TargetID() {
			return nil, models.NewValidationError("Reply parent belongs to a different thread")
		}
		// A broken ancestor chain means the reply would attach to a
		// cyclic thread; refuse to grow it.
		if _, err := s.commentRepo.ThreadRootOf(ctx, *in.ReplyToID); err != nil {
			if errors.Is(err, repository.ErrCycle) {
				return nil, models.NewValidationError("Reply chain is cyclic")
			}
			return nil, err
		}
	}

	message := strings.TrimSpace(in.Message)
	comment := &models.Comment{
		UserID:      &in.UserID,
		ReplyToID:   in.ReplyToID,
		Message:     message,
		MessageHTML: markdown.Render(message),
	}
	if err := s.commentRepo.Create(ctx, comment, target); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// EditComment updates a comment's message and re-renders its HTML
// cache. The lookup is scoped: a non-moderator editing someone else's
// comment observes NOT_FOUND, indistinguishable from a missing row.
func (s *CommentService) EditComment(ctx context.Context, in EditCommentInput) (*models.Comment, error) {
	if err := validateMessage(in.Message); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetScoped(ctx, in.CommentID, in.ActorID, in.IsModerator)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", in.CommentID)
		}
		return nil, err
	}
	if comment.IsDeleted() {
		return nil, models.NewNotFoundError("Comment", in.CommentID)
	}

	comment.Message = strings.TrimSpace(in.Message)
	comment.MessageHTML = markdown.Render(comment.Message)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

func validateMessage(message string) error {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return models.NewValidationError("Message is required")
	}
	if utf8.RuneCountInString(trimmed) > maxMessageLen {
		return models.NewValidationError("Message too long (max 10000 characters)")
	}
	return nil
}
