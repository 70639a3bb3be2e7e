package server

import (
	"errors"
	"fmt"

	"colloquy/internal/models"
	"colloquy/internal/notifications"
	"colloquy/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	commentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_comments_created_total",
		Help: "Comments created, by target kind.",
	}, []string{"target_kind"})
	likesToggled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colloquy_likes_toggled_total",
		Help: "Like toggles, by direction.",
	}, []string{"direction"})
)

// GetCommentTree returns the display-ready comment tree for a target.
// Anonymous viewers get the tree without liked/owned state.
func (s *Server) GetCommentTree(c *fiber.Ctx) error {
	ctx := c.UserContext()

	kind := c.Params("kind")
	targetID, err := s.parseID(c, "id", "target ID")
	if err != nil {
		return nil
	}

	target, err := s.targetRepo.Resolve(ctx, kind, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondAppError(c, models.NewNotFoundError("Target", targetID))
		}
		return respondAppError(c, err)
	}

	comments, err := s.commentRepo.ListForTarget(ctx, target)
	if err != nil {
		return respondAppError(c, err)
	}

	ids := make([]uint, len(comments))
	for i, comment := range comments {
		ids[i] = comment.ID
	}

	// Like state is batched up front so tree assembly never queries
	// per node.
	counts, err := s.likeRepo.CountByComment(ctx, ids)
	if err != nil {
		return respondAppError(c, err)
	}
	v := viewer(c)
	liked := map[uint]bool{}
	if v.UserID != nil {
		liked, err = s.likeRepo.LikedByUser(ctx, ids, *v.UserID)
		if err != nil {
			return respondAppError(c, err)
		}
	}

	tree := service.BuildCommentTree(service.TreeInput{
		Comments:   comments,
		Viewer:     v,
		Liked:      liked,
		LikeCounts: counts,
		CommentURL: fmt.Sprintf("/api/targets/%s/%d/comments", kind, targetID),
	})
	return c.JSON(tree)
}

// CreateComment creates a comment or reply on a target (protected).
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := actor(c)

	kind := c.Params("kind")
	targetID, err := s.parseID(c, "id", "target ID")
	if err != nil {
		return nil
	}

	var req struct {
		Message   string `json:"message"`
		ReplyToID *uint  `json:"reply_to_id"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentSvc.CreateComment(ctx, service.CreateCommentInput{
		UserID:     userID,
		TargetKind: kind,
		TargetUID:  targetID,
		Message:    req.Message,
		ReplyToID:  req.ReplyToID,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	commentsCreated.WithLabelValues(kind).Inc()

	// The comment is committed; notification delivery is best-effort
	// and never affects the response.
	s.publishCommentEvent(c, created, kind, targetID)

	return c.Status(fiber.StatusCreated).JSON(created)
}

// publishCommentEvent emits "commented" for top-level comments and
// "replied" (addressed to the parent's author) for replies. Replying to
// yourself makes no noise.
func (s *Server) publishCommentEvent(c *fiber.Ctx, created *models.Comment, kind string, targetID uint) {
	ctx := c.UserContext()
	userID, _ := actor(c)

	event := notifications.Event{
		ActorID:    userID,
		Verb:       notifications.VerbCommented,
		CommentID:  created.ID,
		TargetKind: kind,
		TargetID:   targetID,
	}
	if created.ReplyToID != nil {
		event.Verb = notifications.VerbReplied
		parent, err := s.commentRepo.GetByID(ctx, *created.ReplyToID)
		if err != nil {
			s.logger.Error("load reply parent for notification", "error", err)
			return
		}
		if parent.UserID == nil || *parent.UserID == userID {
			return
		}
		event.RecipientID = parent.UserID
	}
	s.notifier.Publish(ctx, event)
}

// EditComment updates a comment's message (owner or moderator).
func (s *Server) EditComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, isModerator := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	var req struct {
		Message string `json:"message"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentSvc.EditComment(ctx, service.EditCommentInput{
		ActorID:     userID,
		CommentID:   commentID,
		Message:     req.Message,
		IsModerator: isModerator,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(updated)
}

// DeleteComment soft-deletes a single comment (owner or moderator).
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, isModerator := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.moderationSvc.Delete(ctx, commentID, userID, isModerator); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// DeleteCommentTree soft-deletes a comment and all descendants (moderator only).
func (s *Server) DeleteCommentTree(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, isModerator := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.moderationSvc.DeleteTree(ctx, commentID, isModerator); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// HardDeleteCommentTree permanently removes a comment subtree (moderator only).
func (s *Server) HardDeleteCommentTree(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, isModerator := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	if err := s.moderationSvc.HardDeleteTree(ctx, commentID, isModerator); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{})
}

// ArchiveCommentTree toggles the archived state of a whole thread (moderator only).
func (s *Server) ArchiveCommentTree(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, isModerator := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	isArchived, err := s.moderationSvc.ArchiveTree(ctx, commentID, isModerator)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"comment_id":  commentID,
		"is_archived": isArchived,
	})
}

// LikeComment sets or clears the caller's like on a comment and returns
// the resulting count.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := actor(c)

	commentID, err := s.parseID(c, "commentId", "comment ID")
	if err != nil {
		return nil
	}

	var req struct {
		Like bool `json:"like"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	result, err := s.likeSvc.SetLike(ctx, service.SetLikeInput{
		UserID:    userID,
		CommentID: commentID,
		Liked:     req.Like,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	direction := "unlike"
	if req.Like {
		direction = "like"
	}
	likesToggled.WithLabelValues(direction).Inc()

	// Notify only on the absent-to-present transition, and never about
	// liking your own comment.
	if result.Created && result.Comment.UserID != nil && *result.Comment.UserID != userID {
		event := notifications.Event{
			ActorID:     userID,
			Verb:        notifications.VerbLiked,
			CommentID:   commentID,
			RecipientID: result.Comment.UserID,
		}
		if target, targetErr := s.commentRepo.TargetOf(ctx, commentID); targetErr != nil {
			s.logger.Error("load like target for notification", "error", targetErr)
		} else {
			event.TargetKind = target.TargetKind()
			event.TargetID = target.TargetID()
		}
		s.notifier.Publish(ctx, event)
	}

	return c.JSON(fiber.Map{
		"like":            result.Liked,
		"number_of_likes": result.Count,
	})
}
