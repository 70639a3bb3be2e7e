package service

import (
	"context"
	"time"

	"colloquy/internal/models"
	"colloquy/internal/repository"

	"gorm.io/gorm"
)

// ModerationService implements deletion and archiving of comments and
// whole comment trees. Tree operations are moderator-only; single-node
// deletion is scoped to the author.
//
// It works on the database directly rather than through the comment
// repository because tree operations need multi-statement transactions
// over id sets.
type ModerationService struct {
	db *gorm.DB
}

// NewModerationService returns a new ModerationService.
func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

// Delete soft-deletes a single comment. Replies are never touched: a
// deleted node with surviving replies stays in the thread as a
// placeholder. Non-owners without moderator rights observe NOT_FOUND.
// Repeat deletion is a no-op.
func (s *ModerationService) Delete(ctx context.Context, commentID, actorID uint, isModerator bool) error {
	q := s.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", commentID)
	if !isModerator {
		q = q.Where("user_id = ?", actorID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}

	return s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND date_deleted IS NULL", commentID).
		Update("date_deleted", time.Now().UTC()).Error
}

// DeleteTree soft-deletes the identified comment and every descendant.
// Each node keeps its own deletion timestamp; nodes already deleted are
// left untouched, so the operation is idempotent per node.
func (s *ModerationService) DeleteTree(ctx context.Context, commentID uint, isModerator bool) error {
	if !isModerator {
		return models.NewPermissionDeniedError("Comment moderation permission required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireComment(tx, commentID); err != nil {
			return err
		}
		levels, err := repository.CollectSubtree(tx, []uint{commentID})
		if err != nil {
			return err
		}
		return tx.Model(&models.Comment{}).
			Where("id IN ? AND date_deleted IS NULL", repository.FlattenLevels(levels)).
			Update("date_deleted", time.Now().UTC()).Error
	})
}

// HardDeleteTree permanently removes the identified comment and its
// entire descendant subtree, including likes and target bindings.
// Children go first so no reply ever points at a missing parent.
func (s *ModerationService) HardDeleteTree(ctx context.Context, commentID uint, isModerator bool) error {
	if !isModerator {
		return models.NewPermissionDeniedError("Comment moderation permission required")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireComment(tx, commentID); err != nil {
			return err
		}
		levels, err := repository.CollectSubtree(tx, []uint{commentID})
		if err != nil {
			return err
		}

		ids := repository.FlattenLevels(levels)
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		for _, binding := range []any{
			&models.PostComment{},
			&models.AssetComment{},
			&models.SectionComment{},
			&models.CharacterVersionComment{},
		} {
			if err := tx.Where("comment_id IN ?", ids).Delete(binding).Error; err != nil {
				return err
			}
		}

		for i := len(levels) - 1; i >= 0; i-- {
			if err := tx.Where("id IN ?", levels[i]).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ArchiveTree toggles the archived flag on the whole thread containing
// the given comment: it walks up to the thread root, collects every
// member and flips all of them in one transaction, keeping the flag
// tree-uniform under concurrent calls. Returns the new state; calling
// twice restores the original one.
func (s *ModerationService) ArchiveTree(ctx context.Context, commentID uint, isModerator bool) (bool, error) {
	if !isModerator {
		return false, models.NewPermissionDeniedError("Comment moderation permission required")
	}

	var newState bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireComment(tx, commentID); err != nil {
			return err
		}
		rootID, err := repository.ThreadRoot(tx, commentID)
		if err != nil {
			return err
		}
		levels, err := repository.CollectSubtree(tx, []uint{rootID})
		if err != nil {
			return err
		}

		// All members share the flag, so reading the root suffices.
		var root models.Comment
		if err := tx.Select("is_archived").First(&root, rootID).Error; err != nil {
			return err
		}
		newState = !root.IsArchived

		return tx.Model(&models.Comment{}).
			Where("id IN ?", repository.FlattenLevels(levels)).
			Update("is_archived", newState).Error
	})
	return newState, err
}

func requireComment(tx *gorm.DB, commentID uint) error {
	var count int64
	if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}
	return nil
}
