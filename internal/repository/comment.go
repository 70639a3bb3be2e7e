// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// ErrCycle is returned when reply_to links form a loop instead of
// terminating at a top-level comment. It indicates corrupted data.
var ErrCycle = errors.New("reply chain contains a cycle")

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	// Create inserts the comment and its target binding row in one
	// transaction. A comment never exists without a binding.
	Create(ctx context.Context, comment *models.Comment, target models.Commentable) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// GetScoped looks a comment up within the acting identity's
	// permission scope: moderators see every row, everyone else only
	// their own. A non-owner gets gorm.ErrRecordNotFound, exactly as if
	// the row did not exist.
	GetScoped(ctx context.Context, id, actorID uint, isModerator bool) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	// ListForTarget returns the flat set of all comments bound to one
	// content object, authors preloaded.
	ListForTarget(ctx context.Context, target models.Commentable) ([]models.Comment, error)
	// TargetOf resolves the content object a comment is bound to.
	TargetOf(ctx context.Context, id uint) (models.Commentable, error)
	// ThreadRootOf walks reply_to links upward to the thread root.
	// Returns ErrCycle if the chain never terminates.
	ThreadRootOf(ctx context.Context, id uint) (uint, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment, target models.Commentable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Create(target.NewCommentBinding(comment.ID)).Error
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) GetScoped(ctx context.Context, id, actorID uint, isModerator bool) (*models.Comment, error) {
	q := r.db.WithContext(ctx).Preload("User")
	if !isModerator {
		q = q.Where("user_id = ?", actorID)
	}
	var comment models.Comment
	if err := q.First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Save(comment).Error
}

func (r *commentRepository) ListForTarget(ctx context.Context, target models.Commentable) ([]models.Comment, error) {
	join := fmt.Sprintf(
		"JOIN %s AS binding ON binding.comment_id = comments.id",
		target.CommentJoinTable(),
	)
	where := fmt.Sprintf("binding.%s = ?", target.CommentTargetColumn())

	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins(join).
		Where(where, target.TargetID()).
		Find(&comments).Error
	return comments, err
}

func (r *commentRepository) TargetOf(ctx context.Context, id uint) (models.Commentable, error) {
	db := r.db.WithContext(ctx)

	// Exactly one binding row exists per comment; probe each binding
	// table until it turns up.
	for _, probe := range []models.Commentable{
		&models.Post{},
		&models.Asset{},
		&models.Section{},
		&models.CharacterVersion{},
	} {
		var targetIDs []uint
		if err := db.Table(probe.CommentJoinTable()).
			Where("comment_id = ?", id).
			Limit(1).
			Pluck(probe.CommentTargetColumn(), &targetIDs).Error; err != nil {
			return nil, err
		}
		if len(targetIDs) == 0 {
			continue
		}
		if err := db.First(probe, targetIDs[0]).Error; err != nil {
			return nil, err
		}
		return probe, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *commentRepository) ThreadRootOf(ctx context.Context, id uint) (uint, error) {
	return ThreadRoot(r.db.WithContext(ctx), id)
}

// ThreadRoot walks reply_to links upward from the given comment until
// it reaches a top-level comment. Runs inside the caller's transaction.
func ThreadRoot(tx *gorm.DB, id uint) (uint, error) {
	seen := map[uint]bool{}
	for {
		if seen[id] {
			return 0, ErrCycle
		}
		seen[id] = true

		var row struct {
			ReplyToID *uint
		}
		if err := tx.Model(&models.Comment{}).
			Select("reply_to_id").
			Where("id = ?", id).
			Take(&row).Error; err != nil {
			return 0, err
		}
		if row.ReplyToID == nil {
			return id, nil
		}
		id = *row.ReplyToID
	}
}

// CollectSubtree returns the ids of the given comments plus every
// descendant, grouped by depth level (index 0 holds the roots). One
// query per tree level, never one per node.
func CollectSubtree(tx *gorm.DB, rootIDs []uint) ([][]uint, error) {
	levels := [][]uint{rootIDs}
	seen := map[uint]bool{}
	for _, id := range rootIDs {
		seen[id] = true
	}

	frontier := rootIDs
	for len(frontier) > 0 {
		var next []uint
		if err := tx.Model(&models.Comment{}).
			Where("reply_to_id IN ?", frontier).
			Pluck("id", &next).Error; err != nil {
			return nil, err
		}

		var fresh []uint
		for _, id := range next {
			if !seen[id] {
				seen[id] = true
				fresh = append(fresh, id)
			}
		}
		if len(fresh) == 0 {
			break
		}
		levels = append(levels, fresh)
		frontier = fresh
	}
	return levels, nil
}

func FlattenLevels(levels [][]uint) []uint {
	var out []uint
	for _, level := range levels {
		out = append(out, level...)
	}
	return out
}
