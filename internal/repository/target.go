package repository

import (
	"context"

	"colloquy/internal/models"

	"gorm.io/gorm"
)

// TargetRepository resolves a (kind, id) pair from a URL into the
// concrete content object implementing models.Commentable. Registering
// a new commentable content type means adding one entry here and one
// binding table in models.
type TargetRepository interface {
	Resolve(ctx context.Context, kind string, id uint) (models.Commentable, error)
	// Kinds lists the registered target kinds.
	Kinds() []string
}

type targetRepository struct {
	db *gorm.DB
}

// NewTargetRepository creates a new TargetRepository
func NewTargetRepository(db *gorm.DB) TargetRepository {
	return &targetRepository{db: db}
}

func (r *targetRepository) Resolve(ctx context.Context, kind string, id uint) (models.Commentable, error) {
	var target models.Commentable
	switch kind {
	case "posts":
		target = &models.Post{}
	case "assets":
		target = &models.Asset{}
	case "sections":
		target = &models.Section{}
	case "character-versions":
		target = &models.CharacterVersion{}
	default:
		return nil, models.NewNotFoundError("Target kind", kind)
	}

	if err := r.db.WithContext(ctx).First(target, id).Error; err != nil {
		return nil, err
	}
	return target, nil
}

func (r *targetRepository) Kinds() []string {
	return []string{"posts", "assets", "sections", "character-versions"}
}
