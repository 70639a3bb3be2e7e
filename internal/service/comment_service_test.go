package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn        func(context.Context, *models.Comment, models.Commentable) error
	getByIDFn       func(context.Context, uint) (*models.Comment, error)
	getScopedFn     func(context.Context, uint, uint, bool) (*models.Comment, error)
	updateFn        func(context.Context, *models.Comment) error
	listForTargetFn func(context.Context, models.Commentable) ([]models.Comment, error)
	targetOfFn      func(context.Context, uint) (models.Commentable, error)
	threadRootOfFn  func(context.Context, uint) (uint, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment, t models.Commentable) error {
	return s.createFn(ctx, c, t)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) GetScoped(ctx context.Context, id, actorID uint, isModerator bool) (*models.Comment, error) {
	return s.getScopedFn(ctx, id, actorID, isModerator)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) ListForTarget(ctx context.Context, t models.Commentable) ([]models.Comment, error) {
	return s.listForTargetFn(ctx, t)
}
func (s *commentRepoStub) TargetOf(ctx context.Context, id uint) (models.Commentable, error) {
	return s.targetOfFn(ctx, id)
}
func (s *commentRepoStub) ThreadRootOf(ctx context.Context, id uint) (uint, error) {
	return s.threadRootOfFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment, _ models.Commentable) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		getScopedFn: func(_ context.Context, id, _ uint, _ bool) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		updateFn: func(_ context.Context, _ *models.Comment) error { return nil },
		listForTargetFn: func(_ context.Context, _ models.Commentable) ([]models.Comment, error) {
			return nil, nil
		},
		targetOfFn: func(_ context.Context, _ uint) (models.Commentable, error) {
			return &models.Post{ID: 1}, nil
		},
		threadRootOfFn: func(_ context.Context, id uint) (uint, error) { return id, nil },
	}
}

// targetRepoStub is a stub for repository.TargetRepository.
type targetRepoStub struct {
	resolveFn func(context.Context, string, uint) (models.Commentable, error)
}

func (s *targetRepoStub) Resolve(ctx context.Context, kind string, id uint) (models.Commentable, error) {
	return s.resolveFn(ctx, kind, id)
}
func (s *targetRepoStub) Kinds() []string { return []string{"posts"} }

func noopTargetRepo() *targetRepoStub {
	return &targetRepoStub{
		resolveFn: func(_ context.Context, _ string, id uint) (models.Commentable, error) {
			return &models.Post{ID: id}, nil
		},
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestCommentService_CreateComment_Validation(t *testing.T) {
	t.Parallel()

	svc := NewCommentService(noopCommentRepo(), noopTargetRepo())
	ctx := context.Background()

	t.Run("empty message", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 1, TargetKind: "posts", TargetUID: 1})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("whitespace-only message", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 1, Message: "   \n\t ",
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("message too long", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 1,
			Message: strings.Repeat("x", maxMessageLen+1),
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("length limit counts runes, not bytes", func(t *testing.T) {
		t.Parallel()
		// Multibyte runes at exactly the limit stay valid even though
		// the byte count is double.
		_, err := svc.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 1,
			Message: strings.Repeat("é", maxMessageLen),
		})
		require.NoError(t, err)
	})

	t.Run("missing target", func(t *testing.T) {
		t.Parallel()
		targetRepo := noopTargetRepo()
		targetRepo.resolveFn = func(_ context.Context, _ string, _ uint) (models.Commentable, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc2 := NewCommentService(noopCommentRepo(), targetRepo)
		_, err := svc2.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 404, Message: "hi",
		})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("dangling reply_to", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc2 := NewCommentService(commentRepo, noopTargetRepo())
		replyTo := uint(999)
		_, err := svc2.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 1, Message: "hi", ReplyToID: &replyTo,
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("reply parent bound to a different target", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.targetOfFn = func(_ context.Context, _ uint) (models.Commentable, error) {
			return &models.Post{ID: 2}, nil
		}
		svc2 := NewCommentService(commentRepo, noopTargetRepo())
		replyTo := uint(5)
		_, err := svc2.CreateComment(ctx, CreateCommentInput{
			UserID: 1, TargetKind: "posts", TargetUID: 1, Message: "hi", ReplyToID: &replyTo,
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})
}

func TestCommentService_CreateComment_Success(t *testing.T) {
	t.Parallel()

	commentRepo := noopCommentRepo()
	var created *models.Comment
	commentRepo.createFn = func(_ context.Context, c *models.Comment, _ models.Commentable) error {
		c.ID = 42
		created = c
		return nil
	}
	commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		return created, nil
	}

	svc := NewCommentService(commentRepo, noopTargetRepo())
	comment, err := svc.CreateComment(context.Background(), CreateCommentInput{
		UserID:     7,
		TargetKind: "posts",
		TargetUID:  1,
		Message:    "**hello**",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), comment.ID)
	assert.Equal(t, "**hello**", comment.Message)
	assert.Contains(t, comment.MessageHTML, "<strong>hello</strong>")
	require.NotNil(t, comment.UserID)
	assert.Equal(t, uint(7), *comment.UserID)
}

func TestCommentService_EditComment_ScopedLookup(t *testing.T) {
	t.Parallel()

	t.Run("non-owner observes not found", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getScopedFn = func(_ context.Context, _, _ uint, isModerator bool) (*models.Comment, error) {
			// The repository never returns someone else's row to a
			// non-moderator; it surfaces record-not-found instead.
			require.False(t, isModerator)
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewCommentService(commentRepo, noopTargetRepo())
		_, err := svc.EditComment(context.Background(), EditCommentInput{
			ActorID: 99, CommentID: 1, Message: "new",
		})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("soft-deleted comment is not editable", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getScopedFn = func(_ context.Context, id, _ uint, _ bool) (*models.Comment, error) {
			c := &models.Comment{ID: id}
			c.DateDeleted = &c.CreatedAt
			return c, nil
		}
		svc := NewCommentService(commentRepo, noopTargetRepo())
		_, err := svc.EditComment(context.Background(), EditCommentInput{
			ActorID: 1, CommentID: 1, Message: "new",
		})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("owner edit re-renders html", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		owner := uint(1)
		var saved *models.Comment
		commentRepo.getScopedFn = func(_ context.Context, id, _ uint, _ bool) (*models.Comment, error) {
			return &models.Comment{ID: id, UserID: &owner, Message: "old", MessageHTML: "<p>old</p>"}, nil
		}
		commentRepo.updateFn = func(_ context.Context, c *models.Comment) error {
			saved = c
			return nil
		}
		commentRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
			return saved, nil
		}
		svc := NewCommentService(commentRepo, noopTargetRepo())
		updated, err := svc.EditComment(context.Background(), EditCommentInput{
			ActorID: 1, CommentID: 1, Message: "changed *now*",
		})
		require.NoError(t, err)
		assert.Equal(t, "changed *now*", updated.Message)
		assert.Contains(t, updated.MessageHTML, "<em>now</em>")
	})

	t.Run("repo error propagates", func(t *testing.T) {
		t.Parallel()
		repoErr := errors.New("connection lost")
		commentRepo := noopCommentRepo()
		commentRepo.getScopedFn = func(_ context.Context, _, _ uint, _ bool) (*models.Comment, error) {
			return nil, repoErr
		}
		svc := NewCommentService(commentRepo, noopTargetRepo())
		_, err := svc.EditComment(context.Background(), EditCommentInput{
			ActorID: 1, CommentID: 1, Message: "new",
		})
		assert.ErrorIs(t, err, repoErr)
	})
}
