package threadrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/dbschema"
	"github.com/hanzlah101/t3-clone/internal/utils/functional"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

type ThreadGormRepository struct {
	db *gorm.DB
}

var _ thread.ThreadRepository = (*ThreadGormRepository)(nil)

func NewThreadGormRepository(db *gorm.DB) thread.ThreadRepository {
	return &ThreadGormRepository{db}
}

// Create implements thread.ThreadRepository.
func (repo *ThreadGormRepository) Create(ctx context.Context, t *thread.Thread) error {
	model := dbschema.NewSchemaThread(t)
	if err := repo.db.WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create thread")
	}
	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	t.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByPublicID implements thread.ThreadRepository.
func (repo *ThreadGormRepository) FindByPublicID(ctx context.Context, publicID string) (*thread.Thread, error) {
	var model dbschema.Thread
	err := repo.db.WithContext(ctx).Where("public_id = ?", publicID).First(&model).Error
	if err != nil {
		return nil, notFoundOr(ctx, err, "failed to find thread by public ID")
	}
	return model.EtoD(), nil
}

// FindByShareToken implements thread.ThreadRepository.
func (repo *ThreadGormRepository) FindByShareToken(ctx context.Context, token string) (*thread.Thread, error) {
	var model dbschema.Thread
	err := repo.db.WithContext(ctx).Where("share_token = ?", token).First(&model).Error
	if err != nil {
		return nil, notFoundOr(ctx, err, "failed to find thread by share token")
	}
	return model.EtoD(), nil
}

// ListByUserID implements thread.ThreadRepository.
func (repo *ThreadGormRepository) ListByUserID(ctx context.Context, userID string) ([]*thread.Thread, error) {
	var models []*dbschema.Thread
	err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_message_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list threads")
	}

	return functional.Map(models, func(m *dbschema.Thread) *thread.Thread {
		return m.EtoD()
	}), nil
}

// Update implements thread.ThreadRepository.
func (repo *ThreadGormRepository) Update(ctx context.Context, t *thread.Thread) error {
	model := dbschema.NewSchemaThread(t)
	// Save with explicit column selection so nil share fields clear the
	// row instead of being skipped.
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Thread{}).
		Where("id = ?", t.ID).
		Select("title", "model_id", "branch_parent_public_id", "share_token", "share_access", "updated_at").
		Updates(map[string]any{
			"title":                   model.Title,
			"model_id":                model.ModelID,
			"branch_parent_public_id": model.BranchParentPublicID,
			"share_token":             model.ShareToken,
			"share_access":            model.ShareAccess,
			"updated_at":              time.Now().UTC(),
		}).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update thread")
	}
	return nil
}

// TouchLastMessage implements thread.ThreadRepository.
func (repo *ThreadGormRepository) TouchLastMessage(ctx context.Context, id uint, at time.Time) error {
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Thread{}).
		Where("id = ?", id).
		UpdateColumn("last_message_at", at).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to touch thread")
	}
	return nil
}

// Delete implements thread.ThreadRepository. Messages go with the thread;
// the soft-deleted thread row keeps the share token reserved.
func (repo *ThreadGormRepository) Delete(ctx context.Context, id uint) error {
	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&dbschema.Thread{}, id).Error
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete thread")
	}
	return nil
}

// DetachChildren implements thread.ThreadRepository.
func (repo *ThreadGormRepository) DetachChildren(ctx context.Context, parentPublicID string) error {
	err := repo.db.WithContext(ctx).
		Model(&dbschema.Thread{}).
		Where("branch_parent_public_id = ?", parentPublicID).
		UpdateColumn("branch_parent_public_id", nil).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to detach branched threads")
	}
	return nil
}

func notFoundOr(ctx context.Context, err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", err, "2f6a0c83-91de-4b57-a2e8-c04d7f36b915")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, message)
}
