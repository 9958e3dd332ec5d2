package messagerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/dbschema"
	"github.com/hanzlah101/t3-clone/internal/utils/functional"
	"github.com/hanzlah101/t3-clone/internal/utils/idgen"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// nonTerminalStatuses are the states a terminal patch may overwrite.
var nonTerminalStatuses = []string{
	string(message.StatusWaiting),
	string(message.StatusStreaming),
}

type MessageGormRepository struct {
	db *gorm.DB
}

var _ message.MessageRepository = (*MessageGormRepository)(nil)

func NewMessageGormRepository(db *gorm.DB) message.MessageRepository {
	return &MessageGormRepository{db}
}

// CreatePair implements message.MessageRepository.
func (repo *MessageGormRepository) CreatePair(ctx context.Context, userMsg, assistantMsg *message.Message) error {
	userModel := dbschema.NewSchemaMessage(userMsg)
	assistantModel := dbschema.NewSchemaMessage(assistantMsg)

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(userModel).Error; err != nil {
			return err
		}
		return tx.Create(assistantModel).Error
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create message pair")
	}

	userMsg.ID = userModel.ID
	userMsg.UpdatedAt = userModel.UpdatedAt
	assistantMsg.ID = assistantModel.ID
	assistantMsg.UpdatedAt = assistantModel.UpdatedAt
	return nil
}

// ListByThreadID implements message.MessageRepository.
func (repo *MessageGormRepository) ListByThreadID(ctx context.Context, threadID uint) ([]*message.Message, error) {
	var models []*dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list messages")
	}

	return functional.Map(models, func(m *dbschema.Message) *message.Message {
		return m.EtoD()
	}), nil
}

// FindByPublicID implements message.MessageRepository.
func (repo *MessageGormRepository) FindByPublicID(ctx context.Context, threadID uint, publicID string) (*message.Message, error) {
	var model dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("thread_id = ? AND public_id = ?", threadID, publicID).
		First(&model).Error
	if err != nil {
		return nil, notFoundOr(ctx, err, "failed to find message by public ID")
	}
	return model.EtoD(), nil
}

// FindTrailing implements message.MessageRepository.
func (repo *MessageGormRepository) FindTrailing(ctx context.Context, threadID uint) (*message.Message, error) {
	var model dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at DESC, id DESC").
		First(&model).Error
	if err != nil {
		return nil, notFoundOr(ctx, err, "failed to find trailing message")
	}
	return model.EtoD(), nil
}

// MarkStreaming implements message.MessageRepository. The conditional
// update makes the transition atomic against concurrent terminal writes.
func (repo *MessageGormRepository) MarkStreaming(ctx context.Context, id uint) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("id = ? AND status = ?", id, string(message.StatusWaiting)).
		Update("status", string(message.StatusStreaming))
	if result.Error != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to mark message streaming")
	}
	return result.RowsAffected > 0, nil
}

// PatchTerminal implements message.MessageRepository. The status guard in
// the WHERE clause enforces write-once terminal states at the database
// level; a lost race simply affects zero rows.
func (repo *MessageGormRepository) PatchTerminal(ctx context.Context, id uint, patch message.TerminalPatch) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("id = ? AND status IN ?", id, nonTerminalStatuses).
		Updates(map[string]any{
			"status":    string(patch.Status),
			"content":   patch.Content,
			"reasoning": patch.Reasoning,
			"error":     patch.Error,
		})
	if result.Error != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to patch message")
	}
	return result.RowsAffected > 0, nil
}

// CancelStale implements message.MessageRepository.
func (repo *MessageGormRepository) CancelStale(ctx context.Context, olderThan time.Time) (int64, error) {
	errText := message.DefaultErrorText
	result := repo.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("status IN ? AND updated_at < ?", nonTerminalStatuses, olderThan).
		Updates(map[string]any{
			"status": string(message.StatusCancelled),
			"error":  errText,
		})
	if result.Error != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, result.Error, "failed to cancel stale messages")
	}
	return result.RowsAffected, nil
}

// CopyPrefix implements thread.MessageCopier. Every message up to and
// including the cutoff travels to the new thread verbatim, terminal status
// and error text included, so a branch reads exactly like its source did.
func (repo *MessageGormRepository) CopyPrefix(ctx context.Context, srcThreadID, dstThreadID uint, cutoff time.Time) (int, error) {
	var models []*dbschema.Message
	err := repo.db.WithContext(ctx).
		Where("thread_id = ? AND created_at <= ?", srcThreadID, cutoff).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load branch prefix")
	}

	copies := make([]*dbschema.Message, 0, len(models))
	for _, m := range models {
		publicID, err := idgen.GenerateSecureID("msg", 16)
		if err != nil {
			return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to generate message ID")
		}

		clone := *m
		clone.ID = 0
		clone.PublicID = publicID
		clone.ThreadID = dstThreadID
		// CreatedAt is preserved so the copied transcript sorts like the
		// original.
		clone.UpdatedAt = time.Time{}
		copies = append(copies, &clone)
	}

	if len(copies) == 0 {
		return 0, nil
	}

	if err := repo.db.WithContext(ctx).Create(&copies).Error; err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to copy messages")
	}
	return len(copies), nil
}

// FindCreatedAt implements thread.MessageCopier.
func (repo *MessageGormRepository) FindCreatedAt(ctx context.Context, threadID uint, messagePublicID string) (time.Time, error) {
	m, err := repo.FindByPublicID(ctx, threadID, messagePublicID)
	if err != nil {
		return time.Time{}, err
	}
	return m.CreatedAt, nil
}

func notFoundOr(ctx context.Context, err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", err, "b90d35e7-48fc-4a12-8e60-16cf2d79a043")
	}
	return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, msg)
}
