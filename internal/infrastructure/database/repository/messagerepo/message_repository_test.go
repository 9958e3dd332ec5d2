package messagerepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/dbschema"
	"github.com/hanzlah101/t3-clone/internal/infrastructure/database/repository/messagerepo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every statement on the same in-memory DB.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&dbschema.Thread{}, &dbschema.Message{}))
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, threadID uint, publicID string, role message.Role, status message.Status, content, reasoning string, errText *string, createdAt time.Time) {
	t.Helper()

	row := &dbschema.Message{
		BaseModel: dbschema.BaseModel{CreatedAt: createdAt, UpdatedAt: createdAt},
		PublicID:  publicID,
		ThreadID:  threadID,
		Role:      string(role),
		Content:   content,
		Reasoning: reasoning,
		Status:    string(status),
		Error:     errText,
	}
	require.NoError(t, db.Create(row).Error)
}

func TestCopyPrefix_CopiesEveryTurnVerbatim(t *testing.T) {
	db := newTestDB(t)
	repo := messagerepo.NewMessageGormRepository(db)

	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	failure := "Something went wrong. Please try again."
	seedMessage(t, db, 1, "msg_aaaaaaaaaaaaaaaa", message.RoleUser, message.StatusCompleted, "first question", "", nil, base)
	seedMessage(t, db, 1, "msg_bbbbbbbbbbbbbbbb", message.RoleAssistant, message.StatusError, "", "partial thought", &failure, base.Add(time.Second))
	seedMessage(t, db, 1, "msg_cccccccccccccccc", message.RoleUser, message.StatusCompleted, "second question", "", nil, base.Add(2*time.Second))
	seedMessage(t, db, 1, "msg_dddddddddddddddd", message.RoleAssistant, message.StatusCompleted, "second answer", "worked it out", nil, base.Add(3*time.Second))

	copied, err := repo.CopyPrefix(context.Background(), 1, 2, base.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 4, copied)

	got, err := repo.ListByThreadID(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// The failed turn travels too, status and error text intact, so the
	// branch transcript reads exactly like the source did.
	assert.Equal(t, message.RoleAssistant, got[1].Role)
	assert.Equal(t, message.StatusError, got[1].Status)
	require.NotNil(t, got[1].Error)
	assert.Equal(t, failure, *got[1].Error)
	assert.Equal(t, "partial thought", got[1].Reasoning)

	src, err := repo.ListByThreadID(context.Background(), 1)
	require.NoError(t, err)
	for i := range src {
		assert.Equal(t, src[i].Role, got[i].Role)
		assert.Equal(t, src[i].Content, got[i].Content)
		assert.Equal(t, src[i].Reasoning, got[i].Reasoning)
		assert.Equal(t, src[i].Status, got[i].Status)
		assert.True(t, src[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.NotEqual(t, src[i].PublicID, got[i].PublicID)
		assert.Regexp(t, `^msg_[0-9a-z]{16}$`, got[i].PublicID)
	}
}

func TestCopyPrefix_HonorsCutoff(t *testing.T) {
	db := newTestDB(t)
	repo := messagerepo.NewMessageGormRepository(db)

	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	seedMessage(t, db, 1, "msg_aaaaaaaaaaaaaaaa", message.RoleUser, message.StatusCompleted, "kept", "", nil, base)
	seedMessage(t, db, 1, "msg_bbbbbbbbbbbbbbbb", message.RoleAssistant, message.StatusCompleted, "kept too", "", nil, base.Add(time.Second))
	seedMessage(t, db, 1, "msg_cccccccccccccccc", message.RoleUser, message.StatusCompleted, "after the branch point", "", nil, base.Add(time.Minute))

	copied, err := repo.CopyPrefix(context.Background(), 1, 2, base.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, copied)

	got, err := repo.ListByThreadID(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "kept", got[0].Content)
	assert.Equal(t, "kept too", got[1].Content)
}
