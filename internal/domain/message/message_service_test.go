package message_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanzlah101/t3-clone/internal/domain/message"
	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

// fakeMessageRepo is an in-memory MessageRepository with CAS semantics that
// mirror the SQL conditional updates.
type fakeMessageRepo struct {
	nextID   uint
	messages []*message.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (r *fakeMessageRepo) CreatePair(_ context.Context, userMsg, assistantMsg *message.Message) error {
	for _, m := range []*message.Message{userMsg, assistantMsg} {
		m.ID = r.nextID
		r.nextID++
		clone := *m
		r.messages = append(r.messages, &clone)
	}
	return nil
}

func (r *fakeMessageRepo) ListByThreadID(_ context.Context, threadID uint) ([]*message.Message, error) {
	var out []*message.Message
	for _, m := range r.messages {
		if m.ThreadID == threadID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) FindByPublicID(ctx context.Context, threadID uint, publicID string) (*message.Message, error) {
	for _, m := range r.messages {
		if m.ThreadID == threadID && m.PublicID == publicID {
			clone := *m
			return &clone, nil
		}
	}
	return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "message not found", nil, "test")
}

func (r *fakeMessageRepo) FindTrailing(ctx context.Context, threadID uint) (*message.Message, error) {
	var trailing *message.Message
	for _, m := range r.messages {
		if m.ThreadID != threadID {
			continue
		}
		if trailing == nil || m.CreatedAt.After(trailing.CreatedAt) {
			trailing = m
		}
	}
	if trailing == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread has no messages", nil, "test")
	}
	clone := *trailing
	return &clone, nil
}

func (r *fakeMessageRepo) MarkStreaming(_ context.Context, id uint) (bool, error) {
	for _, m := range r.messages {
		if m.ID == id && m.Status == message.StatusWaiting {
			m.Status = message.StatusStreaming
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMessageRepo) PatchTerminal(_ context.Context, id uint, patch message.TerminalPatch) (bool, error) {
	for _, m := range r.messages {
		if m.ID == id && !m.Status.IsTerminal() {
			m.Status = patch.Status
			m.Content = patch.Content
			m.Reasoning = patch.Reasoning
			m.Error = patch.Error
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMessageRepo) CancelStale(_ context.Context, olderThan time.Time) (int64, error) {
	var reaped int64
	for _, m := range r.messages {
		if !m.Status.IsTerminal() && m.CreatedAt.Before(olderThan) {
			errText := message.DefaultErrorText
			m.Status = message.StatusCancelled
			m.Error = &errText
			reaped++
		}
	}
	return reaped, nil
}

func (r *fakeMessageRepo) CopyPrefix(_ context.Context, srcThreadID, dstThreadID uint, cutoff time.Time) (int, error) {
	count := 0
	for _, m := range r.messages {
		if m.ThreadID == srcThreadID && !m.CreatedAt.After(cutoff) && m.Status == message.StatusCompleted {
			clone := *m
			clone.ID = r.nextID
			r.nextID++
			clone.ThreadID = dstThreadID
			clone.PublicID = clone.PublicID + "c"
			r.messages = append(r.messages, &clone)
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) FindCreatedAt(ctx context.Context, threadID uint, publicID string) (time.Time, error) {
	m, err := r.FindByPublicID(ctx, threadID, publicID)
	if err != nil {
		return time.Time{}, err
	}
	return m.CreatedAt, nil
}

// fakeThreadRepo provides the minimal thread persistence the message service
// reaches through the thread service.
type fakeThreadRepo struct {
	threads map[uint]*thread.Thread
}

func (r *fakeThreadRepo) Create(_ context.Context, t *thread.Thread) error { return nil }
func (r *fakeThreadRepo) FindByPublicID(_ context.Context, _ string) (*thread.Thread, error) {
	return nil, nil
}
func (r *fakeThreadRepo) FindByShareToken(_ context.Context, _ string) (*thread.Thread, error) {
	return nil, nil
}
func (r *fakeThreadRepo) ListByUserID(_ context.Context, _ string) ([]*thread.Thread, error) {
	return nil, nil
}
func (r *fakeThreadRepo) Update(_ context.Context, _ *thread.Thread) error { return nil }
func (r *fakeThreadRepo) TouchLastMessage(_ context.Context, id uint, at time.Time) error {
	if t, ok := r.threads[id]; ok {
		t.LastMessageAt = at
	}
	return nil
}
func (r *fakeThreadRepo) Delete(_ context.Context, _ uint) error           { return nil }
func (r *fakeThreadRepo) DetachChildren(_ context.Context, _ string) error { return nil }

func newService() (*message.MessageService, *fakeMessageRepo, *thread.Thread) {
	repo := newFakeMessageRepo()
	t := &thread.Thread{ID: 1, PublicID: "thr_abcdefgh12345678", UserID: "user_1", Title: "test"}
	threadRepo := &fakeThreadRepo{threads: map[uint]*thread.Thread{1: t}}
	threads := thread.NewThreadService(threadRepo, repo)
	return message.NewMessageService(repo, threads), repo, t
}

func snapshot() message.ModelSnapshot {
	return message.ModelSnapshot{Name: "gemini-2.0-flash-lite", Temperature: 0.7}
}

func TestCreatePair_AppendsUserAndWaitingAssistant(t *testing.T) {
	svc, _, th := newService()

	userMsg, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{
		Content: "What is entropy?",
		Model:   snapshot(),
	})
	require.NoError(t, err)

	assert.Equal(t, message.RoleUser, userMsg.Role)
	assert.Equal(t, message.StatusCompleted, userMsg.Status)
	assert.Equal(t, "What is entropy?", userMsg.Content)
	assert.Nil(t, userMsg.Model)

	assert.Equal(t, message.RoleAssistant, assistantMsg.Role)
	assert.Equal(t, message.StatusWaiting, assistantMsg.Status)
	assert.Empty(t, assistantMsg.Content)
	require.NotNil(t, assistantMsg.Model)
	assert.Equal(t, "gemini-2.0-flash-lite", assistantMsg.Model.Name)

	assert.True(t, assistantMsg.CreatedAt.After(userMsg.CreatedAt), "assistant must sort after user")
	assert.Equal(t, th.LastMessageAt, assistantMsg.CreatedAt)
}

func TestCreatePair_RejectsWhileGenerationPending(t *testing.T) {
	svc, _, th := newService()

	_, _, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "first", Model: snapshot()})
	require.NoError(t, err)

	_, _, err = svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "second", Model: snapshot()})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
}

func TestCreatePair_AllowedAfterTerminalAssistant(t *testing.T) {
	svc, _, th := newService()

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "first", Model: snapshot()})
	require.NoError(t, err)

	applied, err := svc.Finalize(context.Background(), assistantMsg, message.TerminalPatch{
		Status:  message.StatusCompleted,
		Content: "answer",
	})
	require.NoError(t, err)
	require.True(t, applied)

	_, _, err = svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "second", Model: snapshot()})
	assert.NoError(t, err)
}

func TestCreatePair_RejectsEmptyContent(t *testing.T) {
	svc, _, th := newService()

	_, _, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "   ", Model: snapshot()})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestGetPendingAssistant(t *testing.T) {
	svc, _, th := newService()

	// Empty thread has nothing pending.
	_, err := svc.GetPendingAssistant(context.Background(), th)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "hello", Model: snapshot()})
	require.NoError(t, err)

	pending, err := svc.GetPendingAssistant(context.Background(), th)
	require.NoError(t, err)
	assert.Equal(t, assistantMsg.PublicID, pending.PublicID)

	// Once terminal, the same lookup reports no pending generation.
	_, err = svc.Finalize(context.Background(), assistantMsg, message.TerminalPatch{Status: message.StatusCompleted, Content: "hi"})
	require.NoError(t, err)

	_, err = svc.GetPendingAssistant(context.Background(), th)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound))
}

func TestFinalize_FirstWriterWins(t *testing.T) {
	svc, repo, th := newService()

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "hello", Model: snapshot()})
	require.NoError(t, err)

	applied, err := svc.Finalize(context.Background(), assistantMsg, message.TerminalPatch{
		Status:  message.StatusCompleted,
		Content: "full answer",
	})
	require.NoError(t, err)
	assert.True(t, applied)

	errText := message.DisconnectedText
	applied, err = svc.Finalize(context.Background(), assistantMsg, message.TerminalPatch{
		Status: message.StatusDisconnected,
		Error:  &errText,
	})
	require.NoError(t, err)
	assert.False(t, applied, "second terminal write must be a no-op")

	stored, err := repo.FindByPublicID(context.Background(), th.ID, assistantMsg.PublicID)
	require.NoError(t, err)
	assert.Equal(t, message.StatusCompleted, stored.Status)
	assert.Equal(t, "full answer", stored.Content)
	assert.Nil(t, stored.Error)
}

func TestFinalize_RejectsNonTerminalStatus(t *testing.T) {
	svc, _, th := newService()

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "hello", Model: snapshot()})
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), assistantMsg, message.TerminalPatch{Status: message.StatusStreaming})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestFindMessage_RejectsMalformedID(t *testing.T) {
	svc, _, th := newService()

	for _, id := range []string{"", "msg_", "thr_abcdefgh12345678", "msg_UPPERCASE1234567", "not-an-id"} {
		_, err := svc.FindMessage(context.Background(), th, id)
		assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation), "id %q", id)
	}
}

func TestMarkStreaming(t *testing.T) {
	svc, _, th := newService()

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "hello", Model: snapshot()})
	require.NoError(t, err)

	applied, err := svc.MarkStreaming(context.Background(), assistantMsg)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, message.StatusStreaming, assistantMsg.Status)

	// A second transition attempt loses the CAS.
	again := *assistantMsg
	applied, err = svc.MarkStreaming(context.Background(), &again)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestCancelStale(t *testing.T) {
	svc, repo, th := newService()

	_, assistantMsg, err := svc.CreatePair(context.Background(), th, message.CreatePairInput{Content: "hello", Model: snapshot()})
	require.NoError(t, err)

	// Age the pending assistant past the threshold.
	for _, m := range repo.messages {
		m.CreatedAt = m.CreatedAt.Add(-time.Hour)
	}

	reaped, err := svc.CancelStale(context.Background(), 10*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reaped)

	stored, err := repo.FindByPublicID(context.Background(), th.ID, assistantMsg.PublicID)
	require.NoError(t, err)
	assert.Equal(t, message.StatusCancelled, stored.Status)
}
