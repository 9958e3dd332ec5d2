package message

import (
	"context"
	"strings"
	"time"

	"github.com/hanzlah101/t3-clone/internal/domain/thread"
	"github.com/hanzlah101/t3-clone/internal/utils/idgen"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const maxContentLength = 32_000

// MessageService handles business logic for messages within a thread.
type MessageService struct {
	repo    MessageRepository
	threads *thread.ThreadService
}

// NewMessageService creates a new message service.
func NewMessageService(repo MessageRepository, threads *thread.ThreadService) *MessageService {
	return &MessageService{
		repo:    repo,
		threads: threads,
	}
}

// ListMessages returns a thread's transcript in creation order.
func (s *MessageService) ListMessages(ctx context.Context, t *thread.Thread) ([]*Message, error) {
	messages, err := s.repo.ListByThreadID(ctx, t.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list messages")
	}
	return messages, nil
}

// CreatePairInput represents the input for creating a user/assistant pair.
type CreatePairInput struct {
	Content string
	Model   ModelSnapshot
}

// CreatePair atomically appends a completed user message and a waiting
// assistant placeholder. The pair is rejected while a previous generation is
// still pending, which keeps at most one generation in flight per thread.
func (s *MessageService) CreatePair(ctx context.Context, t *thread.Thread, input CreatePairInput) (*Message, *Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content cannot be empty", nil, "9c5e2d70-4f1a-4b83-a6d9-e72f05c18b46")
	}
	if len(content) > maxContentLength {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "message content too long", nil, "1e84a7f3-6b29-4d05-9c8e-f530b2d67a91")
	}

	trailing, err := s.repo.FindTrailing(ctx, t.ID)
	if err != nil && !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to inspect thread tail")
	}
	if trailing != nil && trailing.Role == RoleAssistant && !trailing.Status.IsTerminal() {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "a response is already being generated for this thread", nil, "48d06b9e-2c73-4fa1-85d4-a19e7f30c258")
	}

	userID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}
	assistantID, err := idgen.GenerateSecureID("msg", 16)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate message ID")
	}

	now := time.Now().UTC()
	snapshot := input.Model

	userMsg := &Message{
		PublicID:  userID,
		ThreadID:  t.ID,
		Role:      RoleUser,
		Content:   content,
		Status:    StatusCompleted,
		CreatedAt: now,
	}
	assistantMsg := &Message{
		PublicID:  assistantID,
		ThreadID:  t.ID,
		Role:      RoleAssistant,
		Status:    StatusWaiting,
		Model:     &snapshot,
		CreatedAt: now.Add(time.Millisecond),
	}

	if err := s.repo.CreatePair(ctx, userMsg, assistantMsg); err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create message pair")
	}

	if err := s.threads.TouchLastMessage(ctx, t, assistantMsg.CreatedAt); err != nil {
		return nil, nil, err
	}

	return userMsg, assistantMsg, nil
}

// GetPendingAssistant returns the thread's trailing message when it is an
// assistant still waiting for generation to start. Anything else means there
// is no pending generation to attach to.
func (s *MessageService) GetPendingAssistant(ctx context.Context, t *thread.Thread) (*Message, error) {
	trailing, err := s.repo.FindTrailing(ctx, t.ID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "no pending generation")
	}

	if trailing.Role != RoleAssistant || trailing.Status != StatusWaiting {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "no pending generation", nil, "6a0f4d28-9e57-4c31-b8a6-03d5f917e42c")
	}

	return trailing, nil
}

// MarkStreaming transitions the assistant message to streaming once the
// first delta arrives. Losing the race to a terminal write is not an error;
// the caller just stops streaming.
func (s *MessageService) MarkStreaming(ctx context.Context, m *Message) (bool, error) {
	applied, err := s.repo.MarkStreaming(ctx, m.ID)
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to mark message streaming")
	}
	if applied {
		m.Status = StatusStreaming
	}
	return applied, nil
}

// Finalize applies a terminal patch to the assistant message. The patch only
// lands if the message has not already reached a terminal status, so the
// first finalizer wins and later ones are no-ops.
func (s *MessageService) Finalize(ctx context.Context, m *Message, patch TerminalPatch) (bool, error) {
	if !patch.Status.IsTerminal() {
		return false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "finalize requires a terminal status", nil, "d27e913b-5a60-4f84-bc25-81f4a0c6e793")
	}

	applied, err := s.repo.PatchTerminal(ctx, m.ID, patch)
	if err != nil {
		return false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to finalize message")
	}
	if applied {
		m.Status = patch.Status
		m.Content = patch.Content
		m.Reasoning = patch.Reasoning
		m.Error = patch.Error
	}
	return applied, nil
}

// FindMessage resolves a public ID within an owned thread.
func (s *MessageService) FindMessage(ctx context.Context, t *thread.Thread, publicID string) (*Message, error) {
	if !idgen.ValidateIDFormat(publicID, "msg") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid message ID", nil, "f15c82a4-7d39-4e60-a1b8-29c647d0e5f3")
	}

	m, err := s.repo.FindByPublicID(ctx, t.ID, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "message not found")
	}
	return m, nil
}

// CancelStale finalizes generations stuck in a non-terminal state since
// before the threshold. Run periodically so crashed generations do not lock
// their threads forever.
func (s *MessageService) CancelStale(ctx context.Context, threshold time.Duration) (int64, error) {
	reaped, err := s.repo.CancelStale(ctx, time.Now().UTC().Add(-threshold))
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to cancel stale generations")
	}
	return reaped, nil
}
