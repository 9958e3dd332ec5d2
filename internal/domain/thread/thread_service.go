package thread

import (
	"context"
	"strings"
	"time"

	"github.com/hanzlah101/t3-clone/internal/domain/model"
	"github.com/hanzlah101/t3-clone/internal/utils/idgen"
	"github.com/hanzlah101/t3-clone/internal/utils/platformerrors"
)

const maxTitleLength = 200

// ThreadService handles business logic for threads.
type ThreadService struct {
	repo     ThreadRepository
	messages MessageCopier
}

// NewThreadService creates a new thread service.
func NewThreadService(repo ThreadRepository, messages MessageCopier) *ThreadService {
	return &ThreadService{
		repo:     repo,
		messages: messages,
	}
}

// CreateThreadInput represents the input for creating a thread.
type CreateThreadInput struct {
	UserID  string
	Title   string
	ModelID string
}

// CreateThread creates a new empty thread for a user. An unknown model ID
// silently resolves to the default model.
func (s *ThreadService) CreateThread(ctx context.Context, input CreateThreadInput) (*Thread, error) {
	if input.UserID == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "user ID is required", nil, "3f8a1c62-9d4e-4b7a-8f20-5c1e9a6b3d47")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Chat"
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}

	publicID, err := idgen.GenerateSecureID("thr", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate thread ID")
	}

	now := time.Now().UTC()
	t := &Thread{
		PublicID:      publicID,
		UserID:        input.UserID,
		Title:         title,
		ModelID:       model.Get(input.ModelID).ID,
		LastMessageAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create thread")
	}

	return t, nil
}

// GetOwnedThread retrieves a thread by public ID and validates ownership.
// Threads owned by other users surface as not found to avoid leaking their
// existence.
func (s *ThreadService) GetOwnedThread(ctx context.Context, publicID, userID string) (*Thread, error) {
	if !idgen.ValidateIDFormat(publicID, "thr") {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid thread ID", nil, "72c4be09-1a3f-4d85-b6e7-0f92d8a45c13")
	}

	t, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "thread not found")
	}

	if t.UserID != userID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "thread not found", nil, "e91d5f7a-3b28-4c06-9a41-d75e2c80b634")
	}

	return t, nil
}

// GetSharedThread resolves an active share token to its thread.
func (s *ThreadService) GetSharedThread(ctx context.Context, token string) (*Thread, error) {
	if !ValidateShareToken(token) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "shared thread not found", nil, "a06b3d81-5e2c-47f9-8d14-c39a7e50f268")
	}

	t, err := s.repo.FindByShareToken(ctx, token)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "shared thread not found")
	}

	return t, nil
}

// ListThreads returns all of a user's threads, most recently active first.
func (s *ThreadService) ListThreads(ctx context.Context, userID string) ([]*Thread, error) {
	threads, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list threads")
	}
	return threads, nil
}

// UpdateThreadInput carries the mutable thread fields.
type UpdateThreadInput struct {
	Title   *string
	ModelID *string
}

// UpdateThread renames a thread or switches its model.
func (s *ThreadService) UpdateThread(ctx context.Context, userID, publicID string, input UpdateThreadInput) (*Thread, error) {
	t, err := s.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "title cannot be empty", nil, "5d17c8f2-94ab-4e60-b3d9-82f61a04e7c5")
		}
		if len(title) > maxTitleLength {
			title = title[:maxTitleLength]
		}
		t.Title = title
	}

	if input.ModelID != nil {
		if !model.IsValid(*input.ModelID) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "unknown model", nil, "b8e04a26-7c51-4f3d-a98e-16d20c5b9f84")
		}
		t.ModelID = *input.ModelID
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update thread")
	}

	return t, nil
}

// SetTitle replaces a thread's title without ownership checks. Used by the
// background title generator which already holds the thread.
func (s *ThreadService) SetTitle(ctx context.Context, t *Thread, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	t.Title = title

	if err := s.repo.Update(ctx, t); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to set thread title")
	}
	return nil
}

// DeleteThread removes a thread and its messages. Threads branched off the
// deleted one are detached, not deleted.
func (s *ThreadService) DeleteThread(ctx context.Context, userID, publicID string) error {
	t, err := s.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return err
	}

	if err := s.repo.DetachChildren(ctx, t.PublicID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to detach branched threads")
	}

	if err := s.repo.Delete(ctx, t.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete thread")
	}

	return nil
}

// TouchLastMessage bumps the thread's activity timestamp.
func (s *ThreadService) TouchLastMessage(ctx context.Context, t *Thread, at time.Time) error {
	if err := s.repo.TouchLastMessage(ctx, t.ID, at); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to touch thread")
	}
	t.LastMessageAt = at
	return nil
}

// BranchOff creates a new thread containing a copy of the source thread's
// messages up to and including the branch point message. The copy gets fresh
// message IDs but keeps original creation timestamps so the transcript reads
// identically in both threads.
func (s *ThreadService) BranchOff(ctx context.Context, userID, sourcePublicID, branchPointMessageID string) (*Thread, error) {
	source, err := s.GetOwnedThread(ctx, sourcePublicID, userID)
	if err != nil {
		return nil, err
	}

	cutoff, err := s.messages.FindCreatedAt(ctx, source.ID, branchPointMessageID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "branch point message not found")
	}

	publicID, err := idgen.GenerateSecureID("thr", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate thread ID")
	}

	branch := &Thread{
		PublicID:             publicID,
		UserID:               userID,
		Title:                source.Title,
		ModelID:              source.ModelID,
		LastMessageAt:        cutoff,
		BranchParentPublicID: &source.PublicID,
	}

	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create branch thread")
	}

	if _, err := s.messages.CopyPrefix(ctx, source.ID, branch.ID, cutoff); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to copy branch messages")
	}

	return branch, nil
}

// SetShare enables sharing on a thread, generating a token on first use.
// Calling it again only updates the access level; the token is stable so
// previously sent links keep working.
func (s *ThreadService) SetShare(ctx context.Context, userID, publicID string, access ShareAccess) (*Thread, error) {
	if access != ShareAccessReadOnly && access != ShareAccessEditable {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "invalid share access level", nil, "c31f9e75-2d48-4a06-b8c2-7e50d1a96f33")
	}

	t, err := s.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return nil, err
	}

	if !t.IsShared() {
		token, err := GenerateShareToken()
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate share token")
		}
		t.ShareToken = &token
	}
	t.ShareAccess = &access

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to share thread")
	}

	return t, nil
}

// ClearShare revokes a thread's share link.
func (s *ThreadService) ClearShare(ctx context.Context, userID, publicID string) (*Thread, error) {
	t, err := s.GetOwnedThread(ctx, publicID, userID)
	if err != nil {
		return nil, err
	}

	t.ShareToken = nil
	t.ShareAccess = nil

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to unshare thread")
	}

	return t, nil
}

// ForkFromShare copies a shared thread into the visitor's own account. The
// copy carries the full transcript but none of the share state, and records
// the source thread as its branch parent.
func (s *ThreadService) ForkFromShare(ctx context.Context, token, newUserID string) (*Thread, error) {
	source, err := s.GetSharedThread(ctx, token)
	if err != nil {
		return nil, err
	}

	publicID, err := idgen.GenerateSecureID("thr", 16)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to generate thread ID")
	}

	fork := &Thread{
		PublicID:             publicID,
		UserID:               newUserID,
		Title:                source.Title,
		ModelID:              source.ModelID,
		LastMessageAt:        source.LastMessageAt,
		BranchParentPublicID: &source.PublicID,
	}

	if err := s.repo.Create(ctx, fork); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create forked thread")
	}

	if _, err := s.messages.CopyPrefix(ctx, source.ID, fork.ID, source.LastMessageAt); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to copy forked messages")
	}

	return fork, nil
}
