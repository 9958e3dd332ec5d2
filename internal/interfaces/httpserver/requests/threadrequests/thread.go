package threadrequests

// CreateThreadRequest creates a new thread, optionally seeding it with a
// first user message so generation can start immediately.
type CreateThreadRequest struct {
	Title   string `json:"title,omitempty" binding:"omitempty,max=200"`
	ModelID string `json:"model_id,omitempty" binding:"omitempty,modelid"`
	Content string `json:"content,omitempty" binding:"omitempty,max=32000"`
	Search  bool   `json:"search,omitempty"`
}

// UpdateThreadRequest renames a thread or switches its model.
type UpdateThreadRequest struct {
	Title   *string `json:"title,omitempty" binding:"omitempty,max=200"`
	ModelID *string `json:"model_id,omitempty" binding:"omitempty,modelid"`
}

// BranchThreadRequest branches a thread at an existing message.
type BranchThreadRequest struct {
	MessageID string `json:"message_id" binding:"required,startswith=msg_"`
}

// SendMessageRequest appends a user/assistant message pair. ShareToken
// enables fork-on-write: a non-owner posting to a shared thread gets a
// private fork carrying the message instead of an error.
type SendMessageRequest struct {
	Content    string `json:"content" binding:"required,max=32000"`
	ModelID    string `json:"model_id,omitempty" binding:"omitempty,modelid"`
	Search     bool   `json:"search,omitempty"`
	ShareToken string `json:"share_token,omitempty"`
}
