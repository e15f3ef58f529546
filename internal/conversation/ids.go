package conversation

import "github.com/google/uuid"

// NewChatID generates a fresh chat id.
func NewChatID() string {
	return uuid.NewString()
}

// NewMessageID generates a fresh message id.
func NewMessageID() string {
	return "msg-" + uuid.NewString()
}

// NewBranchID generates a fresh branch id. The reserved main branch keeps
// the fixed id models.MainBranchID instead.
func NewBranchID() string {
	return "branch-" + uuid.NewString()
}
