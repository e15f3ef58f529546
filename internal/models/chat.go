package models

import (
	"encoding/json"
	"time"
)

const (
	// CurrentSchemaVersion is the structural generation of a persisted chat
	// document. Version 1 stored messages as an ordered array; version 2
	// stores an id-keyed map with parent links plus explicit branches.
	CurrentSchemaVersion = 2

	// MainBranchID is the reserved branch every chat is created with.
	// It can never be deleted.
	MainBranchID = "branch-main"

	// MainBranchName is the display name of the reserved main branch.
	MainBranchName = "Main"

	// DefaultChatTitle is the placeholder title a chat starts with. It is
	// replaced by a title derived from the first user message.
	DefaultChatTitle = "New Chat"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one the engine accepts.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Chat is the durable per-conversation document: the full message forest,
// the branch pointers into it, and conversation metadata. It is persisted
// verbatim as data/chats/<id>/chat.json.
type Chat struct {
	ID               string              `json:"id"`
	SchemaVersion    int                 `json:"schemaVersion"`
	TemplateID       string              `json:"templateId,omitempty"`
	Title            string              `json:"title"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
	ProviderOverride string              `json:"providerOverride,omitempty"`
	Messages         map[string]*Message `json:"messages"`
	Branches         []*Branch           `json:"branches"`
	ActiveBranchID   string              `json:"activeBranchId"`
}

// Message is a single node of the conversation forest. A message with an
// empty ParentID is a root.
type Message struct {
	ID        string           `json:"id"`
	ParentID  string           `json:"parentId,omitempty"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// MessageMetadata carries optional provenance for assistant messages.
type MessageMetadata struct {
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
	DurationMs int64           `json:"durationMs,omitempty"`
	Debug      json.RawMessage `json:"debug,omitempty"`
}

// Branch is a named pointer into the message forest: the tip it currently
// ends at and the fork point it diverged from. A branch's conversation is
// the root->tip path, so ancestors are shared between branches.
type Branch struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreatedAt          time.Time `json:"createdAt"`
	ForkPointMessageID string    `json:"forkPointMessageId,omitempty"`
	TipMessageID       string    `json:"tipMessageId,omitempty"`
	IsActive           bool      `json:"isActive"`
}

// BranchInfo is a branch annotated with the length of its root->tip path,
// as returned by branch listings.
type BranchInfo struct {
	Branch
	MessageCount int `json:"messageCount"`
}

// TreeNode is one node of the nested tree view used for visualization.
// The view covers the whole message forest independent of branch pointers.
type TreeNode struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parentId,omitempty"`
	Role      Role        `json:"role"`
	Preview   string      `json:"preview"`
	Timestamp time.Time   `json:"timestamp"`
	Children  []*TreeNode `json:"children"`
}

// ChatSummary is the listing projection of a chat, without its messages.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	TemplateID   string    `json:"templateId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
	BranchCount  int       `json:"branchCount"`
}
