package models

import "encoding/json"

// --- Request Structs ---

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateChatRequest defines the body for creating a new chat.
type CreateChatRequest struct {
	TemplateID       string `json:"templateId"`
	Title            string `json:"title,omitempty"`
	ProviderOverride string `json:"providerOverride,omitempty"`
}

// UpdateChatRequest defines the body for updating chat metadata.
// Pointers distinguish "leave unchanged" from "set to empty".
type UpdateChatRequest struct {
	Title            *string `json:"title,omitempty"`
	ProviderOverride *string `json:"providerOverride,omitempty"`
}

// AddMessageRequest defines the body for appending a message to a chat.
// ParentID and BranchID are optional; when absent the message attaches to
// the active branch's current tip.
type AddMessageRequest struct {
	Role     Role             `json:"role"`
	Content  string           `json:"content"`
	ParentID string           `json:"parentId,omitempty"`
	BranchID string           `json:"branchId,omitempty"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
	Debug    *TurnDebug       `json:"debug,omitempty"`
}

// TurnDebug carries the per-turn debug artifacts written alongside a chat.
// Each field maps to one file under turns/<NNNN>/.
type TurnDebug struct {
	Request  json.RawMessage `json:"request,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Memory   json.RawMessage `json:"memory,omitempty"`
}

// CreateBranchRequest defines the body for forking a new branch.
type CreateBranchRequest struct {
	ForkPointMessageID string `json:"forkPointMessageId,omitempty"`
	Name               string `json:"name,omitempty"`
}

// RenameBranchRequest defines the body for renaming a branch. Name is the
// only mutable branch field.
type RenameBranchRequest struct {
	Name string `json:"name"`
}

// GenerateReplyRequest asks the configured responder for an assistant reply
// on a branch.
type GenerateReplyRequest struct {
	BranchID    string `json:"branchId,omitempty"`
	MaxMessages int    `json:"maxMessages,omitempty"`
}

// --- Response Structs ---

// AuthResponse defines the response body for successful authentication.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AddMessageResponse returns the appended message and the branch it landed on.
type AddMessageResponse struct {
	Message  *Message `json:"message"`
	BranchID string   `json:"branchId"`
}

// HistoryResponse is the bounded role-prefixed transcript used for prompt
// construction.
type HistoryResponse struct {
	BranchID string `json:"branchId"`
	History  string `json:"history"`
}

// ExportResponse wraps a markdown export. JSON exports return the chat
// document itself.
type ExportResponse struct {
	Format   string `json:"format"`
	BranchID string `json:"branchId,omitempty"`
	Content  string `json:"content"`
}
