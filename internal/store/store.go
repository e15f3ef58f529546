package store

import (
	"context"
	"errors"

	"tangent-backend/internal/models"
)

// ErrNotFound is returned when a chat does not exist in the store.
var ErrNotFound = errors.New("chat not found")

// ErrInvalidID is returned when a chat id is not a single clean path
// element. Ids become directory names under the data directory, so
// separators and dot segments must never reach the filesystem.
var ErrInvalidID = errors.New("invalid chat id")

// Store defines the persistence interface for chat documents and their
// per-turn debug artifacts. This allows for mocking in tests and potential
// backend switching.
//
// The concurrency contract mirrors the single-writer design: every mutation
// is a full read-modify-write of one chat document, there is no lock or
// version token, and concurrent writers to the same chat id race with the
// last writer winning. Individual document writes are atomic.
type Store interface {
	// SaveChat persists the whole chat document, creating it if needed.
	SaveChat(ctx context.Context, chat *models.Chat) error
	// GetChat loads a chat by id, running any pending layout or schema
	// migration before returning. Returns ErrNotFound if absent.
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	// ListChats returns summaries of every stored chat, most recently
	// updated first. Legacy flat-file chats are migrated as they are seen.
	ListChats(ctx context.Context) ([]models.ChatSummary, error)
	// DeleteChat removes the whole persisted unit, turn artifacts included.
	DeleteChat(ctx context.Context, id string) error
	// WriteTurnArtifact writes one debug artifact (request.json,
	// response.json or memory.json) under the chat's turns/<NNNN>/ folder,
	// independently of the chat document itself.
	WriteTurnArtifact(ctx context.Context, chatID string, turn int, name string, payload []byte) error
}
