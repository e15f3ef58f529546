package services

import (
	"context"

	"github.com/rs/zerolog"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/models"
	"tangent-backend/internal/store"
)

// Artifact file names written under turns/<NNNN>/.
const (
	artifactRequest  = "request.json"
	artifactResponse = "response.json"
	artifactMemory   = "memory.json"
)

// TurnLogger writes per-branch, per-turn debug artifacts next to the chat
// document. The turn number is derived at write time from the named branch
// (count of user-role messages on its root->tip path), never stored on the
// message, so the same message can sit at different turn numbers on
// diverging branches without ambiguity.
type TurnLogger struct {
	store store.Store
	log   zerolog.Logger
}

// NewTurnLogger creates a TurnLogger backed by the chat store.
func NewTurnLogger(s store.Store, log zerolog.Logger) *TurnLogger {
	return &TurnLogger{store: s, log: log.With().Str("component", "turn_logger").Logger()}
}

// Record writes the non-empty artifacts for the branch's current turn.
func (t *TurnLogger) Record(ctx context.Context, chat *models.Chat, branchID string, debug models.TurnDebug) error {
	turn, err := conversation.TurnNumber(chat, branchID)
	if err != nil {
		return err
	}

	artifacts := map[string][]byte{
		artifactRequest:  debug.Request,
		artifactResponse: debug.Response,
		artifactMemory:   debug.Memory,
	}
	for name, payload := range artifacts {
		if len(payload) == 0 {
			continue
		}
		if err := t.store.WriteTurnArtifact(ctx, chat.ID, turn, name, payload); err != nil {
			return err
		}
	}

	t.log.Debug().Str("chat_id", chat.ID).Str("branch_id", branchID).
		Int("turn", turn).Msg("turn artifacts recorded")
	return nil
}
