package services

import (
	"context"
	"errors"

	"tangent-backend/internal/models"
)

// ErrNoResponder is returned when reply generation is requested but no
// AI-provider bridge has been configured.
var ErrNoResponder = errors.New("no responder configured")

// Prompt is the input handed to a responder: the bounded role-prefixed
// transcript of one branch plus routing hints.
type Prompt struct {
	ChatID           string
	BranchID         string
	History          string
	ProviderOverride string
}

// Reply is a responder's answer, with provenance for message metadata and
// optional per-turn debug artifacts.
type Reply struct {
	Content  string
	Provider string
	Model    string
	Debug    *models.TurnDebug
}

// Responder produces an assistant reply for a prompt. Implementations wrap
// external AI providers and live outside this server; none ships with it.
type Responder interface {
	Respond(ctx context.Context, prompt Prompt) (*Reply, error)
}
