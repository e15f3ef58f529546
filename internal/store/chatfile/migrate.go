package chatfile

import (
	"encoding/json"
	"fmt"
	"time"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/models"
)

// legacyChat is the schema v1 document shape: messages as an ordered array
// forming one implicit linear branch.
type legacyChat struct {
	ID            string          `json:"id"`
	SchemaVersion int             `json:"schemaVersion"`
	TemplateID    string          `json:"templateId"`
	Title         string          `json:"title"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Messages      []legacyMessage `json:"messages"`
}

type legacyMessage struct {
	Role      models.Role `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// decodeChatDocument parses a chat document of either schema generation and
// reports whether an in-memory migration happened (in which case the caller
// must rewrite the file so the migration only fires once).
func decodeChatDocument(data []byte) (*models.Chat, bool, error) {
	var probe struct {
		SchemaVersion int             `json:"schemaVersion"`
		Messages      json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false, fmt.Errorf("failed to parse chat document: %w", err)
	}

	if probe.SchemaVersion >= models.CurrentSchemaVersion {
		var chat models.Chat
		if err := json.Unmarshal(data, &chat); err != nil {
			return nil, false, fmt.Errorf("failed to parse chat document: %w", err)
		}
		if chat.Messages == nil {
			chat.Messages = make(map[string]*models.Message)
		}
		return &chat, false, nil
	}

	var legacy legacyChat
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, false, fmt.Errorf("failed to parse legacy chat document: %w", err)
	}
	return migrateV1(legacy), true, nil
}

// migrateV1 rebuilds a v1 linear message array as a strictly linear tree:
// each message gets a fresh id, its parent is the previous message's new id,
// and a single main branch points its tip at the last message.
func migrateV1(legacy legacyChat) *models.Chat {
	chat := &models.Chat{
		ID:            legacy.ID,
		SchemaVersion: models.CurrentSchemaVersion,
		TemplateID:    legacy.TemplateID,
		Title:         legacy.Title,
		CreatedAt:     legacy.CreatedAt,
		UpdatedAt:     legacy.UpdatedAt,
		Messages:      make(map[string]*models.Message, len(legacy.Messages)),
	}
	if chat.Title == "" {
		chat.Title = models.DefaultChatTitle
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = chat.CreatedAt
	}

	parentID := ""
	for _, m := range legacy.Messages {
		msg := &models.Message{
			ID:        conversation.NewMessageID(),
			ParentID:  parentID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		}
		chat.Messages[msg.ID] = msg
		parentID = msg.ID
	}

	main := conversation.NewMainBranch(chat.CreatedAt)
	main.TipMessageID = parentID
	chat.Branches = []*models.Branch{main}
	chat.ActiveBranchID = main.ID
	return chat
}
