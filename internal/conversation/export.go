package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tangent-backend/internal/models"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ExportJSON serializes the entire chat, all branches included. The output
// round-trips through ImportChat.
func ExportJSON(chat *models.Chat) ([]byte, error) {
	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat %s: %w", chat.ID, err)
	}
	return data, nil
}

// ExportMarkdown renders the root->tip transcript of the selected branch
// (the active branch when branchID is empty) with a deterministic heading
// and metadata block.
func ExportMarkdown(chat *models.Chat, branchID string) (string, error) {
	branch, err := resolveBranch(chat, branchID)
	if err != nil {
		return "", err
	}
	messages := MessagePath(chat, branch.TipMessageID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", chat.Title)
	fmt.Fprintf(&sb, "- Chat: %s\n", chat.ID)
	if chat.TemplateID != "" {
		fmt.Fprintf(&sb, "- Template: %s\n", chat.TemplateID)
	}
	fmt.Fprintf(&sb, "- Branch: %s (%s)\n", branch.Name, branch.ID)
	fmt.Fprintf(&sb, "- Created: %s\n", chat.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Updated: %s\n", chat.UpdatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&sb, "- Messages: %d\n", len(messages))

	for _, msg := range messages {
		fmt.Fprintf(&sb, "\n### %s (%s)\n\n%s\n",
			roleLabel(msg.Role), msg.Timestamp.UTC().Format(time.RFC3339), msg.Content)
	}
	return sb.String(), nil
}

// ImportChat parses an ExportJSON document back into a chat and verifies the
// structural invariants before handing it to callers.
func ImportChat(data []byte) (*models.Chat, error) {
	var chat models.Chat
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse chat document: %w", err)
	}
	if chat.Messages == nil {
		chat.Messages = make(map[string]*models.Message)
	}
	if err := Validate(&chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// Validate checks the chat invariants: every parent link resolves, every
// branch tip and fork point resolves with the fork point on the tip's
// ancestor chain, and exactly one branch is active and matches
// ActiveBranchID.
func Validate(chat *models.Chat) error {
	if chat.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidChat)
	}
	// The id becomes a directory name under the data directory.
	if chat.ID == "." || chat.ID == ".." || strings.ContainsAny(chat.ID, `/\`) {
		return fmt.Errorf("%w: id %q is not a valid path element", ErrInvalidChat, chat.ID)
	}

	for id, msg := range chat.Messages {
		if msg.ID != id {
			return fmt.Errorf("%w: message keyed %s carries id %s", ErrInvalidChat, id, msg.ID)
		}
		if msg.ParentID != "" {
			if _, ok := chat.Messages[msg.ParentID]; !ok {
				return fmt.Errorf("%w: message %s references missing parent %s", ErrInvalidChat, id, msg.ParentID)
			}
		}
	}
	if err := checkAcyclic(chat); err != nil {
		return err
	}

	active := 0
	seen := make(map[string]bool)
	for _, b := range chat.Branches {
		if seen[b.ID] {
			return fmt.Errorf("%w: duplicate branch id %s", ErrInvalidChat, b.ID)
		}
		seen[b.ID] = true

		if b.TipMessageID != "" {
			if _, ok := chat.Messages[b.TipMessageID]; !ok {
				return fmt.Errorf("%w: branch %s tip %s not found", ErrInvalidChat, b.ID, b.TipMessageID)
			}
		}
		if b.ForkPointMessageID != "" {
			if _, ok := chat.Messages[b.ForkPointMessageID]; !ok {
				return fmt.Errorf("%w: branch %s fork point %s not found", ErrInvalidChat, b.ID, b.ForkPointMessageID)
			}
			if b.TipMessageID != "" && !pathContains(chat, b.TipMessageID, b.ForkPointMessageID) {
				return fmt.Errorf("%w: branch %s fork point %s not on tip ancestry", ErrInvalidChat, b.ID, b.ForkPointMessageID)
			}
		}
		if b.IsActive {
			active++
			if chat.ActiveBranchID != b.ID {
				return fmt.Errorf("%w: active branch %s does not match activeBranchId %s", ErrInvalidChat, b.ID, chat.ActiveBranchID)
			}
		}
	}
	if active != 1 {
		return fmt.Errorf("%w: expected exactly one active branch, found %d", ErrInvalidChat, active)
	}
	return nil
}

// checkAcyclic rejects documents whose parent links form a cycle. MessagePath
// tolerates cycles at read time, but a cyclic document would silently drop
// those messages from every transcript, so it must never be accepted.
func checkAcyclic(chat *models.Chat) error {
	cleared := make(map[string]bool, len(chat.Messages))
	for id := range chat.Messages {
		if cleared[id] {
			continue
		}
		walk := make(map[string]bool)
		for cur := id; cur != ""; {
			if walk[cur] {
				return fmt.Errorf("%w: message %s is part of a parent cycle", ErrInvalidChat, cur)
			}
			if cleared[cur] {
				break
			}
			walk[cur] = true
			msg, ok := chat.Messages[cur]
			if !ok {
				break
			}
			cur = msg.ParentID
		}
		for w := range walk {
			cleared[w] = true
		}
	}
	return nil
}

func pathContains(chat *models.Chat, fromID, targetID string) bool {
	for _, msg := range MessagePath(chat, fromID) {
		if msg.ID == targetID {
			return true
		}
	}
	return false
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "User"
	case models.RoleAssistant:
		return "Assistant"
	default:
		return string(role)
	}
}
