package conversation

import (
	"fmt"
	"strings"

	"tangent-backend/internal/models"
)

// History returns a bounded role-prefixed transcript of the branch's
// root->tip path, for prompt construction. maxMessages <= 0 means unbounded;
// otherwise the most recent maxMessages entries are kept.
func History(chat *models.Chat, branchID string, maxMessages int) (string, error) {
	messages, err := BranchMessages(chat, branchID)
	if err != nil {
		return "", err
	}
	if maxMessages > 0 && len(messages) > maxMessages {
		messages = messages[len(messages)-maxMessages:]
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", roleLabel(msg.Role), msg.Content))
	}
	return strings.Join(lines, "\n"), nil
}

// TurnNumber derives the current turn of a branch: the count of user-role
// messages on its root->tip path. A turn is one user message plus its reply,
// so the number is branch-scoped and never stored on the message itself.
func TurnNumber(chat *models.Chat, branchID string) (int, error) {
	messages, err := BranchMessages(chat, branchID)
	if err != nil {
		return 0, err
	}
	turns := 0
	for _, msg := range messages {
		if msg.Role == models.RoleUser {
			turns++
		}
	}
	return turns, nil
}
