package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tangent-backend/internal/models"
)

// newTestChat returns a freshly created chat: empty message map, one active
// main branch with no tip.
func newTestChat(t *testing.T) *models.Chat {
	t.Helper()
	now := time.Now().UTC()
	return &models.Chat{
		ID:             NewChatID(),
		SchemaVersion:  models.CurrentSchemaVersion,
		TemplateID:     "tpl1",
		Title:          models.DefaultChatTitle,
		CreatedAt:      now,
		UpdatedAt:      now,
		Messages:       make(map[string]*models.Message),
		Branches:       []*models.Branch{NewMainBranch(now)},
		ActiveBranchID: models.MainBranchID,
	}
}

// addMessage appends a message and fails the test on error.
func addMessage(t *testing.T, chat *models.Chat, role models.Role, content string, opts AddOptions) *models.Message {
	t.Helper()
	msg, err := AddMessage(chat, role, content, nil, opts)
	require.NoError(t, err)
	return msg
}

// requireInvariants asserts the structural invariants hold: parent links and
// branch pointers resolve and exactly one branch is active.
func requireInvariants(t *testing.T, chat *models.Chat) {
	t.Helper()
	require.NoError(t, Validate(chat))
}
