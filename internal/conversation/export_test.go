package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-backend/internal/models"
)

func TestExportJSONRoundTrip(t *testing.T) {
	chat := newTestChat(t)
	m1 := addMessage(t, chat, models.RoleUser, "one", AddOptions{})
	addMessage(t, chat, models.RoleAssistant, "two", AddOptions{})
	branch, err := CreateBranch(chat, CreateBranchOptions{ForkPointMessageID: m1.ID, Name: "alt"})
	require.NoError(t, err)
	addMessage(t, chat, models.RoleUser, "three", AddOptions{BranchID: branch.ID})

	data, err := ExportJSON(chat)
	require.NoError(t, err)

	restored, err := ImportChat(data)
	require.NoError(t, err)

	assert.Equal(t, chat.ID, restored.ID)
	assert.Equal(t, chat.Title, restored.Title)
	assert.Equal(t, chat.ActiveBranchID, restored.ActiveBranchID)
	require.Len(t, restored.Branches, len(chat.Branches))
	for i, b := range chat.Branches {
		assert.Equal(t, *b, *restored.Branches[i])
	}
	require.Len(t, restored.Messages, len(chat.Messages))
	for id, msg := range chat.Messages {
		restoredMsg, ok := restored.Messages[id]
		require.True(t, ok, "message %s survives the round trip", id)
		assert.Equal(t, msg.ParentID, restoredMsg.ParentID)
		assert.Equal(t, msg.Role, restoredMsg.Role)
		assert.Equal(t, msg.Content, restoredMsg.Content)
		assert.True(t, msg.Timestamp.Equal(restoredMsg.Timestamp))
	}
}

func TestImportChatRejectsBrokenParentLinks(t *testing.T) {
	chat := newTestChat(t)
	m1 := addMessage(t, chat, models.RoleUser, "one", AddOptions{})
	addMessage(t, chat, models.RoleAssistant, "two", AddOptions{})
	data, err := ExportJSON(chat)
	require.NoError(t, err)

	// Corrupt the export by removing the root message.
	broken := []byte(removeMessage(t, string(data), m1.ID))
	_, err = ImportChat(broken)
	assert.ErrorIs(t, err, ErrInvalidChat)
}

func TestImportChatRejectsNoActiveBranch(t *testing.T) {
	chat := newTestChat(t)
	chat.Branches[0].IsActive = false
	data, err := ExportJSON(chat)
	require.NoError(t, err)

	_, err = ImportChat(data)
	assert.ErrorIs(t, err, ErrInvalidChat)
}

func TestImportChatRejectsGarbage(t *testing.T) {
	_, err := ImportChat([]byte("{not json"))
	assert.Error(t, err)
}

func TestImportChatRejectsPathTraversalID(t *testing.T) {
	for _, id := range []string{"../../outside/evil", "a/b", `a\b`, ".", ".."} {
		chat := newTestChat(t)
		chat.ID = id
		data, err := ExportJSON(chat)
		require.NoError(t, err)

		_, err = ImportChat(data)
		assert.ErrorIs(t, err, ErrInvalidChat, "id %q must be rejected", id)
	}
}

func TestImportChatRejectsParentCycle(t *testing.T) {
	chat := newTestChat(t)
	m1 := addMessage(t, chat, models.RoleUser, "one", AddOptions{})
	m2 := addMessage(t, chat, models.RoleAssistant, "two", AddOptions{})
	chat.Messages[m1.ID].ParentID = m2.ID
	data, err := ExportJSON(chat)
	require.NoError(t, err)

	_, err = ImportChat(data)
	assert.ErrorIs(t, err, ErrInvalidChat)
}

func TestExportMarkdownLayout(t *testing.T) {
	chat := newTestChat(t)
	addMessage(t, chat, models.RoleUser, "What is a fork point?", AddOptions{})
	addMessage(t, chat, models.RoleAssistant, "The message a branch diverges from.", AddOptions{})

	out, err := ExportMarkdown(chat, models.MainBranchID)
	require.NoError(t, err)

	assert.Contains(t, out, "# What is a fork point?")
	assert.Contains(t, out, fmt.Sprintf("- Chat: %s", chat.ID))
	assert.Contains(t, out, "- Branch: Main (branch-main)")
	assert.Contains(t, out, "- Messages: 2")
	assert.Contains(t, out, "### User (")
	assert.Contains(t, out, "### Assistant (")
	assert.Contains(t, out, "What is a fork point?")
	assert.Contains(t, out, "The message a branch diverges from.")

	// User turn precedes the assistant turn in root->tip order.
	assert.Less(t, strings.Index(out, "### User"), strings.Index(out, "### Assistant"))
}

func TestExportMarkdownSelectsBranch(t *testing.T) {
	chat := newTestChat(t)
	m1 := addMessage(t, chat, models.RoleUser, "shared question", AddOptions{})
	addMessage(t, chat, models.RoleAssistant, "main answer", AddOptions{})
	branch, err := CreateBranch(chat, CreateBranchOptions{ForkPointMessageID: m1.ID, Name: "alt"})
	require.NoError(t, err)
	addMessage(t, chat, models.RoleUser, "branch-only question", AddOptions{BranchID: branch.ID})

	out, err := ExportMarkdown(chat, branch.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "shared question")
	assert.Contains(t, out, "branch-only question")
	assert.NotContains(t, out, "main answer")
}

func TestExportMarkdownUnknownBranch(t *testing.T) {
	chat := newTestChat(t)
	_, err := ExportMarkdown(chat, "branch-missing")
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

// removeMessage drops one message entry from an exported document by
// re-marshalling it without that id.
func removeMessage(t *testing.T, data, id string) string {
	t.Helper()
	chat, err := ImportChat([]byte(data))
	require.NoError(t, err)
	delete(chat.Messages, id)
	out, err := ExportJSON(chat)
	require.NoError(t, err)
	return string(out)
}
