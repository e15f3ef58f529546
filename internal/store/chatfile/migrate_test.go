package chatfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/models"
)

// writeLegacyChat drops a schema v1 flat file (linear message array) into
// the store's chats directory.
func writeLegacyChat(t *testing.T, dir, id string) {
	t.Helper()
	doc := map[string]any{
		"id":        id,
		"title":     "Legacy conversation",
		"createdAt": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		"updatedAt": time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
		"messages": []map[string]any{
			{"role": "user", "content": "first", "timestamp": time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
			{"role": "assistant", "content": "second", "timestamp": time.Date(2024, 3, 1, 10, 1, 0, 0, time.UTC)},
			{"role": "user", "content": "third", "timestamp": time.Date(2024, 3, 1, 10, 2, 0, 0, time.UTC)},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chats", id+".json"), data, 0o644))
}

func TestLegacyFlatFileMigratesToFolderAndSchemaV2(t *testing.T) {
	s, dir := newTestStore(t)
	writeLegacyChat(t, dir, "legacy-1")

	chat, err := s.GetChat(context.Background(), "legacy-1")
	require.NoError(t, err)

	assert.Equal(t, models.CurrentSchemaVersion, chat.SchemaVersion)
	assert.Equal(t, "Legacy conversation", chat.Title)
	require.Len(t, chat.Messages, 3)
	require.Len(t, chat.Branches, 1)
	assert.Equal(t, models.MainBranchID, chat.Branches[0].ID)
	assert.True(t, chat.Branches[0].IsActive)
	assert.Equal(t, models.MainBranchID, chat.ActiveBranchID)

	// The array order is rebuilt as a strictly linear chain ending at the
	// branch tip.
	path := conversation.MessagePath(chat, chat.Branches[0].TipMessageID)
	require.Len(t, path, 3)
	assert.Equal(t, "first", path[0].Content)
	assert.Equal(t, "second", path[1].Content)
	assert.Equal(t, "third", path[2].Content)
	assert.Equal(t, "", path[0].ParentID)

	require.NoError(t, conversation.Validate(chat))

	// Folder layout written, flat file removed only afterwards.
	_, err = os.Stat(filepath.Join(dir, "chats", "legacy-1", "chat.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "chats", "legacy-1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestMigrationFiresOnlyOnce(t *testing.T) {
	s, dir := newTestStore(t)
	writeLegacyChat(t, dir, "legacy-2")

	first, err := s.GetChat(context.Background(), "legacy-2")
	require.NoError(t, err)
	second, err := s.GetChat(context.Background(), "legacy-2")
	require.NoError(t, err)

	// Idempotent: the second read sees the already-migrated document with
	// the same generated ids.
	assert.Equal(t, first.SchemaVersion, second.SchemaVersion)
	require.Len(t, second.Messages, len(first.Messages))
	for id := range first.Messages {
		_, ok := second.Messages[id]
		assert.True(t, ok, "message ids are stable after migration")
	}
	assert.Equal(t, first.Branches[0].TipMessageID, second.Branches[0].TipMessageID)
}

func TestSchemaV1FolderDocumentMigratesInPlace(t *testing.T) {
	s, dir := newTestStore(t)

	// A folder-layout document can still carry the old schema.
	doc := map[string]any{
		"id":            "folder-v1",
		"schemaVersion": 1,
		"title":         "Old schema",
		"createdAt":     time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		"updatedAt":     time.Date(2024, 5, 1, 9, 1, 0, 0, time.UTC),
		"messages": []map[string]any{
			{"role": "user", "content": "hello", "timestamp": time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	chatDir := filepath.Join(dir, "chats", "folder-v1")
	require.NoError(t, os.MkdirAll(chatDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chatDir, "chat.json"), data, 0o644))

	chat, err := s.GetChat(context.Background(), "folder-v1")
	require.NoError(t, err)
	assert.Equal(t, models.CurrentSchemaVersion, chat.SchemaVersion)
	require.Len(t, chat.Messages, 1)

	// The rewrite happened on disk, so the raw document now carries the
	// current schema version.
	raw, err := os.ReadFile(filepath.Join(chatDir, "chat.json"))
	require.NoError(t, err)
	var onDisk struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	assert.Equal(t, models.CurrentSchemaVersion, onDisk.SchemaVersion)
}

func TestCurrentSchemaDocumentUnchangedByLoad(t *testing.T) {
	s, _ := newTestStore(t)
	chat := seedChat(t, s)

	before, err := os.ReadFile(filepath.Join(s.chatDir(chat.ID), chatFileName))
	require.NoError(t, err)

	_, err = s.GetChat(context.Background(), chat.ID)
	require.NoError(t, err)

	after, err := os.ReadFile(filepath.Join(s.chatDir(chat.ID), chatFileName))
	require.NoError(t, err)
	assert.Equal(t, before, after, "migrating an up-to-date chat is a no-op")
}

func TestListChatsMigratesLegacyEntries(t *testing.T) {
	s, dir := newTestStore(t)
	writeLegacyChat(t, dir, "legacy-3")
	seedChat(t, s)

	summaries, err := s.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// The legacy flat file was replaced by a folder during the scan.
	_, err = os.Stat(filepath.Join(dir, "chats", "legacy-3", "chat.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "chats", "legacy-3.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCorruptDocumentPropagatesError(t *testing.T) {
	s, dir := newTestStore(t)
	chatDir := filepath.Join(dir, "chats", "broken")
	require.NoError(t, os.MkdirAll(chatDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(chatDir, "chat.json"), []byte("{oops"), 0o644))

	_, err := s.GetChat(context.Background(), "broken")
	assert.Error(t, err)
}
