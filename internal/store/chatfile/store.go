// Package chatfile persists chats as JSON documents on local disk, one
// folder per chat: <dataDir>/chats/<id>/chat.json plus a turns/ directory of
// per-turn debug artifacts. It also owns the two lazy migrations off legacy
// layouts: flat <id>.json files into folders, and schema v1 (linear message
// array) into the current tree+branches document.
package chatfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"tangent-backend/internal/models"
	"tangent-backend/internal/store"
)

const (
	chatsDirName  = "chats"
	chatFileName  = "chat.json"
	turnsDirName  = "turns"
	jsonExtension = ".json"
)

// Store is the file-backed chat store. One serving process per data
// directory is assumed; writes to distinct chats never contend and writes to
// the same chat are last-writer-wins by design.
type Store struct {
	root string
	log  zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// New creates the store rooted at <dataDir>/chats, creating the directory
// if needed.
func New(dataDir string, log zerolog.Logger) (*Store, error) {
	root := filepath.Join(dataDir, chatsDirName)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chats directory %s: %w", root, err)
	}
	return &Store{root: root, log: log.With().Str("component", "chatfile").Logger()}, nil
}

// SaveChat writes the whole document atomically (temp file + rename in the
// chat's directory).
func (s *Store) SaveChat(ctx context.Context, chat *models.Chat) error {
	if err := checkChatID(chat.ID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(chat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal chat %s: %w", chat.ID, err)
	}
	dir := s.chatDir(chat.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create chat directory %s: %w", dir, err)
	}
	return writeAtomic(filepath.Join(dir, chatFileName), data)
}

// GetChat loads a chat, migrating the legacy flat-file layout and the v1
// schema on first access.
func (s *Store) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	if err := checkChatID(id); err != nil {
		return nil, err
	}
	path := filepath.Join(s.chatDir(id), chatFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.loadLegacy(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat %s: %w", id, err)
	}

	chat, migrated, err := decodeChatDocument(data)
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", id, err)
	}
	if migrated {
		s.log.Info().Str("chat_id", chat.ID).Msg("migrated chat document to current schema")
		if err := s.SaveChat(ctx, chat); err != nil {
			return nil, err
		}
	}
	return chat, nil
}

// ListChats returns summaries sorted by UpdatedAt descending, title
// ascending on ties. Legacy flat files encountered during the scan are
// migrated into folders as a side effect.
func (s *Store) ListChats(ctx context.Context) ([]models.ChatSummary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read chats directory: %w", err)
	}

	var summaries []models.ChatSummary
	for _, entry := range entries {
		id := entry.Name()
		if !entry.IsDir() {
			if !strings.HasSuffix(id, jsonExtension) {
				continue
			}
			id = strings.TrimSuffix(id, jsonExtension)
		}
		chat, err := s.GetChat(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("chat_id", id).Msg("skipping unreadable chat")
			continue
		}
		summaries = append(summaries, models.ChatSummary{
			ID:           chat.ID,
			Title:        chat.Title,
			TemplateID:   chat.TemplateID,
			CreatedAt:    chat.CreatedAt,
			UpdatedAt:    chat.UpdatedAt,
			MessageCount: len(chat.Messages),
			BranchCount:  len(chat.Branches),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].Title < summaries[j].Title
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// DeleteChat removes the chat folder (turn artifacts included) and any
// legacy flat file.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	if err := checkChatID(id); err != nil {
		return err
	}
	dir := s.chatDir(id)
	legacy := s.legacyPath(id)

	_, dirErr := os.Stat(dir)
	_, legacyErr := os.Stat(legacy)
	if errors.Is(dirErr, fs.ErrNotExist) && errors.Is(legacyErr, fs.ErrNotExist) {
		return fmt.Errorf("chat %s: %w", id, store.ErrNotFound)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to delete chat %s: %w", id, err)
	}
	if err := os.Remove(legacy); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete legacy chat file %s: %w", id, err)
	}
	return nil
}

// WriteTurnArtifact writes one artifact under turns/<NNNN>/, zero-padding
// the turn number to four digits.
func (s *Store) WriteTurnArtifact(ctx context.Context, chatID string, turn int, name string, payload []byte) error {
	if err := checkChatID(chatID); err != nil {
		return err
	}
	dir := filepath.Join(s.chatDir(chatID), turnsDirName, fmt.Sprintf("%04d", turn))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create turn directory %s: %w", dir, err)
	}
	return writeAtomic(filepath.Join(dir, name), payload)
}

// loadLegacy reads a flat <id>.json document and migrates it to the folder
// layout: the folder document is written first, the flat file removed only
// afterwards, so a crash in between leaves at worst both artifacts.
func (s *Store) loadLegacy(ctx context.Context, id string) (*models.Chat, error) {
	legacy := s.legacyPath(id)
	data, err := os.ReadFile(legacy)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("chat %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy chat %s: %w", id, err)
	}

	chat, _, err := decodeChatDocument(data)
	if err != nil {
		return nil, fmt.Errorf("legacy chat %s: %w", id, err)
	}
	if chat.ID == "" {
		chat.ID = id
	}

	if err := s.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	if err := os.Remove(legacy); err != nil {
		return nil, fmt.Errorf("failed to remove legacy chat file %s: %w", id, err)
	}
	s.log.Info().Str("chat_id", chat.ID).Msg("migrated chat to folder layout")
	return chat, nil
}

// checkChatID rejects ids that are not a single clean path element. Ids are
// used as directory names under the chats root, so a separator or dot
// segment would escape it.
func checkChatID(id string) error {
	if id == "" || id == "." || id == ".." ||
		strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, filepath.Separator) {
		return fmt.Errorf("chat id %q: %w", id, store.ErrInvalidID)
	}
	return nil
}

func (s *Store) chatDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) legacyPath(id string) string {
	return filepath.Join(s.root, id+jsonExtension)
}

// writeAtomic writes data to a temp file in the target directory and renames
// it into place, so readers never observe a partial document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
