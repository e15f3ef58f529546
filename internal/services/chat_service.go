package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/models"
	"tangent-backend/internal/store"
)

// ErrInvalidRole is returned when a message carries a role the engine does
// not accept.
var ErrInvalidRole = errors.New("role must be user or assistant")

// ChatService orchestrates the conversation engine against the store. Every
// mutation is a synchronous read-modify-write of the whole chat document;
// there is no locking, so concurrent mutations of the same chat race with
// the last writer winning (single-process, single-user design).
type ChatService struct {
	store     store.Store
	turns     *TurnLogger
	responder Responder
	log       zerolog.Logger
}

// NewChatService creates a new ChatService. The responder may be nil when no
// AI-provider bridge is configured.
func NewChatService(s store.Store, turns *TurnLogger, responder Responder, log zerolog.Logger) *ChatService {
	return &ChatService{
		store:     s,
		turns:     turns,
		responder: responder,
		log:       log.With().Str("component", "chat_service").Logger(),
	}
}

// CreateChat creates a chat with an empty message map and a single active
// main branch whose tip is unset.
func (s *ChatService) CreateChat(ctx context.Context, req models.CreateChatRequest) (*models.Chat, error) {
	now := time.Now().UTC()
	title := req.Title
	if title == "" {
		title = models.DefaultChatTitle
	}

	chat := &models.Chat{
		ID:               conversation.NewChatID(),
		SchemaVersion:    models.CurrentSchemaVersion,
		TemplateID:       req.TemplateID,
		Title:            title,
		CreatedAt:        now,
		UpdatedAt:        now,
		ProviderOverride: req.ProviderOverride,
		Messages:         make(map[string]*models.Message),
		Branches:         []*models.Branch{conversation.NewMainBranch(now)},
		ActiveBranchID:   models.MainBranchID,
	}

	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", chat.ID).Str("template_id", chat.TemplateID).Msg("chat created")
	return chat, nil
}

// GetChat loads a chat by id.
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*models.Chat, error) {
	return s.store.GetChat(ctx, chatID)
}

// ListChats returns summaries of all chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context) ([]models.ChatSummary, error) {
	return s.store.ListChats(ctx)
}

// UpdateChat applies metadata updates (title, provider override).
func (s *ChatService) UpdateChat(ctx context.Context, chatID string, req models.UpdateChatRequest) (*models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		chat.Title = *req.Title
	}
	if req.ProviderOverride != nil {
		chat.ProviderOverride = *req.ProviderOverride
	}
	chat.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// DeleteChat removes the whole persisted unit.
func (s *ChatService) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return err
	}
	s.log.Info().Str("chat_id", chatID).Msg("chat deleted")
	return nil
}

// AddMessage appends a message to the resolved branch and persists the
// updated document. When the request carries debug payloads, the per-turn
// artifacts are written for the same branch.
func (s *ChatService) AddMessage(ctx context.Context, chatID string, req models.AddMessageRequest) (*models.AddMessageResponse, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, req.Role)
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	branchID := req.BranchID
	if branchID == "" {
		branchID = chat.ActiveBranchID
	}

	msg, err := conversation.AddMessage(chat, req.Role, req.Content, req.Metadata, conversation.AddOptions{
		ParentID: req.ParentID,
		BranchID: branchID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}

	if req.Debug != nil {
		if err := s.turns.Record(ctx, chat, branchID, *req.Debug); err != nil {
			// The message is already durable; a failed debug artifact is
			// reported but does not undo the append.
			s.log.Warn().Err(err).Str("chat_id", chatID).Msg("failed to write turn artifacts")
		}
	}

	return &models.AddMessageResponse{Message: msg, BranchID: branchID}, nil
}

// BranchMessages returns the root->tip transcript for a branch (the active
// branch when branchID is empty).
func (s *ChatService) BranchMessages(ctx context.Context, chatID, branchID string) ([]*models.Message, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return conversation.BranchMessages(chat, branchID)
}

// ClearMessages empties the message map and resets the branches to a single
// fresh active main branch; tips into an emptied map would dangle otherwise.
func (s *ChatService) ClearMessages(ctx context.Context, chatID string) (*models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat.Messages = make(map[string]*models.Message)
	chat.Branches = []*models.Branch{conversation.NewMainBranch(now)}
	chat.ActiveBranchID = models.MainBranchID
	chat.UpdatedAt = now

	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", chatID).Msg("chat messages cleared")
	return chat, nil
}

// History returns the bounded role-prefixed transcript used for prompt
// construction.
func (s *ChatService) History(ctx context.Context, chatID, branchID string, maxMessages int) (*models.HistoryResponse, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if branchID == "" {
		branchID = chat.ActiveBranchID
	}
	history, err := conversation.History(chat, branchID, maxMessages)
	if err != nil {
		return nil, err
	}
	return &models.HistoryResponse{BranchID: branchID, History: history}, nil
}

// CreateBranch forks a new branch off the chat.
func (s *ChatService) CreateBranch(ctx context.Context, chatID string, req models.CreateBranchRequest) (*models.Branch, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	branch, err := conversation.CreateBranch(chat, conversation.CreateBranchOptions{
		ForkPointMessageID: req.ForkPointMessageID,
		Name:               req.Name,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", chatID).Str("branch_id", branch.ID).
		Str("fork_point", branch.ForkPointMessageID).Msg("branch created")
	return branch, nil
}

// ListBranches returns the chat's branches in insertion order with their
// root->tip message counts.
func (s *ChatService) ListBranches(ctx context.Context, chatID string) ([]models.BranchInfo, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return conversation.ListBranches(chat), nil
}

// RenameBranch updates a branch name.
func (s *ChatService) RenameBranch(ctx context.Context, chatID, branchID, name string) (*models.Branch, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := conversation.RenameBranch(chat, branchID, name); err != nil {
		return nil, err
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	branch, err := conversation.FindBranch(chat, branchID)
	if err != nil {
		return nil, err
	}
	return branch, nil
}

// DeleteBranch removes a branch, optionally deleting its exclusive messages.
func (s *ChatService) DeleteBranch(ctx context.Context, chatID, branchID string, deleteMessages bool) error {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return err
	}
	if err := conversation.DeleteBranch(chat, branchID, deleteMessages); err != nil {
		return err
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return err
	}
	s.log.Info().Str("chat_id", chatID).Str("branch_id", branchID).
		Bool("delete_messages", deleteMessages).Msg("branch deleted")
	return nil
}

// SetActiveBranch switches the active branch.
func (s *ChatService) SetActiveBranch(ctx context.Context, chatID, branchID string) (*models.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := conversation.SetActiveBranch(chat, branchID); err != nil {
		return nil, err
	}
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// Tree returns the nested view of the whole message forest.
func (s *ChatService) Tree(ctx context.Context, chatID string) ([]*models.TreeNode, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return conversation.TreeStructure(chat), nil
}

// ExportJSON serializes the entire chat, all branches included.
func (s *ChatService) ExportJSON(ctx context.Context, chatID string) ([]byte, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return conversation.ExportJSON(chat)
}

// ExportMarkdown renders the selected (or active) branch as markdown.
func (s *ChatService) ExportMarkdown(ctx context.Context, chatID, branchID string) (*models.ExportResponse, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if branchID == "" {
		branchID = chat.ActiveBranchID
	}
	content, err := conversation.ExportMarkdown(chat, branchID)
	if err != nil {
		return nil, err
	}
	return &models.ExportResponse{Format: conversation.FormatMarkdown, BranchID: branchID, Content: content}, nil
}

// ImportChat validates and persists a previously exported chat document,
// keeping its id so an export/import cycle reconstructs the same chat.
func (s *ChatService) ImportChat(ctx context.Context, data []byte) (*models.Chat, error) {
	chat, err := conversation.ImportChat(data)
	if err != nil {
		return nil, err
	}
	chat.SchemaVersion = models.CurrentSchemaVersion
	if err := s.store.SaveChat(ctx, chat); err != nil {
		return nil, err
	}
	s.log.Info().Str("chat_id", chat.ID).Msg("chat imported")
	return chat, nil
}

// GenerateReply builds the branch transcript, asks the configured responder
// for an assistant reply, appends it to the same branch and records the
// turn. Returns ErrNoResponder when no AI-provider bridge is wired in.
func (s *ChatService) GenerateReply(ctx context.Context, chatID string, req models.GenerateReplyRequest) (*models.AddMessageResponse, error) {
	if s.responder == nil {
		return nil, ErrNoResponder
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	branchID := req.BranchID
	if branchID == "" {
		branchID = chat.ActiveBranchID
	}

	history, err := conversation.History(chat, branchID, req.MaxMessages)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := s.responder.Respond(ctx, Prompt{
		ChatID:           chatID,
		BranchID:         branchID,
		History:          history,
		ProviderOverride: chat.ProviderOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("responder failed: %w", err)
	}

	return s.AddMessage(ctx, chatID, models.AddMessageRequest{
		Role:     models.RoleAssistant,
		Content:  reply.Content,
		BranchID: branchID,
		Metadata: &models.MessageMetadata{
			Provider:   reply.Provider,
			Model:      reply.Model,
			DurationMs: time.Since(started).Milliseconds(),
		},
		Debug: reply.Debug,
	})
}
