package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/models"
	"tangent-backend/internal/services"
)

// ChatHandlers handles HTTP requests for chats, messages, history, tree
// views and export/import.
type ChatHandlers struct {
	chatService *services.ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chatService: chatService}
}

// HandleCreateChat creates a new chat with an empty message map and an
// active main branch.
func (h *ChatHandlers) HandleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req models.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chat, err := h.chatService.CreateChat(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, chat)
}

// HandleListChats returns summaries of all chats.
func (h *ChatHandlers) HandleListChats(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chatService.ListChats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}
	RespondWithJSON(w, http.StatusOK, summaries)
}

// HandleGetChat returns the full chat document.
func (h *ChatHandlers) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := h.chatService.GetChat(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, chat)
}

// HandleUpdateChat updates chat metadata (title, provider override).
func (h *ChatHandlers) HandleUpdateChat(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	chat, err := h.chatService.UpdateChat(r.Context(), chi.URLParam(r, "chatID"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, chat)
}

// HandleDeleteChat removes the whole persisted chat.
func (h *ChatHandlers) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.DeleteChat(r.Context(), chi.URLParam(r, "chatID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddMessage appends a message to the resolved branch.
func (h *ChatHandlers) HandleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req models.AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Content == "" {
		RespondWithError(w, http.StatusBadRequest, "Message content is required")
		return
	}
	if !req.Role.Valid() {
		RespondWithError(w, http.StatusBadRequest, "Role must be user or assistant")
		return
	}

	resp, err := h.chatService.AddMessage(r.Context(), chi.URLParam(r, "chatID"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, resp)
}

// HandleListMessages returns the root->tip transcript of the selected
// branch (the active branch when branch_id is absent).
func (h *ChatHandlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.BranchMessages(r.Context(),
		chi.URLParam(r, "chatID"), r.URL.Query().Get("branch_id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, messages)
}

// HandleClearMessages empties the chat's messages and resets its branches.
func (h *ChatHandlers) HandleClearMessages(w http.ResponseWriter, r *http.Request) {
	chat, err := h.chatService.ClearMessages(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, chat)
}

// HandleHistory returns the bounded role-prefixed transcript for prompt
// construction.
func (h *ChatHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	maxMessages := 0
	if raw := r.URL.Query().Get("max"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			RespondWithError(w, http.StatusBadRequest, "Invalid max parameter")
			return
		}
		maxMessages = parsed
	}

	resp, err := h.chatService.History(r.Context(),
		chi.URLParam(r, "chatID"), r.URL.Query().Get("branch_id"), maxMessages)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, resp)
}

// HandleTree returns the nested view of the whole message forest.
func (h *ChatHandlers) HandleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.chatService.Tree(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, tree)
}

// HandleExportChat exports the chat as json (whole document, all branches)
// or markdown (single branch transcript).
func (h *ChatHandlers) HandleExportChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	branchID := r.URL.Query().Get("branch_id")

	switch format := r.URL.Query().Get("format"); format {
	case "", conversation.FormatJSON:
		data, err := h.chatService.ExportJSON(r.Context(), chatID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case conversation.FormatMarkdown:
		resp, err := h.chatService.ExportMarkdown(r.Context(), chatID, branchID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		RespondWithJSON(w, http.StatusOK, resp)
	default:
		RespondWithError(w, http.StatusBadRequest, "Format must be json or markdown")
	}
}

// HandleImportChat re-imports a previously exported chat document.
func (h *ChatHandlers) HandleImportChat(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	chat, err := h.chatService.ImportChat(r.Context(), data)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, chat)
}

// HandleGenerateReply asks the configured responder for an assistant reply
// on a branch.
func (h *ChatHandlers) HandleGenerateReply(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.chatService.GenerateReply(r.Context(), chi.URLParam(r, "chatID"), req)
	if err != nil {
		if errors.Is(err, services.ErrNoResponder) {
			RespondWithError(w, http.StatusServiceUnavailable, "No responder configured")
			return
		}
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, resp)
}
