package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tangent-backend/internal/models"
	"tangent-backend/internal/services"
)

// BranchHandlers handles HTTP requests for conversation branches.
type BranchHandlers struct {
	chatService *services.ChatService
}

// NewBranchHandlers creates a new BranchHandlers instance.
func NewBranchHandlers(chatService *services.ChatService) *BranchHandlers {
	return &BranchHandlers{chatService: chatService}
}

// HandleCreateBranch forks a new branch, optionally at a fork point.
func (h *BranchHandlers) HandleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	branch, err := h.chatService.CreateBranch(r.Context(), chi.URLParam(r, "chatID"), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, branch)
}

// HandleListBranches returns the branches in insertion order, annotated
// with their root->tip message counts.
func (h *BranchHandlers) HandleListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.chatService.ListBranches(r.Context(), chi.URLParam(r, "chatID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, branches)
}

// HandleRenameBranch renames a branch; name is the only mutable field.
func (h *BranchHandlers) HandleRenameBranch(w http.ResponseWriter, r *http.Request) {
	var req models.RenameBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "Branch name is required")
		return
	}

	branch, err := h.chatService.RenameBranch(r.Context(),
		chi.URLParam(r, "chatID"), chi.URLParam(r, "branchID"), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, branch)
}

// HandleDeleteBranch removes a branch. With delete_messages=true its
// exclusive messages (those on no other branch's path) are removed too.
func (h *BranchHandlers) HandleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	deleteMessages := false
	if raw := r.URL.Query().Get("delete_messages"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid delete_messages parameter")
			return
		}
		deleteMessages = parsed
	}

	err := h.chatService.DeleteBranch(r.Context(),
		chi.URLParam(r, "chatID"), chi.URLParam(r, "branchID"), deleteMessages)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleActivateBranch makes the branch the single active one.
func (h *BranchHandlers) HandleActivateBranch(w http.ResponseWriter, r *http.Request) {
	chat, err := h.chatService.SetActiveBranch(r.Context(),
		chi.URLParam(r, "chatID"), chi.URLParam(r, "branchID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, chat)
}
