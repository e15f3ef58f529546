package handlers

import (
	"errors"
	"net/http"

	"tangent-backend/internal/conversation"
	"tangent-backend/internal/store"
	"tangent-backend/pkg/httputil"
)

// RespondWithError responds with a JSON error message.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	httputil.RespondError(w, code, message)
}

// RespondWithJSON responds with a JSON payload.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	httputil.RespondJSON(w, code, payload)
}

// respondServiceError maps the core error taxonomy onto HTTP status codes:
// NotFound for unresolved ids, Conflict for invalid operations (protected
// main branch), BadRequest for invalid documents, malformed ids and parents
// off the branch lineage, 500 otherwise.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, conversation.ErrBranchNotFound),
		errors.Is(err, conversation.ErrMessageNotFound):
		RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, conversation.ErrMainBranchProtected):
		RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, conversation.ErrParentOutsideBranch),
		errors.Is(err, conversation.ErrInvalidChat),
		errors.Is(err, store.ErrInvalidID):
		RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
