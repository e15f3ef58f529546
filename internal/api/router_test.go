package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tangent-backend/internal/auth"
	"tangent-backend/internal/config"
	"tangent-backend/internal/handlers"
	"tangent-backend/internal/models"
	"tangent-backend/internal/services"
	"tangent-backend/internal/store/chatfile"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hash, err := auth.HashPassword("p@ssword")
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		TokenExpiration:  time.Hour,
		AuthEmail:        "me@example.com",
		AuthPasswordHash: hash,
	}

	chatStore, err := chatfile.New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	turns := services.NewTurnLogger(chatStore, zerolog.Nop())
	chatService := services.NewChatService(chatStore, turns, nil, zerolog.Nop())
	authService := services.NewAuthService(cfg, zerolog.Nop())

	router := NewRouter(RouterDependencies{
		AuthHandler:   handlers.NewAuthHandler(authService),
		ChatHandler:   handlers.NewChatHandlers(chatService),
		BranchHandler: handlers.NewBranchHandlers(chatService),
		Config:        cfg,
		Logger:        zerolog.Nop(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	body := bytes.NewBufferString(`{"email":"me@example.com","password":"p@ssword"}`)
	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var authResp models.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authResp))
	return authResp.AccessToken
}

func doJSON(t *testing.T, srv *httptest.Server, token, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestChatsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, "", http.MethodGet, "/v1/chats", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, srv, "garbage-token", http.MethodGet, "/v1/chats", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatAndBranchFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	// Create a chat.
	resp := doJSON(t, srv, token, http.MethodPost, "/v1/chats", `{"templateId":"tpl1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var chat models.Chat
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&chat))
	resp.Body.Close()
	require.Len(t, chat.Branches, 1)
	assert.Equal(t, models.MainBranchID, chat.Branches[0].ID)

	base := "/v1/chats/" + chat.ID

	// Add a message to the active branch.
	resp = doJSON(t, srv, token, http.MethodPost, base+"/messages",
		`{"role":"user","content":"hello"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added models.AddMessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	resp.Body.Close()
	assert.Equal(t, models.MainBranchID, added.BranchID)

	// Fork a branch off it.
	resp = doJSON(t, srv, token, http.MethodPost, base+"/branches",
		fmt.Sprintf(`{"forkPointMessageId":%q,"name":"alt"}`, added.Message.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var branch models.Branch
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&branch))
	resp.Body.Close()
	assert.Equal(t, added.Message.ID, branch.TipMessageID)

	// Messages on the new branch share the ancestry up to the fork point.
	resp = doJSON(t, srv, token, http.MethodGet, base+"/messages?branch_id="+branch.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var messages []*models.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&messages))
	resp.Body.Close()
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Content)

	// Deleting the main branch is refused.
	resp = doJSON(t, srv, token, http.MethodDelete, base+"/branches/"+models.MainBranchID, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Unknown chat id maps to 404.
	resp = doJSON(t, srv, token, http.MethodGet, "/v1/chats/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// No responder configured: reply generation is unavailable.
	resp = doJSON(t, srv, token, http.MethodPost, base+"/reply", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestImportRejectsPathTraversalIDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	doc := `{"id":"../../outside/evil","title":"x","messages":{},` +
		`"branches":[{"id":"branch-main","name":"Main","isActive":true}],` +
		`"activeBranchId":"branch-main"}`
	resp := doJSON(t, srv, token, http.MethodPost, "/v1/chats/import", doc)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginRejectedOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"email":"me@example.com","password":"wrong"}`)
	resp, err := http.Post(srv.URL+"/v1/auth/login", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
