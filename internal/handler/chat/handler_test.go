package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchmarket/benchchat/internal/middleware"
	chatmodel "github.com/benchmarket/benchchat/internal/model/chat"
	"github.com/benchmarket/benchchat/internal/model/company"
	chatservice "github.com/benchmarket/benchchat/internal/service/chat"
)

func setupRouter() (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	store := company.NewMemoryStore(company.Seed())
	handler := New(chatSvc)

	r := chi.NewRouter()
	r.Use(middleware.Auth(store))
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func do(r http.Handler, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCreateMessage(t *testing.T) {
	r, _ := setupRouter()

	resp := do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-alice", []byte(`{"message":"hello"}`))
	require.Equal(t, http.StatusCreated, resp.Code)

	var msg chatmodel.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "req-1", msg.ResourceRequestID)
	assert.Equal(t, "u-alice", msg.SenderUserID)
	assert.Equal(t, "acme", msg.SenderCompanyID)
	assert.Equal(t, "Acme Consulting", msg.SenderCompanyName)
}

func TestCreateMessageBlank(t *testing.T) {
	r, _ := setupRouter()

	resp := do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-alice", []byte(`{"message":"   "}`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateMessageInvalidBody(t *testing.T) {
	r, _ := setupRouter()

	resp := do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-alice", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRequiresToken(t *testing.T) {
	r, _ := setupRouter()

	resp := do(r, http.MethodGet, "/resource-requests/req-1/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "error")
}

func TestListPagination(t *testing.T) {
	r, _ := setupRouter()
	for i := 0; i < 25; i++ {
		resp := do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-alice", []byte(`{"message":"x"}`))
		require.Equal(t, http.StatusCreated, resp.Code)
	}

	resp := do(r, http.MethodGet, "/resource-requests/req-1/messages?limit=20&offset=0", "dev-globex-chen", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var page chatmodel.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Len(t, page.Results, 20)
	assert.True(t, page.HasMore)

	resp = do(r, http.MethodGet, "/resource-requests/req-1/messages?limit=20&offset=20", "dev-globex-chen", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Len(t, page.Results, 5)
	assert.False(t, page.HasMore)

	resp = do(r, http.MethodGet, "/resource-requests/req-1/messages?limit=abc", "dev-globex-chen", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUnreadAndMarkRead(t *testing.T) {
	r, _ := setupRouter()
	do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-alice", []byte(`{"message":"one"}`))
	do(r, http.MethodPost, "/resource-requests/req-1/messages", "dev-acme-bruno", []byte(`{"message":"two"}`))

	resp := do(r, http.MethodGet, "/resource-requests/req-1/messages/unread-count", "dev-globex-chen", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"unread_count":2}`, strings.TrimSpace(resp.Body.String()))

	// the sender's own company never sees its messages as unread
	resp = do(r, http.MethodGet, "/resource-requests/req-1/messages/unread-count", "dev-acme-alice", nil)
	assert.JSONEq(t, `{"unread_count":0}`, strings.TrimSpace(resp.Body.String()))

	resp = do(r, http.MethodPost, "/resource-requests/req-1/messages/mark-read", "dev-globex-chen", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	resp = do(r, http.MethodPost, "/resource-requests/req-1/messages/mark-read", "dev-globex-chen", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = do(r, http.MethodGet, "/resource-requests/req-1/messages/unread-count", "dev-globex-chen", nil)
	assert.JSONEq(t, `{"unread_count":0}`, strings.TrimSpace(resp.Body.String()))
}
