package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchmarket/benchchat/internal/model/company"
	chatservice "github.com/benchmarket/benchchat/internal/service/chat"
)

func newTestRouter(reg *prometheus.Registry) http.Handler {
	return NewRouter(company.NewMemoryStore(company.Seed()), chatservice.NewService(), reg, nil)
}

func serve(h http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestHealthz(t *testing.T) {
	resp := serve(newTestRouter(nil), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListCompaniesIsPublicAndHidesTokens(t *testing.T) {
	resp := serve(newTestRouter(nil), http.MethodGet, "/api/companies", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	body := resp.Body.String()
	assert.NotContains(t, body, "dev-acme-alice")

	var companies []company.Company
	require.NoError(t, json.Unmarshal([]byte(body), &companies))
	require.Len(t, companies, 2)
	assert.Equal(t, "acme", companies[0].ID)
}

func TestChatRoutesRequireToken(t *testing.T) {
	r := newTestRouter(nil)

	resp := serve(r, http.MethodGet, "/api/resource-requests/rr-1/messages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = serve(r, http.MethodGet, "/api/resource-requests/rr-1/messages", "dev-acme-alice", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestRouter(reg)

	resp := serve(r, http.MethodPost, "/api/resource-requests/rr-1/messages", "dev-acme-alice",
		strings.NewReader(`{"message":"hello"}`))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = serve(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `endpoint="/api/resource-requests/{requestID}/messages"`)
	assert.Contains(t, body, `status="201"`)
}

func TestCORSPreflight(t *testing.T) {
	resp := serve(newTestRouter(nil), http.MethodOptions, "/api/resource-requests/rr-1/messages", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitedRouter(t *testing.T) {
	r := NewRouter(company.NewMemoryStore(company.Seed()), chatservice.NewService(), nil, nil, WithRateLimit(0.001, 1))

	resp := serve(r, http.MethodGet, "/api/resource-requests/rr-1/messages", "dev-acme-alice", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(r, http.MethodGet, "/api/resource-requests/rr-1/messages", "dev-acme-alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	resp = serve(r, http.MethodGet, "/api/resource-requests/rr-1/messages", "dev-globex-chen", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
