package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchmarket/benchchat/internal/model/chat"
	chatservice "github.com/benchmarket/benchchat/internal/service/chat"
)

var sender = chat.Identity{UserID: "u-chen", UserName: "Chen Wei", CompanyID: "globex", CompanyName: "Globex Staffing"}

func setupServer(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	svc := chatservice.NewService()
	r := chi.NewRouter()
	New(svc, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestEventsStreamsCreatedMessages(t *testing.T) {
	srv, svc := setupServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/resource-requests/rr-1/messages/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	created, err := svc.Create(ctx, "rr-1", sender, "Can Marta start Monday?")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "rr-other", sender, "not for this stream")
	require.NoError(t, err)

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: message.created\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
	assert.Equal(t, EventMessageCreated, ev.Type)
	assert.Equal(t, created.ID, ev.MessageID)
	assert.Equal(t, "rr-1", ev.ResourceRequestID)
	assert.Equal(t, "globex", ev.SenderCompanyID)
}

func TestWebSocketRelaysEvents(t *testing.T) {
	srv, svc := setupServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/resource-requests/rr-1/messages/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	created, err := svc.Create(context.Background(), "rr-1", sender, "ping")
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventMessageCreated, ev.Type)
	assert.Equal(t, "rr-1", ev.ResourceRequestID)
	assert.Equal(t, created.ID, ev.MessageID)
}
