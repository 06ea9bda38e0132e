package client

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is a conversation announcement pushed by the backend.
type Event struct {
	Type              string    `json:"type"`
	ResourceRequestID string    `json:"resource_request_id"`
	MessageID         string    `json:"message_id"`
	SenderCompanyID   string    `json:"sender_company_id"`
	CreatedAt         time.Time `json:"created_at"`
}

const pushHandshakeTimeout = 10 * time.Second

// Subscribe opens the push channel of a conversation. The returned channel
// is closed when ctx is cancelled or the connection drops; callers keep
// polling either way.
func (c *Client) Subscribe(ctx context.Context, requestID string) (<-chan Event, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	target := (&Client{baseURL: &u}).endpoint(messagesPath(requestID)+"/ws", nil)

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	dialer := websocket.Dialer{HandshakeTimeout: pushHandshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, &ServerError{Op: "subscribe", Status: resp.StatusCode}
		}
		return nil, &NetworkError{Op: "subscribe", Err: err}
	}

	events := make(chan Event, 8)
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()
	go func() {
		defer close(events)
		for {
			var ev Event
			if err := conn.ReadJSON(&ev); err != nil {
				if ctx.Err() == nil {
					c.logger.Debug("push channel closed", zap.String("request_id", requestID), zap.Error(err))
				}
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	c.logger.Debug("push channel open", zap.String("request_id", requestID))
	return events, nil
}

// Nudges adapts an event stream into a signal channel for the overlay.
// The output closes when events closes.
func Nudges(events <-chan Event) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for range events {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out
}
