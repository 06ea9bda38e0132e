package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/benchmarket/benchchat/internal/model/chat"
	chatService "github.com/benchmarket/benchchat/internal/service/chat"
	"github.com/benchmarket/benchchat/pkg/utils"
)

// EventMessageCreated announces a new message in the conversation.
const EventMessageCreated = "message.created"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Event is pushed to subscribers. It carries ids only, clients re-fetch
// the conversation to see the message.
type Event struct {
	Type              string    `json:"type"`
	ResourceRequestID string    `json:"resource_request_id"`
	MessageID         string    `json:"message_id"`
	SenderCompanyID   string    `json:"sender_company_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// Handler relays conversation events to websocket and Server-Sent Events
// subscribers.
type Handler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the stream handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the push endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/resource-requests/{requestID}/messages/ws", h.handleWebSocket)
	r.Get("/resource-requests/{requestID}/messages/events", h.handleEvents)
}

// subscribe relays new messages of requestID into a buffered channel.
// Events for a full buffer are dropped; the subscriber catches up on its
// next poll.
func (h *Handler) subscribe(requestID string) (<-chan Event, func()) {
	events := make(chan Event, sendBuffer)
	unsubscribe := h.chatSvc.Subscribe(requestID, func(m chat.Message) {
		ev := Event{
			Type:              EventMessageCreated,
			ResourceRequestID: m.ResourceRequestID,
			MessageID:         m.ID,
			SenderCompanyID:   m.SenderCompanyID,
			CreatedAt:         m.CreatedAt,
		}
		select {
		case events <- ev:
		default:
		}
	})
	return events, unsubscribe
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		http.Error(w, "requestID is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := h.subscribe(requestID)
	defer unsubscribe()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.logger.Debug("sse subscribed", zap.String("request_id", requestID))

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := utils.SendSSEEvent(w, flusher, ev.Type, ev); err != nil {
				h.logger.Debug("sse write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "ping"); err != nil {
				return
			}
		}
	}
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	if requestID == "" {
		http.Error(w, "requestID is required", http.StatusBadRequest)
		return
	}

	// subscribe first so nothing posted after the handshake is missed
	events, unsubscribe := h.subscribe(requestID)
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.logger.Debug("websocket subscribed", zap.String("request_id", requestID))

	go h.readLoop(conn, cancel)
	h.writeLoop(ctx, conn, events)
}

// readLoop discards inbound frames and ends the subscription on close.
func (h *Handler) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
