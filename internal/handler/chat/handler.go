package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/benchmarket/benchchat/internal/middleware"
	chatService "github.com/benchmarket/benchchat/internal/service/chat"
	"github.com/benchmarket/benchchat/pkg/utils"
)

const defaultLimit = 20

// Handler serves resource-request conversations over HTTP.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates the chat handler.
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes mounts the message routes. Callers must install the auth
// middleware on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/resource-requests/{requestID}/messages", h.handleList)
	r.Post("/resource-requests/{requestID}/messages", h.handleCreate)
	r.Get("/resource-requests/{requestID}/messages/unread-count", h.handleUnreadCount)
	r.Post("/resource-requests/{requestID}/messages/mark-read", h.handleMarkRead)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "offset must be an integer")
		return
	}

	page, err := h.chatSvc.List(r.Context(), chi.URLParam(r, "requestID"), offset, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message, err := h.chatSvc.Create(r.Context(), chi.URLParam(r, "requestID"), id, payload.Message)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, message)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}

	count, err := h.chatSvc.UnreadCount(r.Context(), chi.URLParam(r, "requestID"), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "identity required")
		return
	}

	if _, err := h.chatSvc.MarkAllRead(r.Context(), chi.URLParam(r, "requestID"), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chatService.ErrEmptyMessage),
		errors.Is(err, chatService.ErrInvalidWindow),
		errors.Is(err, chatService.ErrRequestRequired):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
