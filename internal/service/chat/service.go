package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benchmarket/benchchat/internal/model/chat"
)

var (
	ErrRequestRequired = errors.New("resource request id is required")
	ErrEmptyMessage    = errors.New("message is empty")
	ErrInvalidWindow   = errors.New("invalid limit or offset")
)

// MaxPageSize caps a single List window.
const MaxPageSize = 100

// Listener receives every message created in a conversation.
type Listener func(chat.Message)

// Service stores resource-request conversations in memory.
type Service struct {
	mu        sync.RWMutex
	messages  map[string][]chat.Message
	listeners map[string]map[int]Listener
	nextSub   int
	now       func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		messages:  make(map[string][]chat.Message),
		listeners: make(map[string]map[int]Listener),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create appends a message authored by sender to the conversation.
func (s *Service) Create(_ context.Context, requestID string, sender chat.Identity, text string) (chat.Message, error) {
	if requestID == "" {
		return chat.Message{}, ErrRequestRequired
	}
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	created := s.now()
	if list := s.messages[requestID]; len(list) > 0 {
		// keep created_at strictly increasing within a conversation
		if last := list[len(list)-1].CreatedAt; !created.After(last) {
			created = last.Add(time.Microsecond)
		}
	}
	message := chat.Message{
		ID:                uuid.NewString(),
		ResourceRequestID: requestID,
		SenderUserID:      sender.UserID,
		SenderName:        sender.UserName,
		SenderCompanyID:   sender.CompanyID,
		SenderCompanyName: sender.CompanyName,
		Message:           text,
		CreatedAt:         created,
	}
	s.messages[requestID] = append(s.messages[requestID], message)
	listeners := make([]Listener, 0, len(s.listeners[requestID]))
	for _, l := range s.listeners[requestID] {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(message)
	}
	return message, nil
}

// List returns limit messages counted back from the newest, skipping offset
// messages, in chronological order. HasMore reports older messages remain.
func (s *Service) List(_ context.Context, requestID string, offset, limit int) (chat.Page, error) {
	if requestID == "" {
		return chat.Page{}, ErrRequestRequired
	}
	if offset < 0 || limit <= 0 || limit > MaxPageSize {
		return chat.Page{}, ErrInvalidWindow
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[requestID]
	end := len(all) - offset
	if end <= 0 {
		return chat.Page{Results: []chat.Message{}}, nil
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	results := make([]chat.Message, end-start)
	copy(results, all[start:end])
	return chat.Page{Results: results, HasMore: start > 0}, nil
}

// UnreadCount counts messages from other companies the viewer has not read.
func (s *Service) UnreadCount(_ context.Context, requestID string, viewer chat.Identity) (int, error) {
	if requestID == "" {
		return 0, ErrRequestRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.messages[requestID] {
		if !m.IsRead && !viewer.Owns(m) {
			count++
		}
	}
	return count, nil
}

// MarkAllRead marks every message from other companies as read. It returns
// how many messages changed state.
func (s *Service) MarkAllRead(_ context.Context, requestID string, viewer chat.Identity) (int, error) {
	if requestID == "" {
		return 0, ErrRequestRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	list := s.messages[requestID]
	for i := range list {
		if !list[i].IsRead && !viewer.Owns(list[i]) {
			list[i].IsRead = true
			changed++
		}
	}
	return changed, nil
}

// Subscribe registers l for messages created under requestID. The returned
// func removes the listener.
func (s *Service) Subscribe(requestID string, l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	if s.listeners[requestID] == nil {
		s.listeners[requestID] = make(map[int]Listener)
	}
	s.listeners[requestID][id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[requestID], id)
		if len(s.listeners[requestID]) == 0 {
			delete(s.listeners, requestID)
		}
	}
}
