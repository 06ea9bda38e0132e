package chat

import "time"

// Status tracks delivery of a message composed in this client.
type Status string

const (
	StatusSent    Status = "sent"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Message is one entry of a resource-request conversation.
type Message struct {
	ID                string    `json:"id"`
	ResourceRequestID string    `json:"resource_request_id"`
	SenderUserID      string    `json:"sender_user_id"`
	SenderName        string    `json:"sender_name"`
	SenderCompanyID   string    `json:"sender_company_id,omitempty"`
	SenderCompanyName string    `json:"sender_company_name"`
	Message           string    `json:"message"`
	CreatedAt         time.Time `json:"created_at"`
	IsRead            bool      `json:"is_read"`

	// Client-side only.
	IsSender bool   `json:"-"`
	LocalID  string `json:"-"`
	Status   Status `json:"-"`
}

// Key identifies the message in a local cache. Optimistic entries have no
// server id yet and are keyed by their local id.
func (m Message) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return "local:" + m.LocalID
}

// Optimistic reports whether the entry has not been acknowledged by the server.
func (m Message) Optimistic() bool {
	return m.Status == StatusPending || m.Status == StatusFailed
}

// Page is a window of a conversation in chronological order.
type Page struct {
	Results []Message `json:"results"`
	HasMore bool      `json:"has_more"`
}
