package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageKeyAndOptimistic(t *testing.T) {
	sent := Message{ID: "m1", Status: StatusSent}
	assert.Equal(t, "m1", sent.Key())
	assert.False(t, sent.Optimistic())

	pending := Message{LocalID: "l1", Status: StatusPending}
	assert.Equal(t, "local:l1", pending.Key())
	assert.True(t, pending.Optimistic())

	failed := Message{LocalID: "l1", Status: StatusFailed}
	assert.True(t, failed.Optimistic())
}

func TestIdentityOwnsByCompany(t *testing.T) {
	alice := Identity{UserID: "u-alice", CompanyID: "acme"}

	assert.True(t, alice.Owns(Message{SenderUserID: "u-bruno", SenderCompanyID: "acme"}))
	assert.False(t, alice.Owns(Message{SenderUserID: "u-chen", SenderCompanyID: "globex"}))
	assert.True(t, alice.Owns(Message{SenderUserID: "u-alice"}))
}
