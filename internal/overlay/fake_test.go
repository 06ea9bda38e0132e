package overlay

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benchmarket/benchchat/internal/model/chat"
	chatservice "github.com/benchmarket/benchchat/internal/service/chat"
)

var (
	viewer      = chat.Identity{UserID: "u-alice", UserName: "Alice", CompanyID: "acme", CompanyName: "Acme"}
	counterpart = chat.Identity{UserID: "u-chen", UserName: "Chen", CompanyID: "globex", CompanyName: "Globex"}
)

const requestID = "req-1"

// fakeTransport serves the overlay from the in-memory chat service and
// records every call.
type fakeTransport struct {
	svc *chatservice.Service
	who chat.Identity

	mu        sync.Mutex
	calls     map[string]int
	offsets   []int
	sendErr   error
	listErr   error
	markErr   error
	markGate  chan struct{}
	sendGate  chan struct{}
	afterSend func()
}

func newFake(t *testing.T, stored int) *fakeTransport {
	t.Helper()
	f := &fakeTransport{svc: chatservice.NewService(), who: viewer, calls: map[string]int{}}
	for i := 0; i < stored; i++ {
		f.post(t, counterpart, fmt.Sprintf("stored %d", i))
	}
	return f
}

func (f *fakeTransport) post(t *testing.T, from chat.Identity, text string) chat.Message {
	t.Helper()
	m, err := f.svc.Create(context.Background(), requestID, from, text)
	require.NoError(t, err)
	return m
}

func (f *fakeTransport) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeTransport) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeTransport) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeTransport) set(fn func(f *fakeTransport)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeTransport) ListPage(ctx context.Context, id string, offset, size int) (chat.Page, error) {
	f.record("list")
	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	err := f.listErr
	f.mu.Unlock()
	if err != nil {
		return chat.Page{}, err
	}
	return f.svc.List(ctx, id, offset, size)
}

func (f *fakeTransport) Send(ctx context.Context, id, text string) (chat.Message, error) {
	f.record("send")
	f.mu.Lock()
	err, gate, after := f.sendErr, f.sendGate, f.afterSend
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return chat.Message{}, err
	}
	m, err := f.svc.Create(ctx, id, f.who, text)
	if after != nil {
		after()
	}
	return m, err
}

func (f *fakeTransport) UnreadCount(ctx context.Context, id string) (int, error) {
	f.record("unread")
	f.mu.Lock()
	err := f.listErr
	f.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return f.svc.UnreadCount(ctx, id, f.who)
}

func (f *fakeTransport) MarkAllRead(ctx context.Context, id string) error {
	f.record("mark")
	f.mu.Lock()
	err, gate := f.markErr, f.markGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	_, err = f.svc.MarkAllRead(ctx, id, f.who)
	return err
}
