// Package overlay keeps one resource-request conversation in sync with the
// marketplace API: first page and unread count on mount, a polling task
// while mounted, older pages on demand and optimistic sends.
package overlay

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/benchmarket/benchchat/internal/client"
	"github.com/benchmarket/benchchat/internal/model/chat"
)

const (
	DefaultPageSize     = 20
	DefaultPollInterval = 10 * time.Second
)

var (
	ErrMounted        = errors.New("overlay already mounted")
	ErrNotMounted     = errors.New("overlay not mounted")
	ErrUnknownMessage = errors.New("no failed message with that id")
)

// Notices shown to the user after a failed action.
const (
	NoticeLoadFailed  = "Couldn't load messages. Retrying in the background."
	NoticeSendFailed  = "Message not sent. You can retry it."
	NoticeReadFailed  = "Couldn't mark messages as read."
	NoticeOlderFailed = "Couldn't load older messages. Scroll up to retry."
)

// Options configures an Overlay.
type Options struct {
	RequestID string
	// Identity is the viewer; it decides which messages are own messages.
	Identity chat.Identity
	// CounterpartName is the other company, shown in the panel header.
	CounterpartName string
	PageSize        int
	PollInterval    time.Duration
	InitialOpen     bool
	// Nudges triggers an immediate poll, e.g. from a push subscription.
	Nudges <-chan struct{}
	Logger *zap.Logger
	Now    func() time.Time
}

// Snapshot is a consistent copy of the overlay state for rendering.
type Snapshot struct {
	RequestID       string
	CounterpartName string
	Viewer          chat.Identity
	Visibility      Visibility
	Phase           Phase
	Messages        []chat.Message
	Unread          int
	HasMore         bool
	Notice          string
}

// Overlay owns the local state of one conversation. It is safe for
// concurrent use.
type Overlay struct {
	transport client.Transport
	opts      Options
	logger    *zap.Logger
	flight    singleflight.Group
	changes   chan struct{}

	mu           sync.Mutex
	visibility   Visibility
	phase        Phase
	messages     []chat.Message
	pageIndex    int
	hasMore      bool
	unread       int
	notice       string
	lastServerID string
	cancel       context.CancelFunc
	done         chan struct{}
}

// New creates an unmounted overlay.
func New(transport client.Transport, opts Options) *Overlay {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overlay{
		transport: transport,
		opts:      opts,
		logger:    logger.With(zap.String("request_id", opts.RequestID)),
		changes:   make(chan struct{}, 1),
	}
}

// Changes signals after every state change. Signals coalesce, so readers
// should take a fresh Snapshot on each receive.
func (o *Overlay) Changes() <-chan struct{} {
	return o.changes
}

// Snapshot returns a copy of the current state.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	messages := make([]chat.Message, len(o.messages))
	copy(messages, o.messages)
	return Snapshot{
		RequestID:       o.opts.RequestID,
		CounterpartName: o.opts.CounterpartName,
		Viewer:          o.opts.Identity,
		Visibility:      o.visibility,
		Phase:           o.phase,
		Messages:        messages,
		Unread:          o.unread,
		HasMore:         o.hasMore,
		Notice:          o.notice,
	}
}

// Mount loads the first page and unread count, then starts the polling
// task. Load failures are logged and surfaced as a notice; polling keeps
// retrying. The task stops on Unmount or when ctx is cancelled.
func (o *Overlay) Mount(ctx context.Context) error {
	if o.opts.RequestID == "" {
		return errors.New("overlay: request id is required")
	}

	o.mu.Lock()
	if o.done != nil {
		o.mu.Unlock()
		return ErrMounted
	}
	o.visibility = Closed
	if o.opts.InitialOpen {
		o.visibility = Open
	}
	o.phase = LoadingInitial
	o.messages = nil
	o.pageIndex = 0
	o.hasMore = false
	o.unread = 0
	o.notice = ""
	o.lastServerID = ""
	pollCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()
	o.notify()

	o.loadInitial(pollCtx)
	if o.opts.InitialOpen {
		_ = o.markAllRead(pollCtx)
	}

	go o.run(pollCtx, done)
	return nil
}

// Unmount stops the polling task and waits for it to exit. It is safe to
// call more than once.
func (o *Overlay) Unmount() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	o.mu.Lock()
	o.phase = Unmounted
	o.mu.Unlock()
	o.notify()
}

// Open shows the panel. The unread badge drops to zero before the backend
// is told, and is not restored if that call fails. The first page is
// refreshed afterwards since the list is not polled while closed.
func (o *Overlay) Open(ctx context.Context) error {
	o.mu.Lock()
	if o.done == nil {
		o.mu.Unlock()
		return ErrNotMounted
	}
	wasOpen := o.visibility == Open
	o.visibility = Open
	o.unread = 0
	o.mu.Unlock()
	o.notify()

	if wasOpen {
		return nil
	}
	err := o.markAllRead(ctx)
	o.refresh(ctx)
	return err
}

// Close hides the panel. Polling continues with unread counts only.
func (o *Overlay) Close() {
	o.mu.Lock()
	changed := o.visibility != Closed
	o.visibility = Closed
	o.mu.Unlock()
	if changed {
		o.notify()
	}
}

// Poll runs one polling cycle: the first page while open, the unread count
// while closed. Errors are logged and leave the last known state.
func (o *Overlay) Poll(ctx context.Context) {
	o.mu.Lock()
	mounted := o.done != nil
	open := o.visibility == Open
	o.mu.Unlock()
	if !mounted {
		return
	}

	if !open {
		o.refreshUnread(ctx)
		return
	}
	if o.refresh(ctx) {
		o.mu.Lock()
		stillOpen := o.visibility == Open
		o.mu.Unlock()
		if stillOpen {
			_ = o.markAllRead(ctx)
		}
	}
}

// LoadOlder fetches the page before the oldest loaded one and prepends it.
// It returns the number of messages added so the view can keep its scroll
// position. Without more history, or while a load is running, it does
// nothing.
func (o *Overlay) LoadOlder(ctx context.Context) (int, error) {
	o.mu.Lock()
	if o.phase != Ready || !o.hasMore {
		o.mu.Unlock()
		return 0, nil
	}
	o.phase = LoadingOlder
	offset := (o.pageIndex + 1) * o.opts.PageSize
	o.mu.Unlock()
	o.notify()

	page, err := o.transport.ListPage(ctx, o.opts.RequestID, offset, o.opts.PageSize)

	o.mu.Lock()
	if o.phase == LoadingOlder {
		o.phase = Ready
	}
	if err != nil {
		o.notice = NoticeOlderFailed
		o.mu.Unlock()
		o.notify()
		o.logger.Warn("load older messages failed", zap.Int("offset", offset), zap.Error(err))
		return 0, err
	}
	before := len(o.messages)
	o.messages = merge(o.messages, page.Results, o.opts.Identity)
	added := len(o.messages) - before
	o.pageIndex++
	o.hasMore = page.HasMore
	if o.notice == NoticeOlderFailed {
		o.notice = ""
	}
	o.mu.Unlock()
	o.notify()

	o.logger.Debug("loaded older messages", zap.Int("offset", offset), zap.Int("added", added))
	return added, nil
}

// Send appends text optimistically and posts it. Whitespace-only text is
// rejected with client.ErrValidation before anything is appended. On
// failure the entry stays in the list marked failed and the error is
// returned so the caller keeps the draft. Resubmitting the text of a
// failed entry resends that entry instead of appending a copy.
func (o *Overlay) Send(ctx context.Context, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, client.ErrValidation
	}

	o.mu.Lock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		m := &o.messages[i]
		if m.Status == chat.StatusFailed && m.Message == text {
			m.Status = chat.StatusPending
			pending := *m
			o.mu.Unlock()
			o.notify()
			return o.deliver(ctx, pending)
		}
	}
	o.mu.Unlock()

	id := o.opts.Identity
	pending := chat.Message{
		LocalID:           uuid.NewString(),
		ResourceRequestID: o.opts.RequestID,
		SenderUserID:      id.UserID,
		SenderName:        id.UserName,
		SenderCompanyID:   id.CompanyID,
		SenderCompanyName: id.CompanyName,
		Message:           text,
		CreatedAt:         o.opts.Now(),
		IsSender:          true,
		Status:            chat.StatusPending,
	}

	o.mu.Lock()
	o.messages = append(o.messages, pending)
	o.mu.Unlock()
	o.notify()

	return o.deliver(ctx, pending)
}

// Retry resends a failed optimistic message.
func (o *Overlay) Retry(ctx context.Context, localID string) (chat.Message, error) {
	o.mu.Lock()
	var target *chat.Message
	for i := range o.messages {
		if o.messages[i].ID == "" && o.messages[i].LocalID == localID && o.messages[i].Status == chat.StatusFailed {
			target = &o.messages[i]
			break
		}
	}
	if target == nil {
		o.mu.Unlock()
		return chat.Message{}, ErrUnknownMessage
	}
	target.Status = chat.StatusPending
	pending := *target
	o.mu.Unlock()
	o.notify()

	return o.deliver(ctx, pending)
}

// LastFailed returns the most recent failed optimistic message.
func (o *Overlay) LastFailed() (chat.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].Status == chat.StatusFailed {
			return o.messages[i], true
		}
	}
	return chat.Message{}, false
}

// DismissNotice clears the current notice.
func (o *Overlay) DismissNotice() {
	o.mu.Lock()
	o.notice = ""
	o.mu.Unlock()
	o.notify()
}

func (o *Overlay) deliver(ctx context.Context, pending chat.Message) (chat.Message, error) {
	sent, err := o.transport.Send(ctx, o.opts.RequestID, pending.Message)

	o.mu.Lock()
	if err != nil {
		for i := range o.messages {
			if o.messages[i].ID == "" && o.messages[i].LocalID == pending.LocalID {
				o.messages[i].Status = chat.StatusFailed
			}
		}
		o.notice = NoticeSendFailed
		o.mu.Unlock()
		o.notify()
		o.logger.Warn("send message failed",
			zap.String("local_id", pending.LocalID),
			zap.Bool("retryable", client.Retryable(err)),
			zap.Error(err))
		return chat.Message{}, err
	}

	o.messages = settle(o.messages, pending.LocalID, sent, o.opts.Identity)
	if o.notice == NoticeSendFailed {
		o.notice = ""
	}
	o.mu.Unlock()
	o.notify()

	return fromServer(sent, o.opts.Identity), nil
}

func (o *Overlay) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()
	nudges := o.opts.Nudges

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Poll(ctx)
		case _, ok := <-nudges:
			if !ok {
				nudges = nil
				continue
			}
			o.Poll(ctx)
		}
	}
}

func (o *Overlay) loadInitial(ctx context.Context) {
	var (
		page   chat.Page
		unread int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = o.firstPage(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = o.unreadCount(gctx)
		return err
	})
	err := g.Wait()

	o.mu.Lock()
	o.phase = Ready
	if err != nil {
		o.notice = NoticeLoadFailed
		o.mu.Unlock()
		o.notify()
		o.logger.Warn("initial load failed", zap.Error(err))
		return
	}
	o.applyFirstPage(page)
	if o.visibility == Closed {
		o.unread = unread
	}
	o.mu.Unlock()
	o.notify()

	o.logger.Debug("conversation mounted",
		zap.Int("messages", len(page.Results)),
		zap.Bool("has_more", page.HasMore),
		zap.Int("unread", unread))
}

// refresh fetches the first page and reconciles it when it differs from
// the local copy. It reports whether anything changed.
func (o *Overlay) refresh(ctx context.Context) bool {
	page, err := o.firstPage(ctx)
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Debug("poll failed", zap.Error(err))
		}
		return false
	}

	o.mu.Lock()
	if !o.stale(page) {
		o.mu.Unlock()
		return false
	}
	o.applyFirstPage(page)
	if o.notice == NoticeLoadFailed {
		o.notice = ""
	}
	o.mu.Unlock()
	o.notify()
	return true
}

func (o *Overlay) refreshUnread(ctx context.Context) {
	n, err := o.unreadCount(ctx)
	if err != nil {
		if ctx.Err() == nil {
			o.logger.Debug("unread poll failed", zap.Error(err))
		}
		return
	}

	o.mu.Lock()
	changed := o.unread != n && o.visibility == Closed
	if changed {
		o.unread = n
	}
	o.mu.Unlock()
	if changed {
		o.notify()
	}
}

func (o *Overlay) markAllRead(ctx context.Context) error {
	o.mu.Lock()
	o.unread = 0
	o.mu.Unlock()

	if err := o.transport.MarkAllRead(ctx, o.opts.RequestID); err != nil {
		o.mu.Lock()
		o.notice = NoticeReadFailed
		o.mu.Unlock()
		o.notify()
		o.logger.Warn("mark read failed", zap.Error(err))
		return err
	}

	// mirror the backend so the next poll does not see stale receipts
	o.mu.Lock()
	for i := range o.messages {
		if !o.messages[i].Optimistic() && !o.messages[i].IsSender {
			o.messages[i].IsRead = true
		}
	}
	if o.notice == NoticeReadFailed {
		o.notice = ""
	}
	o.mu.Unlock()
	o.notify()
	return nil
}

// stale reports whether page carries anything the local copy lacks: a new
// last message or a changed read receipt. Callers hold o.mu.
func (o *Overlay) stale(page chat.Page) bool {
	if len(page.Results) == 0 {
		return false
	}
	if page.Results[len(page.Results)-1].ID != o.lastServerID {
		return true
	}
	local := readFlags(o.messages)
	for _, m := range page.Results {
		if read, ok := local[m.ID]; !ok || read != m.IsRead {
			return true
		}
	}
	return false
}

// applyFirstPage merges the newest page. Callers hold o.mu.
func (o *Overlay) applyFirstPage(page chat.Page) {
	o.messages = merge(o.messages, page.Results, o.opts.Identity)
	if len(page.Results) > 0 {
		o.lastServerID = page.Results[len(page.Results)-1].ID
	}
	if o.pageIndex == 0 {
		o.hasMore = page.HasMore
	}
}

func (o *Overlay) firstPage(ctx context.Context) (chat.Page, error) {
	v, err, _ := o.flight.Do("first-page", func() (interface{}, error) {
		return o.transport.ListPage(ctx, o.opts.RequestID, 0, o.opts.PageSize)
	})
	if err != nil {
		return chat.Page{}, err
	}
	return v.(chat.Page), nil
}

func (o *Overlay) unreadCount(ctx context.Context) (int, error) {
	v, err, _ := o.flight.Do("unread-count", func() (interface{}, error) {
		return o.transport.UnreadCount(ctx, o.opts.RequestID)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (o *Overlay) notify() {
	select {
	case o.changes <- struct{}{}:
	default:
	}
}
