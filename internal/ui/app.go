package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benchmarket/benchchat/internal/overlay"
)

type (
	mountedMsg   struct{ err error }
	changedMsg   struct{}
	actionMsg    struct{}
	openedMsg    struct{ err error }
	sendDoneMsg  struct{ err error }
	olderDoneMsg struct{ err error }
)

// AppOptions configures the chat screen.
type AppOptions struct {
	Location *time.Location
	Styles   *Styles
}

// App is the bubbletea model of the chat screen. It mounts the overlay on
// Init; callers unmount it after the program exits.
type App struct {
	ctx    context.Context
	ov     *overlay.Overlay
	styles Styles
	loc    *time.Location

	snap     overlay.Snapshot
	vp       viewport.Model
	input    Input
	firstKey string
	width    int
	height   int
	err      error

	mounted     bool
	pendingOpen bool
}

func NewApp(ctx context.Context, ov *overlay.Overlay, opts AppOptions) App {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	a := App{
		ctx:    ctx,
		ov:     ov,
		styles: styles,
		loc:    loc,
		snap:   ov.Snapshot(),
		vp:     viewport.New(80, 20),
		input:  NewInput(styles),
		width:  80,
		height: 24,
	}
	a.layout()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(mount(a.ctx, a.ov), waitForChange(a.ov), a.input.Init())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		a.render()
		return a, nil

	case mountedMsg:
		a.err = msg.err
		a.mounted = msg.err == nil
		a.sync()
		if a.mounted && a.pendingOpen {
			a.pendingOpen = false
			return a, open(a.ctx, a.ov)
		}
		return a, nil

	case openedMsg:
		a.err = msg.err
		a.sync()
		return a, nil

	case changedMsg:
		a.sync()
		return a, waitForChange(a.ov)

	case SubmitMsg:
		return a, send(a.ctx, a.ov, msg.Text)

	case sendDoneMsg:
		a.input = a.input.Resolve(msg.err)
		a.layout()
		a.sync()
		return a, nil

	case olderDoneMsg, actionMsg:
		a.sync()
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "ctrl+o":
		if !a.mounted {
			// opened once the first load lands
			a.pendingOpen = !a.pendingOpen
			return a, nil
		}
		if a.snap.Visibility == overlay.Open {
			a.ov.Close()
			a.sync()
			return a, nil
		}
		return a, open(a.ctx, a.ov)
	}

	if a.snap.Visibility != overlay.Open {
		return a, nil
	}

	switch msg.String() {
	case "esc":
		a.ov.DismissNotice()
		a.sync()
		return a, nil
	case "ctrl+r":
		if failed, ok := a.ov.LastFailed(); ok {
			return a, retry(a.ctx, a.ov, failed.LocalID)
		}
		return a, nil
	case "pgup", "up":
		if msg.String() == "up" && a.input.Height() > 1 {
			break
		}
		var cmd tea.Cmd
		if a.vp.AtTop() && a.snap.HasMore && a.snap.Phase == overlay.Ready {
			cmd = loadOlder(a.ctx, a.ov)
		}
		a.vp, _ = a.vp.Update(msg)
		return a, cmd
	case "pgdown", "down":
		if msg.String() == "down" && a.input.Height() > 1 {
			break
		}
		a.vp, _ = a.vp.Update(msg)
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.layout()
	return a, cmd
}

func (a App) View() string {
	header := a.header()
	if a.snap.Visibility != overlay.Open {
		parts := []string{header}
		if a.err != nil {
			parts = append(parts, a.styles.Notice.Render(a.err.Error()))
		}
		parts = append(parts, a.styles.Help.Render("ctrl+o open chat · ctrl+c quit"))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts := []string{header}
	if notice := a.notice(); notice != "" {
		parts = append(parts, a.styles.Notice.Render(notice))
	} else {
		parts = append(parts, "")
	}
	parts = append(parts,
		a.vp.View(),
		a.input.View(),
		a.styles.Help.Render("enter send · alt+enter newline · pgup older · ctrl+r retry · ctrl+o close"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) header() string {
	title := "Chat"
	if a.snap.CounterpartName != "" {
		title = "Chat with " + a.snap.CounterpartName
	}
	line := a.styles.Header.Render(title)
	if a.snap.Visibility != overlay.Open && a.snap.Unread > 0 {
		line += " " + a.styles.Badge.Render(badge(a.snap.Unread))
	}
	switch {
	case a.pendingOpen:
		line += a.styles.Meta.Render(" opening…")
	case a.snap.Phase == overlay.LoadingInitial:
		line += a.styles.Meta.Render(" loading…")
	case a.snap.Phase == overlay.LoadingOlder:
		line += a.styles.Meta.Render(" loading older…")
	}
	return line
}

func (a App) notice() string {
	if a.snap.Notice != "" {
		return a.snap.Notice
	}
	if a.err != nil {
		return a.err.Error()
	}
	return ""
}

// sync takes a fresh snapshot and re-renders the conversation.
func (a *App) sync() {
	a.snap = a.ov.Snapshot()
	a.render()
}

// render refreshes the viewport. Prepending older messages keeps the
// previous first message at the same screen row; otherwise the view
// follows the bottom.
func (a *App) render() {
	prevLines := a.vp.TotalLineCount()
	prevOffset := a.vp.YOffset
	atBottom := a.vp.AtBottom()

	opts := a.bubbleOptions()
	a.vp.SetContent(RenderConversation(a.snap.Messages, opts))

	first := ""
	if len(a.snap.Messages) > 0 {
		first = a.snap.Messages[0].Key()
	}
	switch {
	case a.firstKey != "" && first != a.firstKey:
		if start, ok := a.lineOf(a.firstKey, opts); ok {
			a.vp.SetYOffset(prevOffset + start)
		} else {
			a.vp.SetYOffset(prevOffset + a.vp.TotalLineCount() - prevLines)
		}
	case atBottom:
		a.vp.GotoBottom()
	}
	a.firstKey = first
}

// lineOf returns the row where the bubble of message key starts.
func (a *App) lineOf(key string, opts BubbleOptions) (int, bool) {
	for i, m := range a.snap.Messages {
		if m.Key() != key {
			continue
		}
		if i == 0 {
			return 0, false
		}
		before := RenderConversation(a.snap.Messages[:i], opts)
		return strings.Count(before, "\n") + 1, true
	}
	return 0, false
}

func (a *App) bubbleOptions() BubbleOptions {
	return BubbleOptions{
		Width:    a.vp.Width,
		Location: a.loc,
		Styles:   a.styles,
		Viewer:   a.snap.Viewer,
	}
}

func (a *App) layout() {
	a.input.SetWidth(a.width)
	h := a.height - a.input.Rows() - 3
	if h < 3 {
		h = 3
	}
	a.vp.Width = a.width
	a.vp.Height = h
}

func badge(n int) string {
	if n > 99 {
		return "99+"
	}
	return fmt.Sprint(n)
}

func mount(ctx context.Context, ov *overlay.Overlay) tea.Cmd {
	return func() tea.Msg {
		return mountedMsg{err: ov.Mount(ctx)}
	}
}

func waitForChange(ov *overlay.Overlay) tea.Cmd {
	return func() tea.Msg {
		<-ov.Changes()
		return changedMsg{}
	}
}

func send(ctx context.Context, ov *overlay.Overlay, text string) tea.Cmd {
	return func() tea.Msg {
		_, err := ov.Send(ctx, text)
		return sendDoneMsg{err: err}
	}
}

func retry(ctx context.Context, ov *overlay.Overlay, localID string) tea.Cmd {
	return func() tea.Msg {
		_, _ = ov.Retry(ctx, localID)
		return actionMsg{}
	}
}

func open(ctx context.Context, ov *overlay.Overlay) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: ov.Open(ctx)}
	}
}

func loadOlder(ctx context.Context, ov *overlay.Overlay) tea.Cmd {
	return func() tea.Msg {
		_, err := ov.LoadOlder(ctx)
		return olderDoneMsg{err: err}
	}
}
