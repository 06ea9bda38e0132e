package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/benchmarket/benchchat/internal/model/chat"
)

// Receipt icons, shown on own messages only.
const (
	IconUnread  = "✓"
	IconRead    = "✓✓"
	IconPending = "…"
	IconFailed  = "!"
)

// BubbleOptions controls layout of a rendered bubble.
type BubbleOptions struct {
	// Width right-aligns own bubbles within the panel when positive.
	Width    int
	Location *time.Location
	Styles   Styles
	// Viewer decides which own-company messages are labelled "You".
	Viewer chat.Identity
}

// RenderBubble renders one message. The sender label appears only when
// isSequence is false, i.e. on the first message of a run. It has no side
// effects.
func RenderBubble(m chat.Message, isOwn, isSequence bool, opts BubbleOptions) string {
	st := opts.Styles
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	var lines []string
	if !isSequence {
		lines = append(lines, st.Sender.Render(senderLabel(m, isOwn, opts.Viewer)))
	}

	body := st.OtherBubble
	if isOwn {
		body = st.OwnBubble
	}
	if opts.Width > 8 {
		body = body.MaxWidth(opts.Width * 3 / 4)
	}
	lines = append(lines, body.Render(m.Message))

	meta := st.Meta.Render(m.CreatedAt.In(loc).Format("15:04"))
	if isOwn {
		meta += " " + receipt(m, st)
	}
	lines = append(lines, meta)

	align := lipgloss.Left
	if isOwn {
		align = lipgloss.Right
	}
	block := lipgloss.JoinVertical(align, lines...)
	if isOwn && opts.Width > 0 {
		block = lipgloss.PlaceHorizontal(opts.Width, lipgloss.Right, block)
	}
	return block
}

// IsSequence reports whether cur continues a run started by prev.
func IsSequence(prev *chat.Message, cur chat.Message) bool {
	if prev == nil {
		return false
	}
	return prev.SenderUserID == cur.SenderUserID && prev.SenderCompanyID == cur.SenderCompanyID
}

// RenderConversation renders messages top to bottom.
func RenderConversation(messages []chat.Message, opts BubbleOptions) string {
	if len(messages) == 0 {
		return opts.Styles.Meta.Render("No messages yet.")
	}

	var b strings.Builder
	for i, m := range messages {
		var prev *chat.Message
		if i > 0 {
			prev = &messages[i-1]
		}
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(RenderBubble(m, m.IsSender, IsSequence(prev, m), opts))
	}
	return b.String()
}

// senderLabel names the author. Own-company messages count as own for
// alignment and receipts, but only the viewer's own user is "You".
func senderLabel(m chat.Message, isOwn bool, viewer chat.Identity) string {
	if isOwn {
		if m.SenderUserID != "" && m.SenderUserID == viewer.UserID {
			return "You"
		}
		if m.SenderName == "" {
			return "You"
		}
		return m.SenderName
	}
	if m.SenderCompanyName != "" {
		return m.SenderName + " · " + m.SenderCompanyName
	}
	return m.SenderName
}

func receipt(m chat.Message, st Styles) string {
	switch {
	case m.Status == chat.StatusFailed:
		return st.Failed.Render(IconFailed)
	case m.Status == chat.StatusPending:
		return st.Meta.Render(IconPending)
	case m.IsRead:
		return st.Read.Render(IconRead)
	default:
		return st.Meta.Render(IconUnread)
	}
}
