package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxLines is the tallest the draft grows before it scrolls.
const MaxLines = 5

// SubmitMsg carries a trimmed draft the user asked to send.
type SubmitMsg struct {
	Text string
}

// Input is the multi-line draft editor. Enter submits, alt+enter or
// ctrl+j inserts a newline. While a submit is in flight the draft is
// locked and a spinner is shown.
type Input struct {
	ta     textarea.Model
	spin   spinner.Model
	busy   bool
	styles Styles
}

func NewInput(styles Styles) Input {
	ta := textarea.New()
	ta.Placeholder = "Write a message… (Enter to send, Alt+Enter for a new line)"
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 4000
	ta.SetHeight(1)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Meta

	return Input{ta: ta, spin: sp, styles: styles}
}

func (in Input) Init() tea.Cmd {
	return textarea.Blink
}

func (in Input) Update(msg tea.Msg) (Input, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !in.busy {
			return in, nil
		}
		in.spin, cmd = in.spin.Update(msg)
		return in, cmd

	case tea.KeyMsg:
		if in.busy {
			return in, nil
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(in.ta.Value())
			if text == "" {
				return in, nil
			}
			in.busy = true
			return in, tea.Batch(submit(text), in.spin.Tick)
		case "alt+enter", "ctrl+j":
			in.ta, cmd = in.ta.Update(tea.KeyMsg{Type: tea.KeyEnter})
			in.fit()
			return in, cmd
		}
	}

	in.ta, cmd = in.ta.Update(msg)
	in.fit()
	return in, cmd
}

// Resolve ends a submit. On success the draft is cleared and the editor
// shrinks back to one line; on failure the draft is kept.
func (in Input) Resolve(err error) Input {
	in.busy = false
	if err == nil {
		in.ta.Reset()
		in.fit()
	}
	return in
}

func (in Input) Busy() bool    { return in.busy }
func (in Input) Value() string { return in.ta.Value() }
func (in Input) Height() int   { return in.ta.Height() }

// Rows is the number of terminal rows View occupies.
func (in Input) Rows() int {
	rows := in.ta.Height() + 2
	if in.busy {
		rows++
	}
	return rows
}

func (in *Input) SetWidth(w int) {
	// border and padding
	w -= 4
	if w < 10 {
		w = 10
	}
	in.ta.SetWidth(w)
}

func (in Input) View() string {
	view := in.styles.InputBorder.Render(in.ta.View())
	if in.busy {
		view += "\n" + in.spin.View() + in.styles.Meta.Render(" Sending…")
	}
	return view
}

// fit sizes the editor to the rows the draft occupies, counting soft
// wrapped lines, capped at MaxLines.
func (in *Input) fit() {
	width := in.ta.Width()
	h := 0
	for _, line := range strings.Split(in.ta.Value(), "\n") {
		w := lipgloss.Width(line)
		if width <= 0 || w <= width {
			h++
			continue
		}
		h += (w + width - 1) / width
	}
	if h < 1 {
		h = 1
	}
	if h > MaxLines {
		h = MaxLines
	}
	in.ta.SetHeight(h)
}

func submit(text string) tea.Cmd {
	return func() tea.Msg { return SubmitMsg{Text: text} }
}
