package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benchmarket/benchchat/internal/client"
	"github.com/benchmarket/benchchat/internal/overlay"
	"github.com/benchmarket/benchchat/internal/ui"
)

var (
	counterpart string
	startOpen   bool
)

// chatCmd opens the interactive chat screen
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the chat screen for a resource request",
	Long: `Opens the conversation for one resource request.

The panel starts closed and shows the unread count; ctrl+o opens it.
Messages are polled every CHAT_POLL_INTERVAL. With CHAT_PUSH_ENABLED the
client also listens for push notifications and polls as soon as one arrives.

Examples:
  benchchat chat --request rr-42 --counterpart "Globex Staffing"
  benchchat chat -r rr-42 --open`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&counterpart, "counterpart", "", "Name of the other company, shown in the header")
	chatCmd.Flags().BoolVar(&startOpen, "open", false, "Start with the panel open")
}

func runChat(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var nudges <-chan struct{}
	if cfg.Client.PushEnabled {
		events, err := cl.Subscribe(ctx, requestID)
		if err != nil {
			logger.Warn("push unavailable, polling only", zap.Error(err))
		} else {
			nudges = client.Nudges(events)
		}
	}

	ov := overlay.New(cl, overlay.Options{
		RequestID:       requestID,
		Identity:        cfg.Client.Identity,
		CounterpartName: counterpart,
		PageSize:        cfg.Client.PageSize,
		PollInterval:    cfg.Client.PollInterval,
		InitialOpen:     startOpen,
		Nudges:          nudges,
		Logger:          logger,
	})
	defer ov.Unmount()

	logger.Info("chat started",
		zap.String("request_id", requestID),
		zap.Duration("poll_interval", cfg.Client.PollInterval),
		zap.Bool("push", nudges != nil))

	p := tea.NewProgram(ui.NewApp(ctx, ov, ui.AppOptions{}), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
