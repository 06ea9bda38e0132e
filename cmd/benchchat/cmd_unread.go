package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// unreadCmd prints the unread count of a conversation
var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Print the number of unread messages for a resource request",
	RunE:  runUnread,
}

func runUnread(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}

	n, err := cl.UnreadCount(cmd.Context(), requestID)
	if err != nil {
		return fmt.Errorf("unread count: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}
