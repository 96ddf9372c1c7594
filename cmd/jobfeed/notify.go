package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a test notification using the configured notifier.",
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.notifier(ctx)
	if err != nil {
		return err
	}
	if err := notifier.SendTestMessage(ctx, n); err != nil {
		a.logger.Error("test notification failed", "error", err)
		return err
	}
	a.logger.Info("test notification sent successfully")
	return nil
}
