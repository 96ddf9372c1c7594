package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/adapter"
)

var fetchCmd = &cobra.Command{
	Use:       "fetch <provider>",
	Short:     "Fetch one provider and print its normalized jobs",
	Long:      "Calls a single provider through the configured fetch chain and prints the canonical jobs as JSON. Nothing is stored.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{adapter.ProviderOneName, adapter.ProviderTwoName},
	RunE:      runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := a.sources(ctx)
	if err != nil {
		return err
	}
	for _, s := range sources {
		if s.Name() != args[0] {
			continue
		}
		jobs, err := s.FetchJobs(ctx)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", s.Name(), err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}
	return fmt.Errorf("unknown provider %q", args[0])
}
