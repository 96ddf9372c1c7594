package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/notifier"
	"github.com/amishk599/jobfeed/internal/store"
)

var importDryRun bool

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run one import and exit",
	Long: "Fetches every provider once, stores the new jobs and prints the outcome. " +
		"With --dry-run nothing is stored and the jobs are logged instead of notified.",
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "fetch and normalize but do not store or notify")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		repo model.JobRepository
		n    model.Notifier
	)
	if importDryRun {
		a.logger.Info("dry-run mode: no jobs will be stored")
		repo = store.NewNopStore()
		n = notifier.NewLogNotifier(a.logger)
	} else {
		if repo, err = a.store(ctx); err != nil {
			return err
		}
		if n, err = a.notifier(ctx); err != nil {
			return err
		}
	}

	sources, err := a.sources(ctx)
	if err != nil {
		return err
	}
	pipeline, err := a.pipeline(ctx, sources, repo, n)
	if err != nil {
		return err
	}

	out, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
