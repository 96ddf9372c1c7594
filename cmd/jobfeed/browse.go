package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/browse"
	"github.com/amishk599/jobfeed/internal/filter"
)

var browseCriteria = filter.DefaultCriteria()

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored jobs interactively (TUI)",
	Long:  "Pages through the stored jobs with optional title and location filters.",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseCriteria.Title, "title", "", "case-insensitive title filter")
	browseCmd.Flags().StringVar(&browseCriteria.Location, "location", "", "case-insensitive location filter")
	browseCmd.Flags().IntVar(&browseCriteria.PageSize, "page-size", browseCriteria.PageSize, "jobs per page (1-100)")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	// Log output before the alt-screen starts corrupts the display.
	a.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	defer a.Close()

	repo, err := a.store(ctx)
	if err != nil {
		return err
	}
	engine := filter.NewEngine(repo, a.cfg.Store.Timeout, a.logger)

	criteria := browseCriteria.Normalized()
	if err := engine.Validate(criteria); err != nil {
		return err
	}
	return browse.Run(engine, criteria)
}
