package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobfeed/internal/adapter"
	"github.com/amishk599/jobfeed/internal/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured providers",
	Long:  "Reads the config and prints a table of the upstream providers.",
	RunE:  runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context(), cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	fmt.Printf("%-12s %s\n", "Provider", "URL")
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("%-12s %s\n", adapter.ProviderOneName, cfg.Providers.OneURL)
	fmt.Printf("%-12s %s\n", adapter.ProviderTwoName, cfg.Providers.TwoURL)

	fmt.Printf("\nTimeout %s, %d retries, %.1f req/s per provider\n",
		cfg.Providers.Timeout, cfg.Providers.MaxRetries, cfg.Providers.RequestsPerSecond)
	return nil
}
