// Command ledgerctl is the operator tool for the floor ledger: it prints
// floor routes and runs the corruption repair outside the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"textile-backend/internal/config"
	"textile-backend/internal/logging"
)

var (
	output   string
	logLevel string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect floor routes and repair article ledgers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", "text", "Output format: text or yaml")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: LOG_LEVEL or info)")

	root.AddCommand(newFloorsCmd())
	root.AddCommand(newRepairCmd())
	return root
}

// newLogger builds the CLI logger from the environment, with --log-level
// taking precedence.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return logging.New(cfg.IsProduction(), level)
}

func checkOutput() error {
	switch output {
	case "text", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text or yaml)", output)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
