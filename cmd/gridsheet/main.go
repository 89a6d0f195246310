// Package main provides the CLI entry point for gridsheet-go.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.alis.build/alog"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet"
)

var (
	storeSpec string
	logLevel  string
	userID    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridsheet",
		Short: "Collaborative spreadsheet engine",
		Long: `gridsheet-go stores spreadsheets as JSON snapshots, evaluates formulas,
converts to and from csv/xlsx, and serves an HTTP and websocket API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			alog.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&storeSpec, "store", "dir:gridsheet-data", "Blob store: memory, dir:<path> or gs://<bucket>")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warning, error")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "Owning user id (default: $GRIDSHEET_USER or default-user)")

	rootCmd.AddCommand(serveCmd(), newCmd(), importCmd(), exportCmd(), evalCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseLevel(name string) (alog.LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return alog.LevelDebug, nil
	case "info":
		return alog.LevelInfo, nil
	case "warn", "warning":
		return alog.LevelWarning, nil
	case "error":
		return alog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warning or error)", name)
}

// openService builds a Service over the --store backend. Flags override the
// GRIDSHEET_* environment.
func openService(ctx context.Context) (*gridsheet.Service, func() error, error) {
	store, closeStore, err := openStore(ctx, storeSpec)
	if err != nil {
		return nil, nil, err
	}
	opts := gridsheet.OptionsFromEnv()
	if userID != "" {
		opts = append(opts, gridsheet.WithUserID(userID))
	}
	return gridsheet.NewService(store, opts...), closeStore, nil
}
