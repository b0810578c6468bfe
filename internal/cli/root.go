// Package cli implements the socialctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gsarma/socialgate/internal/logging"
	socialgate "github.com/gsarma/socialgate/sdk"
)

var (
	apiURL     string
	jsonOutput bool
	logLevel   string

	// logger writes progress to stderr so stdout stays parseable.
	logger = logging.Discard()
)

const defaultAPIURL = "http://localhost:8080"

var rootCmd = &cobra.Command{
	Use:   "socialctl",
	Short: "CLI for the socialgate API",
	Long: `socialctl talks to a running socialgate gateway.

Environment Variables:
  SOCIALGATE_URL  Gateway URL (default: http://localhost:8080)`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger(cmd.ErrOrStderr())
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Gateway URL (overrides SOCIALGATE_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Progress log level (debug, info, warn, error)")
}

func newLogger(w io.Writer) *log.Logger {
	format := "text"
	if jsonOutput {
		format = "json"
	}
	return logging.New(logLevel, format, w)
}

// GetAPIURL returns the gateway URL from flag, env, or default.
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	if envURL := os.Getenv("SOCIALGATE_URL"); envURL != "" {
		return envURL
	}
	return defaultAPIURL
}

func newClient() *socialgate.Client {
	return socialgate.New(GetAPIURL())
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
