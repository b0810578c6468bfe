package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check gateway connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealth(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(ctx context.Context, w io.Writer) error {
	resp, err := newClient().Health(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, resp)
	}
	platforms := strings.Join(resp.Platforms, ", ")
	if platforms == "" {
		platforms = "(none)"
	}
	fmt.Fprintf(w, "Gateway:    %s\nStatus:     %s\nPlatforms:  %s\nAudit:      %t\n", GetAPIURL(), resp.Status, platforms, resp.Audit)
	return nil
}
