package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gsarma/socialgate/internal/auth"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a STATE_SECRET and an ADMIN_API_KEY for the gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runKeygen(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(w io.Writer) error {
	secret, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	adminKey, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, map[string]string{"state_secret": secret, "admin_api_key": adminKey})
	}
	fmt.Fprintf(w, "STATE_SECRET=%s\nADMIN_API_KEY=%s\n", secret, adminKey)
	return nil
}
