package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	socialgate "github.com/gsarma/socialgate/sdk"
)

var (
	redirectURI  string
	code         string
	state        string
	codeVerifier string
	refreshToken string
)

var authorizeURLCmd = &cobra.Command{
	Use:   "authorize-url <platform>",
	Short: "Print the consent URL for a platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthorizeURL(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var exchangeCmd = &cobra.Command{
	Use:   "exchange <platform>",
	Short: "Exchange an authorization code for a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExchange(cmd.Context(), cmd.OutOrStdout(), socialgate.ExchangeRequest{
			Platform:     args[0],
			Code:         code,
			RedirectURI:  redirectURI,
			CodeVerifier: codeVerifier,
			State:        state,
		})
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <platform>",
	Short: "Renew a credential",
	Long: `Renew a credential. instagram and facebook renew with the current
access token, so pass it as --refresh-token for those platforms.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh(cmd.Context(), cmd.OutOrStdout(), socialgate.RefreshRequest{
			Platform:     args[0],
			RefreshToken: refreshToken,
		})
	},
}

func init() {
	authorizeURLCmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Callback URL registered with the platform")
	authorizeURLCmd.MarkFlagRequired("redirect-uri")

	exchangeCmd.Flags().StringVar(&redirectURI, "redirect-uri", "", "Callback URL used for the consent request")
	exchangeCmd.Flags().StringVar(&code, "code", "", "Authorization code from the callback")
	exchangeCmd.Flags().StringVar(&state, "state", "", "State returned by authorize-url")
	exchangeCmd.Flags().StringVar(&codeVerifier, "code-verifier", "", "Explicit PKCE verifier (twitter)")
	exchangeCmd.MarkFlagRequired("code")
	exchangeCmd.MarkFlagRequired("redirect-uri")

	refreshCmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token, or access token for instagram and facebook")
	refreshCmd.MarkFlagRequired("refresh-token")

	rootCmd.AddCommand(authorizeURLCmd, exchangeCmd, refreshCmd)
}

func runAuthorizeURL(ctx context.Context, w io.Writer, platform string) error {
	auth, err := newClient().AuthorizeURL(ctx, platform, redirectURI)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, auth)
	}
	fmt.Fprintf(w, "Open this URL to connect %s:\n\n  %s\n\nState: %s\n", platform, auth.URL, auth.State)
	return nil
}

func runExchange(ctx context.Context, w io.Writer, req socialgate.ExchangeRequest) error {
	conn, err := newClient().Exchange(ctx, req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, conn)
	}
	fmt.Fprintf(w, "Connected %s as %s", req.Platform, conn.Username)
	if conn.DisplayName != "" {
		fmt.Fprintf(w, " (%s)", conn.DisplayName)
	}
	fmt.Fprintln(w)
	printCredential(w, conn.Credential)
	return nil
}

func runRefresh(ctx context.Context, w io.Writer, req socialgate.RefreshRequest) error {
	cred, err := newClient().Refresh(ctx, req)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(w, cred)
	}
	printCredential(w, *cred)
	return nil
}

func printCredential(w io.Writer, c socialgate.Credential) {
	fmt.Fprintf(w, "Access token:   %s\n", c.AccessToken)
	if c.RefreshToken != "" {
		fmt.Fprintf(w, "Refresh token:  %s\n", c.RefreshToken)
	}
	if c.ExpiresAt != nil {
		fmt.Fprintf(w, "Expires at:     %s\n", time.UnixMilli(*c.ExpiresAt).UTC().Format(time.RFC3339))
	}
}
