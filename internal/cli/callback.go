package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var (
	callbackAddr string
	callbackPath string
)

var callbackCmd = &cobra.Command{
	Use:   "callback",
	Short: "Catch an OAuth redirect locally and print the code and state",
	Long: `Start a local listener for the provider's post-consent redirect.
Register http://localhost:9999/callback (or your --addr and --path) as the
redirect URI, open the URL from authorize-url, and the code and state are
printed once the provider redirects back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ln, err := net.Listen("tcp", callbackAddr)
		if err != nil {
			return err
		}
		logger.Info("waiting for OAuth redirect", "addr", ln.Addr().String(), "path", callbackPath)
		return runCallback(cmd.Context(), cmd.OutOrStdout(), ln)
	},
}

func init() {
	callbackCmd.Flags().StringVar(&callbackAddr, "addr", "localhost:9999", "Listen address")
	callbackCmd.Flags().StringVar(&callbackPath, "path", "/callback", "Redirect path")
	rootCmd.AddCommand(callbackCmd)
}

// callbackResult is what the provider sent back.
type callbackResult struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// runCallback serves ln until one redirect carrying a code or an error
// arrives.
func runCallback(ctx context.Context, w io.Writer, ln net.Listener) error {
	results := make(chan callbackResult, 1)
	failures := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(rw http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			rw.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(rw, "authorization failed: %s\n", html.EscapeString(e))
			select {
			case failures <- fmt.Errorf("authorization failed: %s %s", e, q.Get("error_description")):
			default:
			}
			return
		}
		res := callbackResult{Code: q.Get("code"), State: q.Get("state")}
		if res.Code == "" {
			rw.WriteHeader(http.StatusBadRequest)
			fmt.Fprintln(rw, "missing code")
			return
		}

		rw.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(rw, `<html><body>
<h2>Authorization complete</h2>
<p>You can close this window and return to the terminal.</p>
<p><strong>code:</strong> %s</p>
</body></html>`, html.EscapeString(res.Code))
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go srv.Serve(ln)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		if jsonOutput {
			return writeJSON(w, res)
		}
		fmt.Fprintf(w, "Code:   %s\nState:  %s\n", res.Code, res.State)
		return nil
	case err := <-failures:
		return err
	case <-ctx.Done():
		return errors.New("stopped before a redirect arrived")
	}
}
