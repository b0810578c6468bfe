package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/spf13/cobra"

	socialgate "github.com/gsarma/socialgate/sdk"
)

var (
	accountsFile string
	content      string
	mediaURLs    []string
	concurrency  int
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish a post to every account in an accounts file",
	Long: `Publish a post to every account listed in a JSON accounts file.

Expired credentials are renewed first and written back to the file.
The command fails when any account fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPost(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	postCmd.Flags().StringVarP(&accountsFile, "accounts", "a", "accounts.json", "JSON file with the accounts to post to")
	postCmd.Flags().StringVarP(&content, "content", "c", "", "Post text")
	postCmd.Flags().StringSliceVarP(&mediaURLs, "media", "m", nil, "Public media URL (repeatable)")
	postCmd.Flags().IntVar(&concurrency, "concurrency", 4, "Accounts processed at once")
	postCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(postCmd)
}

// accountStore persists refreshed credentials to the accounts file.
type accountStore struct {
	mu       sync.Mutex
	path     string
	accounts []socialgate.Account
}

func loadAccounts(path string) (*accountStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}
	var accounts []socialgate.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse accounts: %w", err)
	}
	return &accountStore{path: path, accounts: accounts}, nil
}

func (s *accountStore) update(_ context.Context, acct socialgate.Account, cred socialgate.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == acct.ID {
			s.accounts[i].Credential = cred
		}
	}
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return err
	}
	logger.Info("saved refreshed credential", "account", acct.ID, "platform", acct.Platform, "file", s.path)
	return nil
}

func runPost(ctx context.Context, w io.Writer) error {
	store, err := loadAccounts(accountsFile)
	if err != nil {
		return err
	}
	if len(store.accounts) == 0 {
		return errors.New("no accounts in " + accountsFile)
	}

	publisher := socialgate.NewPublisher(newClient(),
		socialgate.WithConcurrency(concurrency),
		socialgate.WithOnRefresh(store.update),
	)
	summary := publisher.PublishAll(ctx, slices.Clone(store.accounts), socialgate.PostContent{
		Content:   content,
		MediaURLs: mediaURLs,
	})

	if jsonOutput {
		if err := writeJSON(w, summaryJSON(summary)); err != nil {
			return err
		}
	} else {
		for _, r := range summary.Results {
			switch {
			case r.Success() && r.Result.URL != "":
				fmt.Fprintf(w, "OK    %-12s %-10s %s\n", r.AccountID, r.Platform, r.Result.URL)
			case r.Success():
				fmt.Fprintf(w, "OK    %-12s %-10s %s\n", r.AccountID, r.Platform, r.Result.ID)
			default:
				fmt.Fprintf(w, "FAIL  %-12s %-10s %v\n", r.AccountID, r.Platform, r.Err)
			}
		}
		fmt.Fprintf(w, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d accounts failed", summary.Failed, len(summary.Results))
	}
	return nil
}

type resultJSON struct {
	AccountID string                 `json:"account_id"`
	Platform  string                 `json:"platform"`
	Success   bool                   `json:"success"`
	Result    *socialgate.PostResult `json:"result,omitempty"`
	Refreshed bool                   `json:"refreshed"`
	Error     string                 `json:"error,omitempty"`
}

func summaryJSON(s *socialgate.PublishSummary) map[string]any {
	results := make([]resultJSON, 0, len(s.Results))
	for _, r := range s.Results {
		out := resultJSON{
			AccountID: r.AccountID,
			Platform:  r.Platform,
			Success:   r.Success(),
			Result:    r.Result,
			Refreshed: r.Refreshed != nil,
		}
		if r.Err != nil {
			out.Error = r.Err.Error()
		}
		results = append(results, out)
	}
	return map[string]any{
		"succeeded": s.Succeeded,
		"failed":    s.Failed,
		"results":   results,
	}
}
