package socialgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Account is a connected platform account as the caller stores it.
type Account struct {
	ID         string     `json:"id"`
	Platform   string     `json:"platform"`
	Credential Credential `json:"credential"`
	AuthorID   string     `json:"author_id,omitempty"`
}

// PostContent is the post sent to every account.
type PostContent struct {
	Content   string
	MediaURLs []string
}

// AccountResult is the outcome for one account. Refreshed is set whenever
// the credential was renewed, even if the post then failed.
type AccountResult struct {
	AccountID string
	Platform  string
	Result    *PostResult
	Refreshed *Credential
	Err       error
}

func (r AccountResult) Success() bool { return r.Err == nil }

// PublishSummary aggregates a fan-out.
type PublishSummary struct {
	Results   []AccountResult
	Succeeded int
	Failed    int
}

// Publisher fans a post out across many accounts, refreshing expired
// credentials before posting.
type Publisher struct {
	client      *Client
	concurrency int
	skew        time.Duration
	now         func() time.Time
	onRefresh   func(ctx context.Context, acct Account, cred Credential) error
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithConcurrency bounds how many accounts are processed at once.
func WithConcurrency(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRefreshSkew refreshes credentials that expire within d.
func WithRefreshSkew(d time.Duration) PublisherOption {
	return func(p *Publisher) {
		p.skew = d
	}
}

// WithOnRefresh registers a callback that persists renewed credentials.
// It may be called concurrently. An error fails that account's post.
func WithOnRefresh(fn func(ctx context.Context, acct Account, cred Credential) error) PublisherOption {
	return func(p *Publisher) {
		p.onRefresh = fn
	}
}

// NewPublisher creates a Publisher over c.
func NewPublisher(c *Client, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		client:      c,
		concurrency: 4,
		skew:        time.Minute,
		now:         time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// PublishAll posts content to every account. A failing account never stops
// the others; results keep the order of accounts.
func (p *Publisher) PublishAll(ctx context.Context, accounts []Account, content PostContent) *PublishSummary {
	results := make([]AccountResult, len(accounts))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, acct := range accounts {
		g.Go(func() error {
			results[i] = p.publishOne(ctx, acct, content)
			return nil
		})
	}
	_ = g.Wait()

	summary := &PublishSummary{Results: results}
	for _, r := range results {
		if r.Success() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// refreshCredential returns the value a platform expects as its refresh
// credential. instagram and facebook renew with the current access token;
// their stored RefreshToken is only the previous access token echoed back.
func refreshCredential(platform string, cred Credential) string {
	switch platform {
	case "instagram", "facebook":
		return cred.AccessToken
	}
	return cred.RefreshToken
}

func (p *Publisher) publishOne(ctx context.Context, acct Account, content PostContent) AccountResult {
	res := AccountResult{AccountID: acct.ID, Platform: acct.Platform}
	cred := acct.Credential

	if cred.Expired(p.now(), p.skew) {
		rt := refreshCredential(acct.Platform, cred)
		if rt == "" {
			res.Err = errors.New("credential expired and cannot be refreshed")
			return res
		}
		fresh, err := p.client.Refresh(ctx, RefreshRequest{Platform: acct.Platform, RefreshToken: rt})
		if err != nil {
			res.Err = fmt.Errorf("refresh: %w", err)
			return res
		}
		cred = *fresh
		res.Refreshed = fresh
		if p.onRefresh != nil {
			if err := p.onRefresh(ctx, acct, cred); err != nil {
				res.Err = fmt.Errorf("persist refreshed credential: %w", err)
				return res
			}
		}
	}

	resp, err := p.client.Dispatch(ctx, DispatchRequest{
		Platform:    acct.Platform,
		AccessToken: cred.AccessToken,
		Content:     content.Content,
		MediaURLs:   content.MediaURLs,
		AuthorID:    acct.AuthorID,
	})
	if err != nil {
		res.Err = err
		return res
	}
	res.Result = &resp.Result
	return res
}
