package publish

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	twitter "github.com/g8rswimmer/go-twitter/v2"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// bearerAuthorizer signs go-twitter requests with a user access token.
type bearerAuthorizer string

func (a bearerAuthorizer) Add(r *http.Request) {
	r.Header.Set("Authorization", "Bearer "+string(a))
}

// TwitterPublisher creates a single text tweet. Media upload needs the v1.1
// chunked upload API and is not performed; media URLs are logged and dropped.
type TwitterPublisher struct {
	host       string
	httpClient *http.Client
	logger     *log.Logger
}

func NewTwitterPublisher(host string, httpClient *http.Client, logger *log.Logger) *TwitterPublisher {
	return &TwitterPublisher{host: host, httpClient: httpClient, logger: logger}
}

func (p *TwitterPublisher) Platform() platform.Name { return platform.Twitter }

func (p *TwitterPublisher) Publish(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error) {
	if len(post.MediaURLs) > 0 {
		p.logger.Warn("twitter media upload not supported, posting text only", "media_urls", post.MediaURLs)
	}

	cli := &twitter.Client{
		Authorizer: bearerAuthorizer(post.AccessToken),
		Client:     p.httpClient,
		Host:       p.host,
	}
	resp, err := cli.CreateTweet(ctx, twitter.CreateTweetRequest{Text: post.Content})
	if err != nil {
		var er *twitter.ErrorResponse
		if errors.As(err, &er) {
			body, _ := json.Marshal(er)
			return nil, domain.DispatchFailed(string(platform.Twitter), er.StatusCode, string(body), nil)
		}
		return nil, domain.DispatchFailed(string(platform.Twitter), 0, "", err)
	}
	if resp.Tweet == nil {
		return nil, domain.DispatchFailed(string(platform.Twitter), http.StatusCreated, "", errors.New("response missing tweet data"))
	}

	return &domain.PostResult{
		ID:  resp.Tweet.ID,
		URL: "https://twitter.com/i/web/status/" + resp.Tweet.ID,
	}, nil
}
