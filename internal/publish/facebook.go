package publish

import (
	"context"
	"net/http"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// FacebookPublisher posts to the authenticated user's or page's feed.
type FacebookPublisher struct {
	baseURL    string
	httpClient *http.Client
}

func NewFacebookPublisher(baseURL string, httpClient *http.Client) *FacebookPublisher {
	return &FacebookPublisher{baseURL: baseURL, httpClient: httpClient}
}

func (p *FacebookPublisher) Platform() platform.Name { return platform.Facebook }

type feedPost struct {
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}

func (p *FacebookPublisher) Publish(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error) {
	payload := feedPost{Message: post.Content}
	if len(post.MediaURLs) > 0 {
		payload.Link = post.MediaURLs[0]
	}

	resp, err := postJSON(ctx, p.httpClient, platform.Facebook, p.baseURL+"/me/feed", post.AccessToken, payload, nil)
	if err != nil {
		return nil, err
	}
	var out idResponse
	if err := resp.decode(&out); err != nil {
		return nil, domain.DispatchFailed(string(platform.Facebook), resp.status, string(resp.body), err)
	}
	return &domain.PostResult{ID: out.ID, URL: "https://www.facebook.com/" + out.ID}, nil
}
