package publish

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// LinkedInPublisher creates a UGC share for a member. The author is the
// request's AuthorID or, when empty, the member id behind the token.
type LinkedInPublisher struct {
	apiBaseURL  string
	userInfoURL string
	httpClient  *http.Client
}

func NewLinkedInPublisher(endpoints platform.Endpoints, httpClient *http.Client) *LinkedInPublisher {
	return &LinkedInPublisher{
		apiBaseURL:  endpoints.APIBaseURL,
		userInfoURL: endpoints.UserInfoURL,
		httpClient:  httpClient,
	}
}

func (p *LinkedInPublisher) Platform() platform.Name { return platform.LinkedIn }

type ugcPost struct {
	Author          string         `json:"author"`
	LifecycleState  string         `json:"lifecycleState"`
	SpecificContent map[string]any `json:"specificContent"`
	Visibility      map[string]any `json:"visibility"`
}

type shareContent struct {
	ShareCommentary    shareText    `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []shareMedia `json:"media,omitempty"`
}

type shareText struct {
	Text string `json:"text"`
}

type shareMedia struct {
	Status      string `json:"status"`
	OriginalURL string `json:"originalUrl"`
}

func (p *LinkedInPublisher) Publish(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error) {
	author, err := p.author(ctx, post)
	if err != nil {
		return nil, err
	}

	content := shareContent{
		ShareCommentary:    shareText{Text: post.Content},
		ShareMediaCategory: "NONE",
	}
	if len(post.MediaURLs) > 0 {
		content.ShareMediaCategory = "ARTICLE"
		content.Media = []shareMedia{{Status: "READY", OriginalURL: post.MediaURLs[0]}}
	}

	payload := ugcPost{
		Author:          author,
		LifecycleState:  "PUBLISHED",
		SpecificContent: map[string]any{"com.linkedin.ugc.ShareContent": content},
		Visibility:      map[string]any{"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC"},
	}
	header := http.Header{"X-Restli-Protocol-Version": {"2.0.0"}}

	resp, err := postJSON(ctx, p.httpClient, platform.LinkedIn, p.apiBaseURL+"/v2/ugcPosts", post.AccessToken, payload, header)
	if err != nil {
		return nil, err
	}

	id := resp.header.Get("X-Restli-Id")
	if id == "" {
		id = gjson.GetBytes(resp.body, "id").String()
	}
	return &domain.PostResult{ID: id, URL: "https://www.linkedin.com/feed/update/" + id}, nil
}

func (p *LinkedInPublisher) author(ctx context.Context, post domain.PostRequest) (string, error) {
	id := post.AuthorID
	if id == "" {
		resp, err := get(ctx, p.httpClient, platform.LinkedIn, p.userInfoURL, post.AccessToken)
		if err != nil {
			return "", err
		}
		id = gjson.GetBytes(resp.body, "id").String()
		if id == "" {
			return "", domain.DispatchFailed(string(platform.LinkedIn), resp.status, string(resp.body), errors.New("member id not found"))
		}
	}
	if strings.HasPrefix(id, "urn:li:") {
		return id, nil
	}
	return "urn:li:person:" + id, nil
}
