package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// InstagramPublisher runs the Graph container flow: one container per media
// item, a carousel container when there is more than one, then publish.
// Video containers are polled until processing finishes.
type InstagramPublisher struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	pollAttempts int
}

func NewInstagramPublisher(baseURL string, httpClient *http.Client, pollInterval time.Duration, pollAttempts int) *InstagramPublisher {
	if pollAttempts < 1 {
		pollAttempts = 1
	}
	return &InstagramPublisher{
		baseURL:      baseURL,
		httpClient:   httpClient,
		pollInterval: pollInterval,
		pollAttempts: pollAttempts,
	}
}

func (p *InstagramPublisher) Platform() platform.Name { return platform.Instagram }

var videoExtensions = []string{".mp4", ".mov", ".m4v"}

func isVideo(mediaURL string) bool {
	u, err := url.Parse(mediaURL)
	if err != nil {
		return false
	}
	return lo.Contains(videoExtensions, strings.ToLower(path.Ext(u.Path)))
}

func (p *InstagramPublisher) Publish(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error) {
	if len(post.MediaURLs) == 0 {
		return nil, domain.Validation("Instagram posts require at least one image or video")
	}

	var creationID string
	if len(post.MediaURLs) == 1 {
		form := mediaForm(post.MediaURLs[0], false)
		form.Set("caption", post.Content)
		id, err := p.createContainer(ctx, post.AccessToken, form)
		if err != nil {
			return nil, err
		}
		if isVideo(post.MediaURLs[0]) {
			if err := p.waitReady(ctx, post.AccessToken, id); err != nil {
				return nil, err
			}
		}
		creationID = id
	} else {
		children := make([]string, 0, len(post.MediaURLs))
		for _, m := range post.MediaURLs {
			id, err := p.createContainer(ctx, post.AccessToken, mediaForm(m, true))
			if err != nil {
				return nil, err
			}
			if isVideo(m) {
				if err := p.waitReady(ctx, post.AccessToken, id); err != nil {
					return nil, err
				}
			}
			children = append(children, id)
		}
		id, err := p.createContainer(ctx, post.AccessToken, url.Values{
			"media_type": {"CAROUSEL"},
			"children":   {strings.Join(children, ",")},
			"caption":    {post.Content},
		})
		if err != nil {
			return nil, err
		}
		creationID = id
	}

	resp, err := postForm(ctx, p.httpClient, platform.Instagram, p.baseURL+"/me/media_publish", post.AccessToken,
		url.Values{"creation_id": {creationID}})
	if err != nil {
		return nil, err
	}
	var out idResponse
	if err := resp.decode(&out); err != nil || out.ID == "" {
		return nil, domain.DispatchFailed(string(platform.Instagram), resp.status, string(resp.body), errors.Join(errors.New("publish returned no media id"), err))
	}
	return &domain.PostResult{ID: out.ID, MediaCount: len(post.MediaURLs)}, nil
}

func mediaForm(mediaURL string, carouselItem bool) url.Values {
	form := url.Values{}
	switch {
	case isVideo(mediaURL) && carouselItem:
		form.Set("media_type", "VIDEO")
		form.Set("video_url", mediaURL)
	case isVideo(mediaURL):
		form.Set("media_type", "REELS")
		form.Set("video_url", mediaURL)
	default:
		form.Set("image_url", mediaURL)
	}
	if carouselItem {
		form.Set("is_carousel_item", "true")
	}
	return form
}

func (p *InstagramPublisher) createContainer(ctx context.Context, token string, form url.Values) (string, error) {
	resp, err := postForm(ctx, p.httpClient, platform.Instagram, p.baseURL+"/me/media", token, form)
	if err != nil {
		return "", err
	}
	var out idResponse
	if err := resp.decode(&out); err != nil || out.ID == "" {
		return "", domain.DispatchFailed(string(platform.Instagram), resp.status, string(resp.body), errors.Join(errors.New("container response has no id"), err))
	}
	return out.ID, nil
}

type containerStatus struct {
	StatusCode string `json:"status_code"`
}

// waitReady polls a container until it is FINISHED, failing on ERROR or
// EXPIRED and after pollAttempts checks.
func (p *InstagramPublisher) waitReady(ctx context.Context, token, containerID string) error {
	endpoint := fmt.Sprintf("%s/%s?fields=status_code", p.baseURL, url.PathEscape(containerID))
	for attempt := 1; ; attempt++ {
		resp, err := get(ctx, p.httpClient, platform.Instagram, endpoint, token)
		if err != nil {
			return err
		}
		var st containerStatus
		if err := resp.decode(&st); err != nil {
			return domain.DispatchFailed(string(platform.Instagram), resp.status, string(resp.body), err)
		}
		switch st.StatusCode {
		case "FINISHED", "PUBLISHED":
			return nil
		case "ERROR", "EXPIRED":
			return domain.DispatchFailed(string(platform.Instagram), resp.status, string(resp.body),
				fmt.Errorf("media container %s is %s", containerID, st.StatusCode))
		}
		if attempt >= p.pollAttempts {
			return domain.DispatchFailed(string(platform.Instagram), 0, "",
				fmt.Errorf("media container %s not ready after %d checks", containerID, attempt))
		}

		timer := time.NewTimer(p.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.DispatchFailed(string(platform.Instagram), 0, "", ctx.Err())
		case <-timer.C:
		}
	}
}
