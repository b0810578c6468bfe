// Package publish sends a post to a connected account on one platform.
package publish

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/logging"
	"github.com/gsarma/socialgate/internal/platform"
)

// Publisher posts content on behalf of an access token.
type Publisher interface {
	Platform() platform.Name
	Publish(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error)
}

// Dispatcher validates post requests and routes them to a Publisher.
type Dispatcher struct {
	publishers map[platform.Name]Publisher
	logger     *log.Logger
}

// NewDispatcher builds a dispatcher over publishers. A later publisher for
// the same platform replaces an earlier one.
func NewDispatcher(logger *log.Logger, publishers ...Publisher) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	d := &Dispatcher{
		publishers: make(map[platform.Name]Publisher, len(publishers)),
		logger:     logger,
	}
	for _, p := range publishers {
		d.publishers[p.Platform()] = p
	}
	return d
}

// Options configures the default publishers.
type Options struct {
	HTTPClient   *http.Client
	Logger       *log.Logger
	PollInterval time.Duration
	PollAttempts int
}

// NewDefault wires a publisher for every supported platform against the
// registry's endpoints.
func NewDefault(registry *platform.Registry, opts Options) *Dispatcher {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return NewDispatcher(opts.Logger,
		NewTwitterPublisher(registry.Get(platform.Twitter).APIBaseURL, opts.HTTPClient, opts.Logger),
		NewInstagramPublisher(registry.Get(platform.Instagram).APIBaseURL, opts.HTTPClient, opts.PollInterval, opts.PollAttempts),
		NewFacebookPublisher(registry.Get(platform.Facebook).APIBaseURL, opts.HTTPClient),
		NewLinkedInPublisher(registry.Get(platform.LinkedIn).Endpoints, opts.HTTPClient),
		YouTubePublisher{},
	)
}

// Dispatch validates post and hands it to the platform's publisher.
func (d *Dispatcher) Dispatch(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error) {
	if post.Platform == "" || post.AccessToken == "" || post.Content == "" {
		return nil, domain.Validation("Missing required parameters: platform, access_token, content")
	}
	name, err := platform.Parse(post.Platform)
	if err != nil {
		return nil, err
	}
	p, ok := d.publishers[name]
	if !ok {
		return nil, domain.UnsupportedPlatform(post.Platform)
	}

	post.MediaURLs = cleanMediaURLs(post.MediaURLs)
	result, err := p.Publish(ctx, post)
	if err != nil {
		d.logger.Warn("post dispatch failed", "platform", name, "error", err)
		return nil, err
	}
	d.logger.Info("post dispatched", "platform", name, "id", result.ID, "media_count", len(post.MediaURLs))
	return result, nil
}

func cleanMediaURLs(urls []string) []string {
	trimmed := lo.Map(urls, func(u string, _ int) string {
		return strings.TrimSpace(u)
	})
	return lo.Uniq(lo.Compact(trimmed))
}
