package publish

import (
	"context"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// YouTubePublisher rejects every post. Publishing to YouTube is a resumable
// video upload, not a text post.
type YouTubePublisher struct{}

func (YouTubePublisher) Platform() platform.Name { return platform.YouTube }

func (YouTubePublisher) Publish(context.Context, domain.PostRequest) (*domain.PostResult, error) {
	return nil, domain.NotImplemented(string(platform.YouTube), "YouTube posting requires video upload workflow")
}
