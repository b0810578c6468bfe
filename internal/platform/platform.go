// Package platform holds the fixed table of social platforms the gateway
// speaks to and the per-process credentials for each of them.
package platform

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gsarma/socialgate/internal/domain"
)

// Name identifies a supported platform.
type Name string

const (
	Twitter   Name = "twitter"
	Instagram Name = "instagram"
	Facebook  Name = "facebook"
	LinkedIn  Name = "linkedin"
	YouTube   Name = "youtube"
)

var names = []Name{Twitter, Instagram, Facebook, LinkedIn, YouTube}

// Names returns every supported platform in display order.
func Names() []Name {
	return append([]Name(nil), names...)
}

// Parse maps a request value onto a Name. Matching is exact.
func Parse(s string) (Name, error) {
	if lo.Contains(names, Name(s)) {
		return Name(s), nil
	}
	return "", domain.UnsupportedPlatform(s)
}

// EnvPrefix is the upper-case prefix used for the platform's environment
// variables, e.g. TWITTER_CLIENT_ID.
func (n Name) EnvPrefix() string {
	return strings.ToUpper(string(n))
}

// Endpoints are the provider URLs a platform is reached through.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	RefreshURL  string
	UserInfoURL string
	// APIBaseURL is the root publishing calls are made against.
	APIBaseURL string
}

// Config is the immutable per-process configuration of one platform.
type Config struct {
	Name         Name
	ClientID     string
	ClientSecret string
	Scopes       []string
	Endpoints
}

// Configured reports whether both client credentials are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// OAuth2 returns an x/oauth2 config for the authorization code flow.
// Credentials travel in the form body, which every supported provider accepts.
func (c Config) OAuth2(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// DefaultEndpoints returns the production endpoints for name.
func DefaultEndpoints(name Name) Endpoints {
	switch name {
	case Twitter:
		return Endpoints{
			AuthURL:     "https://twitter.com/i/oauth2/authorize",
			TokenURL:    "https://api.twitter.com/2/oauth2/token",
			RefreshURL:  "https://api.twitter.com/2/oauth2/token",
			UserInfoURL: "https://api.twitter.com/2/users/me?user.fields=profile_image_url",
			APIBaseURL:  "https://api.twitter.com",
		}
	case Instagram:
		return Endpoints{
			AuthURL:     "https://api.instagram.com/oauth/authorize",
			TokenURL:    "https://api.instagram.com/oauth/access_token",
			RefreshURL:  "https://graph.instagram.com/refresh_access_token",
			UserInfoURL: "https://graph.instagram.com/me?fields=id,username,name,profile_picture_url",
			APIBaseURL:  "https://graph.instagram.com",
		}
	case Facebook:
		return Endpoints{
			AuthURL:     "https://www.facebook.com/v18.0/dialog/oauth",
			TokenURL:    "https://graph.facebook.com/v18.0/oauth/access_token",
			RefreshURL:  "https://graph.facebook.com/v18.0/oauth/access_token",
			UserInfoURL: "https://graph.facebook.com/me?fields=id,name,picture",
			APIBaseURL:  "https://graph.facebook.com/v18.0",
		}
	case LinkedIn:
		return Endpoints{
			AuthURL:     "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL:    "https://www.linkedin.com/oauth/v2/accessToken",
			RefreshURL:  "https://www.linkedin.com/oauth/v2/accessToken",
			UserInfoURL: "https://api.linkedin.com/v2/me?projection=(id,firstName,lastName,profilePicture(displayImage~:playableStreams))",
			APIBaseURL:  "https://api.linkedin.com",
		}
	case YouTube:
		return Endpoints{
			AuthURL:     google.Endpoint.AuthURL,
			TokenURL:    google.Endpoint.TokenURL,
			RefreshURL:  google.Endpoint.TokenURL,
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			APIBaseURL:  "https://www.googleapis.com",
		}
	}
	return Endpoints{}
}

// DefaultScopes returns the scopes requested on the consent screen.
func DefaultScopes(name Name) []string {
	switch name {
	case Twitter:
		return []string{"tweet.read", "tweet.write", "users.read", "offline.access"}
	case Instagram:
		return []string{"instagram_business_basic", "instagram_business_content_publish"}
	case Facebook:
		return []string{"public_profile", "pages_manage_posts", "pages_read_engagement"}
	case LinkedIn:
		return []string{"r_liteprofile", "w_member_social"}
	case YouTube:
		return []string{
			"https://www.googleapis.com/auth/youtube.upload",
			"https://www.googleapis.com/auth/userinfo.profile",
		}
	}
	return nil
}

// Default builds the production Config for name with the given credentials.
func Default(name Name, clientID, clientSecret string) Config {
	return Config{
		Name:         name,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       DefaultScopes(name),
		Endpoints:    DefaultEndpoints(name),
	}
}
