package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// Token holds OAuth credentials returned by a provider.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Provider is the token strategy of one platform.
type Provider interface {
	// AuthURL returns the consent URL to send the user to.
	AuthURL(state, redirectURI string, opts ...oauth2.AuthCodeOption) string
	// Exchange converts an authorization code into a Token. verifier is the
	// PKCE code verifier and is omitted from the request when empty.
	Exchange(ctx context.Context, code, redirectURI, verifier string) (*Token, error)
	// Refresh obtains a new access token from a refresh credential.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	// UserInfo returns the raw user-info document for an access token.
	UserInfo(ctx context.Context, accessToken string) ([]byte, error)
}

// NewProvider returns the strategy for cfg.Name.
func NewProvider(cfg platform.Config, httpClient *http.Client) Provider {
	base := &standardProvider{cfg: cfg, httpClient: httpClient}
	switch cfg.Name {
	case platform.Instagram:
		return &instagramProvider{base}
	case platform.Facebook:
		return &facebookProvider{base}
	}
	return base
}

// standardProvider covers platforms that follow RFC 6749 for both the code
// and refresh grants.
type standardProvider struct {
	cfg        platform.Config
	httpClient *http.Client
}

func (p *standardProvider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *standardProvider) AuthURL(state, redirectURI string, opts ...oauth2.AuthCodeOption) string {
	return p.cfg.OAuth2(redirectURI).AuthCodeURL(state, opts...)
}

func (p *standardProvider) Exchange(ctx context.Context, code, redirectURI, verifier string) (*Token, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	t, err := p.cfg.OAuth2(redirectURI).Exchange(p.withClient(ctx), code, opts...)
	if err != nil {
		return nil, tokenError(domain.ExchangeFailed, p.cfg.Name, err)
	}
	return fromOAuth2(t), nil
}

func (p *standardProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	oc := p.cfg.OAuth2("")
	oc.Endpoint.TokenURL = p.cfg.RefreshURL
	t, err := oc.TokenSource(p.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, tokenError(domain.RefreshFailed, p.cfg.Name, err)
	}
	return fromOAuth2(t), nil
}

func (p *standardProvider) UserInfo(ctx context.Context, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s userinfo request: %w", p.cfg.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s userinfo read: %w", p.cfg.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s userinfo returned %d: %s", p.cfg.Name, resp.StatusCode, body)
	}
	return body, nil
}

const maxBodySize = 1 << 20

func fromOAuth2(t *oauth2.Token) *Token {
	return &Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// tokenError converts an x/oauth2 failure into the domain error built by
// build, keeping the provider's raw response body.
func tokenError(build func(string, int, string, error) *domain.Error, name platform.Name, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return build(string(name), status, string(re.Body), nil)
	}
	return build(string(name), 0, "", err)
}
