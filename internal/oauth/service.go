// Package oauth implements the code exchange, token refresh and consent URL
// flows for every supported platform.
package oauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/logging"
	"github.com/gsarma/socialgate/internal/platform"
)

// ExchangeRequest is the input of a code exchange.
type ExchangeRequest struct {
	Platform     string `json:"platform"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	// State is the value returned by AuthorizeURL, when the flow started here.
	State string `json:"state,omitempty"`
}

// RefreshRequest is the input of a token refresh. For instagram and facebook
// RefreshToken carries the current access token.
type RefreshRequest struct {
	Platform     string `json:"platform"`
	RefreshToken string `json:"refresh_token"`
}

// Authorization is a ready-to-follow consent URL and the state embedded in it.
type Authorization struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// Service runs token flows against the platform registry.
type Service struct {
	registry        *platform.Registry
	states          *StateCodec
	httpClient      *http.Client
	defaultVerifier string
	logger          *log.Logger
	refreshes       singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient sets the client used for every provider call.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Service) {
		s.httpClient = hc
	}
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithDefaultVerifier sets the twitter PKCE verifier used when a request
// carries neither a verifier nor a state.
func WithDefaultVerifier(v string) Option {
	return func(s *Service) {
		s.defaultVerifier = v
	}
}

// NewService creates a Service.
func NewService(registry *platform.Registry, states *StateCodec, opts ...Option) *Service {
	s := &Service{
		registry:   registry,
		states:     states,
		httpClient: http.DefaultClient,
		logger:     logging.Discard(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) provider(cfg platform.Config) Provider {
	return NewProvider(cfg, s.httpClient)
}

// Exchange trades an authorization code for tokens and the account profile.
func (s *Service) Exchange(ctx context.Context, req ExchangeRequest) (*domain.Connection, error) {
	if req.Platform == "" || req.Code == "" || req.RedirectURI == "" {
		return nil, domain.Validation("Missing required parameters: platform, code, redirect_uri")
	}
	cfg, err := s.registry.Lookup(req.Platform)
	if err != nil {
		return nil, err
	}

	verifier, err := s.verifier(cfg, req)
	if err != nil {
		return nil, err
	}

	p := s.provider(cfg)
	tok, err := p.Exchange(ctx, req.Code, req.RedirectURI, verifier)
	if err != nil {
		s.logger.Warn("token exchange rejected", "platform", cfg.Name, "error", err)
		return nil, err
	}

	conn := &domain.Connection{TokenCredential: credential(tok, "")}
	raw, err := p.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		s.logger.Warn("profile lookup failed, returning empty profile", "platform", cfg.Name, "error", err)
		return conn, nil
	}
	conn.Profile = NormalizeProfile(cfg.Name, raw)
	return conn, nil
}

// verifier picks the PKCE verifier for a twitter exchange: the request's own,
// then the one sealed in its state, then the configured default.
func (s *Service) verifier(cfg platform.Config, req ExchangeRequest) (string, error) {
	var fromState string
	if req.State != "" {
		payload, err := s.states.Decode(req.State)
		if err != nil {
			return "", domain.Validation(err.Error())
		}
		if payload.Platform != string(cfg.Name) || payload.RedirectURI != req.RedirectURI {
			return "", domain.Validation("state does not match request")
		}
		fromState = payload.Verifier
	}

	if cfg.Name != platform.Twitter {
		return "", nil
	}
	switch {
	case req.CodeVerifier != "":
		return req.CodeVerifier, nil
	case fromState != "":
		return fromState, nil
	}
	return s.defaultVerifier, nil
}

// Refresh renews a credential. Concurrent refreshes of the same credential
// share a single provider call.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*domain.TokenCredential, error) {
	if req.Platform == "" || req.RefreshToken == "" {
		return nil, domain.Validation("Missing required parameters: platform, refresh_token")
	}
	cfg, err := s.registry.Lookup(req.Platform)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(req.RefreshToken))
	key := string(cfg.Name) + ":" + hex.EncodeToString(sum[:])

	ch := s.refreshes.DoChan(key, func() (any, error) {
		tok, err := s.provider(cfg).Refresh(context.WithoutCancel(ctx), req.RefreshToken)
		if err != nil {
			return nil, err
		}
		cred := credential(tok, req.RefreshToken)
		return &cred, nil
	})

	select {
	case <-ctx.Done():
		return nil, domain.RefreshFailed(string(cfg.Name), 0, "", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("token refresh rejected", "platform", cfg.Name, "error", res.Err)
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("refresh shared with concurrent caller", "platform", cfg.Name)
		}
		cred := *res.Val.(*domain.TokenCredential)
		return &cred, nil
	}
}

// AuthorizeURL builds the provider consent URL for platform. For twitter a
// fresh PKCE verifier is generated and sealed into the state.
func (s *Service) AuthorizeURL(rawPlatform, redirectURI string) (*Authorization, error) {
	if rawPlatform == "" || redirectURI == "" {
		return nil, domain.Validation("Missing required parameters: platform, redirect_uri")
	}
	cfg, err := s.registry.Lookup(rawPlatform)
	if err != nil {
		return nil, err
	}

	payload := StatePayload{Platform: string(cfg.Name), RedirectURI: redirectURI}
	var opts []oauth2.AuthCodeOption
	switch cfg.Name {
	case platform.Twitter:
		payload.Verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(payload.Verifier))
	case platform.YouTube:
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	}

	state, err := s.states.Encode(payload)
	if err != nil {
		return nil, err
	}
	return &Authorization{
		URL:   s.provider(cfg).AuthURL(state, redirectURI, opts...),
		State: state,
	}, nil
}

// credential converts a provider token. fallbackRefresh is kept when the
// provider did not rotate the refresh token.
func credential(t *Token, fallbackRefresh string) domain.TokenCredential {
	cred := domain.TokenCredential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = fallbackRefresh
	}
	if !t.Expiry.IsZero() {
		ms := t.Expiry.UnixMilli()
		cred.ExpiresAt = &ms
	}
	return cred
}
