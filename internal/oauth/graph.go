package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gsarma/socialgate/internal/domain"
)

// instagramProvider renews long-lived Instagram tokens. The current access
// token is the refresh credential and travels as access_token.
type instagramProvider struct {
	*standardProvider
}

func (p *instagramProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return p.postRefresh(ctx, url.Values{
		"grant_type":   {"ig_refresh_token"},
		"access_token": {refreshToken},
	})
}

// facebookProvider swaps a user token for a long-lived one.
type facebookProvider struct {
	*standardProvider
}

func (p *facebookProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return p.postRefresh(ctx, url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {p.cfg.ClientID},
		"client_secret":     {p.cfg.ClientSecret},
		"fb_exchange_token": {refreshToken},
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// postRefresh sends a form-encoded grant that x/oauth2 cannot express.
func (p *standardProvider) postRefresh(ctx context.Context, form url.Values) (*Token, error) {
	name := string(p.cfg.Name)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RefreshURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.RefreshFailed(name, 0, "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, domain.RefreshFailed(name, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domain.RefreshFailed(name, resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.RefreshFailed(name, resp.StatusCode, string(body), nil)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, domain.RefreshFailed(name, resp.StatusCode, "", fmt.Errorf("decoding token response: %w", err))
	}
	if tr.AccessToken == "" {
		return nil, domain.RefreshFailed(name, resp.StatusCode, "", errors.New("response missing access_token"))
	}

	t := &Token{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}
	if tr.ExpiresIn > 0 {
		t.Expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return t, nil
}
