// Package socialgate provides a Go client for the socialgate API.
//
// socialgate exchanges OAuth codes, refreshes tokens and publishes posts for
// the social platforms a dashboard user has connected.
//
// Usage:
//
//	client := socialgate.New("https://gateway.example.com")
//
//	conn, err := client.Exchange(ctx, socialgate.ExchangeRequest{
//	    Platform:    "twitter",
//	    Code:        code,
//	    RedirectURI: "https://app.example.com/callback/twitter",
//	})
//
//	resp, err := client.Dispatch(ctx, socialgate.DispatchRequest{
//	    Platform:    "twitter",
//	    AccessToken: conn.AccessToken,
//	    Content:     "Hello",
//	})
package socialgate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client is the socialgate API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client. baseURL is the root URL of the gateway
// (e.g. "https://gateway.example.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Exchange trades an authorization code for a connection.
func (c *Client) Exchange(ctx context.Context, req ExchangeRequest) (*Connection, error) {
	return doRequest[Connection](ctx, c, http.MethodPost, "/oauth/exchange", req, http.StatusOK)
}

// Refresh renews a credential. For instagram and facebook pass the current
// access token as RefreshToken.
func (c *Client) Refresh(ctx context.Context, req RefreshRequest) (*Credential, error) {
	return doRequest[Credential](ctx, c, http.MethodPost, "/oauth/refresh", req, http.StatusOK)
}

// Dispatch publishes a post to one account.
func (c *Client) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResponse, error) {
	return doRequest[DispatchResponse](ctx, c, http.MethodPost, "/posts/dispatch", req, http.StatusOK)
}

// AuthorizeURL returns the consent URL to send a user to. Keep the returned
// state and pass it back on Exchange.
func (c *Client) AuthorizeURL(ctx context.Context, platform, redirectURI string) (*Authorization, error) {
	path := fmt.Sprintf("/oauth/%s/authorize-url?redirect_uri=%s", url.PathEscape(platform), url.QueryEscape(redirectURI))
	return doRequest[Authorization](ctx, c, http.MethodGet, path, nil, http.StatusOK)
}

// Health checks that the gateway is reachable and reports configured platforms.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/health", nil, http.StatusOK)
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("socialgate: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, path string, body any, expectedStatus int) (*T, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		return nil, parseError(resp)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("socialgate: decode response: %w", err)
	}
	return &out, nil
}

func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		e.Message = body.Error
		e.Code = body.Code
	} else {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
