package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

const maxBodySize = 1 << 20

// response is a provider reply that already passed the 2xx check.
type response struct {
	status int
	header http.Header
	body   []byte
}

func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// call sends req with a bearer token and turns transport failures and non-2xx
// replies into dispatch errors for name.
func call(client *http.Client, name platform.Name, req *http.Request, token string) (*response, error) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, domain.DispatchFailed(string(name), 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domain.DispatchFailed(string(name), resp.StatusCode, "", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.DispatchFailed(string(name), resp.StatusCode, string(body), nil)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

func postJSON(ctx context.Context, client *http.Client, name platform.Name, endpoint, token string, payload any, header http.Header) (*response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.DispatchFailed(string(name), 0, "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, domain.DispatchFailed(string(name), 0, "", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	return call(client, name, req, token)
}

func postForm(ctx context.Context, client *http.Client, name platform.Name, endpoint, token string, form url.Values) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, domain.DispatchFailed(string(name), 0, "", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return call(client, name, req, token)
}

func get(ctx context.Context, client *http.Client, name platform.Name, endpoint, token string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.DispatchFailed(string(name), 0, "", err)
	}
	return call(client, name, req, token)
}

type idResponse struct {
	ID string `json:"id"`
}
