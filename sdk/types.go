package socialgate

import "time"

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Platforms []string `json:"platforms"`
	Audit     bool     `json:"audit"`
}

// --- OAuth ---

// ExchangeRequest exchanges an authorization code.
type ExchangeRequest struct {
	Platform     string `json:"platform"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier,omitempty"`
	State        string `json:"state,omitempty"`
}

// RefreshRequest refreshes a credential.
type RefreshRequest struct {
	Platform     string `json:"platform"`
	RefreshToken string `json:"refresh_token"`
}

// Credential is the token material of a connected account. ExpiresAt is epoch
// milliseconds and nil when the platform reported no lifetime.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
}

// Expired reports whether the credential expires within skew of now.
// Credentials without an expiry never expire.
func (c Credential) Expired(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.Add(skew).UnixMilli() >= *c.ExpiresAt
}

// Connection is returned by a successful exchange.
type Connection struct {
	Credential
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
}

// Authorization is a consent URL and its state.
type Authorization struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// --- Posts ---

// DispatchRequest publishes a post.
type DispatchRequest struct {
	Platform    string   `json:"platform"`
	AccessToken string   `json:"access_token"`
	Content     string   `json:"content"`
	MediaURLs   []string `json:"media_urls,omitempty"`
	AuthorID    string   `json:"author_id,omitempty"`
}

// PostResult identifies the created post.
type PostResult struct {
	ID         string `json:"id"`
	URL        string `json:"url,omitempty"`
	MediaCount int    `json:"media_count,omitempty"`
}

// DispatchResponse is returned by a successful dispatch.
type DispatchResponse struct {
	Success  bool       `json:"success"`
	Platform string     `json:"platform"`
	Result   PostResult `json:"result"`
}
