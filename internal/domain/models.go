package domain

// TokenCredential is the token material handed back to callers after an
// exchange or refresh. ExpiresAt is epoch milliseconds and is omitted when
// the provider did not report a lifetime.
type TokenCredential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    *int64 `json:"expires_at,omitempty"`
}

// Profile is the platform-independent view of the authenticated account.
type Profile struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	ProfileImage string `json:"profile_image"`
}

// Connection is the result of a successful code exchange.
type Connection struct {
	TokenCredential
	Profile
}

// PostRequest is a single publish request against one platform account.
type PostRequest struct {
	Platform    string   `json:"platform"`
	AccessToken string   `json:"access_token"`
	Content     string   `json:"content"`
	MediaURLs   []string `json:"media_urls,omitempty"`
	// AuthorID is the platform member id used by platforms that require an
	// explicit author. Looked up from the token when empty.
	AuthorID string `json:"author_id,omitempty"`
}

// PostResult describes the object the platform created.
type PostResult struct {
	ID         string `json:"id"`
	URL        string `json:"url,omitempty"`
	MediaCount int    `json:"media_count,omitempty"`
}
