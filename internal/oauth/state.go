package oauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gsarma/socialgate/internal/crypto"
)

// StatePayload is sealed into the OAuth state parameter.
type StatePayload struct {
	Platform    string `json:"platform"`
	RedirectURI string `json:"redirect_uri"`
	Nonce       string `json:"nonce"`
	// Verifier is the PKCE code verifier for platforms that use one.
	Verifier string `json:"verifier,omitempty"`
	IssuedAt int64  `json:"iat"`
}

// StateCodec seals and opens state parameters. Sealing keeps the PKCE
// verifier out of the browser's hands while the user is at the provider.
type StateCodec struct {
	sealer *crypto.Sealer
	ttl    time.Duration
	now    func() time.Time
}

// NewStateCodec returns a codec whose states expire after ttl.
func NewStateCodec(sealer *crypto.Sealer, ttl time.Duration) *StateCodec {
	return &StateCodec{sealer: sealer, ttl: ttl, now: time.Now}
}

// Encode stamps p with a nonce and issue time and seals it.
func (c *StateCodec) Encode(p StatePayload) (string, error) {
	p.Nonce = uuid.NewString()
	p.IssuedAt = c.now().Unix()
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sealed, err := c.sealer.Seal(b)
	if err != nil {
		return "", fmt.Errorf("sealing state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a state produced by Encode.
func (c *StateCodec) Decode(state string) (*StatePayload, error) {
	b, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, errors.New("invalid state encoding")
	}
	plain, err := c.sealer.Open(b)
	if err != nil {
		return nil, errors.New("invalid state")
	}
	var payload StatePayload
	if err := json.Unmarshal(plain, &payload); err != nil {
		return nil, errors.New("invalid state payload")
	}
	if payload.Platform == "" || payload.RedirectURI == "" || payload.Nonce == "" {
		return nil, errors.New("incomplete state payload")
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(payload.IssuedAt, 0)) > c.ttl {
		return nil, errors.New("state expired")
	}
	return &payload, nil
}
