// Package auth guards operator endpoints with a static API key.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CodeUnauthorized is the error code of a rejected request.
const CodeUnauthorized = "unauthorized"

// Guard checks Bearer API keys against a configured key. Only the key's
// hash is held in memory.
type Guard struct {
	keyHash []byte
}

// NewGuard creates a Guard for rawKey. An empty key disables the guard.
func NewGuard(rawKey string) *Guard {
	if rawKey == "" {
		return &Guard{}
	}
	return &Guard{keyHash: hashAPIKey(rawKey)}
}

// Enabled reports whether requests are checked.
func (g *Guard) Enabled() bool {
	return len(g.keyHash) > 0
}

// Valid reports whether rawKey matches the configured key.
func (g *Guard) Valid(rawKey string) bool {
	if !g.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare(hashAPIKey(rawKey), g.keyHash) == 1
}

// Middleware validates the Bearer API key. It passes every request through
// when the guard is disabled.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Enabled() {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key", "code": CodeUnauthorized})
			return
		}
		if !g.Valid(strings.TrimPrefix(header, "Bearer ")) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key", "code": CodeUnauthorized})
			return
		}
		c.Next()
	}
}

// GenerateKey returns 32 random bytes, hex encoded. The result is a valid
// admin key and a valid STATE_SECRET.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashAPIKey(rawKey string) []byte {
	sum := sha256.Sum256([]byte(rawKey))
	return sum[:]
}
