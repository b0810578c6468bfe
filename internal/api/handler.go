package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/oauth"
	"github.com/gsarma/socialgate/internal/platform"
	"github.com/gsarma/socialgate/internal/store"
)

// TokenService runs the OAuth flows.
type TokenService interface {
	Exchange(ctx context.Context, req oauth.ExchangeRequest) (*domain.Connection, error)
	Refresh(ctx context.Context, req oauth.RefreshRequest) (*domain.TokenCredential, error)
	AuthorizeURL(platform, redirectURI string) (*oauth.Authorization, error)
}

// PostDispatcher publishes a post to one platform.
type PostDispatcher interface {
	Dispatch(ctx context.Context, post domain.PostRequest) (*domain.PostResult, error)
}

type Handler struct {
	tokens    TokenService
	posts     PostDispatcher
	audit     *store.Recorder
	platforms []platform.Name
	logger    *log.Logger
}

// ExchangeToken trades an authorization code for tokens and a profile.
func (h *Handler) ExchangeToken(c *gin.Context) {
	var req oauth.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validation("Invalid JSON body"))
		return
	}

	ctx := c.Request.Context()
	conn, err := h.tokens.Exchange(ctx, req)
	h.audit.Record(ctx, store.Event{Kind: store.KindExchange, Platform: req.Platform, Err: err})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// RefreshToken renews an access token.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req oauth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, domain.Validation("Invalid JSON body"))
		return
	}

	ctx := c.Request.Context()
	cred, err := h.tokens.Refresh(ctx, req)
	h.audit.Record(ctx, store.Event{Kind: store.KindRefresh, Platform: req.Platform, Err: err})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

// DispatchPost publishes content to one connected account.
func (h *Handler) DispatchPost(c *gin.Context) {
	var req domain.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeDispatchError(c, domain.Validation("Invalid JSON body"))
		return
	}

	ctx := c.Request.Context()
	result, err := h.posts.Dispatch(ctx, req)
	ev := store.Event{Kind: store.KindDispatch, Platform: req.Platform, Err: err}
	if result != nil {
		ev.ExternalID = result.ID
	}
	h.audit.Record(ctx, ev)
	if err != nil {
		writeDispatchError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"platform": req.Platform,
		"result":   result,
	})
}

// AuthorizeURL returns the consent URL for a platform.
func (h *Handler) AuthorizeURL(c *gin.Context) {
	auth, err := h.tokens.AuthorizeURL(c.Param("platform"), c.Query("redirect_uri"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, auth)
}

// Preflight answers browser OPTIONS requests.
func (h *Handler) Preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Status(http.StatusOK)
}

// Health reports liveness and which platforms are configured.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"platforms": h.platforms,
		"audit":     h.audit.Enabled(),
	})
}

// ListAudit returns recent audit events, newest first.
func (h *Handler) ListAudit(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, domain.Validation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	events, err := h.audit.Recent(c.Request.Context(), c.Query("platform"), limit)
	if err != nil {
		h.logger.Error("failed to list audit events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list audit events", "code": domain.KindInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
