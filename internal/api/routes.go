package api

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/gsarma/socialgate/internal/auth"
	"github.com/gsarma/socialgate/internal/logging"
	"github.com/gsarma/socialgate/internal/platform"
	"github.com/gsarma/socialgate/internal/store"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Tokens TokenService
	Posts  PostDispatcher
	// Audit may be nil, which disables the audit trail.
	Audit  *store.Recorder
	Logger *log.Logger

	// Platforms are the configured platforms reported by /health.
	Platforms []platform.Name
	// AdminKey protects /audit when set.
	AdminKey string
}

func RegisterRoutes(r *gin.Engine, deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Audit == nil {
		deps.Audit = store.NewRecorder(nil, deps.Logger)
	}
	h := &Handler{
		tokens:    deps.Tokens,
		posts:     deps.Posts,
		audit:     deps.Audit,
		platforms: deps.Platforms,
		logger:    deps.Logger,
	}

	r.GET("/health", h.Health)
	r.GET("/audit", auth.NewGuard(deps.AdminKey).Middleware(), h.ListAudit)
	r.GET("/oauth/:platform/authorize-url", h.AuthorizeURL)

	for _, path := range []string{"/oauth/exchange", "/token-exchange"} {
		r.POST(path, h.ExchangeToken)
		r.OPTIONS(path, h.Preflight)
	}
	for _, path := range []string{"/oauth/refresh", "/token-refresh"} {
		r.POST(path, h.RefreshToken)
		r.OPTIONS(path, h.Preflight)
	}
	for _, path := range []string{"/posts/dispatch", "/post-dispatch"} {
		r.POST(path, h.DispatchPost)
		r.OPTIONS(path, h.Preflight)
	}

	return h
}

// NewRouter builds the complete HTTP handler: gin routes behind a permissive
// CORS layer, since the dashboard calls from arbitrary origins.
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	r := gin.New()
	r.Use(RequestLogger(deps.Logger), gin.Recovery())
	RegisterRoutes(r, deps)

	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"*"},
		OptionsSuccessStatus: http.StatusOK,
	}).Handler(r)
}
