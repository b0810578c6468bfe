package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/socialgate/internal/crypto"
	"github.com/gsarma/socialgate/internal/oauth"
	"github.com/gsarma/socialgate/internal/platform"
	"github.com/gsarma/socialgate/internal/publish"
)

// newTestRouter wires the real services against a fake provider.
func newTestRouter(t *testing.T, provider http.Handler) http.Handler {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	tw := platform.Default(platform.Twitter, "tw-id", "tw-secret")
	tw.TokenURL = srv.URL + "/2/oauth2/token"
	tw.UserInfoURL = srv.URL + "/2/users/me"
	tw.APIBaseURL = srv.URL
	registry := platform.NewRegistry(tw)

	sealer, err := crypto.NewRandomSealer()
	require.NoError(t, err)
	tokens := oauth.NewService(registry, oauth.NewStateCodec(sealer, time.Minute),
		oauth.WithHTTPClient(srv.Client()), oauth.WithDefaultVerifier("challenge"))
	posts := publish.NewDefault(registry, publish.Options{HTTPClient: srv.Client()})

	return NewRouter(Deps{Tokens: tokens, Posts: posts, Platforms: registry.Configured()})
}

func TestRouter_TwitterExchangeEndToEnd(t *testing.T) {
	var tokenCalls, userCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/2/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "abc", r.PostForm.Get("code"))
		assert.Equal(t, "https://app/cb/twitter", r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "challenge", r.PostForm.Get("code_verifier"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"T1","expires_in":7200}`))
	})
	mux.HandleFunc("/2/users/me", func(w http.ResponseWriter, r *http.Request) {
		userCalls++
		assert.Equal(t, "Bearer T1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"username":"jdoe","name":"Jane Doe","profile_image_url":"https://img"}`))
	})
	router := newTestRouter(t, mux)

	before := time.Now().UnixMilli()
	req := httptest.NewRequest(http.MethodPost, "/token-exchange",
		strings.NewReader(`{"platform":"twitter","code":"abc","redirect_uri":"https://app/cb/twitter"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://dashboard.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 1, userCalls)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp struct {
		AccessToken  string  `json:"access_token"`
		RefreshToken *string `json:"refresh_token"`
		ExpiresAt    int64   `json:"expires_at"`
		Username     string  `json:"username"`
		DisplayName  string  `json:"display_name"`
		ProfileImage string  `json:"profile_image"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "T1", resp.AccessToken)
	assert.Nil(t, resp.RefreshToken)
	assert.Equal(t, "jdoe", resp.Username)
	assert.Equal(t, "Jane Doe", resp.DisplayName)
	assert.Equal(t, "https://img", resp.ProfileImage)
	assert.InDelta(t, before+7200000, resp.ExpiresAt, 1000)
}

func TestRouter_UnknownPlatformNoNetwork(t *testing.T) {
	calls := 0
	router := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	req := httptest.NewRequest(http.MethodPost, "/oauth/exchange",
		strings.NewReader(`{"platform":"myspace","code":"abc","redirect_uri":"https://app/cb"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Unsupported platform: myspace","code":"unsupported_platform"}`, w.Body.String())
	assert.Zero(t, calls)
}

func TestRouter_OptionsReturnsEmpty200WithCORS(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())

	paths := []string{
		"/oauth/exchange", "/oauth/refresh", "/posts/dispatch",
		"/token-exchange", "/token-refresh", "/post-dispatch",
	}
	for _, path := range paths {
		t.Run(path+" plain", func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Empty(t, w.Body.String())
		})
		t.Run(path+" preflight", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, path, nil)
			req.Header.Set("Origin", "https://dashboard.example")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", "content-type")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestRouter_DispatchTwitter(t *testing.T) {
	var body map[string]any
	router := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"1789","text":"launch day"}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/post-dispatch",
		strings.NewReader(`{"platform":"twitter","access_token":"T1","content":"launch day","media_urls":["https://img/1.png"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "launch day", body["text"])
	assert.NotContains(t, body, "media")

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "twitter", resp["platform"])
	assert.Equal(t, "1789", resp["result"].(map[string]any)["id"])
}

func TestRouter_DispatchInstagramWithoutMedia(t *testing.T) {
	calls := 0
	router := newTestRouter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	req := httptest.NewRequest(http.MethodPost, "/posts/dispatch",
		strings.NewReader(`{"platform":"instagram","access_token":"I1","content":"caption","media_urls":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{
		"success": false,
		"error": "Instagram posts require at least one image or video",
		"code": "validation_error"
	}`, w.Body.String())
	assert.Zero(t, calls)
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t, http.NotFoundHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","platforms":["twitter"],"audit":false}`, w.Body.String())
}

func TestRouter_AuditRequiresAdminKey(t *testing.T) {
	router := NewRouter(Deps{AdminKey: "ops-key"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/audit", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/audit", nil)
	req.Header.Set("Authorization", "Bearer ops-key")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"events":[]}`, w.Body.String())
}
