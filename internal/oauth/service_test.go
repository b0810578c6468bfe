package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/socialgate/internal/crypto"
	"github.com/gsarma/socialgate/internal/domain"
	"github.com/gsarma/socialgate/internal/platform"
)

// fakeProvider is an httptest-backed token and user-info endpoint.
type fakeProvider struct {
	server *httptest.Server
	hits   atomic.Int32

	mu        sync.Mutex
	forms     []url.Values
	authz     []string
	tokenFn   func(w http.ResponseWriter, r *http.Request)
	userFn    func(w http.ResponseWriter, r *http.Request)
	refreshFn func(w http.ResponseWriter, r *http.Request)
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	f := &fakeProvider{}
	mux := http.NewServeMux()
	record := func(next func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.hits.Add(1)
			_ = r.ParseForm()
			f.mu.Lock()
			f.forms = append(f.forms, r.PostForm)
			f.authz = append(f.authz, r.Header.Get("Authorization"))
			f.mu.Unlock()
			if next == nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) { record(f.tokenFn)(w, r) })
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) { record(f.refreshFn)(w, r) })
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) { record(f.userFn)(w, r) })
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeProvider) config(name platform.Name) platform.Config {
	return platform.Config{
		Name:         name,
		ClientID:     "client-" + string(name),
		ClientSecret: "secret-" + string(name),
		Scopes:       platform.DefaultScopes(name),
		Endpoints: platform.Endpoints{
			AuthURL:     "https://provider.example/authorize",
			TokenURL:    f.server.URL + "/token",
			RefreshURL:  f.server.URL + "/refresh",
			UserInfoURL: f.server.URL + "/me",
		},
	}
}

func (f *fakeProvider) form(i int) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[i]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestService(t *testing.T, f *fakeProvider) *Service {
	t.Helper()
	sealer, err := crypto.NewRandomSealer()
	require.NoError(t, err)

	var configs []platform.Config
	for _, n := range platform.Names() {
		configs = append(configs, f.config(n))
	}
	return NewService(
		platform.NewRegistry(configs...),
		NewStateCodec(sealer, 10*time.Minute),
		WithHTTPClient(f.server.Client()),
		WithDefaultVerifier("challenge"),
	)
}

func TestExchange_TwitterEndToEnd(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "T1", "expires_in": 7200})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"username":          "jdoe",
			"name":              "Jane Doe",
			"profile_image_url": "https://img",
		})
	}
	svc := newTestService(t, f)

	before := time.Now()
	conn, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform:    "twitter",
		Code:        "abc",
		RedirectURI: "https://app/cb/twitter",
	})
	require.NoError(t, err)

	form := f.form(0)
	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "abc", form.Get("code"))
	assert.Equal(t, "https://app/cb/twitter", form.Get("redirect_uri"))
	assert.Equal(t, "client-twitter", form.Get("client_id"))
	assert.Equal(t, "secret-twitter", form.Get("client_secret"))
	assert.Equal(t, "challenge", form.Get("code_verifier"))
	assert.Equal(t, "Bearer T1", f.authz[1])

	assert.Equal(t, "T1", conn.AccessToken)
	assert.Empty(t, conn.RefreshToken)
	assert.Equal(t, "jdoe", conn.Username)
	assert.Equal(t, "Jane Doe", conn.DisplayName)
	assert.Equal(t, "https://img", conn.ProfileImage)
	require.NotNil(t, conn.ExpiresAt)
	assert.InDelta(t, before.UnixMilli()+7200000, *conn.ExpiresAt, 1000)
}

func TestExchange_RequestVerifierWins(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "T1"})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, map[string]any{}) }
	svc := newTestService(t, f)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "twitter", Code: "abc", RedirectURI: "https://app/cb", CodeVerifier: "per-request",
	})
	require.NoError(t, err)
	assert.Equal(t, "per-request", f.form(0).Get("code_verifier"))
}

func TestExchange_NonTwitterSendsNoVerifier(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "L1", "refresh_token": "R1", "expires_in": 60})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":        "li-42",
			"firstName": map[string]any{"localized": map[string]any{"en_US": "Jane"}},
			"lastName":  map[string]any{"localized": map[string]any{"en_US": "Doe"}},
		})
	}
	svc := newTestService(t, f)

	conn, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "linkedin", Code: "abc", RedirectURI: "https://app/cb/linkedin",
	})
	require.NoError(t, err)
	assert.False(t, f.form(0).Has("code_verifier"))
	assert.Equal(t, "R1", conn.RefreshToken)
	assert.Equal(t, "li-42", conn.Username)
	assert.Equal(t, "Jane Doe", conn.DisplayName)
}

func TestExchange_MissingFields(t *testing.T) {
	cases := []ExchangeRequest{
		{Code: "abc", RedirectURI: "https://app/cb"},
		{Platform: "twitter", RedirectURI: "https://app/cb"},
		{Platform: "twitter", Code: "abc"},
		{},
	}
	for _, platformName := range platform.Names() {
		cases = append(cases, ExchangeRequest{Platform: string(platformName)})
	}

	f := newFakeProvider(t)
	svc := newTestService(t, f)
	for _, req := range cases {
		_, err := svc.Exchange(context.Background(), req)
		assert.True(t, errors.Is(err, domain.ErrValidation), "request %+v: %v", req, err)
	}
	assert.Zero(t, f.hits.Load())
}

func TestExchange_UnknownPlatformMakesNoNetworkCall(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "myspace", Code: "abc", RedirectURI: "https://app/cb",
	})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedPlatform))
	assert.Zero(t, f.hits.Load())
}

func TestExchange_UnconfiguredPlatform(t *testing.T) {
	f := newFakeProvider(t)
	cfg := f.config(platform.Instagram)
	cfg.ClientSecret = ""
	sealer, _ := crypto.NewRandomSealer()
	svc := NewService(platform.NewRegistry(cfg), NewStateCodec(sealer, time.Minute), WithHTTPClient(f.server.Client()))

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "instagram", Code: "abc", RedirectURI: "https://app/cb",
	})
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
	assert.Zero(t, f.hits.Load())
}

func TestExchange_ProviderRejectionCarriesBody(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	}
	svc := newTestService(t, f)

	_, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "facebook", Code: "stale", RedirectURI: "https://app/cb",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTokenExchange))
	assert.Contains(t, err.Error(), "invalid_grant")

	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, http.StatusBadRequest, de.Status)
	assert.Equal(t, "facebook", de.Platform)
}

func TestExchange_NoExpiresInLeavesExpiryAbsent(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "Y1"})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "yt-1", "name": "Chan", "picture": "https://pic"})
	}
	svc := newTestService(t, f)

	conn, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "youtube", Code: "abc", RedirectURI: "https://app/cb",
	})
	require.NoError(t, err)
	assert.Nil(t, conn.ExpiresAt)
	assert.Equal(t, "yt-1", conn.Username)

	b, err := json.Marshal(conn)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "expires_at")
}

func TestExchange_ProfileFailureDegradesToEmpty(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "I1"})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "nope"})
	}
	svc := newTestService(t, f)

	conn, err := svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "instagram", Code: "abc", RedirectURI: "https://app/cb",
	})
	require.NoError(t, err)
	assert.Equal(t, "I1", conn.AccessToken)
	assert.Equal(t, domain.Profile{}, conn.Profile)
}

func TestExchange_VerifierFromSealedState(t *testing.T) {
	f := newFakeProvider(t)
	f.tokenFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "T1"})
	}
	f.userFn = func(w http.ResponseWriter, r *http.Request) { writeJSON(w, http.StatusOK, map[string]any{}) }
	svc := newTestService(t, f)

	auth, err := svc.AuthorizeURL("twitter", "https://app/cb/twitter")
	require.NoError(t, err)
	payload, err := svc.states.Decode(auth.State)
	require.NoError(t, err)
	require.NotEmpty(t, payload.Verifier)

	u, err := url.Parse(auth.URL)
	require.NoError(t, err)
	assert.Equal(t, "S256", u.Query().Get("code_challenge_method"))
	assert.NotEmpty(t, u.Query().Get("code_challenge"))
	assert.NotContains(t, auth.URL, payload.Verifier)

	_, err = svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "twitter", Code: "abc", RedirectURI: "https://app/cb/twitter", State: auth.State,
	})
	require.NoError(t, err)
	assert.Equal(t, payload.Verifier, f.form(0).Get("code_verifier"))
}

func TestExchange_StateMustMatchRequest(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	auth, err := svc.AuthorizeURL("twitter", "https://app/cb/twitter")
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "twitter", Code: "abc", RedirectURI: "https://evil/cb", State: auth.State,
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = svc.Exchange(context.Background(), ExchangeRequest{
		Platform: "twitter", Code: "abc", RedirectURI: "https://app/cb/twitter", State: "garbage",
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Zero(t, f.hits.Load())
}

func TestRefresh_InstagramUsesAccessTokenField(t *testing.T) {
	f := newFakeProvider(t)
	f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "IG2", "expires_in": 5184000})
	}
	svc := newTestService(t, f)

	cred, err := svc.Refresh(context.Background(), RefreshRequest{Platform: "instagram", RefreshToken: "IG1"})
	require.NoError(t, err)

	form := f.form(0)
	assert.Equal(t, "ig_refresh_token", form.Get("grant_type"))
	assert.Equal(t, "IG1", form.Get("access_token"))
	assert.False(t, form.Has("refresh_token"))

	assert.Equal(t, "IG2", cred.AccessToken)
	assert.Equal(t, "IG1", cred.RefreshToken)
	require.NotNil(t, cred.ExpiresAt)
}

func TestRefresh_FacebookExchangesToken(t *testing.T) {
	f := newFakeProvider(t)
	f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "FB2"})
	}
	svc := newTestService(t, f)

	cred, err := svc.Refresh(context.Background(), RefreshRequest{Platform: "facebook", RefreshToken: "FB1"})
	require.NoError(t, err)

	form := f.form(0)
	assert.Equal(t, "fb_exchange_token", form.Get("grant_type"))
	assert.Equal(t, "FB1", form.Get("fb_exchange_token"))
	assert.Equal(t, "client-facebook", form.Get("client_id"))
	assert.Equal(t, "secret-facebook", form.Get("client_secret"))

	assert.Equal(t, "FB2", cred.AccessToken)
	assert.Equal(t, "FB1", cred.RefreshToken)
	assert.Nil(t, cred.ExpiresAt)
}

func TestRefresh_StandardGrant(t *testing.T) {
	for _, name := range []platform.Name{platform.Twitter, platform.LinkedIn, platform.YouTube} {
		t.Run(string(name), func(t *testing.T) {
			f := newFakeProvider(t)
			f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"access_token": "A2", "expires_in": 3600})
			}
			svc := newTestService(t, f)

			cred, err := svc.Refresh(context.Background(), RefreshRequest{Platform: string(name), RefreshToken: "R1"})
			require.NoError(t, err)

			form := f.form(0)
			assert.Equal(t, "refresh_token", form.Get("grant_type"))
			assert.Equal(t, "R1", form.Get("refresh_token"))
			assert.Equal(t, "client-"+string(name), form.Get("client_id"))

			assert.Equal(t, "A2", cred.AccessToken)
			assert.Equal(t, "R1", cred.RefreshToken)
			require.NotNil(t, cred.ExpiresAt)
		})
	}
}

func TestRefresh_RotatedTokenIsReturned(t *testing.T) {
	f := newFakeProvider(t)
	f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "A2", "refresh_token": "R2"})
	}
	svc := newTestService(t, f)

	cred, err := svc.Refresh(context.Background(), RefreshRequest{Platform: "twitter", RefreshToken: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "R2", cred.RefreshToken)
}

func TestRefresh_ProviderRejection(t *testing.T) {
	for _, name := range []string{"instagram", "linkedin"} {
		t.Run(name, func(t *testing.T) {
			f := newFakeProvider(t)
			f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "expired_token"})
			}
			svc := newTestService(t, f)

			_, err := svc.Refresh(context.Background(), RefreshRequest{Platform: name, RefreshToken: "R1"})
			assert.True(t, errors.Is(err, domain.ErrTokenRefresh))
			assert.Contains(t, err.Error(), "expired_token")
		})
	}
}

func TestRefresh_Validation(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	_, err := svc.Refresh(context.Background(), RefreshRequest{Platform: "twitter"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "R1"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.Refresh(context.Background(), RefreshRequest{Platform: "orkut", RefreshToken: "R1"})
	assert.True(t, errors.Is(err, domain.ErrUnsupportedPlatform))
	assert.Zero(t, f.hits.Load())
}

func TestRefresh_ConcurrentCallsShareOneProviderRequest(t *testing.T) {
	f := newFakeProvider(t)
	arrived := make(chan struct{}, 8)
	release := make(chan struct{})
	f.refreshFn = func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "A2", "refresh_token": "R2"})
	}
	svc := newTestService(t, f)

	const callers = 5
	results := make([]*domain.TokenCredential, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Refresh(context.Background(), RefreshRequest{Platform: "twitter", RefreshToken: "R1"})
		}()
	}

	<-arrived
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, f.hits.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "A2", results[i].AccessToken)
		assert.Equal(t, "R2", results[i].RefreshToken)
	}
	results[0].AccessToken = "mutated"
	assert.Equal(t, "A2", results[1].AccessToken)
}

func TestAuthorizeURL_YouTubeRequestsOfflineAccess(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	auth, err := svc.AuthorizeURL("youtube", "https://app/cb/youtube")
	require.NoError(t, err)

	u, err := url.Parse(auth.URL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-youtube", q.Get("client_id"))
	assert.Equal(t, "https://app/cb/youtube", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, auth.State, q.Get("state"))
	assert.Empty(t, q.Get("code_challenge"))
}

func TestAuthorizeURL_Validation(t *testing.T) {
	f := newFakeProvider(t)
	svc := newTestService(t, f)

	_, err := svc.AuthorizeURL("twitter", "")
	assert.True(t, errors.Is(err, domain.ErrValidation))
	_, err = svc.AuthorizeURL("bebo", "https://app/cb")
	assert.True(t, errors.Is(err, domain.ErrUnsupportedPlatform))
}
