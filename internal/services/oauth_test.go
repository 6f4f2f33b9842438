package services

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/yungbote/roadmap-backend/internal/data/repos/testutil"
	"github.com/yungbote/roadmap-backend/internal/platform/dbctx"
)

type fakeProvider struct {
	name  string
	ident ExternalIdentity
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) Exchange(context.Context, string, string) (*ExternalIdentity, error) {
	ident := p.ident
	ident.Provider = p.name
	return &ident, nil
}

func newOAuthTestService(t *testing.T, env *testEnv, providers ...OAuthProvider) OAuthService {
	t.Helper()
	log := testutil.Logger(t)
	store := NewDBStateStore(env.repos.OAuthNonce, log)
	return NewOAuthService(env.db, log, env.metrics, env.repos.User, env.repos.UserIdentity, env.avatars, env.auth, store, time.Minute, providers...)
}

func stateFrom(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthCallbackCreatesAndLinksUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	prov := &fakeProvider{name: ProviderGitHub, ident: ExternalIdentity{Sub: "42", Email: "Octo@Example.com", EmailVerified: true, FirstName: "Octo", LastName: "Cat"}}
	svc := newOAuthTestService(t, env, prov)
	assert.Equal(t, []string{ProviderGitHub}, svc.Providers())

	authURL, err := svc.AuthURL(ctx, ProviderGitHub)
	require.NoError(t, err)
	state := stateFrom(t, authURL)

	pair, err := svc.HandleCallback(ctx, ProviderGitHub, "code", state)
	require.NoError(t, err)
	authed, err := env.auth.SetContextFromToken(ctx, pair.AccessToken)
	require.NoError(t, err)

	me, err := NewUserService(testutil.Logger(t), env.repos.User).GetMe(authed)
	require.NoError(t, err)
	assert.Equal(t, "octo@example.com", me.Email)
	assert.Equal(t, "Octo", me.FirstName)
	assert.Empty(t, me.Password)

	// the state is single use
	_, err = svc.HandleCallback(ctx, ProviderGitHub, "code", state)
	assert.ErrorIs(t, err, ErrStateInvalid)

	// a second login through the same identity reuses the account
	authURL, err = svc.AuthURL(ctx, ProviderGitHub)
	require.NoError(t, err)
	pair, err = svc.HandleCallback(ctx, ProviderGitHub, "code", stateFrom(t, authURL))
	require.NoError(t, err)
	authed, err = env.auth.SetContextFromToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	again, err := NewUserService(testutil.Logger(t), env.repos.User).GetMe(authed)
	require.NoError(t, err)
	assert.Equal(t, me.ID, again.ID)
}

func TestOAuthCallbackLinksVerifiedEmailOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "a@example.com", "secret")

	unverified := &fakeProvider{name: ProviderGoogle, ident: ExternalIdentity{Sub: "g-1", Email: "a@example.com"}}
	svc := newOAuthTestService(t, env, unverified)
	authURL, err := svc.AuthURL(ctx, ProviderGoogle)
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, ProviderGoogle, "code", stateFrom(t, authURL))
	assert.ErrorIs(t, err, ErrEmailUnverified)

	verified := &fakeProvider{name: ProviderGoogle, ident: ExternalIdentity{Sub: "g-1", Email: "a@example.com", EmailVerified: true}}
	svc = newOAuthTestService(t, env, verified)
	authURL, err = svc.AuthURL(ctx, ProviderGoogle)
	require.NoError(t, err)
	_, err = svc.HandleCallback(ctx, ProviderGoogle, "code", stateFrom(t, authURL))
	require.NoError(t, err)

	links, err := env.repos.UserIdentity.GetByProviderSubs(dbctx.Of(ctx), ProviderGoogle, []string{"g-1"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	users, err := env.repos.User.GetByEmails(dbctx.Of(ctx), []string{"a@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, users[0].ID, links[0].UserID)
}

func TestOAuthUnknownProviderAndBadState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newOAuthTestService(t, env, &fakeProvider{name: ProviderGitHub})

	_, err := svc.AuthURL(ctx, "myspace")
	assert.ErrorIs(t, err, ErrProviderUnknown)
	_, err = svc.HandleCallback(ctx, "myspace", "code", "state")
	assert.ErrorIs(t, err, ErrProviderUnknown)
	_, err = svc.HandleCallback(ctx, ProviderGitHub, "code", "forged")
	assert.ErrorIs(t, err, ErrStateInvalid)
	_, err = svc.HandleCallback(ctx, ProviderGitHub, "", "")
	assert.ErrorIs(t, err, ErrStateInvalid)
}

func TestOAuthCallbackUnknownProvidersShareOneSeries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newOAuthTestService(t, env, &fakeProvider{name: ProviderGoogle})

	_, err := svc.HandleCallback(ctx, "bogus", "c", "s")
	require.ErrorIs(t, err, ErrProviderUnknown)
	before, err := promtest.GatherAndCount(env.metrics.Registry(), "roadmap_auth_events_total")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err := svc.HandleCallback(ctx, fmt.Sprintf("bogus%d", i), "c", "s")
		require.ErrorIs(t, err, ErrProviderUnknown)
	}

	after, err := promtest.GatherAndCount(env.metrics.Registry(), "roadmap_auth_events_total")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	families, err := env.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "roadmap_auth_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "event" {
					assert.NotContains(t, lp.GetValue(), "bogus")
				}
			}
		}
	}
}

func TestDBStateStoreExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store := NewDBStateStore(env.repos.OAuthNonce, testutil.Logger(t)).(*dbStateStore)

	require.NoError(t, store.Save(ctx, ProviderGoogle, "s1", time.Minute))
	assert.ErrorIs(t, store.Consume(ctx, ProviderGitHub, "s1"), ErrStateInvalid)

	store.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	assert.ErrorIs(t, store.Consume(ctx, ProviderGoogle, "s1"), ErrStateInvalid)
}

func TestRedisStateStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStateStore(client, testutil.Logger(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, ProviderGoogle, "s1", time.Minute))
	require.NoError(t, store.Consume(ctx, ProviderGoogle, "s1"))
	assert.ErrorIs(t, store.Consume(ctx, ProviderGoogle, "s1"), ErrStateInvalid)

	require.NoError(t, store.Save(ctx, ProviderGoogle, "s2", time.Minute))
	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, ProviderGoogle, "s2"), ErrStateInvalid)
}

func TestGitHubProviderExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":1234,"login":"octocat","name":"Mona Lisa Octocat","email":null}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"email":"other@example.com","primary":false,"verified":true},{"email":"mona@example.com","primary":true,"verified":true}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewGitHubProvider(GitHubProviderConfig{
		Client:     OAuthClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"},
		Endpoint:   oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		APIBaseURL: srv.URL,
	})
	require.NoError(t, err)
	assert.Contains(t, p.AuthCodeURL("st"), "state=st")

	ident, err := p.Exchange(context.Background(), "the-code", "st")
	require.NoError(t, err)
	assert.Equal(t, ExternalIdentity{
		Provider:      ProviderGitHub,
		Sub:           "1234",
		Email:         "mona@example.com",
		EmailVerified: true,
		FirstName:     "Mona",
		LastName:      "Lisa Octocat",
	}, *ident)
}

func TestGitHubProviderUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"gh-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p, err := NewGitHubProvider(GitHubProviderConfig{
		Client:     OAuthClientConfig{ClientID: "id", ClientSecret: "secret"},
		Endpoint:   oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		APIBaseURL: srv.URL,
	})
	require.NoError(t, err)
	_, err = p.Exchange(context.Background(), "c", "s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestOIDCProviderExchange(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	const issuer = "https://issuer.test"

	sign := func(nonce string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss":            issuer,
			"aud":            "client-id",
			"sub":            "user-7",
			"iat":            time.Now().Unix(),
			"exp":            time.Now().Add(time.Hour).Unix(),
			"nonce":          nonce,
			"email":          "grace@example.com",
			"email_verified": "true",
			"given_name":     "Grace",
			"family_name":    "Hopper",
		})
		raw, err := tok.SignedString(key)
		require.NoError(t, err)
		return raw
	}

	var idToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken,
		})
	}))
	defer srv.Close()

	p, err := NewOIDCProvider(context.Background(), OIDCProviderConfig{
		Name:     ProviderLinkedIn,
		Client:   OAuthClientConfig{ClientID: "client-id", ClientSecret: "secret"},
		Endpoint: oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		Issuer:   issuer,
		Scopes:   []string{oidc.ScopeOpenID, "email"},
		KeySet:   &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
	})
	require.NoError(t, err)
	assert.Contains(t, p.AuthCodeURL("st"), "nonce=st")

	idToken = sign("st")
	ident, err := p.Exchange(context.Background(), "code", "st")
	require.NoError(t, err)
	assert.Equal(t, ExternalIdentity{
		Provider:      ProviderLinkedIn,
		Sub:           "user-7",
		Email:         "grace@example.com",
		EmailVerified: true,
		FirstName:     "Grace",
		LastName:      "Hopper",
	}, *ident)

	idToken = sign("other")
	_, err = p.Exchange(context.Background(), "code", "st")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce")
}

func TestProviderConfigs(t *testing.T) {
	client := OAuthClientConfig{ClientID: "id", ClientSecret: "s"}
	assert.Equal(t, "https://accounts.google.com", GoogleProviderConfig(client).Issuer)
	assert.Equal(t, ProviderLinkedIn, LinkedInProviderConfig(client).Name)
	assert.False(t, OAuthClientConfig{ClientID: "id"}.Enabled())

	_, err := NewOIDCProvider(context.Background(), GoogleProviderConfig(OAuthClientConfig{}))
	require.Error(t, err)
	_, err = NewGitHubProvider(GitHubProviderConfig{})
	require.Error(t, err)
}

func TestProvidersRejectBadRedirectURL(t *testing.T) {
	for _, redirect := range []string{"/auth/github/callback", "ftp://example.com/cb", "http://%zz"} {
		client := OAuthClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: redirect}
		_, err := NewGitHubProvider(GitHubProviderConfig{Client: client})
		assert.Error(t, err, redirect)
		_, err = NewOIDCProvider(context.Background(), GoogleProviderConfig(client))
		assert.Error(t, err, redirect)
	}

	client := OAuthClientConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://app.example.com/auth/github/callback"}
	_, err := NewGitHubProvider(GitHubProviderConfig{Client: client})
	assert.NoError(t, err)
	_, err = NewGitHubProvider(GitHubProviderConfig{Client: OAuthClientConfig{ClientID: "id", ClientSecret: "secret"}})
	assert.NoError(t, err)
}

func TestSplitName(t *testing.T) {
	f, l := splitName("  Ada   King Lovelace ")
	assert.Equal(t, "Ada", f)
	assert.Equal(t, "King Lovelace", l)
	f, l = splitName("cher")
	assert.Equal(t, "cher", f)
	assert.Empty(t, l)
}
