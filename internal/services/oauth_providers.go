package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"

	"github.com/yungbote/roadmap-backend/internal/platform/httpx"
)

const (
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
	ProviderGitHub   = "github"
)

// ExternalIdentity is the account a provider vouched for after a code exchange.
type ExternalIdentity struct {
	Provider      string
	Sub           string
	Email         string
	EmailVerified bool
	FirstName     string
	LastName      string
}

type OAuthProvider interface {
	Name() string
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the caller's identity. state is the
	// value already consumed from the state store.
	Exchange(ctx context.Context, code, state string) (*ExternalIdentity, error)
}

type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c OAuthClientConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// validate rejects a redirect URL the provider could not send the browser back to.
// An empty RedirectURL is allowed; the provider then uses the one registered with it.
func (c OAuthClientConfig) validate() error {
	if strings.TrimSpace(c.RedirectURL) == "" {
		return nil
	}
	u, err := url.Parse(c.RedirectURL)
	if err != nil {
		return fmt.Errorf("invalid redirect url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("redirect url %q must be an absolute http(s) url", c.RedirectURL)
	}
	return nil
}

// OIDCProviderConfig describes a provider whose code exchange returns a signed id_token.
type OIDCProviderConfig struct {
	Name     string
	Client   OAuthClientConfig
	Endpoint oauth2.Endpoint
	Issuer   string
	JWKSURL  string
	Scopes   []string
	// KeySet overrides the remote JWKS; optional.
	KeySet     oidc.KeySet
	HTTPClient *http.Client
}

func GoogleProviderConfig(client OAuthClientConfig) OIDCProviderConfig {
	return OIDCProviderConfig{
		Name:     ProviderGoogle,
		Client:   client,
		Endpoint: google.Endpoint,
		Issuer:   "https://accounts.google.com",
		JWKSURL:  "https://www.googleapis.com/oauth2/v3/certs",
		Scopes:   []string{oidc.ScopeOpenID, "profile", "email"},
	}
}

func LinkedInProviderConfig(client OAuthClientConfig) OIDCProviderConfig {
	return OIDCProviderConfig{
		Name:     ProviderLinkedIn,
		Client:   client,
		Endpoint: linkedin.Endpoint,
		Issuer:   "https://www.linkedin.com/oauth",
		JWKSURL:  "https://www.linkedin.com/oauth/openid/jwks",
		Scopes:   []string{oidc.ScopeOpenID, "profile", "email"},
	}
}

type oidcProvider struct {
	name       string
	oauth      *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

// NewOIDCProvider builds a provider without discovery; the issuer and JWKS location are fixed.
// ctx bounds background key refreshes and should live as long as the provider.
func NewOIDCProvider(ctx context.Context, cfg OIDCProviderConfig) (OAuthProvider, error) {
	if !cfg.Client.Enabled() {
		return nil, fmt.Errorf("%s: client id and secret are required", cfg.Name)
	}
	if err := cfg.Client.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Name, err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	keySet := cfg.KeySet
	if keySet == nil {
		if cfg.JWKSURL == "" {
			return nil, fmt.Errorf("%s: jwks url is required", cfg.Name)
		}
		keySet = oidc.NewRemoteKeySet(oidc.ClientContext(ctx, hc), cfg.JWKSURL)
	}
	return &oidcProvider{
		name: cfg.Name,
		oauth: &oauth2.Config{
			ClientID:     cfg.Client.ClientID,
			ClientSecret: cfg.Client.ClientSecret,
			RedirectURL:  cfg.Client.RedirectURL,
			Endpoint:     cfg.Endpoint,
			Scopes:       cfg.Scopes,
		},
		verifier:   oidc.NewVerifier(cfg.Issuer, keySet, &oidc.Config{ClientID: cfg.Client.ClientID}),
		httpClient: hc,
	}, nil
}

func (p *oidcProvider) Name() string { return p.name }

// AuthCodeURL reuses the state as the id_token nonce.
func (p *oidcProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oidc.Nonce(state))
}

type oidcClaims struct {
	Email         string   `json:"email"`
	EmailVerified flexBool `json:"email_verified"`
	GivenName     string   `json:"given_name"`
	FamilyName    string   `json:"family_name"`
	Name          string   `json:"name"`
}

func (p *oidcProvider) Exchange(ctx context.Context, code, state string) (*ExternalIdentity, error) {
	ctx = oidc.ClientContext(ctx, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: exchange code: %w", p.name, err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%s: no id_token in token response", p.name)
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%s: verify id_token: %w", p.name, err)
	}
	if idToken.Nonce != state {
		return nil, fmt.Errorf("%s: id_token nonce mismatch", p.name)
	}
	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%s: decode claims: %w", p.name, err)
	}
	first, last := claims.GivenName, claims.FamilyName
	if first == "" && last == "" {
		first, last = splitName(claims.Name)
	}
	return &ExternalIdentity{
		Provider:      p.name,
		Sub:           idToken.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		FirstName:     first,
		LastName:      last,
	}, nil
}

// flexBool accepts true, "true" and similar.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		parsed, _ := strconv.ParseBool(t)
		*b = flexBool(parsed)
	default:
		*b = false
	}
	return nil
}

type GitHubProviderConfig struct {
	Client     OAuthClientConfig
	Endpoint   oauth2.Endpoint
	APIBaseURL string
	HTTPClient *http.Client
}

type githubProvider struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

func NewGitHubProvider(cfg GitHubProviderConfig) (OAuthProvider, error) {
	if !cfg.Client.Enabled() {
		return nil, errors.New("github: client id and secret are required")
	}
	if err := cfg.Client.validate(); err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = github.Endpoint
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		base = "https://api.github.com"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &githubProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.Client.ClientID,
			ClientSecret: cfg.Client.ClientSecret,
			RedirectURL:  cfg.Client.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBaseURL: base,
		httpClient: hc,
	}, nil
}

func (p *githubProvider) Name() string { return ProviderGitHub }

func (p *githubProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *githubProvider) Exchange(ctx context.Context, code, _ string) (*ExternalIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github: exchange code: %w", err)
	}
	client := p.oauth.Client(ctx, tok)

	var u githubUser
	if err := p.getJSON(ctx, client, "/user", &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("github: user id missing")
	}
	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return nil, err
	}

	out := &ExternalIdentity{Provider: ProviderGitHub, Sub: strconv.FormatInt(u.ID, 10)}
	for _, e := range emails {
		if e.Primary {
			out.Email, out.EmailVerified = e.Email, e.Verified
			break
		}
	}
	if out.Email == "" {
		out.Email = u.Email
	}
	name := u.Name
	if strings.TrimSpace(name) == "" {
		name = u.Login
	}
	out.FirstName, out.LastName = splitName(name)
	return out, nil
}

func (p *githubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("github: read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &httpx.StatusError{Service: "github", StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github: decode %s: %w", path, err)
	}
	return nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
