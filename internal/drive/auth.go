package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/existflow/ohm/internal/logger"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// DefaultDiscoveryURL is Google's OpenID provider metadata document
const DefaultDiscoveryURL = "https://accounts.google.com/.well-known/openid-configuration"

// PromptMode selects how a token is acquired
type PromptMode int

const (
	// PromptNone reuses the existing grant without user interaction
	PromptNone PromptMode = iota
	// PromptConsent runs the full consent flow
	PromptConsent
)

func (m PromptMode) String() string {
	if m == PromptConsent {
		return "consent"
	}
	return "none"
}

// TokenCache persists the grant between runs
type TokenCache interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
	Clear(ctx context.Context) error
}

// DevicePrompter shows the user where to approve a device-code request
type DevicePrompter func(resp *oauth2.DeviceAuthResponse)

// AuthConfig configures an Authenticator
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	DiscoveryURL string
	HTTPClient   *http.Client
	Cache        TokenCache
	Prompter     DevicePrompter
}

// Authenticator acquires and revokes OAuth tokens for the board file.
// It is not ready until the provider metadata has been fetched.
type Authenticator struct {
	cfg AuthConfig

	mu        sync.Mutex
	oauth     *oauth2.Config
	revokeURL string
}

// NewAuthenticator creates an authenticator. Nothing is fetched until Init.
func NewAuthenticator(cfg AuthConfig) *Authenticator {
	if cfg.DiscoveryURL == "" {
		cfg.DiscoveryURL = DefaultDiscoveryURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{drive.DriveAppdataScope}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Authenticator{cfg: cfg}
}

// Configured reports whether a client id is set. Without one remote sync is
// never available.
func (a *Authenticator) Configured() bool {
	return a.cfg.ClientID != ""
}

type providerMetadata struct {
	AuthorizationEndpoint       string `json:"authorization_endpoint"`
	TokenEndpoint               string `json:"token_endpoint"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
	RevocationEndpoint          string `json:"revocation_endpoint"`
}

// Init readies the token client. It returns false when no client id is
// configured or the provider metadata cannot be fetched yet; callers retry.
func (a *Authenticator) Init(ctx context.Context) bool {
	if !a.Configured() {
		logger.Debug("Remote sync disabled: no client id configured")
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.oauth != nil {
		return true
	}

	meta, err := a.fetchMetadata(ctx)
	if err != nil {
		logger.Debug("Auth provider not ready", logger.Err(err))
		return false
	}

	endpoint := google.Endpoint
	if meta.AuthorizationEndpoint != "" {
		endpoint.AuthURL = meta.AuthorizationEndpoint
	}
	if meta.TokenEndpoint != "" {
		endpoint.TokenURL = meta.TokenEndpoint
	}
	if meta.DeviceAuthorizationEndpoint != "" {
		endpoint.DeviceAuthURL = meta.DeviceAuthorizationEndpoint
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	a.oauth = &oauth2.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		Scopes:       a.cfg.Scopes,
		Endpoint:     endpoint,
	}
	a.revokeURL = meta.RevocationEndpoint
	if a.revokeURL == "" {
		a.revokeURL = "https://oauth2.googleapis.com/revoke"
	}
	logger.Info("Auth client ready", logger.F("tokenURL", endpoint.TokenURL))
	return true
}

func (a *Authenticator) fetchMetadata(ctx context.Context) (*providerMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.DiscoveryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider metadata: %s", resp.Status)
	}
	var meta providerMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode provider metadata: %w", err)
	}
	return &meta, nil
}

func (a *Authenticator) config() (*oauth2.Config, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.oauth, a.revokeURL
}

// RequestAccessToken acquires a token. PromptNone refreshes the cached grant;
// PromptConsent runs the device authorization flow. Failures are logged and
// reported as nil.
func (a *Authenticator) RequestAccessToken(ctx context.Context, mode PromptMode) *oauth2.Token {
	cfg, _ := a.config()
	if cfg == nil {
		logger.Warn("Token requested before auth client was ready")
		return nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.cfg.HTTPClient)

	var (
		tok *oauth2.Token
		err error
	)
	switch mode {
	case PromptNone:
		tok, err = a.silentToken(ctx, cfg)
	default:
		tok, err = a.consentToken(ctx, cfg)
	}
	if err != nil {
		logger.Warn("Token request failed", logger.F("prompt", mode), logger.Err(err))
		return nil
	}

	if a.cfg.Cache != nil {
		if err := a.cfg.Cache.Save(ctx, tok); err != nil {
			logger.Warn("Failed to cache token", logger.Err(err))
		}
	}
	logger.Info("Access token acquired", logger.F("prompt", mode), logger.F("expiry", tok.Expiry))
	return tok
}

func (a *Authenticator) silentToken(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	if a.cfg.Cache == nil {
		return nil, fmt.Errorf("no token cache")
	}
	cached, err := a.cfg.Cache.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("no cached grant: %w", err)
	}
	if cached.RefreshToken == "" && !cached.Valid() {
		return nil, fmt.Errorf("cached grant expired")
	}
	return cfg.TokenSource(ctx, cached).Token()
}

func (a *Authenticator) consentToken(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	da, err := cfg.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}
	if a.cfg.Prompter != nil {
		a.cfg.Prompter(da)
	}
	return cfg.DeviceAccessToken(ctx, da)
}

// Revoke invalidates tok at the provider and forgets the cached grant.
// A nil tok revokes the cached grant instead.
func (a *Authenticator) Revoke(ctx context.Context, tok *oauth2.Token) {
	if a.cfg.Cache != nil {
		if tok == nil {
			tok, _ = a.cfg.Cache.Load(ctx)
		}
		if err := a.cfg.Cache.Clear(ctx); err != nil {
			logger.Warn("Failed to clear cached token", logger.Err(err))
		}
	}

	_, revokeURL := a.config()
	if tok == nil || revokeURL == "" {
		return
	}
	value := tok.RefreshToken
	if value == "" {
		value = tok.AccessToken
	}

	form := url.Values{"token": {value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		logger.Warn("Failed to build revoke request", logger.Err(err))
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.cfg.HTTPClient.Do(req)
	if err != nil {
		logger.Warn("Token revoke failed", logger.Err(err))
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Warn("Token revoke rejected",
			logger.F("status", resp.StatusCode),
			logger.F("response", string(body)))
		return
	}
	logger.Info("Token revoked")
}
