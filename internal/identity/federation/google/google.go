// Package google implements federation.Provider against Google's OAuth2
// endpoints using the authorization-code flow.
package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
)

const (
	defaultAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// Config holds the Google OAuth client settings. The endpoint URLs and
// HTTP client are overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string

	HTTPClient *http.Client
}

type Provider struct {
	config     Config
	httpClient *http.Client
}

func New(cfg Config) *Provider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Provider{config: cfg, httpClient: client}
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) AuthCodeURL(state string) string {
	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.CallbackURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

func (p *Provider) Exchange(ctx context.Context, code string) (*federation.Token, error) {
	data := url.Values{
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"code":          {code},
		"redirect_uri":  {p.config.CallbackURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, exchangeError(resp.StatusCode, "unreadable token response: "+err.Error())
	}
	if resp.StatusCode != http.StatusOK || tokenResp.Error != "" {
		return nil, exchangeError(resp.StatusCode, tokenResp.errorDetail())
	}
	if tokenResp.AccessToken == "" {
		return nil, exchangeError(resp.StatusCode, "missing access token")
	}

	var expiresAt time.Time
	if tokenResp.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &federation.Token{
		AccessToken: tokenResp.AccessToken,
		TokenType:   tokenResp.TokenType,
		ExpiresAt:   expiresAt,
	}, nil
}

func (p *Provider) UserInfo(ctx context.Context, token *federation.Token) (*federation.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &federation.ProviderError{
			Provider:  "google",
			Operation: "userinfo",
			Status:    resp.StatusCode,
			Detail:    strings.TrimSpace(string(body)),
			Err:       federation.ErrProfileFailed,
		}
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, &federation.ProviderError{
			Provider:  "google",
			Operation: "userinfo",
			Status:    resp.StatusCode,
			Detail:    "unreadable userinfo response",
			Err:       federation.ErrProfileFailed,
		}
	}

	return mapProfile(info), nil
}

// Every exchange failure wraps ErrExchangeFailed so callers can map the
// whole class to one authentication outcome; the specifics live in Detail.
func exchangeError(status int, detail string) *federation.ProviderError {
	return &federation.ProviderError{
		Provider:  "google",
		Operation: "exchange",
		Status:    status,
		Detail:    detail,
		Err:       federation.ErrExchangeFailed,
	}
}
