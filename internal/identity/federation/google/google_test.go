package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/agentdeskhq/agentdesk/internal/identity/federation"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://app.example.com/v1/oauth/google/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		HTTPClient:   srv.Client(),
	})
}

func TestAuthCodeURL(t *testing.T) {
	p := newTestProvider(t, http.NotFoundHandler())

	raw := p.AuthCodeURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "openid email profile", q.Get("scope"))
	require.Equal(t, "state-123", q.Get("state"))
	require.Equal(t, "https://app.example.com/v1/oauth/google/callback", q.Get("redirect_uri"))
}

func TestExchangeSuccess(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "the-code", r.PostForm.Get("code"))
		require.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "google-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))

	token, err := p.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	require.Equal(t, "google-access", token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.False(t, token.ExpiresAt.IsZero())
}

func TestExchangeRejectedCode(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Bad authorization code.",
		})
	}))

	_, err := p.Exchange(context.Background(), "bogus")
	require.ErrorIs(t, err, federation.ErrExchangeFailed)

	var provErr *federation.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, http.StatusBadRequest, provErr.Status)
	require.Contains(t, provErr.Detail, "invalid_grant")
}

func TestExchangeUnreadableResponse(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))

	// A 200 with a body we cannot parse is still an exchange failure, not
	// an internal error.
	_, err := p.Exchange(context.Background(), "the-code")
	require.ErrorIs(t, err, federation.ErrExchangeFailed)

	var provErr *federation.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Contains(t, provErr.Detail, "unreadable token response")
}

func TestUserInfoSuccess(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer google-access", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            "sub-42",
			"email":          "alice@example.com",
			"email_verified": true,
			"name":           "Alice Doe",
			"picture":        "https://lh3.example.com/a/photo",
		})
	}))

	profile, err := p.UserInfo(context.Background(), &federation.Token{AccessToken: "google-access"})
	require.NoError(t, err)
	require.Equal(t, "sub-42", profile.Subject)
	require.Equal(t, "alice@example.com", profile.Email)
	require.True(t, profile.EmailVerified)
	require.Equal(t, "Alice Doe", profile.Name)
	require.Equal(t, "https://lh3.example.com/a/photo", profile.AvatarURL)
}

func TestUserInfoRejectedToken(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}))

	_, err := p.UserInfo(context.Background(), &federation.Token{AccessToken: "stale"})
	require.ErrorIs(t, err, federation.ErrProfileFailed)
}
