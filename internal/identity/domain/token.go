package domain

// Credentials is what a successful authentication produces: the access token
// that goes in the response body and the refresh token that becomes a
// path-scoped cookie. Neither variant is ever persisted.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    int    `json:"expires_in"`           // seconds until access expiry
	RefreshToken string `json:"-"`                    // cookie-only, never in a body
}
