package google

import "github.com/agentdeskhq/agentdesk/internal/identity/federation"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

func (r tokenResponse) errorDetail() string {
	switch {
	case r.Error != "" && r.ErrorDesc != "":
		return r.Error + ": " + r.ErrorDesc
	case r.Error != "":
		return r.Error
	default:
		return "token endpoint error"
	}
}

type userInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func mapProfile(info userInfo) *federation.Profile {
	return &federation.Profile{
		Subject:       info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          info.Name,
		AvatarURL:     info.Picture,
	}
}
