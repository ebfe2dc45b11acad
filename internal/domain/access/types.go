package access

import "time"

// TokenTypeAccess is the only token type the API accepts.
const TokenTypeAccess = "access"

const (
	CodeInvalidInput = "invalid_input"
	CodeInvalidToken = "invalid_token"
	CodeAuth         = "auth_error"
)

// Config drives API token behavior. An empty Secret disables the guard.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// Claims are extracted from a validated token.
type Claims struct {
	Subject   string
	TokenType string
	TokenID   string
	ExpiresAt time.Time
}

// Token is a freshly minted access token.
type Token struct {
	Value     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expiresAt"`
}
