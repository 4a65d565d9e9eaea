package domain

import "time"

// RefreshToken is the persisted side of a session refresh token. The token
// string itself is a signed JWT; only its id (jti) and a hash are stored so
// individual tokens can be revoked and rotation can be detected.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionTokens is the credential pair handed to a client after login or refresh.
type SessionTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// APIToken is a named, long-lived credential for programmatic (CLI/MCP)
// access. Only a salted hash of the secret is stored; Prefix is the short
// non-secret part used for display and lookup.
type APIToken struct {
	ID         string     `json:"id"           db:"id"`
	UserID     string     `json:"-"            db:"user_id"`
	Name       string     `json:"name"         db:"name"`
	Prefix     string     `json:"prefix"       db:"prefix"`
	SecretHash string     `json:"-"            db:"secret_hash"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"   db:"expires_at"`
	Revoked    bool       `json:"-"            db:"revoked"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"   db:"created_at"`
}

// NewAPIToken carries the plaintext secret exactly once, in the creation
// response. It is transient: never persisted, never logged.
type NewAPIToken struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}
