package domain

import "time"

// User represents an authenticated user in the system.
type User struct {
	ID          string     `json:"id"          db:"id"`
	Email       string     `json:"email"       db:"email"`
	Name        string     `json:"name"        db:"name"`
	AvatarURL   string     `json:"picture"     db:"avatar_url"`
	Provider    string     `json:"-"           db:"provider"`
	ProviderID  string     `json:"-"           db:"provider_id"`
	Role        string     `json:"role"        db:"role"`
	IsActive    bool       `json:"-"           db:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"  db:"updated_at"`
}

// TokenKind distinguishes how a request was authenticated.
type TokenKind string

const (
	TokenKindAccess TokenKind = "access"
	TokenKindAPI    TokenKind = "api"
)

// UserContext is the resolved identity injected into request handlers.
// It is an explicit value passed down per request, never shared state.
type UserContext struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email"`
	Kind   TokenKind `json:"token_kind"`
}
