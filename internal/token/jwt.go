package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"prombank/internal/port"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims is the JWT payload for both access and refresh tokens. Kind tells
// them apart so a refresh token can never pass an access-token check.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Kind  string `json:"kind"`
}

// JWT mints and verifies the signed session tokens. Access tokens are
// self-contained and validated without any storage lookup; refresh tokens
// additionally carry a random jti that is persisted for revocation.
type JWT struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWT(secret, issuer string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (j *JWT) AccessTTL() time.Duration { return j.accessTTL }

// MintAccess creates a signed access token for the given user.
func (j *JWT) MintAccess(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Email: email,
		Kind:  kindAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// MintRefresh creates a signed refresh token with a fresh random jti. The jti
// and expiry are returned so the caller can persist them for later revocation.
func (j *JWT) MintRefresh(userID string) (token, jti string, expiresAt time.Time, err error) {
	now := time.Now()
	jti = uuid.NewString()
	expiresAt = now.Add(j.refreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind: kindRefresh,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	return token, jti, expiresAt, err
}

// ParseAccess verifies signature, expiry and issuer of an access token.
func (j *JWT) ParseAccess(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, kindAccess)
}

// ParseRefresh verifies signature, expiry and issuer of a refresh token.
func (j *JWT) ParseRefresh(tokenStr string) (*Claims, error) {
	return j.parse(tokenStr, kindRefresh)
}

func (j *JWT) parse(tokenStr, wantKind string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, port.ErrInvalidToken
	}
	if claims.Kind != wantKind || claims.Subject == "" {
		return nil, port.ErrInvalidToken
	}
	return claims, nil
}
