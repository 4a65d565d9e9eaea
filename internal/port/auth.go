package port

import "context"

// Identity holds the verified claims returned by an OAuth2 identity provider
// after a successful authorization-code exchange.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// IdentityProvider abstracts the OAuth2 identity provider. Implementations
// handle the authorization URL, code exchange and profile retrieval for a
// specific provider (Google today).
type IdentityProvider interface {
	// ProviderName returns the name of this provider (e.g. "google").
	ProviderName() string

	// AuthURL returns the full OAuth2 authorization URL for redirecting the user.
	AuthURL(state string) string

	// Exchange trades an authorization code for verified identity claims.
	// The redirect URI baked into the provider must match the one used to
	// initiate the flow. Codes are single-use; failures are never retried.
	Exchange(ctx context.Context, code string) (*Identity, error)
}
