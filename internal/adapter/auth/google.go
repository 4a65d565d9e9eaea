package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"prombank/internal/port"
)

const googleProfileURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// exchangeTimeout bounds the external call to the identity provider so a slow
// provider can never hang the login request.
const exchangeTimeout = 10 * time.Second

// GoogleProvider implements port.IdentityProvider for Google OAuth2.
type GoogleProvider struct {
	cfg        *oauth2.Config
	httpClient *http.Client
}

// NewGoogleProvider creates a new Google OAuth2 provider. The redirect URL
// must exactly match the one registered with Google and the one used to
// initiate the flow.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		httpClient: &http.Client{Timeout: exchangeTimeout},
	}
}

// ProviderName returns "google".
func (g *GoogleProvider) ProviderName() string {
	return "google"
}

// AuthURL returns the Google OAuth2 consent screen URL carrying the state.
func (g *GoogleProvider) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades the authorization code for tokens and fetches the user's
// profile. Codes are single-use, so failures surface immediately and are
// never retried here.
func (g *GoogleProvider) Exchange(ctx context.Context, code string) (*port.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: google code exchange: %v", port.ErrExternalAuth, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleProfileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: create profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: google profile fetch: %v", port.ErrExternalAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: google profile fetch (%d): %s", port.ErrExternalAuth, resp.StatusCode, string(body))
	}

	var profile struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: google decode profile: %v", port.ErrExternalAuth, err)
	}
	if profile.ID == "" || profile.Email == "" {
		return nil, fmt.Errorf("%w: google profile missing subject or email", port.ErrExternalAuth)
	}

	return &port.Identity{
		Subject:   profile.ID,
		Email:     profile.Email,
		Name:      profile.Name,
		AvatarURL: profile.Picture,
	}, nil
}
