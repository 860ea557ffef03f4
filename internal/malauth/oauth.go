package malauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

const (
	authorizeURL = "https://myanimelist.net/v1/oauth2/authorize"
	tokenURL     = "https://myanimelist.net/v1/oauth2/token"
)

// Authenticator wraps the MyAnimeList OAuth endpoints. MAL only supports the
// "plain" PKCE method, so the challenge is the verifier itself.
type Authenticator struct {
	oauth *oauth2.Config
}

func NewAuthenticator(clientID, clientSecret, redirectURI string) *Authenticator {
	return &Authenticator{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authorizeURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

func (a *Authenticator) Configured() bool {
	return a.oauth.ClientID != ""
}

func (a *Authenticator) AuthCodeURL(state, verifier string) string {
	return a.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", verifier),
		oauth2.SetAuthURLParam("code_challenge_method", "plain"),
	)
}

func (a *Authenticator) Exchange(ctx context.Context, code, verifier string) (Credential, error) {
	token, err := a.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return Credential{}, fmt.Errorf("exchange authorization code: %w", err)
	}
	return credentialFromToken(token), nil
}

func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	source := a.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return Credential{}, fmt.Errorf("refresh access token: %w", err)
	}
	cred := credentialFromToken(token)
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

func credentialFromToken(token *oauth2.Token) Credential {
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}
	return Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt.UTC(),
	}
}

// NewVerifier returns a PKCE code verifier suitable for the plain method.
func NewVerifier() (string, error) {
	return randomURLToken(32)
}

// NewState returns an opaque state value for the authorize redirect.
func NewState() (string, error) {
	return randomURLToken(16)
}

func randomURLToken(size int) (string, error) {
	raw := make([]byte, size)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
