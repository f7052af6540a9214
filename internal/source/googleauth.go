// Google OAuth2 credential refresh for the Gmail IMAP auth variant.
//
// Grounded on original_source/src/auth/google.rs's generate_access_token:
// a form-encoded POST to Google's token endpoint with
// {client_id, client_secret, refresh_token, grant_type: refresh_token},
// caching the returned access token against its expiry. Expressed
// here with golang.org/x/oauth2's oauth2.Config, which performs the
// same exchange without hand-rolling the HTTP form post.
package source

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleCredential wraps an oauth2.TokenSource for lazy refresh: a
// call is only made when the cached token has expired.
type GoogleCredential struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	source oauth2.TokenSource
}

func (g *GoogleCredential) tokenSource(ctx context.Context) oauth2.TokenSource {
	if g.source == nil {
		cfg := &oauth2.Config{
			ClientID:     g.ClientID,
			ClientSecret: g.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		}
		tok := &oauth2.Token{RefreshToken: g.RefreshToken}
		g.source = cfg.TokenSource(ctx, tok)
	}
	return g.source
}

// AccessToken returns a valid access token, refreshing through Google
// only if the cached one has expired.
func (g *GoogleCredential) AccessToken(ctx context.Context) (string, int64, error) {
	tok, err := g.tokenSource(ctx).Token()
	if err != nil {
		return "", 0, fmt.Errorf("refresh google oauth2 token: %w", err)
	}
	return tok.AccessToken, tok.Expiry.Unix(), nil
}

// Refresher adapts AccessToken to the OAuth2Token.Refresher shape
// EmailSource expects.
func (g *GoogleCredential) Refresher(ctx context.Context) (string, int64, error) {
	return g.AccessToken(ctx)
}
