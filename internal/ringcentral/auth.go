package ringcentral

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/rc-tools/rccalllog/internal/config"
)

const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// Session is an authenticated connection to the platform. Tokens are
// obtained with the JWT bearer grant and refreshed transparently.
type Session struct {
	tokens     oauth2.TokenSource
	httpClient *http.Client
}

// NewSession prepares a session for creds. No request is made until Login
// or the first API call. base, when non-nil, carries the token requests and
// the API requests.
func NewSession(ctx context.Context, creds config.Credentials, base *http.Client) *Session {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	cc := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.Server + TokenPath,
		AuthStyle:    oauth2.AuthStyleInHeader,
		// clientcredentials lets grant_type be overridden, which turns it
		// into a JWT bearer exchange.
		EndpointParams: url.Values{
			"grant_type": {jwtBearerGrant},
			"assertion":  {creds.JWT},
		},
	}

	tokens := cc.TokenSource(ctx)
	return &Session{
		tokens:     tokens,
		httpClient: oauth2.NewClient(ctx, tokens),
	}
}

// Login exchanges the JWT for an access token so that rejected credentials
// surface before any call-log request is made.
func (s *Session) Login() error {
	if _, err := s.tokens.Token(); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

// HTTPClient returns a client that adds the bearer token to every request.
func (s *Session) HTTPClient() *http.Client {
	return s.httpClient
}
