// Package identity signs users in with Google: it builds the consent URL,
// exchanges the callback code for a token and fetches the user's profile.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"fintrack/internal/core"
)

var (
	// ErrNotConfigured means a required client setting is missing.
	ErrNotConfigured = errors.New("google sign-in not configured")
	// ErrIdentityProvider wraps any failure talking to the provider.
	ErrIdentityProvider = errors.New("identity provider error")
)

var scopes = []string{"email", "profile"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides Google's OAuth endpoints.
	Endpoint oauth2.Endpoint
	// APIBaseURL overrides the base URL of the userinfo API.
	APIBaseURL string
	HTTPClient *http.Client
}

// Profile is the subset of the provider's userinfo the application keeps.
type Profile struct {
	ID            string
	Email         string
	Name          string
	Picture       string
	VerifiedEmail bool
}

// User maps the profile onto a user record ready for upsert.
func (p Profile) User() core.User {
	name := p.Name
	if name == "" {
		name = p.Email
	}
	return core.User{GoogleID: p.ID, Email: p.Email, Name: name, Picture: p.Picture}
}

type Google struct {
	oauth      *oauth2.Config
	apiBaseURL string
	client     *http.Client
}

// NewGoogle validates cfg. Missing settings are reported by their
// environment variable names.
func NewGoogle(cfg Config) (*Google, error) {
	var missing []string
	if strings.TrimSpace(cfg.ClientID) == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		missing = append(missing, "OAUTH_REDIRECT_URI")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}

	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		apiBaseURL: cfg.APIBaseURL,
		client:     cfg.HTTPClient,
	}, nil
}

// AuthCodeURL is the consent page the browser is redirected to.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the signed-in user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (Profile, error) {
	if strings.TrimSpace(code) == "" {
		return Profile{}, fmt.Errorf("%w: missing authorization code", ErrIdentityProvider)
	}
	if g.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	}

	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: token exchange: %v", ErrIdentityProvider, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return Profile{}, fmt.Errorf("%w: no access token returned", ErrIdentityProvider)
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.oauth.Client(ctx, tok))}
	if g.apiBaseURL != "" {
		opts = append(opts, option.WithEndpoint(g.apiBaseURL))
	}
	svc, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: create userinfo service: %v", ErrIdentityProvider, err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, fmt.Errorf("%w: fetch profile: %v", ErrIdentityProvider, err)
	}
	if info.Id == "" || info.Email == "" {
		return Profile{}, fmt.Errorf("%w: profile without id or email", ErrIdentityProvider)
	}

	p := Profile{ID: info.Id, Email: info.Email, Name: info.Name, Picture: info.Picture}
	if info.VerifiedEmail != nil {
		p.VerifiedEmail = *info.VerifiedEmail
	}
	return p, nil
}
