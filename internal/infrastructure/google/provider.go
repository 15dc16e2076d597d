// Package google signs users in with Google: OAuth2 authorization codes and
// OpenID Connect ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

var scopes = []string{"openid", "email", "profile"}

type Provider struct {
	OAuth *oauth2.Config

	// APIOptions are appended when calling the userinfo API.
	APIOptions []option.ClientOption

	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     googleoauth.Endpoint,
		},
		validate: idtoken.Validate,
	}
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// VerifyIdentityToken checks the ID token signature and audience. A token
// Google does not accept yields a nil profile; failing to reach Google for
// its certificates is returned as an error.
func (p *Provider) VerifyIdentityToken(ctx context.Context, token string) (*application.ProviderProfile, error) {
	payload, err := p.validate(ctx, token, p.OAuth.ClientID)
	if err != nil {
		if isTransportError(err) {
			return nil, fmt.Errorf("google verify id token: %w", err)
		}
		return nil, nil
	}
	if payload == nil {
		return nil, nil
	}
	return &application.ProviderProfile{
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		GivenName:     claimString(payload.Claims, "given_name"),
		FamilyName:    claimString(payload.Claims, "family_name"),
		Picture:       claimString(payload.Claims, "picture"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	}, nil
}

// ExchangeAuthorizationCode trades a code for tokens. A code Google rejects
// is an authentication failure; transport errors are returned unchanged.
func (p *Provider) ExchangeAuthorizationCode(ctx context.Context, code string) (application.ProviderTokens, error) {
	tok, err := p.OAuth.Exchange(ctx, code)
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return application.ProviderTokens{}, domainerr.Wrap(domainerr.KindAuthentication, "invalid authorization code", err)
	}
	if err != nil {
		return application.ProviderTokens{}, fmt.Errorf("google exchange: %w", err)
	}
	return application.ProviderTokens{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

func (p *Provider) FetchProfile(ctx context.Context, accessToken string) (*application.ProviderProfile, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}, p.APIOptions...)
	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	return &application.ProviderProfile{
		Subject:       info.Id,
		Email:         info.Email,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		Picture:       info.Picture,
		EmailVerified: info.VerifiedEmail != nil && *info.VerifiedEmail,
	}, nil
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimBool accepts both JSON booleans and the string form some tokens carry.
func claimBool(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}

var _ application.IdentityProvider = (*Provider)(nil)

// isTransportError separates network and cert-endpoint failures from tokens
// idtoken rejected on their own merits.
func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	var nerr net.Error
	if errors.As(err, &uerr) || errors.As(err, &nerr) {
		return true
	}
	return strings.Contains(err.Error(), "unable to retrieve cert")
}
