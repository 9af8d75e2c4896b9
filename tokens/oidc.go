package tokens

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// YahooIssuer is Yahoo's OpenID Connect issuer.
const YahooIssuer = "https://api.login.yahoo.com"

// OIDCIdentifier reads the subject from the issuer's userinfo endpoint.
type OIDCIdentifier struct {
	provider *oidc.Provider
}

func NewOIDCIdentifier(ctx context.Context, issuer string) (*OIDCIdentifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}
	return &OIDCIdentifier{provider: provider}, nil
}

func (i *OIDCIdentifier) Subject(ctx context.Context, ts oauth2.TokenSource) (string, error) {
	info, err := i.provider.UserInfo(ctx, ts)
	if err != nil {
		return "", fmt.Errorf("userinfo: %w", err)
	}
	return info.Subject, nil
}
