package auth

import (
	"context"
	"fmt"
	"superchat/domain/chat"
	"superchat/errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer is the default OpenID provider.
const GoogleIssuer = "https://accounts.google.com"

// OIDCVerifier accepts ID tokens issued by an OpenID provider for our client ID.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the provider keys from issuerURL.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery on %s: %w", issuerURL, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func NewOIDCVerifierFrom(verifier *oidc.IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: verifier}
}

// ProfileClaims are the standard claims mapped onto an Identity.
type ProfileClaims struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Nonce   string `json:"nonce"`
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawIDToken string) (chat.Identity, error) {
	claims, err := v.VerifyClaims(ctx, rawIDToken)
	if err != nil {
		return chat.Identity{}, err
	}
	return chat.Identity{UID: claims.Subject, DisplayName: claims.Name, PhotoURL: claims.Picture}, nil
}

func (v *OIDCVerifier) VerifyClaims(ctx context.Context, rawIDToken string) (ProfileClaims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return ProfileClaims{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	var claims ProfileClaims
	if err = idToken.Claims(&claims); err != nil {
		return ProfileClaims{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		claims.Subject = idToken.Subject
	}
	return claims, nil
}
