package identity

import (
	"context"
	"log/slog"
	"superchat/auth"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/internal"
)

// FromConfig builds the provider named by IDENTITY_PROVIDER.
// opener is only used by the google provider.
func FromConfig(ctx context.Context, log *slog.Logger, config internal.ClientConfig,
	authenticator Authenticator, opener Opener) (contract.IdentityProvider, error) {
	var provider contract.IdentityProvider
	switch config.IdentityProvider {
	case internal.ProviderGoogle:
		google, err := NewGoogleOIDC(ctx, log, config.GoogleClientID, config.GoogleClientSecret, opener)
		if err != nil {
			return nil, err
		}
		provider = google
	case internal.ProviderGuest:
		issuer := auth.NewTokenIssuer([]byte(config.AuthTokenKey), config.AuthTokenDuration)
		provider = NewGuest(chat.Identity{DisplayName: config.GuestName, PhotoURL: config.GuestPhotoURL}, issuer)
	default:
		prompt := PromptFunc(func(context.Context) (string, string, error) {
			return config.Email, config.Password, nil
		})
		provider = NewPassword(prompt, authenticator)
	}
	return WithTimeout(provider, config.SignInTimeout), nil
}
