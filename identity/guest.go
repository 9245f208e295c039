package identity

import (
	"context"
	"superchat/auth"
	"superchat/contract"
	"superchat/domain/chat"

	"github.com/google/uuid"
)

var _ contract.IdentityProvider = (*Guest)(nil)

const guestRole = "guest"

// Guest signs in with a fixed local profile and a token minted by the
// shared issuer. Used for demos and tests.
type Guest struct {
	profile chat.Identity
	issuer  auth.TokenIssuer
}

// NewGuest keeps profile as is. An empty UID gets a random one per sign-in.
func NewGuest(profile chat.Identity, issuer auth.TokenIssuer) *Guest {
	return &Guest{profile: profile, issuer: issuer}
}

func (g *Guest) SignIn(ctx context.Context) (chat.Session, error) {
	if err := ctx.Err(); err != nil {
		return chat.Session{}, err
	}
	identity := g.profile
	if identity.UID == "" {
		identity.UID = "guest-" + uuid.NewString()
	}
	if identity.DisplayName == "" {
		identity.DisplayName = "Guest"
	}
	token, err := g.issuer.Generate(identity, []string{guestRole})
	if err != nil {
		return chat.Session{}, err
	}
	return chat.Session{Identity: identity, Token: token}, nil
}

func (g *Guest) SignOut(context.Context, chat.Session) error {
	return nil
}
