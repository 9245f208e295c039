package identity

import (
	"context"
	"fmt"
	"superchat/contract"
	"superchat/domain/chat"
)

var _ contract.IdentityProvider = (*Password)(nil)

// CredentialPrompt asks the user for an email and a password.
type CredentialPrompt interface {
	Credentials(ctx context.Context) (email, password string, err error)
}

// PromptFunc adapts a plain function to a CredentialPrompt.
type PromptFunc func(ctx context.Context) (string, string, error)

func (f PromptFunc) Credentials(ctx context.Context) (string, string, error) {
	return f(ctx)
}

// Authenticator exchanges credentials for a server session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (chat.Session, error)
}

// Password signs in against the chat server account service.
type Password struct {
	prompt        CredentialPrompt
	authenticator Authenticator
}

func NewPassword(prompt CredentialPrompt, authenticator Authenticator) *Password {
	return &Password{prompt: prompt, authenticator: authenticator}
}

func (p *Password) SignIn(ctx context.Context) (chat.Session, error) {
	email, password, err := p.prompt.Credentials(ctx)
	if err != nil {
		return chat.Session{}, fmt.Errorf("read credentials: %w", err)
	}
	return p.authenticator.Login(ctx, email, password)
}

// SignOut drops nothing server-side, tokens simply expire.
func (p *Password) SignOut(context.Context, chat.Session) error {
	return nil
}
