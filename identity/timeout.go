package identity

import (
	"context"
	"superchat/contract"
	"superchat/domain/chat"
	"time"
)

type timeoutProvider struct {
	contract.IdentityProvider
	timeout time.Duration
}

// WithTimeout bounds the interactive sign-in. A non-positive timeout keeps p as is.
func WithTimeout(p contract.IdentityProvider, timeout time.Duration) contract.IdentityProvider {
	if timeout <= 0 {
		return p
	}
	return timeoutProvider{IdentityProvider: p, timeout: timeout}
}

func (t timeoutProvider) SignIn(ctx context.Context) (chat.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.IdentityProvider.SignIn(ctx)
}
