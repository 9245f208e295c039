package services

import (
	"context"
	"fmt"
	"log/slog"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"sync"
	"time"
)

// SessionManager holds the signed-in identity of this process.
// It has two states, Anonymous and Authenticated; failures never change it.
type SessionManager struct {
	log      *slog.Logger
	provider contract.IdentityProvider
	reporter contract.FailureReporter

	mu      sync.RWMutex
	session *chat.Session
}

func NewSessionManager(log *slog.Logger, provider contract.IdentityProvider,
	reporter contract.FailureReporter) *SessionManager {
	return &SessionManager{log: log, provider: provider, reporter: reporter}
}

// SignIn runs the provider handshake. A failure is reported once and never retried.
func (s *SessionManager) SignIn(ctx context.Context) (chat.Identity, error) {
	session, err := s.provider.SignIn(ctx)
	if err == nil && session.Identity.IsZero() {
		err = fmt.Errorf("provider returned an identity without uid")
	}
	if err != nil {
		s.report(ctx, event.AuthenticationFailure, err)
		return chat.Identity{}, fmt.Errorf("%w: %v", errors.ErrAuthentication, err)
	}

	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	s.log.Info("Signed in", "uid", session.Identity.UID)
	return session.Identity, nil
}

// SignOut ends the provider session. Signing out while anonymous is a no-op.
func (s *SessionManager) SignOut(ctx context.Context) error {
	current, ok := s.Session()
	if !ok {
		return nil
	}
	if err := s.provider.SignOut(ctx, current); err != nil {
		s.report(ctx, event.SignOutFailure, err)
		return fmt.Errorf("%w: %v", errors.ErrSignOut, err)
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	s.log.Info("Signed out", "uid", current.Identity.UID)
	return nil
}

func (s *SessionManager) Identity() (chat.Identity, bool) {
	session, ok := s.Session()
	return session.Identity, ok
}

func (s *SessionManager) Session() (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return chat.Session{}, false
	}
	return *s.session, true
}

// Token is the bearer credential of the current session, empty when anonymous.
func (s *SessionManager) Token() string {
	session, _ := s.Session()
	return session.Token
}

func (s *SessionManager) report(ctx context.Context, kind event.FailureKind, err error) {
	s.log.Error("Session operation failed", "kind", kind, "error", err)
	s.reporter.Report(ctx, event.Failure{Kind: kind, Err: err, At: time.Now().UTC()})
}
