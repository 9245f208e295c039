package errors

import "fmt"

// Client-side failures, reported and then recovered locally.
var (
	ErrAuthentication    = fmt.Errorf("authentication failure")
	ErrSignOut           = fmt.Errorf("sign out failure")
	ErrSend              = fmt.Errorf("send failure")
	ErrSubscription      = fmt.Errorf("subscription failure")
	ErrNotSignedIn       = fmt.Errorf("no identity is signed in")
	ErrEmptyMessage      = fmt.Errorf("message text is empty")
	ErrAlreadySubscribed = fmt.Errorf("a live subscription is already open")
	ErrStopped           = fmt.Errorf("chat controller is stopped")
)

// Backend failures.
var (
	ErrInvalidMessage     = fmt.Errorf("invalid message")
	ErrAuthorMismatch     = fmt.Errorf("author does not match the authenticated user")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password does not meet requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrInvalidToken       = fmt.Errorf("invalid or expired token")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrBackendClosed      = fmt.Errorf("backend is closed")
)
