// Package projection builds the chat screen state from observed events.
// State values are immutable: Reduce always returns a new value and never
// shares a slice with the previous one.
// Does not emit events or interact with UI directly.
package projection

import (
	"slices"
	"strings"
	"superchat/domain/chat"
	"superchat/domain/event"
)

type Status int

const (
	SignedOut Status = iota
	SignedIn
)

func (s Status) String() string {
	if s == SignedIn {
		return "SIGNED_IN"
	}
	return "SIGNED_OUT"
}

// State is what a UI renders.
type State struct {
	Identity *chat.Identity
	Messages []chat.Message
	Compose  string
	Status   Status
}

// Reduce applies one transition event.
// Unknown events leave the state unchanged.
func Reduce(state State, e event.DomainEvent) State {
	switch evt := e.(type) {
	case event.AuthChanged:
		if evt.Identity == nil {
			return State{Status: SignedOut}
		}
		identity := *evt.Identity
		next := state.clone()
		next.Identity = &identity
		next.Status = SignedIn
		return next
	case event.MessagesChanged:
		next := state.clone()
		next.Messages = slices.Clone(evt.Messages)
		return next
	case event.ComposeChanged:
		next := state.clone()
		next.Compose = evt.Text
		return next
	}
	return state
}

func (s State) clone() State {
	next := s
	next.Messages = slices.Clone(s.Messages)
	if s.Identity != nil {
		identity := *s.Identity
		next.Identity = &identity
	}
	return next
}

func (s State) IsSignedIn() bool {
	return s.Status == SignedIn && s.Identity != nil
}

// CanSend reports whether the send action has something to write.
func (s State) CanSend() bool {
	return s.IsSignedIn() && strings.TrimSpace(s.Compose) != ""
}

// IsOwn reports whether the message was written by the signed-in user.
func (s State) IsOwn(message chat.Message) bool {
	return s.Identity != nil && message.IsFrom(s.Identity.UID)
}
