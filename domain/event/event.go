package event

import (
	"superchat/domain/chat"
	"time"
)

type Type string

const (
	MessageAppendedType Type = "MESSAGE_APPENDED"
	AuthChangedType     Type = "AUTH_CHANGED"
	MessagesChangedType Type = "MESSAGES_CHANGED"
	ComposeChangedType  Type = "COMPOSE_CHANGED"
	FailureType         Type = "FAILURE"
)

// DomainEvent is any fact flowing through sinks or the state reducer.
type DomainEvent interface {
	Type() Type
}

// MessageAppended is emitted by the backend once a message is durable.
type MessageAppended struct {
	Message chat.Message
}

func (MessageAppended) Type() Type { return MessageAppendedType }

// AuthChanged carries the new identity, nil when signed out.
type AuthChanged struct {
	Identity *chat.Identity
}

func (AuthChanged) Type() Type { return AuthChangedType }

// MessagesChanged carries a full ordered snapshot delivered by a live query.
// Generation identifies the subscription that produced it.
type MessagesChanged struct {
	Generation uint64
	Messages   []chat.Message
}

func (MessagesChanged) Type() Type { return MessagesChangedType }

type ComposeChanged struct {
	Text string
}

func (ComposeChanged) Type() Type { return ComposeChangedType }

type FailureKind string

const (
	AuthenticationFailure FailureKind = "AUTHENTICATION_FAILURE"
	SignOutFailure        FailureKind = "SIGN_OUT_FAILURE"
	SendFailure           FailureKind = "SEND_FAILURE"
	SubscriptionFailure   FailureKind = "SUBSCRIPTION_FAILURE"
)

// Failure is what the observability sink receives. State is never changed by it.
type Failure struct {
	Kind FailureKind
	Err  error
	At   time.Time
}

func (Failure) Type() Type { return FailureType }
