//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"superchat/domain/chat"
	"superchat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry keeps the live queries currently attached to the collection.
type IRegistry interface {
	GetSinks() []EventSink
	Subscribe(subscriptionID string, sink EventSink)
	Unsubscribe(subscriptionID string)
}

// IdentityProvider runs the interactive sign-in handshake.
type IdentityProvider interface {
	SignIn(ctx context.Context) (chat.Session, error)
	SignOut(ctx context.Context, session chat.Session) error
}

// SnapshotHandler receives the full ordered message list.
type SnapshotHandler func(messages []chat.Message)

// ErrorHandler receives delivery errors of a live query.
type ErrorHandler func(err error)

// MessageStore is the ordered messages collection.
type MessageStore interface {
	Append(ctx context.Context, message chat.Message) (chat.Message, error)
	Watch(ctx context.Context, onUpdate SnapshotHandler, onError ErrorHandler) (Subscription, error)
}

// Subscription is the handle of a live query. Close is idempotent and
// returns once no more snapshot can be delivered.
type Subscription interface {
	Close()
}

// FailureReporter is the observability sink of recovered failures.
type FailureReporter interface {
	Report(ctx context.Context, failure event.Failure)
}

// ISessionManager owns the signed-in identity of the process.
type ISessionManager interface {
	SignIn(ctx context.Context) (chat.Identity, error)
	SignOut(ctx context.Context) error
	Identity() (chat.Identity, bool)
}

// IStreamBinder keeps the single live subscription and writes messages.
type IStreamBinder interface {
	Subscribe(ctx context.Context, onUpdate SnapshotHandler) (Subscription, error)
	Send(ctx context.Context, text string, author chat.Author) (chat.Message, error)
}
