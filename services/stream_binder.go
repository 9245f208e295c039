package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"sync"
	"time"
)

// StreamBinder keeps at most one live subscription on the messages collection
// and writes new messages to it.
type StreamBinder struct {
	log      *slog.Logger
	store    contract.MessageStore
	reporter contract.FailureReporter

	mu      sync.Mutex
	current *binding
	last    []chat.Message
}

func NewStreamBinder(log *slog.Logger, store contract.MessageStore,
	reporter contract.FailureReporter) *StreamBinder {
	return &StreamBinder{log: log, store: store, reporter: reporter}
}

// Subscribe opens the live subscription. Every change delivers the full
// ordered list to onUpdate. A second Subscribe before Close fails with
// ErrAlreadySubscribed.
func (b *StreamBinder) Subscribe(ctx context.Context, onUpdate contract.SnapshotHandler) (contract.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		return nil, errors.ErrAlreadySubscribed
	}

	bound := &binding{binder: b}
	deliver := func(messages []chat.Message) {
		b.mu.Lock()
		b.last = messages
		b.mu.Unlock()
		onUpdate(messages)
	}
	onError := func(err error) {
		// The last delivered list stays valid
		b.report(context.Background(), event.SubscriptionFailure, err)
	}

	inner, err := b.store.Watch(ctx, deliver, onError)
	if err != nil {
		b.report(ctx, event.SubscriptionFailure, err)
		return nil, fmt.Errorf("%w: %v", errors.ErrSubscription, err)
	}
	bound.inner = inner
	b.current = bound
	b.log.Debug("Subscribed to collection", "collection", chat.Collection)
	return bound, nil
}

// Send appends a message with the author snapshot taken by the caller.
// Whitespace-only text is rejected with ErrEmptyMessage and nothing is written.
func (b *StreamBinder) Send(ctx context.Context, text string, author chat.Author) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, errors.ErrEmptyMessage
	}
	command := chat.SendMessageCommand{Text: text, Author: author, CreatedAt: time.Now().UTC()}
	stored, err := b.store.Append(ctx, command.ToMessage())
	if err != nil {
		b.report(ctx, event.SendFailure, err)
		return chat.Message{}, fmt.Errorf("%w: %w", errors.ErrSend, err)
	}
	return stored, nil
}

// Messages is the last list delivered by the live subscription.
func (b *StreamBinder) Messages() []chat.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *StreamBinder) report(ctx context.Context, kind event.FailureKind, err error) {
	b.log.Error("Stream operation failed", "kind", kind, "error", err)
	b.reporter.Report(ctx, event.Failure{Kind: kind, Err: err, At: time.Now().UTC()})
}

type binding struct {
	once   sync.Once
	binder *StreamBinder
	inner  contract.Subscription
}

// Close releases the live query; the binder accepts a new Subscribe afterwards.
func (s *binding) Close() {
	s.once.Do(func() {
		s.inner.Close()
		s.binder.mu.Lock()
		if s.binder.current == s {
			s.binder.current = nil
			s.binder.last = nil
		}
		s.binder.mu.Unlock()
	})
}
