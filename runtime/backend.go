package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"superchat/repositories"
	"superchat/runtime/workers"
	"superchat/sink"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.MessageStore = (*Backend)(nil)

type BackendConfig struct {
	MaxContentLength int
	BufferSize       int
	SinkTimeout      time.Duration
	RestartInterval  time.Duration
}

// Backend is the embedded document store holding the messages collection.
// Writes go to badger, then a MessageAppended event is fanned out to every
// live query registered through Watch.
type Backend struct {
	log        *slog.Logger
	repository repositories.IMessageRepository
	registry   contract.IRegistry
	validator  MessageValidator
	events     chan event.DomainEvent
	supervisor *workers.Supervisor

	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	closed  bool
	queries sync.WaitGroup
	stopped chan struct{}
	started bool
}

func NewBackend(log *slog.Logger, repository repositories.IMessageRepository,
	registry contract.IRegistry, config BackendConfig, permanentSinks ...contract.EventSink) *Backend {
	events := make(chan event.DomainEvent, config.BufferSize)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(workers.NewEventFanout(log, registry, events, config.SinkTimeout, permanentSinks...))

	ctx, cancel := context.WithCancel(context.Background())
	return &Backend{
		log:        log,
		repository: repository,
		registry:   registry,
		validator:  NewMessageValidator(config.MaxContentLength),
		events:     events,
		supervisor: supervisor,
		ctx:        ctx,
		cancel:     cancel,
		stopped:    make(chan struct{}),
	}
}

// Start launches the fanout workers. Cancelling ctx has the same effect as Close.
func (b *Backend) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	context.AfterFunc(ctx, b.cancel)
	go func() {
		defer close(b.stopped)
		b.supervisor.Run(b.ctx)
	}()
}

// Close releases every live query and stops the workers.
func (b *Backend) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	started := b.started
	b.mu.Unlock()

	b.cancel()
	b.queries.Wait()
	if started {
		<-b.stopped
	}
	b.log.Info("Backend closed")
}

// Append validates and stores a message, then notifies live queries.
// The returned message carries the assigned ID and creation time.
func (b *Backend) Append(ctx context.Context, message chat.Message) (chat.Message, error) {
	if b.ctx.Err() != nil {
		return chat.Message{}, errors.ErrBackendClosed
	}
	if err := b.validator.Validate(message); err != nil {
		return chat.Message{}, err
	}
	message.ID = uuid.New()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	} else {
		message.CreatedAt = message.CreatedAt.UTC()
	}

	if err := b.repository.StoreMessage(toDiskMessage(message)); err != nil {
		return chat.Message{}, fmt.Errorf("store message: %w", err)
	}

	select {
	case b.events <- event.MessageAppended{Message: message}:
	case <-ctx.Done():
		b.log.Warn("Message stored but live queries not notified", "id", message.ID, "error", ctx.Err())
	case <-b.ctx.Done():
	}
	return message, nil
}

// ListMessages reads the ordered collection.
func (b *Backend) ListMessages() ([]chat.Message, error) {
	diskMessages, err := b.repository.ListMessages()
	if err != nil {
		return nil, err
	}
	return lo.Map(diskMessages, fromDiskMessage), nil
}

// Watch opens a live query. The query is registered before its first read,
// so no write happening after Watch returns can be missed.
// When the backend closes under an open query, onError receives
// ErrBackendClosed once. onUpdate must not call Close on the returned subscription.
func (b *Backend) Watch(ctx context.Context, onUpdate contract.SnapshotHandler,
	onError contract.ErrorHandler) (contract.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.ctx.Err() != nil {
		return nil, errors.ErrBackendClosed
	}

	queryCtx, cancel := context.WithCancel(b.ctx)
	stop := context.AfterFunc(ctx, cancel)
	id := uuid.NewString()
	query := sink.NewLiveQuery(b.log.With("subscription", id), b.ListMessages, onUpdate, onError)
	b.registry.Subscribe(id, query)

	sub := &subscription{id: id, cancel: cancel, stop: stop, done: make(chan struct{})}
	b.queries.Add(1)
	go func() {
		defer b.queries.Done()
		defer close(sub.done)
		defer b.registry.Unsubscribe(id)
		_ = query.Run(queryCtx)
		// Released by the backend, not by its owner
		if b.ctx.Err() != nil && ctx.Err() == nil && !sub.released.Load() && onError != nil {
			onError(errors.ErrBackendClosed)
		}
	}()

	b.log.Debug("Live query opened", "subscription", id)
	return sub, nil
}

type subscription struct {
	id       string
	once     sync.Once
	released atomic.Bool
	cancel   context.CancelFunc
	stop     func() bool
	done     chan struct{}
}

// Close returns once the live query goroutine is gone.
func (s *subscription) Close() {
	s.once.Do(func() {
		s.released.Store(true)
		s.stop()
		s.cancel()
		<-s.done
	})
}
