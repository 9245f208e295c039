package runtime

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"superchat/projection"
	"sync"
	"sync/atomic"
)

var _ contract.Worker = (*Controller)(nil)

// Observer receives every new state. Calls are serial and happen on the
// controller loop, so an observer must not call back into the controller
// synchronously and wait for the result.
type Observer func(state projection.State)

// Controller is the chat view-model. A single loop owns the state: commands
// and async results are posted to it as closures, each transition produces
// a new immutable projection.State and notifies observers.
//
// The live subscription is opened when the user becomes authenticated and
// released when they sign out or the loop stops. Snapshots belonging to a
// released subscription generation are dropped.
type Controller struct {
	log     *slog.Logger
	session contract.ISessionManager
	binder  contract.IStreamBinder

	inbox   chan func()
	stopped chan struct{}
	stop    sync.Once
	async   sync.WaitGroup
	ctx     context.Context

	// loop-owned
	state        projection.State
	observers    map[int]Observer
	nextObserver int
	subscription contract.Subscription
	generation   uint64
	released     chan struct{}
	halted       bool

	current atomic.Pointer[projection.State]
}

func NewController(log *slog.Logger, session contract.ISessionManager,
	binder contract.IStreamBinder, bufferSize int) *Controller {
	c := &Controller{
		log:       log,
		session:   session,
		binder:    binder,
		inbox:     make(chan func(), bufferSize),
		stopped:   make(chan struct{}),
		ctx:       context.Background(),
		observers: make(map[int]Observer),
		state:     projection.State{Status: projection.SignedOut},
	}
	c.publish()
	return c
}

// Run processes posted work until ctx is done, then releases the live
// subscription. A restarted Run keeps the state of the previous one.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case fn := <-c.inbox:
			fn()
		}
	}
}

// State is the last published snapshot. Safe from any goroutine.
func (c *Controller) State() projection.State {
	return *c.current.Load()
}

// Observe registers an observer, immediately called with the current state.
// The returned function unregisters it.
func (c *Controller) Observe(observer Observer) (cancel func()) {
	idCh := make(chan int, 1)
	c.post(func() {
		id := c.nextObserver
		c.nextObserver++
		c.observers[id] = observer
		idCh <- id
		observer(c.state)
	})
	return func() {
		c.post(func() {
			select {
			case id := <-idCh:
				delete(c.observers, id)
			default:
			}
		})
	}
}

// SignIn runs the provider handshake off-loop. The returned channel receives
// the outcome; callers may ignore it.
func (c *Controller) SignIn() <-chan error {
	result := make(chan error, 1)
	if !c.post(func() {
		c.goAsync(func(ctx context.Context) {
			identity, err := c.session.SignIn(ctx)
			if err != nil {
				result <- err
				return
			}
			c.postOrFail(result, func() {
				c.onAuthChanged(&identity)
				result <- nil
			})
		})
	}) {
		result <- errors.ErrStopped
	}
	return result
}

func (c *Controller) SignOut() <-chan error {
	result := make(chan error, 1)
	if !c.post(func() {
		c.goAsync(func(ctx context.Context) {
			if err := c.session.SignOut(ctx); err != nil {
				result <- err
				return
			}
			c.postOrFail(result, func() {
				c.onAuthChanged(nil)
				result <- nil
			})
		})
	}) {
		result <- errors.ErrStopped
	}
	return result
}

// SetCompose replaces the text being typed.
func (c *Controller) SetCompose(text string) {
	c.post(func() {
		c.apply(event.ComposeChanged{Text: text})
	})
}

// Send writes the compose text as the identity signed in at call time.
// Whitespace-only text is a no-op reported as ErrEmptyMessage. On success
// the compose text is cleared unless it was edited meanwhile; on failure it
// is kept.
func (c *Controller) Send() <-chan error {
	result := make(chan error, 1)
	if !c.post(func() {
		if !c.state.IsSignedIn() {
			result <- errors.ErrNotSignedIn
			return
		}
		text := c.state.Compose
		if strings.TrimSpace(text) == "" {
			result <- errors.ErrEmptyMessage
			return
		}
		author := c.state.Identity.Snapshot()
		c.goAsync(func(ctx context.Context) {
			if _, err := c.binder.Send(ctx, text, author); err != nil {
				c.log.Warn("Message not sent", "error", err)
				result <- err
				return
			}
			c.postOrFail(result, func() {
				if c.state.Compose == text {
					c.apply(event.ComposeChanged{Text: ""})
				}
				result <- nil
			})
		})
	}) {
		result <- errors.ErrStopped
	}
	return result
}

func (c *Controller) onAuthChanged(identity *chat.Identity) {
	wasSignedIn := c.state.IsSignedIn()
	c.apply(event.AuthChanged{Identity: identity})

	switch {
	case identity != nil && !wasSignedIn:
		c.subscribe()
	case identity == nil && wasSignedIn:
		c.release()
	}
}

func (c *Controller) subscribe() {
	if c.halted {
		return
	}
	c.generation++
	generation := c.generation
	released := make(chan struct{})

	onUpdate := func(messages []chat.Message) {
		select {
		case c.inbox <- func() { c.onMessages(generation, messages) }:
		case <-released:
		case <-c.stopped:
		}
	}
	subscription, err := c.binder.Subscribe(c.ctx, onUpdate)
	if err != nil {
		c.log.Error("Live subscription not opened", "error", err)
		return
	}
	c.subscription = subscription
	c.released = released
	c.log.Debug("Live subscription opened", "generation", generation)
}

func (c *Controller) release() {
	if c.subscription == nil {
		return
	}
	close(c.released)
	c.subscription.Close()
	c.subscription = nil
	c.released = nil
	c.log.Debug("Live subscription released", "generation", c.generation)
}

func (c *Controller) onMessages(generation uint64, messages []chat.Message) {
	if c.subscription == nil || generation != c.generation {
		c.log.Debug("Dropping snapshot of a released subscription", "generation", generation)
		return
	}
	c.apply(event.MessagesChanged{Generation: generation, Messages: messages})
}

func (c *Controller) apply(e event.DomainEvent) {
	c.state = projection.Reduce(c.state, e)
	c.publish()

	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		c.observers[id](c.state)
	}
}

func (c *Controller) publish() {
	snapshot := c.state
	c.current.Store(&snapshot)
}

func (c *Controller) post(fn func()) bool {
	select {
	case <-c.stopped:
		return false
	default:
	}
	select {
	case c.inbox <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

func (c *Controller) postOrFail(result chan<- error, fn func()) {
	if !c.post(fn) {
		result <- errors.ErrStopped
	}
}

func (c *Controller) goAsync(fn func(ctx context.Context)) {
	ctx := c.ctx
	c.async.Add(1)
	go func() {
		defer c.async.Done()
		fn(ctx)
	}()
}

func (c *Controller) shutdown() {
	c.stop.Do(func() {
		close(c.stopped)
		c.halted = true
		c.release()
		c.async.Wait()
		// Work queued before the stop still completes, without a new subscription
		for {
			select {
			case fn := <-c.inbox:
				fn()
			default:
				c.log.Info("Chat controller stopped")
				return
			}
		}
	})
}
