package sink

import (
	"context"
	"log/slog"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
)

var (
	_ contract.EventSink = (*LiveQuery)(nil)
	_ contract.Worker    = (*LiveQuery)(nil)
)

// Loader reads the current ordered collection.
type Loader func() ([]chat.Message, error)

// LiveQuery is a standing query on the messages collection.
// Consume is called by the fanout and only marks the query as stale;
// Run re-reads the full ordered list and hands it to onUpdate.
// Several changes arriving before a delivery collapse into a single snapshot.
type LiveQuery struct {
	log      *slog.Logger
	stale    chan struct{}
	load     Loader
	onUpdate contract.SnapshotHandler
	onError  contract.ErrorHandler
}

func NewLiveQuery(log *slog.Logger, load Loader,
	onUpdate contract.SnapshotHandler, onError contract.ErrorHandler) *LiveQuery {
	return &LiveQuery{
		log:      log,
		stale:    make(chan struct{}, 1),
		load:     load,
		onUpdate: onUpdate,
		onError:  onError,
	}
}

// Consume never blocks: a pending notification already covers this change.
func (q *LiveQuery) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.MessageAppended:
		select {
		case q.stale <- struct{}{}:
		default:
		}
	}
	return nil
}

// Run delivers the initial snapshot, then one snapshot per batch of changes.
// Deliveries are serial: onUpdate is never called concurrently with itself.
func (q *LiveQuery) Run(ctx context.Context) error {
	q.deliver(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.stale:
			q.deliver(ctx)
		}
	}
}

func (q *LiveQuery) deliver(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	messages, err := q.load()
	if err != nil {
		q.log.Error("live query read failed", "error", err)
		if q.onError != nil {
			q.onError(err)
		}
		return
	}
	// A release may have happened while reading
	if ctx.Err() != nil {
		return
	}
	q.onUpdate(messages)
}
