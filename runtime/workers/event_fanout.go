package workers

import (
	"context"
	"log/slog"
	"superchat/contract"
	"superchat/domain/event"
	"time"
)

// EventFanout broadcasts backend events to every live query attached to the
// collection, plus a fixed set of permanent sinks (observability).
//
// Delivery is best-effort: each sink gets its own goroutine bounded by
// sinkTimeout, so a stuck sink never delays the others.
type EventFanout struct {
	log            *slog.Logger
	registry       contract.IRegistry
	domainEvent    chan event.DomainEvent
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry,
	domainEvent chan event.DomainEvent, sinkTimeout time.Duration,
	permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		registry:       registry,
		domainEvent:    domainEvent,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.domainEvent:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout hands the event to the permanent sinks and to every registered live query.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	sinks := append(append([]contract.EventSink{}, w.permanentSinks...), w.registry.GetSinks()...)
	for _, sink := range sinks {
		go func(s contract.EventSink) {
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := s.Consume(sinkCtx, evt); err != nil {
				w.log.Debug("Sink failed to consume event", "type", evt.Type(), "error", err)
			}
		}(sink)
	}
}
