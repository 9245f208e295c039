package workers

import (
	"context"
	"log/slog"
	"superchat/contract"
	"superchat/domain/event"
	"superchat/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Fanout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)
	querySink := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, nil, time.Second, permanentSink)

	var count atomic.Int32
	done := make(chan struct{})
	consume := func(ctx context.Context, evt event.DomainEvent) error {
		if count.Add(1) == 3 {
			close(done)
		}
		return nil
	}

	// Given two live queries are registered
	mockRegistry.EXPECT().GetSinks().Return([]contract.EventSink{querySink, querySink}).Times(1)
	// Given every sink receives the event once
	permanentSink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(consume).Times(1)
	querySink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(consume).Times(2)

	// When a message is appended
	fanout.Fanout(context.Background(), event.MessageAppended{})

	// Then all sinks were reached
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Sinks were not consumed in time")
	}
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slowSink := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, nil, 20*time.Millisecond)

	released := make(chan error, 1)
	mockRegistry.EXPECT().GetSinks().Return([]contract.EventSink{slowSink}).Times(1)
	// Given a sink that never finishes on its own
	slowSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			<-ctx.Done()
			released <- ctx.Err()
			return ctx.Err()
		}).Times(1)

	fanout.Fanout(context.Background(), event.MessageAppended{})

	// Then its context is cancelled by the timeout
	select {
	case err := <-released:
		req.ErrorIs(err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		req.Fail("Sink context was never cancelled")
	}
}

func TestEventFanout_Run_Dispatches_Channel_Events(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)

	events := make(chan event.DomainEvent, 1)
	fanout := NewEventFanout(log, mockRegistry, events, time.Second, sink)

	received := make(chan event.DomainEvent, 1)
	mockRegistry.EXPECT().GetSinks().Return(nil).Times(1)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, evt event.DomainEvent) error {
			received <- evt
			return nil
		}).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- fanout.Run(ctx) }()

	// When an event is published on the channel
	events <- event.MessageAppended{}

	select {
	case evt := <-received:
		req.Equal(event.MessageAppendedType, evt.Type())
	case <-time.After(time.Second):
		req.Fail("Event was not dispatched")
	}

	// Then cancelling stops the worker cleanly
	cancel()
	select {
	case err := <-stopped:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("Worker did not stop")
	}
}
