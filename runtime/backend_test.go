package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"superchat/mocks"
	"superchat/repositories"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testConfig = BackendConfig{
	MaxContentLength: 500,
	BufferSize:       16,
	SinkTimeout:      time.Second,
	RestartInterval:  10 * time.Millisecond,
}

func newTestBackend(t *testing.T, limit *int) *Backend {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := NewBackend(log, repositories.NewMessageRepository(db, log, limit), NewRegistry(), testConfig)
	ctx, cancel := context.WithCancel(context.Background())
	backend.Start(ctx)
	t.Cleanup(func() {
		cancel()
		backend.Close()
	})
	return backend
}

func message(uid, text string, at time.Time) chat.Message {
	return chat.Message{
		Text:      text,
		CreatedAt: at,
		Author:    chat.Author{UID: uid, DisplayName: uid},
	}
}

func waitSnapshot(t *testing.T, snapshots chan []chat.Message, predicate func([]chat.Message) bool) []chat.Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-snapshots:
			if predicate(s) {
				return s
			}
		case <-deadline:
			require.Fail(t, "expected snapshot never delivered")
			return nil
		}
	}
}

func TestBackend_Append_Assigns_ID_And_CreatedAt(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)

	// When a message without creation time is appended
	stored, err := backend.Append(context.Background(), message("u1", "hello", time.Time{}))

	// Then the backend completed the record
	req.NoError(err)
	req.NotEqual([16]byte{}, [16]byte(stored.ID))
	req.False(stored.CreatedAt.IsZero())
	req.Equal(time.UTC, stored.CreatedAt.Location())

	messages, err := backend.ListMessages()
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(stored.ID, messages[0].ID)
	req.Equal("u1", messages[0].Author.UID)
}

func TestBackend_Append_Rejects_Invalid_Message(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)

	_, err := backend.Append(context.Background(), message("u1", "   ", time.Time{}))
	req.ErrorIs(err, errors.ErrInvalidMessage)

	_, err = backend.Append(context.Background(), message("", "hi", time.Time{}))
	req.ErrorIs(err, errors.ErrInvalidMessage)

	// Then nothing was written
	messages, err := backend.ListMessages()
	req.NoError(err)
	req.Empty(messages)
}

func TestBackend_Watch_Delivers_Initial_And_Ordered_Snapshots(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)
	ctx := context.Background()
	at := time.Now().UTC().Round(0)

	_, err := backend.Append(ctx, message("u1", "second", at.Add(time.Minute)))
	req.NoError(err)

	snapshots := make(chan []chat.Message, 16)
	sub, err := backend.Watch(ctx, func(messages []chat.Message) { snapshots <- messages }, nil)
	req.NoError(err)
	defer sub.Close()

	// Then the initial snapshot holds the existing record
	initial := waitSnapshot(t, snapshots, func(m []chat.Message) bool { return len(m) == 1 })
	req.Equal("second", initial[0].Text)

	// When an older message is appended afterwards
	_, err = backend.Append(ctx, message("u2", "first", at))
	req.NoError(err)

	// Then the full list is delivered in creation order
	updated := waitSnapshot(t, snapshots, func(m []chat.Message) bool { return len(m) == 2 })
	req.Equal("first", updated[0].Text)
	req.Equal("second", updated[1].Text)
}

func TestBackend_Watch_Limit_Keeps_Newest(t *testing.T) {
	req := require.New(t)
	limit := 2
	backend := newTestBackend(t, &limit)
	ctx := context.Background()
	at := time.Now().UTC().Round(0)

	for i := 0; i < 4; i++ {
		_, err := backend.Append(ctx, message("u1", fmt.Sprintf("m%d", i), at.Add(time.Duration(i)*time.Second)))
		req.NoError(err)
	}

	messages, err := backend.ListMessages()
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("m2", messages[0].Text)
	req.Equal("m3", messages[1].Text)
}

func TestBackend_Close_Subscription_Stops_Deliveries(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)
	ctx := context.Background()

	snapshots := make(chan []chat.Message, 16)
	sub, err := backend.Watch(ctx, func(messages []chat.Message) { snapshots <- messages }, nil)
	req.NoError(err)
	waitSnapshot(t, snapshots, func(m []chat.Message) bool { return len(m) == 0 })

	// When the subscription is released, twice
	sub.Close()
	sub.Close()

	_, err = backend.Append(ctx, message("u1", "after close", time.Time{}))
	req.NoError(err)

	// Then no further snapshot is delivered
	select {
	case s := <-snapshots:
		req.Failf("unexpected delivery", "got %d messages", len(s))
	case <-time.After(100 * time.Millisecond):
	}
	req.Nil(backend.registry.GetSinks())
}

func TestBackend_Cancelled_Context_Releases_Watch(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := backend.Watch(ctx, func([]chat.Message) {}, nil)
	req.NoError(err)

	// When the caller context ends
	cancel()

	// Then the live query is unregistered
	req.Eventually(func() bool { return backend.registry.GetSinks() == nil },
		time.Second, 10*time.Millisecond)
	sub.Close()
}

func TestBackend_Closed_Rejects_Operations(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)

	backend.Close()

	_, err := backend.Append(context.Background(), message("u1", "hi", time.Time{}))
	req.ErrorIs(err, errors.ErrBackendClosed)
	_, err = backend.Watch(context.Background(), func([]chat.Message) {}, nil)
	req.ErrorIs(err, errors.ErrBackendClosed)
}

func TestBackend_Close_Reports_Open_Queries(t *testing.T) {
	req := require.New(t)
	backend := newTestBackend(t, nil)

	// Given one open query and one released by its owner
	open := make(chan error, 1)
	_, err := backend.Watch(context.Background(), func([]chat.Message) {}, func(err error) { open <- err })
	req.NoError(err)
	released := make(chan error, 1)
	sub, err := backend.Watch(context.Background(), func([]chat.Message) {}, func(err error) { released <- err })
	req.NoError(err)
	sub.Close()

	// When the backend closes
	backend.Close()

	// Then only the open query learns about it
	select {
	case err = <-open:
		req.ErrorIs(err, errors.ErrBackendClosed)
	default:
		req.Fail("open query not told about the close")
	}
	req.Empty(released)
}

func TestBackend_Append_Notifies_Permanent_Sinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mockRepository := mocks.NewMockIMessageRepository(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)

	backend := NewBackend(log, mockRepository, NewRegistry(), testConfig, permanentSink)
	backend.Start(context.Background())
	defer backend.Close()

	received := make(chan event.DomainEvent, 1)
	// Given the repository accepts the write
	mockRepository.EXPECT().StoreMessage(gomock.Any()).Return(nil).Times(1)
	permanentSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.DomainEvent) error {
			received <- e
			return nil
		}).Times(1)

	stored, err := backend.Append(context.Background(), message("u1", "hi", time.Time{}))
	req.NoError(err)

	select {
	case e := <-received:
		appended, ok := e.(event.MessageAppended)
		req.True(ok)
		req.Equal(stored.ID, appended.Message.ID)
	case <-time.After(time.Second):
		req.Fail("permanent sink not notified")
	}
}

func TestBackend_Append_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepository := mocks.NewMockIMessageRepository(ctrl)
	backend := NewBackend(slog.Default(), mockRepository, NewRegistry(), testConfig)
	defer backend.Close()

	mockRepository.EXPECT().StoreMessage(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)

	_, err := backend.Append(context.Background(), message("u1", "hi", time.Time{}))
	req.ErrorContains(err, "disk full")
}
