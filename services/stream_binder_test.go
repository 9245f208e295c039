package services

import (
	"context"
	"fmt"
	"log/slog"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/domain/event"
	"superchat/errors"
	"superchat/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestStreamBinder_Subscribe_Delivers_Snapshots(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	reporter := mocks.NewMockFailureReporter(ctrl)
	inner := mocks.NewMockSubscription(ctrl)
	binder := NewStreamBinder(slog.Default(), store, reporter)

	var deliver contract.SnapshotHandler
	store.EXPECT().Watch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, onUpdate contract.SnapshotHandler,
			onError contract.ErrorHandler) (contract.Subscription, error) {
			deliver = onUpdate
			return inner, nil
		}).Times(1)

	var received [][]chat.Message
	sub, err := binder.Subscribe(context.Background(), func(messages []chat.Message) {
		received = append(received, messages)
	})
	req.NoError(err)

	// When the backend delivers two snapshots
	deliver([]chat.Message{{Text: "a"}})
	deliver([]chat.Message{{Text: "a"}, {Text: "b"}})

	// Then each is the full list
	req.Len(received, 2)
	req.Len(received[1], 2)
	req.Len(binder.Messages(), 2)

	inner.EXPECT().Close().Times(1)
	sub.Close()
	sub.Close()
	req.Nil(binder.Messages())
}

func TestStreamBinder_Single_Live_Subscription(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	reporter := mocks.NewMockFailureReporter(ctrl)
	inner := mocks.NewMockSubscription(ctrl)
	binder := NewStreamBinder(slog.Default(), store, reporter)

	store.EXPECT().Watch(gomock.Any(), gomock.Any(), gomock.Any()).Return(inner, nil).Times(2)
	inner.EXPECT().Close().Times(2)

	first, err := binder.Subscribe(context.Background(), func([]chat.Message) {})
	req.NoError(err)

	// Then a second subscription is refused while the first is open
	_, err = binder.Subscribe(context.Background(), func([]chat.Message) {})
	req.ErrorIs(err, errors.ErrAlreadySubscribed)

	// And accepted after release
	first.Close()
	second, err := binder.Subscribe(context.Background(), func([]chat.Message) {})
	req.NoError(err)
	second.Close()
}

func TestStreamBinder_Subscribe_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	reporter := mocks.NewMockFailureReporter(ctrl)
	binder := NewStreamBinder(slog.Default(), store, reporter)

	store.EXPECT().Watch(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("unavailable")).Times(1)
	reporter.EXPECT().Report(gomock.Any(), failureOf(event.SubscriptionFailure)).Times(1)

	_, err := binder.Subscribe(context.Background(), func([]chat.Message) {})

	req.ErrorIs(err, errors.ErrSubscription)
}

func TestStreamBinder_Delivery_Error_Keeps_Last_List(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	reporter := mocks.NewMockFailureReporter(ctrl)
	inner := mocks.NewMockSubscription(ctrl)
	binder := NewStreamBinder(slog.Default(), store, reporter)

	var deliver contract.SnapshotHandler
	var fail contract.ErrorHandler
	store.EXPECT().Watch(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, onUpdate contract.SnapshotHandler,
			onError contract.ErrorHandler) (contract.Subscription, error) {
			deliver, fail = onUpdate, onError
			return inner, nil
		}).Times(1)
	reporter.EXPECT().Report(gomock.Any(), failureOf(event.SubscriptionFailure)).Times(1)

	_, err := binder.Subscribe(context.Background(), func([]chat.Message) {})
	req.NoError(err)

	deliver([]chat.Message{{Text: "kept"}})
	fail(fmt.Errorf("read failed"))

	req.Equal("kept", binder.Messages()[0].Text)
}

func TestStreamBinder_Send(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	store := mocks.NewMockMessageStore(ctrl)
	reporter := mocks.NewMockFailureReporter(ctrl)
	binder := NewStreamBinder(slog.Default(), store, reporter)
	author := ann.Identity.Snapshot()

	t.Run("should append the record with author snapshot", func(t *testing.T) {
		req := require.New(t)
		before := time.Now().UTC()
		store.EXPECT().Append(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, message chat.Message) (chat.Message, error) {
				req.Equal(" hello ", message.Text)
				req.Equal(author, message.Author)
				req.False(message.CreatedAt.Before(before))
				return message, nil
			}).Times(1)

		_, err := binder.Send(context.Background(), " hello ", author)
		req.NoError(err)
	})

	t.Run("should not write whitespace-only text", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().Append(gomock.Any(), gomock.Any()).Times(0)

		_, err := binder.Send(context.Background(), " \t\n ", author)
		req.ErrorIs(err, errors.ErrEmptyMessage)
	})

	t.Run("should report a failed write", func(t *testing.T) {
		req := require.New(t)
		store.EXPECT().Append(gomock.Any(), gomock.Any()).
			Return(chat.Message{}, fmt.Errorf("permission denied")).Times(1)
		reporter.EXPECT().Report(gomock.Any(), failureOf(event.SendFailure)).Times(1)

		_, err := binder.Send(context.Background(), "hello", author)
		req.ErrorIs(err, errors.ErrSend)
	})
}
