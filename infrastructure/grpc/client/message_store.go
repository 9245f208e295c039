package client

import (
	"context"
	"io"
	"log/slog"
	"superchat/auth"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/errors"
	"superchat/infrastructure/grpc/chatv1"
	"sync"

	"google.golang.org/grpc/metadata"
)

var _ contract.MessageStore = (*MessageStore)(nil)

// TokenSource returns the bearer credential of the current session.
type TokenSource interface {
	Token() string
}

// MessageStore is the messages collection of a remote server.
type MessageStore struct {
	log    *slog.Logger
	client chatv1.MessageServiceClient
	tokens TokenSource
}

func NewMessageStore(log *slog.Logger, client chatv1.MessageServiceClient, tokens TokenSource) *MessageStore {
	return &MessageStore{log: log, client: client, tokens: tokens}
}

func (s *MessageStore) Append(ctx context.Context, message chat.Message) (chat.Message, error) {
	resp, err := s.client.Append(s.authenticated(ctx), chatv1.ToAppendRequest(message))
	if err != nil {
		return chat.Message{}, errors.FromGRPCError(err)
	}
	return resp.Message.ToDomain()
}

// Watch opens the server stream. The stream is not reopened when it breaks:
// the error is handed once to onError and the subscription stays silent.
func (s *MessageStore) Watch(ctx context.Context, onUpdate contract.SnapshotHandler,
	onError contract.ErrorHandler) (contract.Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := s.client.Watch(s.authenticated(streamCtx), &chatv1.WatchRequest{})
	if err != nil {
		cancel()
		return nil, errors.FromGRPCError(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			snapshot, err := stream.Recv()
			if err != nil {
				if streamCtx.Err() == nil && err != io.EOF {
					s.log.Warn("Message stream broken", "error", err)
					if onError != nil {
						onError(errors.FromGRPCError(err))
					}
				}
				return
			}
			messages, err := snapshot.ToDomain()
			if err != nil {
				s.log.Error("Invalid snapshot received", "error", err)
				if onError != nil {
					onError(err)
				}
				continue
			}
			if streamCtx.Err() != nil {
				return
			}
			onUpdate(messages)
		}
	}()
	return &remoteSubscription{cancel: cancel, done: done}, nil
}

func (s *MessageStore) authenticated(ctx context.Context) context.Context {
	if s.tokens == nil {
		return ctx
	}
	token := s.tokens.Token()
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", auth.BearerToken(token))
}

type remoteSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *remoteSubscription) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}
