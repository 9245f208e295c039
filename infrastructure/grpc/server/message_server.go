package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"superchat/auth"
	"superchat/contract"
	"superchat/domain/chat"
	"superchat/errors"
	"superchat/infrastructure/grpc/chatv1"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ chatv1.MessageServiceServer = (*MessageServer)(nil)

type MessageServer struct {
	log   *slog.Logger
	store contract.MessageStore
}

func NewMessageServer(log *slog.Logger, store contract.MessageStore) *MessageServer {
	return &MessageServer{log: log, store: store}
}

// Append writes a record on behalf of the authenticated caller.
// The author uid must be the caller's own.
func (s *MessageServer) Append(ctx context.Context, req *chatv1.AppendRequest) (*chatv1.AppendResponse, error) {
	caller, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "caller identity is missing")
	}
	if req.User.UID != caller.UID {
		s.log.Warn("Rejected message written for someone else", "caller", caller.UID, "author", req.User.UID)
		return nil, errors.MapToGRPCError(errors.ErrAuthorMismatch)
	}

	stored, err := s.store.Append(ctx, req.ToDomain())
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatv1.AppendResponse{Message: chatv1.ToMessage(stored)}, nil
}

// Watch streams the full ordered collection on every change until the client
// goes away or the store closes, which ends the stream with codes.Unavailable.
// A slow client only ever receives the latest list.
func (s *MessageServer) Watch(_ *chatv1.WatchRequest, stream chatv1.MessageService_WatchServer) error {
	ctx := stream.Context()
	caller, _ := auth.IdentityFromContext(ctx)
	latest := make(chan []chat.Message, 1)

	onUpdate := func(messages []chat.Message) {
		for {
			select {
			case latest <- messages:
				return
			default:
				// Replace the pending list nobody sent yet
				select {
				case <-latest:
				default:
				}
			}
		}
	}
	released := make(chan struct{})
	var once sync.Once
	onError := func(err error) {
		if stderrors.Is(err, errors.ErrBackendClosed) {
			once.Do(func() { close(released) })
			return
		}
		s.log.Warn("Live query delivery failed", "caller", caller.UID, "error", err)
	}

	subscription, err := s.store.Watch(ctx, onUpdate, onError)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer subscription.Close()
	s.log.Info("Client watching messages", "caller", caller.UID)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Client stopped watching", "caller", caller.UID)
			return nil
		case <-released:
			s.log.Info("Message store closed, ending watch", "caller", caller.UID)
			return errors.MapToGRPCError(errors.ErrBackendClosed)
		case messages := <-latest:
			if err = stream.Send(chatv1.ToSnapshot(messages)); err != nil {
				s.log.Error("Failed to push snapshot", "caller", caller.UID, "error", err)
				return err
			}
		}
	}
}
