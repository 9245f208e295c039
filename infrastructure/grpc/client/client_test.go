package client

import (
	"context"
	"log/slog"
	"net"
	"superchat/auth"
	"superchat/domain/chat"
	"superchat/errors"
	"superchat/infrastructure/grpc/chatv1"
	"superchat/infrastructure/grpc/server"
	"superchat/repositories"
	"superchat/runtime"
	"superchat/services"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type harness struct {
	conn    *grpc.ClientConn
	auth    AuthClient
	log     *slog.Logger
	backend *runtime.Backend
	server  *grpc.Server
}

func newHarness(t *testing.T) harness {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	backend := runtime.NewBackend(log, repositories.NewMessageRepository(db, log, nil), runtime.NewRegistry(),
		runtime.BackendConfig{MaxContentLength: 500, BufferSize: 16, SinkTimeout: time.Second, RestartInterval: 10 * time.Millisecond})
	backend.Start(context.Background())
	t.Cleanup(backend.Close)

	issuer := auth.NewTokenIssuer([]byte("a-test-signing-key-of-decent-length"), time.Hour)
	authService := services.NewAuthService(repositories.NewUserRepository(db), issuer)
	s := server.NewServer(log, issuer, server.NewMessageServer(log, backend), server.NewAuthServer(authService))

	listener := bufconn.Listen(1024 * 1024)
	go func() { _ = s.Serve(listener) }()
	t.Cleanup(s.Stop)

	conn, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return listener.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return harness{conn: conn, auth: NewAuthClient(chatv1.NewAuthServiceClient(conn)), log: log,
		backend: backend, server: s}
}

func (h harness) register(t *testing.T, email, name string) chat.Session {
	session, err := h.auth.Register(context.Background(), auth.RegisterRequest{
		Email: email, Password: "ComplexPass123!", DisplayName: name})
	require.NoError(t, err)
	return session
}

func (h harness) store(token string) *MessageStore {
	return NewMessageStore(h.log, chatv1.NewMessageServiceClient(h.conn), staticToken(token))
}

func TestRemoteStore_Append_And_Watch(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ann := h.register(t, "ann@example.com", "Ann")
	store := h.store(ann.Token)

	snapshots := make(chan []chat.Message, 16)
	sub, err := store.Watch(context.Background(), func(messages []chat.Message) { snapshots <- messages }, nil)
	req.NoError(err)
	defer sub.Close()

	// Then the initial empty list arrives
	select {
	case s := <-snapshots:
		req.Empty(s)
	case <-time.After(2 * time.Second):
		req.Fail("initial snapshot not received")
	}

	// When Ann sends a message
	stored, err := store.Append(context.Background(), chat.Message{Text: "hola", Author: ann.Identity.Snapshot()})
	req.NoError(err)
	req.Equal("Ann", stored.Author.DisplayName)

	// Then the stream delivers the full list
	select {
	case s := <-snapshots:
		req.Len(s, 1)
		req.Equal(stored.ID, s[0].ID)
	case <-time.After(2 * time.Second):
		req.Fail("update not received")
	}
}

func TestRemoteStore_Append_Requires_Token(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	_, err := h.store("").Append(context.Background(), chat.Message{Text: "hi", Author: chat.Author{UID: "u1"}})

	req.ErrorIs(err, errors.ErrInvalidCredentials)
}

func TestRemoteStore_Append_Rejects_Foreign_Author(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ann := h.register(t, "ann@example.com", "Ann")

	_, err := h.store(ann.Token).Append(context.Background(), chat.Message{Text: "hi", Author: chat.Author{UID: "someone-else"}})

	req.ErrorIs(err, errors.ErrAuthorMismatch)
}

func TestRemoteStore_Watch_Without_Token_Reports_Error(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)

	errs := make(chan error, 1)
	sub, err := h.store("").Watch(context.Background(), func([]chat.Message) {}, func(err error) { errs <- err })
	req.NoError(err)
	defer sub.Close()

	select {
	case err = <-errs:
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	case <-time.After(2 * time.Second):
		req.Fail("stream error not reported")
	}
}

func TestRemoteStore_Watch_Ends_When_Backend_Closes(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	ann := h.register(t, "ann@example.com", "Ann")

	// Given Ann is watching the collection
	snapshots := make(chan []chat.Message, 16)
	errs := make(chan error, 1)
	sub, err := h.store(ann.Token).Watch(context.Background(),
		func(messages []chat.Message) { snapshots <- messages },
		func(err error) { errs <- err })
	req.NoError(err)
	defer sub.Close()
	select {
	case <-snapshots:
	case <-time.After(2 * time.Second):
		req.Fail("initial snapshot not received")
	}

	// When the backend closes
	h.backend.Close()

	// Then the watcher is told the store is gone
	select {
	case err = <-errs:
		req.ErrorIs(err, errors.ErrBackendClosed)
	case <-time.After(2 * time.Second):
		req.Fail("closed backend not reported to the watcher")
	}

	// And the server drains without being forced
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		h.server.GracefulStop()
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		req.Fail("graceful stop blocked by an open watch")
	}
}

func TestAuthClient_Login(t *testing.T) {
	req := require.New(t)
	h := newHarness(t)
	registered := h.register(t, "bob@example.com", "Bob")

	session, err := h.auth.Login(context.Background(), "bob@example.com", "ComplexPass123!")
	req.NoError(err)
	req.Equal(registered.Identity, session.Identity)
	req.NotEmpty(session.Token)

	_, err = h.auth.Login(context.Background(), "bob@example.com", "WrongPass123!")
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	_, err = h.auth.Register(context.Background(), auth.RegisterRequest{
		Email: "bob@example.com", Password: "ComplexPass123!", DisplayName: "Bob"})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}
