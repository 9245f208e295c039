package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"superchat/auth"
	"superchat/infrastructure/grpc/server"
	"superchat/internal"
	"superchat/observability"
	"superchat/repositories"
	"superchat/runtime"
	"superchat/runtime/workers"
	"superchat/services"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownGrace = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the backend and the gRPC server, so every defer runs before exit.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ServerConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, log, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if log.Enabled(ctx, slog.LevelDebug) {
		endpoint := "/inspect"
		log.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, MessageMapper)
	}

	// 3. Backend & supervised workers
	monitoring := observability.NewMonitoringManager(log, config.MetricInterval)
	backend := runtime.NewBackend(log,
		repositories.NewMessageRepository(db, log, config.LimitMessages),
		runtime.NewRegistry(),
		runtime.BackendConfig{
			MaxContentLength: config.MaxContentLength,
			BufferSize:       config.BufferSize,
			SinkTimeout:      config.SinkTimeout,
			RestartInterval:  config.RestartInterval,
		},
		monitoring,
	)
	backend.Start(ctx)
	defer backend.Close()

	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(monitoring)
	go supervisor.Run(ctx)
	defer supervisor.Stop()

	// 4. Token verification
	issuer := auth.NewTokenIssuer([]byte(config.AuthTokenKey), config.AuthTokenDuration)
	verifiers := auth.VerifierChain{issuer}
	if config.GoogleClientID != "" {
		google, err := auth.NewOIDCVerifier(ctx, auth.GoogleIssuer, config.GoogleClientID)
		if err != nil {
			return exitRuntime, err
		}
		verifiers = append(verifiers, google)
	}

	// 5. gRPC server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	authService := services.NewAuthService(repositories.NewUserRepository(db), issuer)
	s := server.NewServer(log, verifiers,
		server.NewMessageServer(log, backend),
		server.NewAuthServer(authService))

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		for serviceName := range s.GetServiceInfo() {
			log.Debug("gRPC exposed services", "name", serviceName)
		}
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// Closing the backend ends every live Watch stream with codes.Unavailable.
	log.Info("Shutting down gracefully...")
	backend.Close()
	stopServer(log, s, shutdownGrace)
	return exitOK, nil
}

// stopServer waits for in-flight calls, then forces the rest after grace.
func stopServer(log *slog.Logger, s *grpc.Server, grace time.Duration) {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.GracefulStop()
	}()
	select {
	case <-stopped:
		log.Info("Server stopped cleanly")
	case <-time.After(grace):
		log.Warn("Graceful stop timed out, closing remaining connections", "grace", grace)
		s.Stop()
		<-stopped
	}
}

func buildBadgerOpts(config internal.ServerConfig, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
