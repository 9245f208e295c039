package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"superchat/identity"
	"superchat/infrastructure/grpc/chatv1"
	"superchat/infrastructure/grpc/client"
	"superchat/internal"
	"superchat/observability"
	"superchat/runtime"
	"superchat/runtime/workers"
	"superchat/services"
	"superchat/ui"
	"sync/atomic"
	"syscall"

	"github.com/Netflix/go-env"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log, closeLog, err := newLogger(config)
	if err != nil {
		return exitConfig, err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connection to the chat server
	conn, err := client.Dial(config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	// 3. Session, stream binding and controller
	var program atomic.Pointer[tea.Program]
	notify := func(msg tea.Msg) {
		if p := program.Load(); p != nil {
			p.Send(msg)
		}
	}
	monitoring := observability.NewMonitoringManager(log, config.MetricInterval)
	authClient := client.NewAuthClient(chatv1.NewAuthServiceClient(conn))
	provider, err := identity.FromConfig(ctx, log, config, authClient, browserOpener(log, notify))
	if err != nil {
		return exitConfig, err
	}
	session := services.NewSessionManager(log, provider, monitoring)
	store := client.NewMessageStore(log, chatv1.NewMessageServiceClient(conn), session)
	binder := services.NewStreamBinder(log, store, monitoring)
	controller := runtime.NewController(log, session, binder, config.BufferSize)

	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(controller, monitoring)
	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		supervisor.Run(ctx)
	}()

	// 4. Terminal UI
	p := tea.NewProgram(ui.NewModel(controller), tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)
	relay := ui.NewRelay()
	cancelObserve := controller.Observe(relay.Observe)
	go relay.Run(ctx, p.Send)

	_, runErr := p.Run()

	// Stopping the loop releases the live subscription before the connection closes.
	cancelObserve()
	stop()
	<-supervised
	if runErr != nil && ctx.Err() == nil {
		return exitRuntime, fmt.Errorf("terminal UI: %w", runErr)
	}
	log.Info("Chat stopped cleanly")
	return exitOK, nil
}

func browserOpener(log *slog.Logger, notify func(tea.Msg)) identity.Opener {
	return func(authURL string) error {
		notify(ui.NoticeMsg("Continue in your browser: " + authURL))
		if err := openBrowser(authURL); err != nil {
			log.Warn("Could not launch a browser", "error", err)
		}
		return nil
	}
}

// newLogger writes to a file since the terminal belongs to the UI.
func newLogger(config internal.ClientConfig) (*slog.Logger, func(), error) {
	if config.LogFile == "" {
		return logs.GetLoggerFromString(config.LogLevel), func() {}, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	file, err := tea.LogToFile(config.LogFile, "chat")
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	return log, func() { _ = file.Close() }, nil
}
