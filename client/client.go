package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"superchat/domain/chat"
	"superchat/identity"
	"superchat/infrastructure/grpc/chatv1"
	"superchat/infrastructure/grpc/client"
	"superchat/internal"
	"superchat/observability"
	"superchat/projection"
	"superchat/runtime"
	"superchat/runtime/workers"
	"superchat/services"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

var (
	ownStyle    = color.New(color.FgGreen, color.OpBold)
	authorStyle = color.New(color.FgCyan, color.OpBold)
	dimStyle    = color.New(color.FgGray)
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run signs in, prints the live list as it grows and sends every stdin line.
func run() (int, error) {
	_ = godotenv.Load()
	var config internal.ClientConfig
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := client.Dial(config.ServerAddress)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	monitoring := observability.NewMonitoringManager(log, config.MetricInterval)
	opener := func(authURL string) error {
		fmt.Println("Open this URL to sign in:", authURL)
		return nil
	}
	provider, err := identity.FromConfig(ctx, log, config,
		client.NewAuthClient(chatv1.NewAuthServiceClient(conn)), opener)
	if err != nil {
		return exitConfig, err
	}
	session := services.NewSessionManager(log, provider, monitoring)
	binder := services.NewStreamBinder(log,
		client.NewMessageStore(log, chatv1.NewMessageServiceClient(conn), session), monitoring)
	controller := runtime.NewController(log, session, binder, config.BufferSize)

	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(controller, monitoring)
	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		supervisor.Run(ctx)
	}()
	defer func() {
		stop()
		<-supervised
	}()

	printer := newPrinter(os.Stdout)
	cancelObserve := controller.Observe(printer.Print)
	defer cancelObserve()

	if err := <-controller.SignIn(); err != nil {
		return exitRuntime, err
	}
	fmt.Println(dimStyle.Render(">>> Connected to " + config.ServerAddress + ", type a line and press enter to send (Ctrl+C to quit)"))

	lines := make(chan string)
	go readLines(lines)
	for {
		select {
		case <-ctx.Done():
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			controller.SetCompose(line)
			if err := <-controller.Send(); err != nil {
				log.Warn("Message not sent", "error", err)
			}
		}
	}
}

func readLines(lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

// printer follows the list in createdAt order. New messages at the end are
// appended; a late message landing earlier in the list reprints it whole.
type printer struct {
	out     io.Writer
	printed []uuid.UUID
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out}
}

// Print runs on the controller loop, one state at a time.
func (p *printer) Print(state projection.State) {
	if !state.IsSignedIn() {
		p.printed = nil
		return
	}
	ids := lo.Map(state.Messages, func(m chat.Message, _ int) uuid.UUID { return m.ID })
	from := len(p.printed)
	if len(ids) < from || !slices.Equal(p.printed, ids[:from]) {
		if from > 0 {
			fmt.Fprintln(p.out, dimStyle.Render("--- history reordered ---"))
		}
		from = 0
	}
	for _, message := range state.Messages[from:] {
		fmt.Fprintln(p.out, formatMessage(state, message))
	}
	p.printed = ids
}

func formatMessage(state projection.State, message chat.Message) string {
	at := dimStyle.Render(message.CreatedAt.Local().Format(time.TimeOnly))
	if state.IsOwn(message) {
		return fmt.Sprintf("%s %s %s", at, ownStyle.Render("me:"), message.Text)
	}
	return fmt.Sprintf("%s %s %s", at, authorStyle.Render(message.Author.DisplayName+":"), message.Text)
}

