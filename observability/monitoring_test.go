package observability

import (
	"context"
	"fmt"
	"log/slog"
	"superchat/domain/chat"
	"superchat/domain/event"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitoringManager_Report_Counts_Per_Kind(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second)
	ctx := context.Background()

	// When failures of different kinds are reported
	mm.Report(ctx, event.Failure{Kind: event.SendFailure, Err: fmt.Errorf("offline")})
	mm.Report(ctx, event.Failure{Kind: event.SendFailure, Err: fmt.Errorf("offline")})
	mm.Report(ctx, event.Failure{Kind: event.AuthenticationFailure, Err: fmt.Errorf("closed popup")})

	// Then each kind has its own counter
	stats := mm.GetLatest()
	req.Equal(uint64(2), stats.SendFailures)
	req.Equal(uint64(1), stats.AuthenticationFailures)
	req.Zero(stats.SignOutFailures)
	req.Equal(string(event.AuthenticationFailure), stats.LastFailure)
	req.False(stats.LastFailureAt.IsZero())
}

func TestMonitoringManager_Consume_Counts_Appended_Messages(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), time.Second)

	for i := 0; i < 3; i++ {
		req.NoError(mm.Consume(context.Background(), event.MessageAppended{Message: chat.Message{Text: "hi"}}))
	}
	req.NoError(mm.Consume(context.Background(), event.ComposeChanged{Text: "ignored"}))

	req.Equal(uint64(3), mm.GetLatest().MessagesAppended)
}

func TestMonitoringManager_Run_Stops_On_Cancel(t *testing.T) {
	req := require.New(t)
	mm := NewMonitoringManager(slog.Default(), 5*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	req.NoError(mm.Run(ctx))
}
