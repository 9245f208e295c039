package e2e

import (
	"context"
	"fmt"
	"strings"
	"superchat/infrastructure/grpc/chatv1"
	"superchat/infrastructure/grpc/client"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment and skips when no server is configured.
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping end-to-end scenarios")
	}
}

// GrpcConn opens a connection logging every unary call.
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := client.Dial(s.Config.ServerAddr,
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.Debug {
				fmt.Fprintf(&logBuilder, "\nREQUEST: %+v", req)
				if err != nil {
					fmt.Fprintf(&logBuilder, "\nERROR: %v", err)
				} else {
					fmt.Fprintf(&logBuilder, "\nRESPONSE: %+v", reply)
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.ServerAddr)
	return conn
}

// WithServer provides both chat clients within a contextual test step.
func (s *BaseGrpcSuite) WithServer(name string, fn func(ctx context.Context, messages chatv1.MessageServiceClient, accounts chatv1.AuthServiceClient)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	fn(ctx, chatv1.NewMessageServiceClient(conn), chatv1.NewAuthServiceClient(conn))
}
