package server

import (
	"log/slog"
	"superchat/auth"
	"superchat/infrastructure/grpc/chatv1"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
)

// NewServer builds the gRPC server exposing chat.v1 services.
// Every call except registration and login needs a bearer token accepted by verifier.
func NewServer(log *slog.Logger, verifier auth.TokenVerifier,
	messageServer chatv1.MessageServiceServer, authServer chatv1.AuthServiceServer) *grpc.Server {
	interceptor := auth.NewInterceptor(verifier, chatv1.PublicMethods...)
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(log),
			interceptor.Unary(),
		),
		grpc.ChainStreamInterceptor(interceptor.Stream()),
	)
	chatv1.RegisterMessageServiceServer(s, messageServer)
	chatv1.RegisterAuthServiceServer(s, authServer)
	return s
}
