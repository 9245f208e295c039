package server

import (
	"context"
	"superchat/auth"
	"superchat/errors"
	"superchat/infrastructure/grpc/chatv1"
	"superchat/services"
)

var _ chatv1.AuthServiceServer = (*AuthServer)(nil)

type AuthServer struct {
	authService services.IAuthService
}

func NewAuthServer(authService services.IAuthService) *AuthServer {
	return &AuthServer{authService: authService}
}

// Register creates the account and returns a session token with its profile.
func (s *AuthServer) Register(_ context.Context, in *chatv1.RegisterRequest) (*chatv1.AuthResponse, error) {
	credentials, err := s.authService.Register(auth.RegisterRequest{
		Email:       in.Email,
		Password:    in.Password,
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toAuthResponse(credentials), nil
}

func (s *AuthServer) Login(_ context.Context, in *chatv1.LoginRequest) (*chatv1.AuthResponse, error) {
	credentials, err := s.authService.Login(in.Email, in.Password)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toAuthResponse(credentials), nil
}

func toAuthResponse(credentials services.Credentials) *chatv1.AuthResponse {
	return &chatv1.AuthResponse{
		Token:       credentials.Token,
		UID:         credentials.Identity.UID,
		DisplayName: credentials.Identity.DisplayName,
		PhotoURL:    credentials.Identity.PhotoURL,
	}
}
