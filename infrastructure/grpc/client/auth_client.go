package client

import (
	"context"
	"superchat/auth"
	"superchat/domain/chat"
	"superchat/errors"
	"superchat/infrastructure/grpc/chatv1"
)

// AuthClient calls the account service of the chat server.
type AuthClient struct {
	client chatv1.AuthServiceClient
}

func NewAuthClient(client chatv1.AuthServiceClient) AuthClient {
	return AuthClient{client: client}
}

func (c AuthClient) Login(ctx context.Context, email, password string) (chat.Session, error) {
	resp, err := c.client.Login(ctx, &chatv1.LoginRequest{Email: email, Password: password})
	if err != nil {
		return chat.Session{}, errors.FromGRPCError(err)
	}
	return toSession(resp), nil
}

func (c AuthClient) Register(ctx context.Context, request auth.RegisterRequest) (chat.Session, error) {
	resp, err := c.client.Register(ctx, &chatv1.RegisterRequest{
		Email:       request.Email,
		Password:    request.Password,
		DisplayName: request.DisplayName,
		PhotoURL:    request.PhotoURL,
	})
	if err != nil {
		return chat.Session{}, errors.FromGRPCError(err)
	}
	return toSession(resp), nil
}

func toSession(resp *chatv1.AuthResponse) chat.Session {
	return chat.Session{
		Identity: chat.Identity{UID: resp.UID, DisplayName: resp.DisplayName, PhotoURL: resp.PhotoURL},
		Token:    resp.Token,
	}
}
