package auth

import (
	"context"
	"fmt"
	"strings"
	"superchat/domain/chat"
	"superchat/errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenVerifier turns a bearer credential into the caller identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (chat.Identity, error)
}

// VerifierChain accepts a token as soon as one verifier does.
type VerifierChain []TokenVerifier

func (c VerifierChain) Verify(ctx context.Context, token string) (chat.Identity, error) {
	var lastErr error = errors.ErrInvalidToken
	for _, verifier := range c {
		if verifier == nil {
			continue
		}
		identity, err := verifier.Verify(ctx, token)
		if err == nil {
			return identity, nil
		}
		lastErr = err
	}
	return chat.Identity{}, lastErr
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated caller in ctx.
func WithIdentity(ctx context.Context, identity chat.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (chat.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(chat.Identity)
	return identity, ok
}

// Interceptor validates the bearer token of every call except public methods.
type Interceptor struct {
	verifier      TokenVerifier
	publicMethods map[string]struct{}
}

func NewInterceptor(verifier TokenVerifier, publicMethods ...string) Interceptor {
	methods := make(map[string]struct{}, len(publicMethods))
	for _, method := range publicMethods {
		methods[method] = struct{}{}
	}
	return Interceptor{verifier: verifier, publicMethods: methods}
}

func (i Interceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if i.isPublic(info.FullMethod) {
			return handler(ctx, req)
		}
		authenticated, err := i.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(authenticated, req)
	}
}

func (i Interceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if i.isPublic(info.FullMethod) {
			return handler(srv, ss)
		}
		authenticated, err := i.authenticate(ss.Context())
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: authenticated})
	}
}

func (i Interceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}
	token, found := strings.CutPrefix(values[0], "Bearer ")
	if !found || token == "" {
		return nil, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
	}
	identity, err := i.verifier.Verify(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, errors.ErrInvalidToken.Error())
	}
	return WithIdentity(ctx, identity), nil
}

func (i Interceptor) isPublic(method string) bool {
	_, ok := i.publicMethods[method]
	return ok
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context { return s.ctx }

// BearerToken formats the authorization metadata value.
func BearerToken(token string) string {
	return fmt.Sprintf("Bearer %s", token)
}
