package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var grpcCodes = []struct {
	err  error
	code codes.Code
}{
	{ErrInvalidMessage, codes.InvalidArgument},
	{ErrEmptyMessage, codes.InvalidArgument},
	{ErrInvalidPassword, codes.InvalidArgument},
	{ErrAuthorMismatch, codes.PermissionDenied},
	{ErrInvalidCredentials, codes.Unauthenticated},
	{ErrInvalidToken, codes.Unauthenticated},
	{ErrUserAlreadyExists, codes.AlreadyExists},
	{ErrBackendClosed, codes.Unavailable},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// MapToGRPCError converts a domain error into a gRPC status error.
// Unknown errors become codes.Internal without leaking their message.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, c := range grpcCodes {
		if errors.Is(err, c.err) {
			return status.Error(c.code, err.Error())
		}
	}
	return status.Error(codes.Internal, "internal error")
}

// FromGRPCError recovers the domain sentinel carried by a gRPC status.
// The original status error stays in the chain.
func FromGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.InvalidArgument:
		return errors.Join(ErrInvalidMessage, err)
	case codes.PermissionDenied:
		return errors.Join(ErrAuthorMismatch, err)
	case codes.Unauthenticated:
		return errors.Join(ErrInvalidCredentials, err)
	case codes.AlreadyExists:
		return errors.Join(ErrUserAlreadyExists, err)
	case codes.Unavailable:
		return errors.Join(ErrBackendClosed, err)
	case codes.Canceled:
		return errors.Join(context.Canceled, err)
	case codes.DeadlineExceeded:
		return errors.Join(context.DeadlineExceeded, err)
	}
	return err
}
