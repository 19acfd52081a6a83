package wire

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/keepsake/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ToStatus converts a service error into a gRPC status error. Unknown errors
// become Internal without their text.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrEmailNotVerified):
		return status.Error(codes.PermissionDenied, common.ErrEmailNotVerified.Error())
	case errors.Is(err, common.ErrEmailDomainNotAllowed):
		return status.Error(codes.PermissionDenied, common.ErrEmailDomainNotAllowed.Error())
	case errors.Is(err, common.ErrRevealLocked):
		return status.Error(codes.FailedPrecondition, common.ErrRevealLocked.Error())
	case errors.Is(err, common.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, common.ErrInternal.Error())
	}
}

// FromStatus turns a gRPC status error back into the matching sentinel,
// keeping the server's message as context. Non-status errors pass through.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()
	var sentinel error
	switch st.Code() {
	case codes.InvalidArgument:
		sentinel = common.ErrValidation
	case codes.NotFound:
		sentinel = common.ErrNotFound
	case codes.Unauthenticated:
		switch {
		case strings.Contains(msg, common.ErrTokenExpired.Error()):
			sentinel = common.ErrTokenExpired
		case strings.Contains(msg, common.ErrInvalidToken.Error()):
			sentinel = common.ErrInvalidToken
		default:
			sentinel = common.ErrUnauthorized
		}
	case codes.PermissionDenied:
		switch {
		case strings.Contains(msg, common.ErrEmailDomainNotAllowed.Error()):
			sentinel = common.ErrEmailDomainNotAllowed
		case strings.Contains(msg, common.ErrEmailNotVerified.Error()):
			sentinel = common.ErrEmailNotVerified
		default:
			sentinel = common.ErrUnauthorized
		}
	case codes.FailedPrecondition:
		sentinel = common.ErrRevealLocked
	case codes.Unavailable, codes.DeadlineExceeded:
		sentinel = common.ErrStoreUnavailable
	case codes.Canceled:
		return context.Canceled
	default:
		sentinel = common.ErrInternal
	}

	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}
	return &statusError{sentinel: sentinel, msg: msg}
}

type statusError struct {
	sentinel error
	msg      string
}

func (e *statusError) Error() string { return e.msg }
func (e *statusError) Unwrap() error { return e.sentinel }
