package remote

import (
	"errors"

	"github.com/dmitrijs2005/afterlog/internal/client/apperr"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotSignedIn is returned by data calls made without a session.
var ErrNotSignedIn = apperr.New(apperr.Auth, "not signed in")

// mapError classifies a transport error. authCall marks the sign-up and
// sign-in calls, where AlreadyExists means the email is taken rather than a
// record conflict.
func mapError(err error, authCall bool) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	st, ok := status.FromError(err)
	if !ok {
		return &apperr.Error{Kind: apperr.Network, Msg: err.Error(), Err: err}
	}

	kind := apperr.Unknown
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		kind = apperr.Network
	case codes.Unauthenticated, codes.PermissionDenied, codes.ResourceExhausted:
		kind = apperr.Auth
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.OutOfRange:
		kind = apperr.Validation
	case codes.AlreadyExists:
		kind = apperr.Conflict
		if authCall {
			kind = apperr.Auth
		}
	}
	return &apperr.Error{Kind: kind, Msg: st.Message(), Err: err}
}

func validation(err error) error {
	return &apperr.Error{Kind: apperr.Validation, Msg: err.Error(), Err: err}
}
