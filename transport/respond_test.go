package transport

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darve-social/darve-go/apperr"
)

func TestWriteErrMapsEachKindToItsStatusCode(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.UnauthorizedErr(), 401},
		{apperr.ForbiddenErr("task.accept"), 403},
		{apperr.NotFoundErr("task-1"), 404},
		{apperr.ValidationErr("amount", "must be positive"), 422},
		{apperr.InsufficientFundsErr(), 402},
		{apperr.ConflictErr("already accepted"), 409},
		{apperr.DeadlineExpiredErr("acceptance window closed"), 422},
		{apperr.InternalErr(errors.New("boom")), 500},
		{errors.New("plain error with no Kind"), 500},
	}

	for _, c := range cases {
		rr := httptest.NewRecorder()
		writeErr(rr, c.err)
		require.Equal(t, c.status, rr.Code, "status for %v", c.err)
	}
}

func TestWriteErrForbiddenNeverLeaksTheFailedAction(t *testing.T) {
	rr := httptest.NewRecorder()
	writeErr(rr, apperr.ForbiddenErr("task.accept"))
	require.NotContains(t, rr.Body.String(), "task.accept")
}

func TestWriteErrConflictEchoesItsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	writeErr(rr, apperr.ConflictErr("already accepted"))
	require.Contains(t, rr.Body.String(), "already accepted")
}
