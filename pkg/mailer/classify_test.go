package mailer_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"registration/pkg/mailer"
	"registration/pkg/serrors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want mailer.Category
	}{
		{
			name: "smtp 535 reply",
			err:  fmt.Errorf("smtp auth: %w", &textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"}),
			want: mailer.CategoryAuthentication,
		},
		{
			name: "smtp 530 reply",
			err:  &textproto.Error{Code: 530, Msg: "5.7.0 Authentication Required"},
			want: mailer.CategoryAuthentication,
		},
		{
			name: "gmail phrase without reply code",
			err:  errors.New("Invalid login: 535-5.7.8 Username and Password not accepted"),
			want: mailer.CategoryAuthentication,
		},
		{
			name: "other smtp reply",
			err:  &textproto.Error{Code: 550, Msg: "mailbox unavailable"},
			want: mailer.CategoryUnclassified,
		},
		{
			name: "dial error",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED},
			want: mailer.CategoryNetwork,
		},
		{
			name: "connection reset",
			err:  fmt.Errorf("write: %w", syscall.ECONNRESET),
			want: mailer.CategoryNetwork,
		},
		{
			name: "server hung up",
			err:  fmt.Errorf("read greeting: %w", io.EOF),
			want: mailer.CategoryNetwork,
		},
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: mailer.CategoryNetwork,
		},
		{
			name: "unknown",
			err:  errors.New("something odd"),
			want: mailer.CategoryUnclassified,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, mailer.Classify(tc.err))
		})
	}
}

func TestClassifyError(t *testing.T) {
	require.NoError(t, mailer.ClassifyError(nil))

	authErr := mailer.ClassifyError(&textproto.Error{Code: 535, Msg: "5.7.8 bad credentials"})
	require.ErrorIs(t, authErr, serrors.ErrAuthentication)
	var se *serrors.Error
	require.ErrorAs(t, authErr, &se)
	require.Equal(t, mailer.MsgAuthenticationFailed, se.Message())

	rejected := mailer.ClassifyError(errors.New("535-5.7.8 Username and Password not accepted"))
	require.ErrorAs(t, rejected, &se)
	require.Equal(t, mailer.MsgCredentialsRejected, se.Message())

	netErr := mailer.ClassifyError(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED})
	require.ErrorIs(t, netErr, serrors.ErrNetwork)
	require.ErrorIs(t, netErr, syscall.ECONNREFUSED, "cause must stay reachable")

	other := mailer.ClassifyError(errors.New("boom"))
	require.ErrorIs(t, other, serrors.ErrUnclassified)
	require.ErrorAs(t, other, &se)
	require.Equal(t, mailer.MsgSendFailed, se.Message())
}
