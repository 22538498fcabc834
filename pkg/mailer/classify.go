package mailer

import (
	"context"
	"errors"
	"io"
	"net"
	"net/textproto"
	"registration/pkg/serrors"
	"strings"
	"syscall"
)

// Category is the closed set of failure causes reported for a send attempt.
type Category string

const (
	// CategoryAuthentication means the server rejected the account or app password.
	CategoryAuthentication Category = "authentication"
	// CategoryNetwork means the server could not be reached or the connection dropped.
	CategoryNetwork Category = "network"
	// CategoryUnclassified is the fallback for everything else.
	CategoryUnclassified Category = "unclassified"
)

// Human-readable messages surfaced to API callers.
const (
	MsgAuthenticationFailed = "Email authentication failed. Check email account and app password."
	MsgCredentialsRejected  = "Email credentials rejected. Ensure you are using an app password."
	MsgNetworkFailed        = "Network error connecting to email server."
	MsgSendFailed           = "Failed to send email"
)

// SMTP reply codes signalling an authentication problem (RFC 4954).
var authReplyCodes = map[int]bool{ //nolint: gochecknoglobals
	530: true, // authentication required
	534: true, // authentication mechanism too weak
	535: true, // authentication credentials invalid
}

// Classify maps a transport error to its Category. Reply codes and network
// error types are checked first; known provider phrases are the fallback for
// errors that carry neither.
func Classify(err error) Category {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && authReplyCodes[tpErr.Code] {
		return CategoryAuthentication
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "invalid login") ||
		strings.Contains(msg, "username and password not accepted") ||
		strings.Contains(msg, "authentication failed") {
		return CategoryAuthentication
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded) {
		return CategoryNetwork
	}

	return CategoryUnclassified
}

// ClassifyError wraps err into a semantic error whose kind and message match
// its Category. A nil error stays nil.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	switch Classify(err) {
	case CategoryAuthentication:
		msg := MsgAuthenticationFailed
		if strings.Contains(strings.ToLower(err.Error()), "username and password not accepted") {
			msg = MsgCredentialsRejected
		}

		return serrors.Wrap(serrors.ErrAuthentication, err, "%s", msg)
	case CategoryNetwork:
		return serrors.Wrap(serrors.ErrNetwork, err, MsgNetworkFailed)
	default:
		return serrors.Wrap(serrors.ErrUnclassified, err, MsgSendFailed)
	}
}
