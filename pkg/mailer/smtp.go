package mailer

import (
	"context"
	"registration/pkg/serrors"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/wneessen/go-mail"
)

// SMTPOptions holds the account and server settings of an SMTP transport.
type SMTPOptions struct {
	// Username is the sending account; it is also used as the From address.
	Username string
	// Password is the app-level secret of the account.
	Password string //nolint: gosec
	// Host is the SMTP server host name.
	Host string
	// Port is the SMTP server port.
	Port int
	// Secure selects implicit TLS (typically port 465). When false STARTTLS is
	// used opportunistically.
	Secure bool
	// FromName is the display name of the sender.
	FromName string
	// Timeout bounds dialing and each SMTP command.
	Timeout time.Duration
}

// SMTP is a Transport that delivers mail through an authenticated SMTP server.
// A new client is dialed and authenticated for every call, so an SMTP value
// holds no connection state and is safe for concurrent use.
type SMTP struct {
	opts SMTPOptions
}

// Ensure SMTP conforms to the Transport interface at compile time.
var _ Transport = (*SMTP)(nil)

// NewSMTP constructs an SMTP transport. It never dials; missing credentials
// are reported by Ready at call time.
func NewSMTP(opts SMTPOptions) *SMTP {
	return &SMTP{opts: opts}
}

// Ready reports a configuration error when the account or app password is empty.
func (s *SMTP) Ready() error {
	if strings.TrimSpace(s.opts.Username) == "" || s.opts.Password == "" {
		return serrors.With(serrors.ErrConfiguration,
			"email credentials not configured: EMAIL_USER and EMAIL_APP_PASSWORD are required")
	}

	return nil
}

func (s *SMTP) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.opts.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.opts.Username),
		mail.WithPassword(s.opts.Password),
	}
	if s.opts.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(s.opts.Timeout))
	}
	if s.opts.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(s.opts.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}

	return c, nil
}

// Verify dials and authenticates against the server, then disconnects.
func (s *SMTP) Verify(ctx context.Context) error {
	if err := s.Ready(); err != nil {
		return err
	}

	c, err := s.client()
	if err != nil {
		return serrors.Wrap(serrors.ErrConfiguration, err, "invalid smtp settings")
	}
	if err := c.DialWithContext(ctx); err != nil {
		return ClassifyError(errors.Wrap(err, "dial smtp"))
	}
	if err := c.Close(); err != nil {
		return ClassifyError(errors.Wrap(err, "close smtp"))
	}

	return nil
}

// Send delivers msg and returns the generated Message-ID header value.
func (s *SMTP) Send(ctx context.Context, msg Message) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}

	m := mail.NewMsg()
	if err := m.FromFormat(s.opts.FromName, s.opts.Username); err != nil {
		return "", serrors.Wrap(serrors.ErrConfiguration, err, "invalid sender address")
	}
	if err := m.To(msg.To); err != nil {
		return "", serrors.Wrap(serrors.ErrBadRequest, err, "invalid recipient address")
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	c, err := s.client()
	if err != nil {
		return "", serrors.Wrap(serrors.ErrConfiguration, err, "invalid smtp settings")
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return "", ClassifyError(errors.Wrap(err, "dial and send"))
	}

	var messageID string
	if ids := m.GetGenHeader(mail.HeaderMessageID); len(ids) > 0 {
		messageID = ids[0]
	}

	return messageID, nil
}
