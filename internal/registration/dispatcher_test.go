package registration_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"registration/internal/registration"
	"registration/pkg/domain"
	"registration/pkg/logger"
	"registration/pkg/mailer"
	mockmailer "registration/pkg/mailer/mock"
	"registration/pkg/notification"
	"registration/pkg/patron"
	mockpatron "registration/pkg/patron/mock"
	"registration/pkg/serrors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	os.Exit(m.Run())
}

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) //nolint: gochecknoglobals

func validRequest() domain.RegistrationRequest {
	return domain.RegistrationRequest{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "0412345678",
		Password:  "Abcd1234",
	}
}

type fixture struct {
	transport *mockmailer.MockTransport
	patrons   *mockpatron.MockClient
}

func newDispatcher(t *testing.T, withPatrons bool) (*fixture, registration.Dispatcher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{transport: mockmailer.NewMockTransport(ctrl)}

	renderer, err := notification.NewRenderer(notification.Options{
		LibraryName: "IREC Melbourne Library",
		AccountURL:  "https://example.com/account",
	})
	require.NoError(t, err)

	deps := registration.Deps{Transport: f.transport, Renderer: renderer}
	if withPatrons {
		f.patrons = mockpatron.NewMockClient(ctrl)
		deps.Patrons = f.patrons
	}

	return f, registration.New(deps, registration.Options{Now: func() time.Time { return fixedNow }})
}

func TestDispatcher_RequiredFields(t *testing.T) {
	_, d := newDispatcher(t, false)
	require.Equal(t, []domain.Field{domain.FieldFirstName, domain.FieldLastName, domain.FieldEmail}, d.RequiredFields())

	_, d = newDispatcher(t, true)
	require.Len(t, d.RequiredFields(), 5)
}

func TestDispatcher_EmailOnly_Success(t *testing.T) {
	f, d := newDispatcher(t, false)

	f.transport.EXPECT().Ready().Return(nil)
	f.transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg mailer.Message) (string, error) {
			require.Equal(t, "jane@example.com", msg.To)
			require.Equal(t, notification.DefaultConfirmationSubject, msg.Subject)
			require.Contains(t, msg.HTML, "Dear Jane Doe,")
			require.Contains(t, msg.HTML, "N/A")
			require.Contains(t, msg.HTML, "2025")

			return "<id-1@example.com>", nil
		},
	)

	req := validRequest()
	req.Phone, req.Password = "", ""
	req.Email = "  Jane@Example.com "
	res, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.True(t, res.EmailSent)
	require.Equal(t, registration.MsgEmailSent, res.Message)
	require.Equal(t, "<id-1@example.com>", res.MessageID)
	require.Equal(t, "jane@example.com", res.Recipient)
	require.Nil(t, res.Patron)
}

func TestDispatcher_InvalidEmail_NoCalls(t *testing.T) {
	_, d := newDispatcher(t, true)

	req := validRequest()
	req.Email = "not-an-email"
	_, err := d.Dispatch(context.Background(), req)
	require.Error(t, err)
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	var fe domain.FieldErrors
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe, domain.FieldEmail)
	require.Len(t, fe, 1)
}

func TestDispatcher_PatronFieldsRequiredWhenConfigured(t *testing.T) {
	_, d := newDispatcher(t, true)

	req := validRequest()
	req.Phone, req.Password = "", ""
	_, err := d.Dispatch(context.Background(), req)
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	var fe domain.FieldErrors
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe, domain.FieldPhone)
	require.Contains(t, fe, domain.FieldPassword)
}

func TestDispatcher_MissingCredentials_NoOutboundCalls(t *testing.T) {
	f, d := newDispatcher(t, true)

	f.transport.EXPECT().Ready().Return(serrors.With(serrors.ErrConfiguration, "email credentials not configured"))
	// no Register and no Send expectations: any call fails the test

	_, err := d.Dispatch(context.Background(), validRequest())
	require.ErrorIs(t, err, serrors.ErrConfiguration)
}

func TestDispatcher_AuthenticationFailure(t *testing.T) {
	f, d := newDispatcher(t, false)

	f.transport.EXPECT().Ready().Return(nil)
	f.transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return("",
		serrors.Wrap(serrors.ErrAuthentication, errors.New("535 5.7.8"), mailer.MsgCredentialsRejected))

	_, err := d.Dispatch(context.Background(), validRequest())
	require.ErrorIs(t, err, serrors.ErrAuthentication)
	require.Contains(t, err.Error(), mailer.MsgCredentialsRejected)
}

func TestDispatcher_Patron_Success(t *testing.T) {
	f, d := newDispatcher(t, true)

	f.transport.EXPECT().Ready().Return(nil)
	f.patrons.EXPECT().Register(gomock.Any(), patron.Payload{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Phone:     "0412345678",
		Password:  "Abcd1234",
	}).Return(&domain.PatronRecord{ID: "p-42", Raw: []byte(`{"id":"p-42"}`)}, nil)
	f.transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg mailer.Message) (string, error) {
			require.Equal(t, "Welcome to IREC Melbourne Library - Registration Confirmation", msg.Subject)
			require.Contains(t, msg.HTML, "p-42")
			require.Contains(t, msg.HTML, "https://example.com/account")

			return "<id-2@example.com>", nil
		},
	)

	res, err := d.Dispatch(context.Background(), validRequest())
	require.NoError(t, err)
	require.Equal(t, registration.MsgPatronRegistered, res.Message)
	require.Equal(t, "p-42", res.Patron.ID)
	require.True(t, res.EmailSent)
	require.Equal(t, "<id-2@example.com>", res.MessageID)
}

func TestDispatcher_Patron_Conflict_NoEmail(t *testing.T) {
	f, d := newDispatcher(t, true)

	f.transport.EXPECT().Ready().Return(nil)
	f.patrons.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil,
		serrors.Wrap(serrors.ErrUpstream,
			&patron.StatusError{StatusCode: http.StatusConflict, Message: "Email already registered"},
			"Email already registered"))

	_, err := d.Dispatch(context.Background(), validRequest())
	require.ErrorIs(t, err, serrors.ErrUpstream)

	var se *patron.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusConflict, se.StatusCode)
	require.Equal(t, "Email already registered", se.Message)
}

func TestDispatcher_Patron_EmailFailureIsNotFatal(t *testing.T) {
	f, d := newDispatcher(t, true)

	f.transport.EXPECT().Ready().Return(nil)
	f.patrons.EXPECT().Register(gomock.Any(), gomock.Any()).Return(&domain.PatronRecord{ID: "p-7"}, nil)
	f.transport.EXPECT().Send(gomock.Any(), gomock.Any()).Return("",
		serrors.Wrap(serrors.ErrNetwork, errors.New("connection refused"), mailer.MsgNetworkFailed))

	res, err := d.Dispatch(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.False(t, res.EmailSent)
	require.Empty(t, res.MessageID)
	require.Equal(t, "p-7", res.Patron.ID)
}

func TestDispatcher_Overrides(t *testing.T) {
	f, d := newDispatcher(t, false)

	f.transport.EXPECT().Ready().Return(nil)
	f.transport.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg mailer.Message) (string, error) {
			require.Equal(t, "Your library card", msg.Subject)
			require.Contains(t, msg.HTML, "Dear Dr. J. Doe,")
			require.True(t, strings.Contains(msg.HTML, "LIB-001"))

			return "<id-3@example.com>", nil
		},
	)

	req := validRequest()
	req.Name = "Dr. J. Doe"
	req.Subject = "Your library card"
	req.MembershipID = "LIB-001"
	_, err := d.Dispatch(context.Background(), req)
	require.NoError(t, err)
}
