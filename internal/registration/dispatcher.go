package registration

import (
	"context"
	"registration/pkg/domain"
	"registration/pkg/logger"
	"registration/pkg/mailer"
	"registration/pkg/metrics"
	"registration/pkg/notification"
	"registration/pkg/patron"
	"registration/pkg/serrors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// MsgEmailSent is reported when the confirmation email was the whole job.
	MsgEmailSent = "Email sent successfully"
	// MsgPatronRegistered is reported when the patron API accepted the registration.
	MsgPatronRegistered = "Patron registered successfully"
)

var tracer = otel.Tracer("registration/internal/registration") //nolint: gochecknoglobals

// Deps are the collaborators of the dispatcher.
type Deps struct {
	// Transport delivers the confirmation email. Required.
	Transport mailer.Transport
	// Patrons creates the patron upstream. Nil disables the patron step.
	Patrons patron.Client
	// Renderer builds the email subject and body. Required.
	Renderer *notification.Renderer
	// Metrics records dispatch outcomes. Optional.
	Metrics *metrics.Recorder
}

// Options tune the dispatcher.
type Options struct {
	// Now supplies the clock used for the email footer. Defaults to time.Now.
	Now func() time.Time
}

// dispatcher is the concrete implementation of the Dispatcher interface.
type dispatcher struct {
	deps    Deps
	options Options
}

// RequiredFields returns first name, last name and email, plus phone and
// password when a patron client is configured.
func (d dispatcher) RequiredFields() []domain.Field {
	fields := []domain.Field{domain.FieldFirstName, domain.FieldLastName, domain.FieldEmail}
	if d.deps.Patrons != nil {
		fields = append(fields, domain.FieldPhone, domain.FieldPassword)
	}

	return fields
}

// Dispatch normalizes and validates req, checks the email credentials, then
// registers the patron (when configured) and sends the confirmation email.
//
// A patron API rejection is returned as is and no email is sent. An email
// failure after a successful patron registration is logged and reported
// through EmailSent=false instead of failing the call.
func (d dispatcher) Dispatch(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "registration.Dispatch")
	defer span.End()

	res, outcome, err := d.dispatch(ctx, Normalize(req))
	d.deps.Metrics.Dispatch(ctx, outcome, time.Since(start))
	span.SetAttributes(attribute.String("registration.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	return res, nil
}

func (d dispatcher) dispatch(
	ctx context.Context,
	req domain.RegistrationRequest) (*domain.RegistrationResult, metrics.Outcome, error) {
	if errs := req.Validate(d.RequiredFields()...); len(errs) > 0 {
		logger.Debug(ctx, "registration rejected", zap.NamedError("fields", errs))

		return nil, metrics.OutcomeInvalid, serrors.Wrap(serrors.ErrBadRequest, errs, "Missing or invalid required fields")
	}

	// credentials are checked before any outbound call
	if err := d.deps.Transport.Ready(); err != nil {
		logger.Error(ctx, "email transport is not configured", zap.Error(err))

		return nil, metrics.OutcomeConfiguration, err
	}

	var record *domain.PatronRecord
	if d.deps.Patrons != nil {
		rec, err := d.registerPatron(ctx, req)
		if err != nil {
			outcome := metrics.OutcomeError
			if serrors.KindOf(err) == serrors.ErrUpstream {
				outcome = metrics.OutcomeUpstream
			}
			logger.Warn(ctx, "patron registration failed", zap.Error(err))

			return nil, outcome, err
		}
		record = rec
		logger.Info(ctx, "patron registered", zap.String("patronId", rec.ID))
	}

	res := &domain.RegistrationResult{
		Success:   true,
		Message:   MsgEmailSent,
		Recipient: req.Email,
		Patron:    record,
	}
	if record != nil {
		res.Message = MsgPatronRegistered
	}

	messageID, err := d.sendConfirmation(ctx, req, record)
	if err != nil {
		if record != nil {
			logger.Warn(ctx, "confirmation email failed after patron registration", zap.Error(err))

			return res, metrics.OutcomePartial, nil
		}
		logger.Error(ctx, "confirmation email failed", zap.Error(err))

		return nil, metrics.OutcomeEmailFailed, err
	}
	res.MessageID = messageID
	res.EmailSent = true
	logger.Info(ctx, "confirmation email sent", zap.String("messageId", messageID))

	return res, metrics.OutcomeSuccess, nil
}

func (d dispatcher) registerPatron(ctx context.Context, req domain.RegistrationRequest) (*domain.PatronRecord, error) {
	ctx, span := tracer.Start(ctx, "patron.Register", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	rec, err := d.deps.Patrons.Register(ctx, patron.PayloadFrom(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}
	if rec == nil {
		rec = &domain.PatronRecord{}
	}

	return rec, nil
}

func (d dispatcher) sendConfirmation(
	ctx context.Context,
	req domain.RegistrationRequest,
	record *domain.PatronRecord) (string, error) {
	ctx, span := tracer.Start(ctx, "mailer.Send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	n := domain.EmailNotification{
		Recipient:    req.Email,
		Name:         req.DisplayName(),
		Email:        req.Email,
		MembershipID: req.MembershipID,
		Subject:      req.Subject,
		Registered:   record != nil,
	}
	if n.MembershipID == "" && record != nil {
		n.MembershipID = record.ID
	}

	rendered, err := d.deps.Renderer.Render(n, d.options.Now())
	if err != nil {
		err = serrors.Wrap(serrors.ErrInternal, err, "could not render confirmation email")
		span.RecordError(err)

		return "", err
	}

	messageID, err := d.deps.Transport.Send(ctx, mailer.Message{
		To:      n.Recipient,
		Subject: rendered.Subject,
		HTML:    rendered.HTML,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return "", err
	}

	return messageID, nil
}

// New creates a Dispatcher from its collaborators.
func New(deps Deps, options Options) Dispatcher {
	if options.Now == nil {
		options.Now = time.Now
	}

	return &dispatcher{
		deps:    deps,
		options: options,
	}
}
