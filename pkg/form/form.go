// Package form implements the client side of a registration: it holds the
// field values, validates them locally and submits them once to the
// registration endpoint.
package form

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"registration/pkg/domain"
	"registration/pkg/serrors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// MsgRegistrationFailed is the reason shown for any failed submission.
const MsgRegistrationFailed = "Registration Failed"

// ErrSubmitInFlight is returned by Submit while another submission is running.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// State is the UI state of a form.
type State int

const (
	StateInput State = iota
	StateSubmitting
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Options configure where and how a form submits.
type Options struct {
	// Endpoint is the registration URL, e.g. http://localhost:8080/v1/registrations.
	Endpoint string
	// HTTPClient performs the submission. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Controller owns the state of one registration form. It is safe for
// concurrent use; at most one submission runs at a time.
type Controller struct {
	opts   Options
	flight *semaphore.Weighted

	mu     sync.Mutex
	req    domain.RegistrationRequest
	errs   domain.FieldErrors
	state  State
	result *domain.RegistrationResult
}

// New creates a Controller in the input state.
func New(opts Options) *Controller {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Controller{
		opts:   opts,
		flight: semaphore.NewWeighted(1),
		errs:   domain.FieldErrors{},
	}
}

// UpdateField sets one of the five form fields. It does not validate.
func (c *Controller) UpdateField(name domain.Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.req.Set(name, value) {
		return serrors.With(serrors.ErrBadRequest, "unknown field %q", name)
	}

	return nil
}

// Validate checks every field, records the failures for Errors and returns them.
func (c *Controller) Validate() domain.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errs = c.req.Validate()

	return c.copyErrors()
}

// Submit validates the form and, when it is valid, posts it exactly once.
//
// Invalid fields are returned as a BadRequest error wrapping
// domain.FieldErrors and nothing is sent. A network failure or non-2xx answer
// moves the form to StateError and returns a failure result together with
// the error. On success the form moves to StateSuccess and is cleared.
func (c *Controller) Submit(ctx context.Context) (*domain.RegistrationResult, error) {
	if !c.flight.TryAcquire(1) {
		return nil, ErrSubmitInFlight
	}
	defer c.flight.Release(1)

	c.mu.Lock()
	c.errs = c.req.Validate()
	if len(c.errs) > 0 {
		errs := c.copyErrors()
		c.mu.Unlock()

		return nil, serrors.Wrap(serrors.ErrBadRequest, errs, "form has invalid fields")
	}
	req := c.req
	c.state = StateSubmitting
	c.result = nil
	c.mu.Unlock()

	res, err := c.post(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = res
	if err != nil {
		c.state = StateError

		return res, err
	}
	c.state = StateSuccess
	c.req = domain.RegistrationRequest{}
	c.errs = domain.FieldErrors{}

	return res, nil
}

func (c *Controller) post(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.Failed(MsgRegistrationFailed, 0), serrors.Wrap(serrors.ErrInternal, err, "could not encode form")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.Failed(MsgRegistrationFailed, 0), serrors.Wrap(serrors.ErrInternal, err, "could not create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.HTTPClient.Do(httpReq)
	if err != nil {
		return domain.Failed(MsgRegistrationFailed, 0), serrors.Wrap(serrors.ErrNetwork, err, MsgRegistrationFailed)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Failed(MsgRegistrationFailed, resp.StatusCode),
			serrors.Wrap(serrors.ErrNetwork, err, MsgRegistrationFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(b, &failure)

		return domain.Failed(MsgRegistrationFailed, resp.StatusCode),
			serrors.With(serrors.ErrUpstream, "%s: status %d: %s", MsgRegistrationFailed, resp.StatusCode, failure.Message)
	}

	res := &domain.RegistrationResult{}
	if len(bytes.TrimSpace(b)) > 0 {
		// the body is informative only; a 2xx is a success either way
		_ = json.Unmarshal(b, res)
	}
	res.Success = true
	res.Reason = ""
	res.StatusCode = resp.StatusCode

	return res, nil
}

// State returns the current UI state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Errors returns the field failures recorded by the last validation.
func (c *Controller) Errors() domain.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.copyErrors()
}

// Request returns the current field values.
func (c *Controller) Request() domain.RegistrationRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.req
}

// Result returns the outcome of the last submission, or nil.
func (c *Controller) Result() *domain.RegistrationResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.result
}

// Reset returns to the input state keeping the field values.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateInput
	c.result = nil
}

// copyErrors must be called with mu held.
func (c *Controller) copyErrors() domain.FieldErrors {
	out := make(domain.FieldErrors, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}

	return out
}
