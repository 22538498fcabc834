// Package v1handler serves the v1 registration API.
package v1handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"registration/internal/config"
	"registration/internal/registration"
	"registration/pkg/domain"
	"registration/pkg/logger"
	"registration/pkg/patron"
	"registration/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Deps struct {
	Dispatcher registration.Dispatcher
}

// Options configures response rendering.
type Options struct {
	// ExposeErrorDetails adds the formatted cause chain to error responses.
	ExposeErrorDetails bool
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{ExposeErrorDetails: cfg.Debug.ExposeErrorDetails}
}

type Handler struct {
	deps    Deps
	options Options
}

func New(deps Deps, options Options) *Handler {
	return &Handler{
		deps:    deps,
		options: options,
	}
}

// Register adds the registration routes to r. The canonical route is
// /v1/registrations; /api/register-patron is kept for older form builds.
// OPTIONS requests are answered by controller.WithCORS before routing.
func (h *Handler) Register(r chi.Router) {
	for _, path := range []string{"/v1/registrations", "/api/register-patron"} {
		r.Route(path, func(r chi.Router) {
			r.Post("/", h.CreateRegistration)
			r.MethodNotAllowed(h.MethodNotAllowed)
			r.NotFound(h.NotFound)
		})
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string             `json:"error"`
	Message string             `json:"message,omitempty"`
	Code    string             `json:"code"`
	Fields  domain.FieldErrors `json:"fields,omitempty"`
	Stack   string             `json:"stack,omitempty"`
}

// ErrorStatusCode pairs an ErrorResponse with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   ErrorResponse
}

type kindInfo struct {
	status  int
	title   string
	message string
}

var kinds = map[serrors.Kind]kindInfo{ //nolint: gochecknoglobals
	serrors.ErrBadRequest:       {http.StatusBadRequest, "Invalid request", "bad request"},
	serrors.ErrMethodNotAllowed: {http.StatusMethodNotAllowed, "Method not allowed", ""},
	serrors.ErrNotFound:         {http.StatusNotFound, "Not found", "resource not found"},
	serrors.ErrConfiguration:    {http.StatusInternalServerError, "Configuration error", "server is not configured"},
	serrors.ErrAuthentication:   {http.StatusInternalServerError, "Authentication error", "authentication failed"},
	serrors.ErrNetwork:          {http.StatusInternalServerError, "Network error", "network error"},
	serrors.ErrUpstream:         {http.StatusBadGateway, "Registration failed", patron.DefaultFailureMessage},
	serrors.ErrUnclassified:     {http.StatusInternalServerError, "Failed to send email", "failed to send email"},
	serrors.ErrTimeout:          {http.StatusGatewayTimeout, "Timeout", "request timed out"},
	serrors.ErrUnavailable:      {http.StatusServiceUnavailable, "Unavailable", "service unavailable"},
	serrors.ErrInternal:         {http.StatusInternalServerError, "Internal error", "internal error"},
}

// NewError maps err to a response by its semantic kind. Errors without a kind
// become 500 internal errors. Upstream rejections keep the upstream status.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	kind := serrors.KindOf(err)
	info, ok := kinds[kind]
	if !ok {
		kind = serrors.ErrInternal
		info = kinds[kind]
	}

	res := &ErrorStatusCode{
		StatusCode: info.status,
		Response: ErrorResponse{
			Error:   info.title,
			Message: info.message,
			Code:    kind.Error(),
		},
	}

	var se *serrors.Error
	if errors.As(err, &se) && se.Message() != "" && ok {
		res.Response.Message = se.Message()
	}

	var fe domain.FieldErrors
	if errors.As(err, &fe) && len(fe) > 0 {
		res.Response.Fields = fe
	}

	var ps *patron.StatusError
	if kind == serrors.ErrUpstream && errors.As(err, &ps) {
		if ps.StatusCode >= 400 && ps.StatusCode <= 599 {
			res.StatusCode = ps.StatusCode
		}
		res.Response.Message = ps.Message
	}

	if h.options.ExposeErrorDetails {
		res.Response.Stack = stack(err)
	}

	if res.StatusCode >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status", res.StatusCode))
	} else {
		logger.Info(ctx, "request rejected", zap.Error(err), zap.Int("status", res.StatusCode))
	}

	return res
}

// stack formats the innermost semantic cause with %+v so wrapped frames are included.
func stack(err error) string {
	var se *serrors.Error
	if errors.As(err, &se) && se.Cause() != nil {
		return fmt.Sprintf("%+v", se.Cause())
	}

	return fmt.Sprintf("%+v", err)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	writeJSON(r.Context(), w, res.StatusCode, res.Response)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}

// MethodNotAllowed answers any method other than POST and OPTIONS.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "POST, OPTIONS")
	h.writeError(w, r, serrors.KindOnly(serrors.ErrMethodNotAllowed))
}

// NotFound answers unknown paths under the API prefixes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, serrors.With(serrors.ErrNotFound, "no route for %s", r.URL.Path))
}
