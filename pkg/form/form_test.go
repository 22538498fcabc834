package form_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"registration/pkg/domain"
	"registration/pkg/form"
	"registration/pkg/serrors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, c *form.Controller, email string) {
	t.Helper()

	values := map[domain.Field]string{
		domain.FieldFirstName: "Jane",
		domain.FieldLastName:  "Doe",
		domain.FieldEmail:     email,
		domain.FieldPhone:     "0412345678",
		domain.FieldPassword:  "Abcd1234",
	}
	for f, v := range values {
		require.NoError(t, c.UpdateField(f, v))
	}
}

func TestController_UpdateField_Unknown(t *testing.T) {
	c := form.New(form.Options{})
	err := c.UpdateField("favouriteBook", "Dune")
	require.ErrorIs(t, err, serrors.ErrBadRequest)
}

func TestController_UpdateField_NoValidation(t *testing.T) {
	c := form.New(form.Options{})
	require.NoError(t, c.UpdateField(domain.FieldEmail, "nope"))
	require.Empty(t, c.Errors())
	require.Equal(t, form.StateInput, c.State())
}

func TestController_Validate(t *testing.T) {
	c := form.New(form.Options{})
	fill(t, c, "jane@example.com")
	require.Empty(t, c.Validate())

	require.NoError(t, c.UpdateField(domain.FieldEmail, "not-an-email"))
	errs := c.Validate()
	require.Len(t, errs, 1)
	require.Contains(t, errs, domain.FieldEmail)
	require.Equal(t, errs, c.Validate(), "validation must be idempotent")
	require.Equal(t, errs, c.Errors())
}

func TestController_Submit_InvalidMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(srv.Close)

	c := form.New(form.Options{Endpoint: srv.URL})
	fill(t, c, "not-an-email")

	res, err := c.Submit(context.Background())
	require.Nil(t, res)
	require.ErrorIs(t, err, serrors.ErrBadRequest)

	var fe domain.FieldErrors
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe, domain.FieldEmail)
	require.Zero(t, calls.Load())
	require.Equal(t, form.StateInput, c.State())
}

func TestController_Submit_Success(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got domain.RegistrationRequest
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(b, &got))
		require.Equal(t, "jane@example.com", got.Email)
		require.Equal(t, "Abcd1234", got.Password)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Email sent successfully","messageId":"<m1@example.com>","emailSent":true}`))
	}))
	t.Cleanup(srv.Close)

	c := form.New(form.Options{Endpoint: srv.URL})
	fill(t, c, "jane@example.com")

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "<m1@example.com>", res.MessageID)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, form.StateSuccess, c.State())
	require.Equal(t, domain.RegistrationRequest{}, c.Request(), "form should be cleared")
}

func TestController_Submit_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Registration failed","message":"Email already registered","code":"UPSTREAM"}`))
	}))
	t.Cleanup(srv.Close)

	c := form.New(form.Options{Endpoint: srv.URL})
	fill(t, c, "jane@example.com")

	res, err := c.Submit(context.Background())
	require.Error(t, err)
	require.False(t, res.Success)
	require.Equal(t, form.MsgRegistrationFailed, res.Reason)
	require.Equal(t, http.StatusConflict, res.StatusCode)
	require.Equal(t, form.StateError, c.State())
	require.Equal(t, "jane@example.com", c.Request().Email, "values are kept on failure")

	// try again
	c.Reset()
	require.Equal(t, form.StateInput, c.State())
	require.Nil(t, c.Result())
	require.Equal(t, "jane@example.com", c.Request().Email)
}

func TestController_Submit_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	c := form.New(form.Options{Endpoint: endpoint})
	fill(t, c, "jane@example.com")

	res, err := c.Submit(context.Background())
	require.ErrorIs(t, err, serrors.ErrNetwork)
	require.Equal(t, form.MsgRegistrationFailed, res.Reason)
	require.Equal(t, form.StateError, c.State())
}

func TestController_Submit_SingleFlight(t *testing.T) {
	var calls atomic.Int32
	arrived := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(arrived)
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c := form.New(form.Options{Endpoint: srv.URL})
	fill(t, c, "jane@example.com")

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-arrived
	require.Equal(t, form.StateSubmitting, c.State())

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, form.ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, form.StateSuccess, c.State())
}

func TestState_String(t *testing.T) {
	require.Equal(t, "input", form.StateInput.String())
	require.Equal(t, "submitting", form.StateSubmitting.String())
	require.Equal(t, "success", form.StateSuccess.String())
	require.Equal(t, "error", form.StateError.String())
	require.Equal(t, "unknown", form.State(42).String())
}
