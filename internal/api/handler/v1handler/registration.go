package v1handler

import (
	"bytes"
	"io"
	"net/http"
	"registration/pkg/domain"
	"registration/pkg/serrors"

	"github.com/go-faster/jx"
)

const (
	MsgNoBody       = "No request body provided"
	MsgInvalidJSON  = "Invalid JSON in request body"
	maxRequestBytes = 1 << 20
)

type requestKey struct {
	canonical string
	set       func(r *domain.RegistrationRequest, v string)
}

// requestKeys maps every accepted JSON key, canonical or alias, to its field.
var requestKeys = map[string]requestKey{ //nolint: gochecknoglobals
	"firstName":     {"firstName", func(r *domain.RegistrationRequest, v string) { r.FirstName = v }},
	"first_name":    {"firstName", func(r *domain.RegistrationRequest, v string) { r.FirstName = v }},
	"lastName":      {"lastName", func(r *domain.RegistrationRequest, v string) { r.LastName = v }},
	"last_name":     {"lastName", func(r *domain.RegistrationRequest, v string) { r.LastName = v }},
	"email":         {"email", func(r *domain.RegistrationRequest, v string) { r.Email = v }},
	"to":            {"email", func(r *domain.RegistrationRequest, v string) { r.Email = v }},
	"phone":         {"phone", func(r *domain.RegistrationRequest, v string) { r.Phone = v }},
	"phoneNumber":   {"phone", func(r *domain.RegistrationRequest, v string) { r.Phone = v }},
	"password":      {"password", func(r *domain.RegistrationRequest, v string) { r.Password = v }},
	"name":          {"name", func(r *domain.RegistrationRequest, v string) { r.Name = v }},
	"subject":       {"subject", func(r *domain.RegistrationRequest, v string) { r.Subject = v }},
	"membershipId":  {"membershipId", func(r *domain.RegistrationRequest, v string) { r.MembershipID = v }},
	"membership_id": {"membershipId", func(r *domain.RegistrationRequest, v string) { r.MembershipID = v }},
}

// DecodeRequest parses a registration body. Canonical keys win over their
// aliases regardless of order; unknown keys are ignored. Values must be
// strings, numbers or null.
func DecodeRequest(body []byte) (domain.RegistrationRequest, error) {
	var req domain.RegistrationRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return req, serrors.With(serrors.ErrBadRequest, MsgNoBody)
	}

	if !jx.Valid(body) {
		return req, serrors.With(serrors.ErrBadRequest, MsgInvalidJSON)
	}

	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return req, serrors.With(serrors.ErrBadRequest, MsgInvalidJSON)
	}

	fromCanonical := map[string]bool{}
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		k, ok := requestKeys[string(key)]
		if !ok {
			return d.Skip()
		}
		v, present, err := scalar(d)
		if err != nil {
			return err
		}
		if !present {
			return nil
		}

		isCanonical := string(key) == k.canonical
		if !isCanonical && fromCanonical[k.canonical] {
			return nil
		}
		k.set(&req, v)
		if isCanonical {
			fromCanonical[k.canonical] = true
		}

		return nil
	})
	if err != nil {
		return domain.RegistrationRequest{}, serrors.Wrap(serrors.ErrBadRequest, err, MsgInvalidJSON)
	}
	return req, nil
}

// scalar reads a string or number value. null reports present=false.
func scalar(d *jx.Decoder) (string, bool, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()

		return s, err == nil, err
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", false, err
		}

		return n.String(), true, nil
	case jx.Null:
		return "", false, d.Null()
	default:
		return "", false, serrors.With(serrors.ErrBadRequest, "unexpected %s value", d.Next())
	}
}

// CreateRegistration validates the posted registration and hands it to the dispatcher.
func (h *Handler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, MsgInvalidJSON))

		return
	}

	req, err := DecodeRequest(body)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	res, err := h.deps.Dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(r.Context(), w, http.StatusOK, res)
}
