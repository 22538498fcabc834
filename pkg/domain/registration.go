package domain

import "encoding/json"

// Field names a single input of the registration form.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldPassword  Field = "password"
)

// FormFields lists the five inputs collected by the registration form, in display order.
var FormFields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldPassword} //nolint: gochecknoglobals

// RegistrationRequest is the canonical payload flowing from the form to the dispatcher.
type RegistrationRequest struct {
	FirstName string `json:"firstName"          validate:"notblank,trimmedmin=2,personname"`
	LastName  string `json:"lastName"           validate:"notblank,trimmedmin=2,personname"`
	Email     string `json:"email"              validate:"notblank,emailaddr"`
	Phone     string `json:"phone,omitempty"    validate:"notblank,phonedigits,phone"`
	Password  string `json:"password,omitempty" validate:"required,min=8,strongpassword"` //nolint: gosec

	// Name overrides the display name used in the confirmation email.
	Name string `json:"name,omitempty"`
	// Subject overrides the confirmation email subject.
	Subject string `json:"subject,omitempty"`
	// MembershipID is shown in the confirmation email when no patron record provides one.
	MembershipID string `json:"membershipId,omitempty"`
}

// Value returns the raw value of a form field.
func (r *RegistrationRequest) Value(f Field) string {
	switch f {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldPassword:
		return r.Password
	default:
		return ""
	}
}

// Set assigns a form field and reports whether the field is known.
func (r *RegistrationRequest) Set(f Field, value string) bool {
	switch f {
	case FieldFirstName:
		r.FirstName = value
	case FieldLastName:
		r.LastName = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldPassword:
		r.Password = value
	default:
		return false
	}

	return true
}

// DisplayName is the name used to greet the patron: the explicit Name override,
// else "first last", else "New Member".
func (r *RegistrationRequest) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	switch {
	case r.FirstName != "" && r.LastName != "":
		return r.FirstName + " " + r.LastName
	case r.FirstName != "":
		return r.FirstName
	case r.LastName != "":
		return r.LastName
	}

	return "New Member"
}

// EmailNotification is derived per request from the registration and never persisted.
type EmailNotification struct {
	Recipient    string
	Name         string
	Email        string
	MembershipID string
	Subject      string
	// Registered is set when the patron API accepted the registration, which
	// selects the welcome wording instead of the plain confirmation.
	Registered bool
}

// PatronRecord is the patron API's view of a newly registered patron.
type PatronRecord struct {
	ID  string          `json:"-"`
	Raw json.RawMessage `json:"-"`
}

// MarshalJSON passes the upstream body through unchanged.
func (p PatronRecord) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return []byte("null"), nil
	}

	return p.Raw, nil
}

// UnmarshalJSON keeps the body and picks up a string or numeric "id".
func (p *PatronRecord) UnmarshalJSON(b []byte) error {
	p.Raw = append(json.RawMessage(nil), b...)
	p.ID = ""

	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(b, &body); err != nil || len(body.ID) == 0 {
		return nil //nolint: nilerr
	}
	var s string
	if err := json.Unmarshal(body.ID, &s); err == nil {
		p.ID = s

		return nil
	}
	var n json.Number
	if err := json.Unmarshal(body.ID, &n); err == nil {
		p.ID = n.String()
	}

	return nil
}

// RegistrationResult is the outcome handed back to the caller: either a success
// carrying a delivery or patron identifier, or a failure with reason and status.
type RegistrationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`

	MessageID string        `json:"messageId,omitempty"`
	Recipient string        `json:"recipient,omitempty"`
	Patron    *PatronRecord `json:"patron,omitempty"`
	EmailSent bool          `json:"emailSent"`

	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
}

// Failed builds a failure result.
func Failed(reason string, statusCode int) *RegistrationResult {
	return &RegistrationResult{Reason: reason, StatusCode: statusCode}
}
