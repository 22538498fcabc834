// Package patron defines the client used to create patron accounts in an
// external library-management system.
package patron

import (
	"context"
	"fmt"
	"registration/pkg/domain"
)

// DefaultFailureMessage is reported when the upstream rejects a registration
// without a message of its own.
const DefaultFailureMessage = "Registration failed"

// Payload is the body posted to the patron API.
type Payload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"` //nolint: gosec
}

// PayloadFrom copies the patron fields of a normalized request.
func PayloadFrom(r domain.RegistrationRequest) Payload {
	return Payload{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Password:  r.Password,
	}
}

// StatusError is returned when the patron API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("patron api returned %d: %s", e.StatusCode, e.Message)
}

// Client registers patrons with a library-management system.
//
//go:generate mockgen -package mockpatron -source=interface.go -destination=mock/mockpatron.go *
type Client interface {
	// Register creates a patron account and returns the upstream record.
	Register(ctx context.Context, p Payload) (*domain.PatronRecord, error)
}
