// Package registration implements the server-side dispatcher that validates a
// registration, optionally creates the patron upstream and sends the
// confirmation email.
package registration

import (
	"context"
	"registration/pkg/domain"
)

//go:generate mockgen -package mockregistration -source=interface.go -destination=mock/mockregistration.go *
type Dispatcher interface {
	// Dispatch runs one registration to completion. Failures carry a
	// serrors kind; field failures wrap domain.FieldErrors.
	Dispatch(ctx context.Context, req domain.RegistrationRequest) (*domain.RegistrationResult, error)
	// RequiredFields lists the fields a request must carry to be accepted.
	RequiredFields() []domain.Field
}
