package registration

import (
	"registration/pkg/domain"
	"strings"
)

// Normalize returns a canonical copy of r:
//   - Trim surrounding whitespace from every field except the password
//   - Collapse internal runs of whitespace in names to a single space
//   - Lower-case the email address
//
// The password is passed through unchanged.
func Normalize(r domain.RegistrationRequest) domain.RegistrationRequest {
	out := r
	out.FirstName = collapseSpaces(r.FirstName)
	out.LastName = collapseSpaces(r.LastName)
	out.Name = collapseSpaces(r.Name)
	out.Email = strings.ToLower(strings.TrimSpace(r.Email))
	out.Phone = strings.TrimSpace(r.Phone)
	out.Subject = strings.TrimSpace(r.Subject)
	out.MembershipID = strings.TrimSpace(r.MembershipID)

	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
