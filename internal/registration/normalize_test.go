package registration_test

import (
	"registration/internal/registration"
	"registration/pkg/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   domain.RegistrationRequest
		out  domain.RegistrationRequest
	}{
		{
			name: "trim and collapse names",
			in:   domain.RegistrationRequest{FirstName: "  Mary   Ann ", LastName: "\tO'Neil\n"},
			out:  domain.RegistrationRequest{FirstName: "Mary Ann", LastName: "O'Neil"},
		},
		{
			name: "lowercase email",
			in:   domain.RegistrationRequest{Email: " Jane.Doe@Example.COM "},
			out:  domain.RegistrationRequest{Email: "jane.doe@example.com"},
		},
		{
			name: "trim phone and overrides",
			in: domain.RegistrationRequest{
				Phone:        " 0412 345 678 ",
				Subject:      " Hello ",
				MembershipID: " M-1 ",
				Name:         " Jane   Doe ",
			},
			out: domain.RegistrationRequest{
				Phone:        "0412 345 678",
				Subject:      "Hello",
				MembershipID: "M-1",
				Name:         "Jane Doe",
			},
		},
		{
			name: "password untouched",
			in:   domain.RegistrationRequest{Password: " Abcd1234 "},
			out:  domain.RegistrationRequest{Password: " Abcd1234 "},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.out, registration.Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := domain.RegistrationRequest{FirstName: " Jane ", LastName: "Doe", Email: "JANE@example.com"}
	once := registration.Normalize(in)
	require.Equal(t, once, registration.Normalize(once))
}
