package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"registration/internal/config"
	"registration/pkg/domain"
	"registration/pkg/form"
	"registration/pkg/logger"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func registerCommand(cfg *config.Config) *cobra.Command {
	var (
		values   = map[domain.Field]*string{}
		endpoint string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Validates a registration locally and submits it to the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := form.New(form.Options{Endpoint: endpoint})
			for f, v := range values {
				if err := c.UpdateField(f, *v); err != nil {
					return err
				}
			}

			res, err := c.Submit(ctx)
			var fe domain.FieldErrors
			if errors.As(err, &fe) {
				printFieldErrors(fe)

				return err
			}
			if err != nil {
				logger.Error(ctx, "registration failed", zap.Error(err), zap.Stringer("state", c.State()))
			}
			if res != nil {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(res)
			}

			return err
		},
	}

	flags := cmd.Flags()
	values[domain.FieldFirstName] = flags.String("first-name", "", "First name")
	values[domain.FieldLastName] = flags.String("last-name", "", "Last name")
	values[domain.FieldEmail] = flags.String("email", "", "Email address")
	values[domain.FieldPhone] = flags.String("phone", "", "Phone number")
	values[domain.FieldPassword] = flags.String("password", "", "Account password")
	flags.StringVar(&endpoint, "endpoint", cfg.Form.Endpoint, "Registration endpoint")
	flags.DurationVar(&timeout, "timeout", 30*time.Second, "Submission timeout")

	return cmd
}

func printFieldErrors(fe domain.FieldErrors) {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)
	for _, f := range fields {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %s\n", f, fe[domain.Field(f)])
	}
}
