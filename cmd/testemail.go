package main

import (
	"registration/internal/config"
	"registration/pkg/domain"
	"registration/pkg/logger"
	"registration/pkg/mailer"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func testEmailCommand(cfg *config.Config) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "test-email",
		Short: "Verifies the email credentials and sends a test confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			transport := newTransport(cfg)

			logger.Info(ctx, "verifying smtp connection...",
				zap.String("host", cfg.Email.Host),
				zap.Int("port", cfg.Email.Port),
				zap.Bool("secure", cfg.Email.Secure),
				zap.Bool("userSet", cfg.Email.User != ""),
				zap.Bool("passwordSet", cfg.Email.AppPassword != ""))
			if err := transport.Verify(ctx); err != nil {
				logger.Error(ctx, "smtp verification failed", zap.Error(err))

				return err
			}

			if to == "" {
				to = cfg.Email.User
			}
			rendered, err := newRenderer(ctx, cfg).Render(domain.EmailNotification{
				Recipient: to,
				Name:      "Test User",
				Email:     to,
				Subject:   "Test Email from " + cfg.Library.Name,
			}, time.Now())
			if err != nil {
				return err
			}

			id, err := transport.Send(ctx, mailer.Message{To: to, Subject: rendered.Subject, HTML: rendered.HTML})
			if err != nil {
				logger.Error(ctx, "test email failed", zap.Error(err))

				return err
			}
			logger.Info(ctx, "test email sent", zap.String("messageId", id), zap.String("to", to))

			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient, defaults to the sending account")

	return cmd
}
