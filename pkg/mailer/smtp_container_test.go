package mailer_test

import (
	"context"
	"fmt"
	"registration/pkg/mailer"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type mailpitContainer struct {
	Container testcontainers.Container
	Host      string
	SMTPPort  int
}

func startMailpitContainer(ctx context.Context) (*mailpitContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        "axllent/mailpit:v1.21",
		ExposedPorts: []string{"1025/tcp", "8025/tcp"},
		Env: map[string]string{
			"MP_SMTP_AUTH_ACCEPT_ANY":     "true",
			"MP_SMTP_AUTH_ALLOW_INSECURE": "true",
		},
		WaitingFor: wait.ForListeningPort("1025/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get container host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, "1025/tcp")
	if err != nil {
		return nil, fmt.Errorf("could not get mapped port: %w", err)
	}

	return &mailpitContainer{
		Container: container,
		Host:      host,
		SMTPPort:  mappedPort.Int(),
	}, nil
}

func TestSMTP_SendThroughMailpit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	mp, err := startMailpitContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = mp.Container.Terminate(context.Background())
	})

	s := mailer.NewSMTP(mailer.SMTPOptions{
		Username: "library@example.com",
		Password: "app-secret",
		Host:     mp.Host,
		Port:     mp.SMTPPort,
		FromName: "IREC Melbourne Library",
		Timeout:  10 * time.Second,
	})

	require.NoError(t, s.Verify(ctx))

	id, err := s.Send(ctx, mailer.Message{
		To:      "jane@example.com",
		Subject: "Library Registration Confirmation",
		HTML:    "<p>Dear Jane Doe,</p>",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(id, "<") && strings.HasSuffix(id, ">"), "unexpected message id %q", id)
}
