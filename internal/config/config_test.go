package config_test

import (
	"os"
	"path/filepath"
	"registration/internal/config"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOnlyWhenFileMissing(t *testing.T) {
	t.Setenv("GMAIL_USER", "library@example.com")
	t.Setenv("GMAIL_APP_PASSWORD", "app-secret")
	t.Setenv("LIBRARY_NAME", "Test Library")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, "library@example.com", cfg.Email.User)
	require.Equal(t, "app-secret", cfg.Email.AppPassword)
	require.Equal(t, "smtp.gmail.com", cfg.Email.Host)
	require.Equal(t, 465, cfg.Email.Port)
	require.True(t, cfg.Email.Secure)
	require.Equal(t, "Test Library", cfg.Library.Name)
	require.Equal(t, "*", cfg.HTTP.CORSAllowedOrigin)
	require.False(t, cfg.PatronAPIEnabled())
}

func TestLoad_PrimaryEnvNameWins(t *testing.T) {
	t.Setenv("EMAIL_USER", "primary@example.com")
	t.Setenv("GMAIL_USER", "fallback@example.com")
	t.Setenv("EMAIL_PASSWORD", "pw")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	require.Equal(t, "primary@example.com", cfg.Email.User)
	require.Equal(t, "pw", cfg.Email.AppPassword)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: production
email:
  host: mail.example.com
  port: 587
libib:
  userId: u-1
  apiKey: k-1
  timeout: 3s
debug:
  exposeErrorDetails: true
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "mail.example.com", cfg.Email.Host)
	require.Equal(t, 587, cfg.Email.Port)
	require.Equal(t, 3*time.Second, cfg.Libib.Timeout)
	require.True(t, cfg.Debug.ExposeErrorDetails)
	require.True(t, cfg.PatronAPIEnabled())
}
