package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, email transport,
// patron API and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"30s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// CORSAllowedOrigin is sent as Access-Control-Allow-Origin
		CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" env-default:"*" yaml:"corsAllowedOrigin"`
	} `yaml:"http"`

	// Email contains the SMTP account used for confirmation emails
	Email struct {
		// User is the sending account, also used as the From address
		User string `env:"EMAIL_USER,GMAIL_USER" yaml:"user"`
		// AppPassword is the app-level password of the account
		AppPassword string `env:"EMAIL_APP_PASSWORD,EMAIL_PASSWORD,GMAIL_APP_PASSWORD" yaml:"appPassword"` //nolint: gosec,lll
		// Host is the SMTP server
		Host string `env:"EMAIL_HOST" env-default:"smtp.gmail.com" yaml:"host"`
		// Port is the SMTP server port
		Port int `env:"EMAIL_PORT" env-default:"465" yaml:"port"`
		// Secure selects implicit TLS instead of STARTTLS
		Secure bool `env:"EMAIL_SECURE" env-default:"true" yaml:"secure"`
		// FromName is the sender display name
		FromName string `env:"EMAIL_FROM_NAME" env-default:"Library Registration" yaml:"fromName"`
		// Timeout bounds dialing and each SMTP command
		Timeout time.Duration `env:"EMAIL_TIMEOUT" env-default:"15s" yaml:"timeout"`
	} `yaml:"email"`

	// Libib contains the patron API credentials. The patron step is skipped
	// unless both UserID and APIKey are set.
	Libib struct {
		// URL is the API root
		URL string `env:"LIBIB_API_URL" env-default:"https://api.libib.com" yaml:"url"`
		// UserID is sent as x-api-user
		UserID string `env:"LIBIB_USER_ID" yaml:"userId"`
		// APIKey is sent as x-api-key
		APIKey string `env:"LIBIB_API_KEY" yaml:"apiKey"`
		// Timeout bounds a single patron API call
		Timeout time.Duration `env:"LIBIB_TIMEOUT" env-default:"10s" yaml:"timeout"`
	} `yaml:"libib"`

	// Library contains the branding used in confirmation emails
	Library struct {
		// Name appears in subjects, greetings and the footer
		Name string `env:"LIBRARY_NAME" env-default:"IREC Melbourne Library" yaml:"name"`
		// AccountURL is linked from the welcome email
		AccountURL string `env:"LIBRARY_ACCOUNT_URL" yaml:"accountUrl"`
	} `yaml:"library"`

	// Debug contains switches that must stay off in production
	Debug struct {
		// ExposeErrorDetails adds the formatted error chain to error responses
		ExposeErrorDetails bool `env:"DEBUG_EXPOSE_ERROR_DETAILS" env-default:"false" yaml:"exposeErrorDetails"`
	} `yaml:"debug"`

	// Form contains settings of the registration form client
	Form struct {
		// Endpoint is where the form posts registrations
		Endpoint string `env:"FORM_ENDPOINT" env-default:"http://localhost:8080/v1/registrations" yaml:"endpoint"`
	} `yaml:"form"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// PatronAPIEnabled reports whether patron API credentials are configured.
func (c *Config) PatronAPIEnabled() bool {
	return c.Libib.UserID != "" && c.Libib.APIKey != ""
}

// Load receives the path for yaml config file and returns a filled Config struct.
// When the file does not exist, configuration is read from the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(configPath)
	switch {
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read environment: %w", err)
		}
	default:
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	}

	return &cfg, nil
}
