// Package main provides the CLI entrypoint for the registration service.
// It wires subcommands (serve, register, test-email), loads configuration, and initializes logging.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"registration/internal/config"
	"registration/pkg/logger"
	"registration/pkg/mailer"
	"registration/pkg/notification"
	"registration/pkg/patron"
	"registration/pkg/patron/libib"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newTransport creates the SMTP transport from the email settings. It never
// dials; missing credentials surface when the transport is used.
func newTransport(cfg *config.Config) *mailer.SMTP {
	return mailer.NewSMTP(mailer.SMTPOptions{
		Username: cfg.Email.User,
		Password: cfg.Email.AppPassword,
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Secure:   cfg.Email.Secure,
		FromName: cfg.Email.FromName,
		Timeout:  cfg.Email.Timeout,
	})
}

// newPatronClient returns the Libib client, or nil when no credentials are configured.
func newPatronClient(cfg *config.Config) patron.Client {
	if !cfg.PatronAPIEnabled() {
		return nil
	}

	return libib.New(&http.Client{Timeout: cfg.Libib.Timeout}, cfg.Libib.URL, cfg.Libib.UserID, cfg.Libib.APIKey)
}

func newRenderer(ctx context.Context, cfg *config.Config) *notification.Renderer {
	renderer, err := notification.NewRenderer(notification.Options{
		LibraryName: cfg.Library.Name,
		AccountURL:  cfg.Library.AccountURL,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create email renderer", zap.Error(err))
	}

	return renderer
}

// main sets up the root Cobra command, loads configuration and logging, and
// registers subcommands before executing the CLI.
func main() {
	rootCmd := &cobra.Command{
		Use: "registration",
	}

	// there is no way to access flags before command execution in cobra.
	// configPath here is parsed using the standard flags package.
	// following line is just added to prevent errors when Cobra is parsing the flags.
	rootCmd.PersistentFlags().StringP("config", "c", "config.yml", "Config File Path")

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("c", "config.yml", "The config file path")
	_ = fs.Parse(configArgs(os.Args[1:]))

	// a missing .env file is fine; real environment variables still apply
	_ = godotenv.Load()

	log.Println("loading config ...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("could not load config file", err)
	}

	logger.Setup(cfg.Environment)

	ctx := context.Background()

	defer func() {
		if p := recover(); p != nil {
			logger.Error(ctx, "captured panic, exiting...", zap.Any("panic", p))
			_ = logger.Sync()

			panic(p)
		}
	}()

	rootCmd.AddCommand(
		serveCommand(cfg),
		registerCommand(cfg),
		testEmailCommand(cfg),
	)

	err = rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1) //nolint: gocritic
	}
}

// configArgs keeps only the -c/--config flag so subcommand flags do not
// trip the standard flag parser.
func configArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		switch a := args[i]; {
		case a == "-c" || a == "--config":
			if i+1 < len(args) {
				out = append(out, "-c", args[i+1])
				i++
			}
		case len(a) > 3 && a[:3] == "-c=":
			out = append(out, a)
		case len(a) > 9 && a[:9] == "--config=":
			out = append(out, "-c="+a[9:])
		}
	}

	return out
}
