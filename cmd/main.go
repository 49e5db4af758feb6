package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/transport"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultTimeout = 30 * time.Second

func main() {
	logger := shared.NewLogger(nil)

	httpTransport := transport.NewHTTPTransport(nil, defaultTimeout)

	runner := NewRunner(RunnerOpts{
		ConfigPath: "config.toml",
		Transport:  httpTransport,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spotx",
		Usage:    "Query the Spotify Web API with retries, rate limit handling and token refresh",
		Version:  "0.1.0",
		Flags:    rootFlags(),
		Commands: runner.register(),
	}

	// Token refreshes go through the same pooled client as API calls.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpTransport.Client())

	err := app.Run(ctx, os.Args)

	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}
	httpTransport.Close()

	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrMissingCredentials) {
			logger.Fatal("authentication required", "error", err, "hint", "run 'spotx config init' and fill in [credentials.spotify]")
		}
		logger.Fatalf("application error: %v", err)
	}
}
