package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/repositories"
	"github.com/desertthunder/spotx/internal/services"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/transport"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Services are built lazily from the configuration the first time a command needs them.
type Runner struct {
	config     *shared.Config
	configPath string
	transport  *transport.HTTPTransport
	catalog    services.Catalog
	raw        *services.RawService
	tracks     *repositories.TrackRepository
	db         *sql.DB
	appOnly    bool // token came from the client credentials grant
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Transport  *transport.HTTPTransport
	Catalog    services.Catalog
	Raw        *services.RawService
	Tracks     *repositories.TrackRepository
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Transport == nil {
		opts.Transport = transport.NewHTTPTransport(nil, 0)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		transport:  opts.Transport,
		catalog:    opts.Catalog,
		raw:        opts.Raw,
		tracks:     opts.Tracks,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		configCommand, setupCommand, tracksCommand, meCommand, playlistsCommand, libraryCommand, cacheCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// loadConfig returns the runner's config, reading it from the --config path on first use.
//
// A missing default file falls back to the embedded defaults. An explicit --config path that does not exist, or an
// unreadable or invalid file, is an error.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err != nil {
		if cmd.IsSet("config") {
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, r.configPath)
		}
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		r.config = shared.DefaultConfig()
		return r.config, nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return nil, err
	}
	r.config = config
	return r.config, nil
}

// executorOptions maps the [api] config section onto executor policies.
func executorOptions(api shared.APIConfig) (transport.Options, error) {
	mode, err := transport.ParseModeFromString(api.JSONMode)
	if err != nil {
		return transport.Options{}, err
	}

	return transport.Options{
		RetryOnServerErrorTimes: api.RetryOnServerErrorTimes,
		RetryWhenRateLimited:    api.RetryWhenRateLimited,
		AutomaticRefresh:        api.AutomaticRefresh,
		Debug:                   api.Debug,
		ParseMode:               mode,
		RequestsPerSecond:       api.RequestsPerSecond,
	}, nil
}

// tokenProvider picks the token source from the stored credentials, most capable first.
//
// Refreshed user tokens are written back to the config file.
func (r *Runner) tokenProvider(ctx context.Context, config *shared.Config) (transport.TokenProvider, error) {
	creds := config.Credentials.Spotify

	switch {
	case creds.RefreshToken != "" && creds.HasClientCredentials():
		oauthCfg := services.OAuthConfig(creds.ClientID, creds.ClientSecret, creds.RedirectURI)
		provider := transport.NewRefreshTokenProvider(oauthCfg, creds.Token())
		provider.Logger = r.logger
		provider.OnRefresh = func(token *oauth2.Token) error {
			if err := config.Credentials.Spotify.Update(token); err != nil {
				return err
			}
			if r.configPath == "" {
				return nil
			}
			r.logger.Debug("saving refreshed token", "path", r.configPath)
			return shared.SaveConfig(r.configPath, config)
		}
		return provider, nil

	case creds.AccessToken != "":
		return transport.StaticTokenProvider{Token: creds.AccessToken}, nil

	case creds.HasClientCredentials():
		provider := transport.NewClientCredentialsProvider(
			services.ClientCredentialsConfig(creds.ClientID, creds.ClientSecret),
		)
		if err := provider.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("failed to obtain app token: %w", err)
		}
		r.appOnly = true
		return provider, nil

	default:
		return nil, fmt.Errorf("%w: set an access token, a refresh token or client credentials in %s",
			shared.ErrMissingCredentials, r.configPath)
	}
}

// openCache opens the track cache database and runs pending migrations.
func (r *Runner) openCache(config *shared.Config) (*repositories.TrackRepository, error) {
	if r.tracks != nil {
		return r.tracks, nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.tracks = repositories.NewTrackRepository(db)
	return r.tracks, nil
}

// ensureServices builds the executor, catalog and raw services from the config.
func (r *Runner) ensureServices(ctx context.Context, cmd *cli.Command) error {
	if r.catalog != nil && r.raw != nil {
		return nil
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("debug") {
		config.API.Debug = true
	}
	if config.API.Debug {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	opts, err := executorOptions(config.API)
	if err != nil {
		return err
	}

	if config.API.TimeoutSeconds > 0 {
		r.transport.Client().Timeout = time.Duration(config.API.TimeoutSeconds) * time.Second
	}

	tokens, err := r.tokenProvider(ctx, config)
	if err != nil {
		return err
	}

	exec := transport.NewExecutor(transport.ExecutorOpts{
		Transport: r.transport,
		Tokens:    tokens,
		Options:   opts,
		Logger:    r.logger,
	})

	var cache services.TrackCacher
	if config.Cache.Enabled {
		if repo, err := r.openCache(config); err != nil {
			r.logger.Warn("track cache unavailable", "error", err)
		} else {
			cache = repositories.NewTrackCacheAdapter(repo)
		}
	}

	if r.catalog == nil {
		catalog, err := services.NewSpotifyService(services.SpotifyOpts{
			BaseURL:  config.API.BaseURL,
			Executor: exec,
			Tokens:   tokens,
			Cache:    cache,
			Logger:   r.logger,
		})
		if err != nil {
			return err
		}
		r.catalog = catalog
	}

	if r.raw == nil {
		r.raw = services.NewRawService(config.API.BaseURL, exec, tokens)
	}

	return nil
}

// ensureUserServices is [Runner.ensureServices] for commands that act on a user's account.
func (r *Runner) ensureUserServices(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureServices(ctx, cmd); err != nil {
		return err
	}
	if r.appOnly {
		return fmt.Errorf("%w: %q needs a user access or refresh token, not client credentials",
			shared.ErrNotAuthenticated, cmd.Name)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
