package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/repositories"
	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The resolver and the cache are built from config on first use so that
// commands such as setup never touch the network or the database.
type Runner struct {
	config     *shared.Config
	configPath string
	svc        services.Service
	stores     *repositories.Stores
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	// Service replaces the resolver built from config.
	Service    services.Service
	Stores     *repositories.Stores
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Now        func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Provider.Timeout()}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:     opts.Config,
		configPath: "config.toml",
		svc:        opts.Service,
		stores:     opts.Stores,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		now:        opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, getCommand, matchCommand, playCommand, serveCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the config file named by --config when it exists and applies the log level.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", r.configPath)
	}

	level := r.config.Log.Level
	if l := cmd.String("log-level"); l != "" {
		level = l
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// SetLogger swaps the logger used by later commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// Close releases the cache handles, if any were opened.
func (r *Runner) Close() {
	if r.stores == nil {
		return
	}
	if err := r.stores.Close(); err != nil {
		r.logger.Warn("failed to close cache", "error", err)
	}
	r.stores = nil
}

// assetStores opens the configured cache backend once.
func (r *Runner) assetStores(ctx context.Context) (*repositories.Stores, error) {
	if r.stores != nil {
		return r.stores, nil
	}
	stores, err := repositories.NewAssetStore(ctx, r.config, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	r.stores = stores
	return stores, nil
}

// service builds the InnerTube-backed resolver, wrapped with the cache when
// one is configured. A cache that fails to open is logged and skipped.
func (r *Runner) service(ctx context.Context) (services.Service, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	p := r.config.Provider
	client := services.NewInnerTubeClient(services.InnerTubeOpts{
		BaseURL:           p.BaseURL,
		LandingURL:        p.LandingURL,
		Session:           services.Session{APIKey: p.APIKey, VisitorData: p.VisitorData},
		HTTPClient:        r.httpClient,
		Timeout:           p.Timeout(),
		RequestsPerSecond: p.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "innertube"),
	})
	if p.FetchKeys {
		if err := client.FetchKeys(ctx); err != nil {
			r.logger.Warn("failed to fetch session keys, using configured values", "error", err)
		}
	}

	var svc services.Service = services.NewYouTubeService(client, services.YouTubeServiceOpts{
		InlineThumbnails: p.InlineThumbnails,
		HTTPClient:       r.httpClient,
		Logger:           r.logger,
	})

	stores, err := r.assetStores(ctx)
	switch {
	case err != nil:
		r.logger.Warn("continuing without cache", "error", err)
	case stores.Assets != nil:
		svc = services.NewCachedService(svc, stores.Assets, services.CachedServiceOpts{
			Matches: stores.Matches,
			Margin:  r.config.Lifecycle.Margin(),
			Now:     r.now,
			Logger:  shared.WithLogger(r.logger, "component", "cache"),
		})
	}

	r.svc = svc
	return svc, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
