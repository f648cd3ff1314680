package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/shared"
)

// SetupConfig writes the default configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)
	return r.writePlain("✓ Wrote %s\n", r.configPath)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenDatabase(ctx, r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupProvider copies the api key and visitor token out of a browser
// request into the config file, so later runs can skip the landing page scrape.
func (r *Runner) SetupProvider(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}
	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var session *shared.CurlSession
	var err error
	if curlFile != "" {
		session, err = shared.ParseCurlFile(curlFile)
	} else {
		session, err = shared.ParseCurlCommand(curlCmd)
	}
	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}
	if session.APIKey == "" && session.VisitorData == "" {
		return fmt.Errorf("%w: request carried neither an api key nor a visitor id", shared.ErrInvalidInput)
	}

	session.Apply(&r.config.Provider)
	if session.VisitorData != "" {
		// A pinned visitor token makes the landing page scrape redundant.
		r.config.Provider.FetchKeys = false
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}

	r.logger.Info("provider session saved", "path", r.configPath, "api_key", session.APIKey != "", "visitor", session.VisitorData != "")
	r.writePlain("✓ Provider session saved to %s\n", r.configPath)
	if session.APIKey != "" {
		r.writePlain("  api key:      %s\n", session.APIKey)
	}
	if session.VisitorData != "" {
		r.writePlain("  visitor data: %s\n", session.VisitorData)
	}
	return nil
}
