package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/shared"
	"github.com/desertthunder/ytstream/internal/ui"
)

// TUI launches the interactive search browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	if err := ui.Run(ctx, svc); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
