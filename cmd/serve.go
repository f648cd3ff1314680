package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/server"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Serve runs the HTTP API and websocket feed until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if h := cmd.String("host"); h != "" {
		cfg.Host = h
	}
	if p := cmd.Int("port"); p > 0 {
		cfg.Port = int(p)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	session := r.newSession(svc)
	defer session.Close()

	srv := server.New(server.Opts{
		Service:        svc,
		Session:        session,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         shared.WithLogger(r.logger, "component", "server"),
	})

	r.logger.Info("starting server", "addr", cfg.Addr(), "service", svc.Name(), "session", session.ID())
	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
