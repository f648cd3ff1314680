package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytstream/internal/formatter"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Search prints one page of results for the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	r.logger.Debug("searching", "query", query, "continuation", cmd.String("next") != "")
	page, err := svc.Search(ctx, query, cmd.String("next"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	data, err := formatter.RenderSearch(format, query, page)
	if err != nil {
		return err
	}
	return formatter.WriteFile(r.output, cmd.String("output"), data)
}

// Get resolves the id argument.
func (r *Runner) Get(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: id is required", shared.ErrMissingArgument)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}
	asset, err := svc.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", id, err)
	}

	if dir := cmd.String("export-dir"); dir != "" {
		res, err := formatter.WriteAssetMarkdown(ctx, r.httpClient, asset, dir, r.now(), func(err error) {
			r.logger.Warn("failed to save cover image", "error", err)
		})
		if err != nil {
			return err
		}
		r.logger.Info("exported asset", "dir", res.Directory, "files", len(res.Files))
	}
	return r.writeAsset(cmd, asset)
}

// Match resolves the best search match for --title and --artist.
func (r *Runner) Match(ctx context.Context, cmd *cli.Command) error {
	q := models.Query{Primary: cmd.String("title"), Secondary: cmd.String("artist")}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}
	asset, err := svc.GetByQuery(ctx, q)
	if err != nil {
		return fmt.Errorf("no match for %q: %w", q.Text(), err)
	}
	return r.writeAsset(cmd, asset)
}

func (r *Runner) writeAsset(cmd *cli.Command, asset *models.MediaAsset) error {
	if cmd.Bool("json") {
		return r.writeJSON(asset, cmd.Bool("pretty"))
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	data, err := formatter.RenderAsset(format, asset, r.now())
	if err != nil {
		return err
	}
	return formatter.WriteFile(r.output, cmd.String("output"), data)
}
