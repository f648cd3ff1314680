// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func outputFlags(format bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
	if format {
		flags = append(flags,
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown or csv",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to this file instead of stdout",
			},
		)
	}
	return flags
}

// setupCommand handles config, database and provider session setup.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml populated with defaults",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:    "provider",
				Aliases: []string{"youtube", "yt"},
				Usage:   "Store the api key and visitor token from a browser request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.SetupProvider,
			},
		},
	}
}

// searchCommand prints one page of search results.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search for videos",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(outputFlags(true),
			&cli.StringFlag{
				Name:    "next",
				Aliases: []string{"n"},
				Usage:   "Continuation token from a previous page",
			},
		),
		Action: r.Search,
	}
}

// getCommand resolves one item by id.
func getCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Resolve an item into a playable stream",
		ArgsUsage: "<id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(true),
			&cli.StringFlag{
				Name:  "export-dir",
				Usage: "Write README.md and cover.jpg into this directory",
			},
		),
		Action: r.Get,
	}
}

// matchCommand resolves the best search match for a title and artist.
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Find and resolve the best match for a title and artist",
		Flags: append(outputFlags(true),
			&cli.StringFlag{
				Name:     "title",
				Aliases:  []string{"t"},
				Usage:    "Track title",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist or uploader",
			},
		),
		Action: r.Match,
	}
}

// playCommand runs a session in the foreground.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Load ids into a session and print stream URL refreshes until interrupted",
		ArgsUsage: "<id...>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "active",
				Usage: "Index of the item to start at",
			},
			&cli.DurationFlag{
				Name:  "advance",
				Usage: "Move to the next item after this long (0 stays put)",
			},
			&cli.DurationFlag{
				Name:  "check",
				Usage: "How often to check the active item's URL",
				Value: 5 * time.Second,
			},
		},
		Action: r.Play,
	}
}

// serveCommand starts the HTTP and websocket bridge.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API and websocket event feed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (defaults to [server] host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (defaults to [server] port)",
			},
		},
		Action: r.Serve,
	}
}

// cacheCommand inspects and prunes the asset cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the resolved asset cache",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cached assets",
				Flags:  outputFlags(true),
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached asset",
				Action: r.CacheClear,
			},
			{
				Name:   "purge",
				Usage:  "Delete cached assets whose stream URL has expired",
				Action: r.CachePurge,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive search.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive search browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs here while the TUI owns the terminal",
				Value: "./tmp/ytstream-tui.log",
			},
		},
		Action: r.TUI,
	}
}
