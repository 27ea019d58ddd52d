// Copyright 2026 The mailsonar authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/mailsonar/mailsonar/search"
)

func main() {
	app := &cli.App{
		Name:  "mailsonar",
		Usage: "Semantic search over your mailbox",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "fetch",
				Usage:  "List the emails in a mailbox folder",
				Action: fetchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "folder",
						Aliases: []string{"f"},
						Usage:   "Mailbox folder to fetch",
					},
					&cli.BoolFlag{
						Name:    "save",
						Aliases: []string{"s"},
						Usage:   "Save the fetched folder to the local snapshot cache",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most N emails (0 = all)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Semantically search a mailbox folder",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Maximum number of results",
						Value:   search.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Minimum similarity score between 0 and 1",
						Value:   -1,
					},
					&cli.StringFlag{
						Name:    "folder",
						Aliases: []string{"f"},
						Usage:   "Mailbox folder to search",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Search the local snapshot instead of the live mailbox",
					},
					&cli.BoolFlag{
						Name:  "scores",
						Usage: "Show similarity scores",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print search stage details to stderr",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to listen on (overrides config)",
					},
				},
			},
			{
				Name:  "cache",
				Usage: "Manage the local snapshot cache",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List cached folders",
						Action: cacheListCommand,
					},
					{
						Name:      "clear",
						Usage:     "Remove cached folders",
						ArgsUsage: "[FOLDER...]",
						Action:    cacheClearCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
