// Copyright 2025 Poiesic Systems
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
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "juris",
		Usage: "Similarity search and precedent ranking over legal decisions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				EnvVars: []string{"JURIS_CONFIG"},
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
				Name:      "ingest",
				Usage:     "Store and index decisions from a JSON lines file",
				ArgsUsage: "<file.jsonl | ->",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of decisions ingested per call",
						Value: 100,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find decisions similar to a free-text query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (0 uses the configured default)",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity score (0 uses the configured default)",
					},
					&cli.StringSliceFlag{
						Name:  "court",
						Usage: "Restrict to court types (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "decision-type",
						Usage: "Restrict to decision types (repeatable)",
					},
					&cli.StringSliceFlag{
						Name:  "subject",
						Usage: "Restrict to legal subjects (repeatable)",
					},
					&cli.TimestampFlag{
						Name:   "from",
						Usage:  "Earliest decision date (YYYY-MM-DD)",
						Layout: dateLayout,
					},
					&cli.TimestampFlag{
						Name:   "to",
						Usage:  "Latest decision date (YYYY-MM-DD)",
						Layout: dateLayout,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Ask the completion backend why each result is relevant",
					},
				},
			},
			{
				Name:      "compare",
				Usage:     "Compare a base case with one or more other cases",
				ArgsUsage: "<base.json> <other.json>...",
				Action:    compareCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "stored",
						Usage: "Treat arguments as process numbers of stored decisions",
					},
					&cli.StringSliceFlag{
						Name:    "dimension",
						Aliases: []string{"d"},
						Usage:   "Similarity dimensions to score (repeatable; default semantic, legal, factual)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Include per-dimension explanations",
					},
				},
			},
			{
				Name:      "precedents",
				Usage:     "Rank stored decisions as precedents for a case",
				ArgsUsage: "<case.json>",
				Action:    precedentsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Maximum number of precedents",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:  "court",
						Usage: "Restrict to court types (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "similar-facts",
						Usage: "Extract the facts each precedent shares with the case",
						Value: true,
					},
				},
			},
			{
				Name:   "rebuild-index",
				Usage:  "Rebuild the vector index from the decision store",
				Action: rebuildIndexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reembed",
						Usage: "Regenerate every embedding before indexing",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show store, index and cache statistics",
				Action: statsCommand,
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
