// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// rootFlags are shared by every command.
func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log every request, retry and refresh decision",
		},
	}
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		prettyFlag(),
	}
}

func pageFlags(limit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Maximum number of items to return (1-50)",
			Value:   limit,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Index of the first item to return",
		},
	}
}

func marketFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "market",
		Aliases: []string{"m"},
		Usage:   "ISO 3166-1 alpha-2 country code used for track relinking",
	}
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, csv, markdown or json",
			Value:   "text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to a file instead of stdout",
		},
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}

// setupCommand handles setup operations for the local track cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the track cache database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tracksCommand handles track catalog lookups
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"track", "t"},
		Usage:   "Look up tracks, audio features and audio analysis",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Get a track by id, URI or link",
				ArgsUsage: "<track>",
				Flags:     append(outputFlags(), marketFlag()),
				Action:    r.TrackGet,
			},
			{
				Name:      "several",
				Usage:     "Get up to 50 tracks",
				ArgsUsage: "<track> [track...]",
				Flags:     append(formatFlags(), marketFlag(), prettyFlag()),
				Action:    r.TracksSeveral,
			},
			{
				Name:      "features",
				Usage:     "Get audio features for up to 100 tracks",
				ArgsUsage: "<track> [track...]",
				Flags:     outputFlags(),
				Action:    r.TrackFeatures,
			},
			{
				Name:      "analysis",
				Usage:     "Get the audio analysis of a track",
				ArgsUsage: "<track>",
				Flags:     outputFlags(),
				Action:    r.TrackAnalysis,
			},
		},
	}
}

// meCommand prints the current user's profile
func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the current user's profile",
		Flags:  outputFlags(),
		Action: r.Me,
	}
}

// playlistsCommand handles playlist operations
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"playlist", "pl"},
		Usage:   "Playlist operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the current user's playlists",
				Flags:  append(outputFlags(), pageFlags(20)...),
				Action: r.PlaylistsList,
			},
			{
				Name:      "get",
				Usage:     "Show a playlist and its first page of tracks",
				ArgsUsage: "<playlist-id>",
				Flags:     append(formatFlags(), prettyFlag()),
				Action:    r.PlaylistGet,
			},
			{
				Name:      "export",
				Usage:     "Export whole playlists to files, one per playlist, with a manifest",
				ArgsUsage: "<playlist-id> [playlist-id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: json, csv, markdown or text",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Output directory (default: spotify_export_<epoch>)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent playlist exports (1-10)",
						Value: 4,
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Playlist exports started per second",
						Value: 5,
					},
				},
				Action: r.PlaylistExport,
			},
		},
	}
}

// libraryCommand handles the current user's saved tracks
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Saved tracks operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List saved tracks",
				Flags:  append(append(formatFlags(), prettyFlag()), pageFlags(20)...),
				Action: r.LibraryList,
			},
			{
				Name:      "save",
				Usage:     "Save up to 50 tracks to the library",
				ArgsUsage: "<track> [track...]",
				Action:    r.LibrarySave,
			},
			{
				Name:      "remove",
				Usage:     "Remove up to 50 tracks from the library",
				ArgsUsage: "<track> [track...]",
				Action:    r.LibraryRemove,
			},
		},
	}
}

// cacheCommand handles the local track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and clear the local track cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached tracks",
				Flags: append(outputFlags(), &cli.StringFlag{
					Name:  "isrc",
					Usage: "Only list tracks with this ISRC",
				}, marketFlag(), &cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Usage:   "Maximum number of rows (0 lists all)",
				}),
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cached track",
				Action: r.CacheClear,
			},
		},
	}
}

// apiCommand handles direct Web API calls
func apiCommand(r *Runner) *cli.Command {
	requestFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "Query parameter as key=value (repeatable)",
			},
			prettyFlag(),
		}
	}
	bodyFlags := func() []cli.Flag {
		return append(requestFlags(),
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "JSON body to send",
			},
			&cli.StringSliceFlag{
				Name:  "form",
				Usage: "Form field as key=value, sent url-encoded (repeatable)",
			},
		)
	}

	return &cli.Command{
		Name:  "api",
		Usage: "Direct Web API calls, prints the response body",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path relative to the API base URL",
				ArgsUsage: "<path>",
				Flags:     requestFlags(),
				Action:    r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST with a JSON or form body",
				ArgsUsage: "<path>",
				Flags:     bodyFlags(),
				Action:    r.APIPost,
			},
			{
				Name:      "put",
				Usage:     "PUT with a JSON or form body",
				ArgsUsage: "<path>",
				Flags:     bodyFlags(),
				Action:    r.APIPut,
			},
			{
				Name:      "delete",
				Usage:     "DELETE with an optional JSON body",
				ArgsUsage: "<path>",
				Flags:     bodyFlags(),
				Action:    r.APIDelete,
			},
		},
	}
}
