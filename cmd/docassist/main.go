package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docassist",
		Usage: "classify, summarize and rename documents with an LLM",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file (overrides environment)",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:  "upload-dir",
				Usage: "directory holding uploaded and renamed files",
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "listen port"},
				},
			},
			{
				Name:      "analyze",
				Usage:     "process local files and print the outcomes as JSON",
				ArgsUsage: "FILE...",
				Action:    analyzeAction,
			},
			{
				Name:   "watch",
				Usage:  "process every document dropped into the inbox directory",
				Action: watchAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "inbox", Usage: "directory to watch"},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
