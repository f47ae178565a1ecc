// Package command provides CLI command definitions for varmesh-cli.
//
// It uses urfave/cli/v2 for command parsing.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/varmesh-go/internal/cli/connection"
	"github.com/yndnr/varmesh-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "varmesh-cli",
		Usage:   "varmesh command-line management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RequestCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "varmesh server address (host:port or unix:///path)",
			EnvVars: []string{"VARMESH_SERVER"},
			Value:   "localhost:5390",
		},
		&cli.BoolFlag{
			Name:    "compact",
			Aliases: []string{"c"},
			Usage:   "Print results without indentation",
		},
	}
}

// clientFor builds a client from the global flags.
func clientFor(c *cli.Context) *connection.Client {
	return connection.New(c.String("server"))
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
