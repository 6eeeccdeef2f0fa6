package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitedeploy.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Deploy  DeployCmd  `cmd:"" default:"withargs" help:"Build the site and publish it to the remote target"`
	Build   BuildCmd   `cmd:"" help:"Build the site without publishing"`
	Publish PublishCmd `cmd:"" help:"Publish the existing output tree without rebuilding"`
	Image   ImageCmd   `cmd:"" help:"Assemble a self-contained serving image from the site"`
	Daemon  DaemonCmd  `cmd:"" help:"Run continuously, deploying on source changes or a schedule"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Status  StatusCmd  `cmd:"" help:"Show recent deploy runs"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
